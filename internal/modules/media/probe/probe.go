package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const DefaultBinary = "ffprobe"

// Prober reads container metadata with ffprobe.
type Prober struct {
	runner command.Runner
	binary string
	logger *slog.Logger
}

// New creates a prober. An empty binary selects ffprobe from PATH.
func New(runner command.Runner, binary string, logger *slog.Logger) *Prober {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{runner: runner, binary: binary, logger: logger}
}

// Probe never fails: any problem yields the zero MediaInfo and a log line.
func (p *Prober) Probe(ctx context.Context, path string) domain.MediaInfo {
	res, err := p.runner.Run(ctx, p.binary,
		"-hide_banner",
		"-loglevel", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	if err != nil {
		p.logger.Error("Media probe failed", "path", path, "error", err)
		return domain.MediaInfo{}
	}
	if res.ExitCode != 0 || len(bytes.TrimSpace(res.Stdout)) == 0 {
		p.logger.Error("Media probe returned no data", "path", path, "exit_code", res.ExitCode, "stderr", string(res.Stderr))
		return domain.MediaInfo{}
	}

	info, err := Parse(res.Stdout)
	if err != nil {
		p.logger.Info("Media probe output not usable", "path", path, "error", err)
		return domain.MediaInfo{}
	}
	return info
}

type output struct {
	Format *struct {
		Duration flexFloat         `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

// Parse decodes ffprobe's -show_format JSON.
func Parse(data []byte) (domain.MediaInfo, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.MediaInfo{}, oops.With("context", "invalid probe output").Wrapf(errors.ErrToolFailure, "%v", err)
	}
	if out.Format == nil {
		return domain.MediaInfo{}, oops.With("context", "missing format object").Wrap(errors.ErrToolFailure)
	}

	return domain.MediaInfo{
		Duration: int(math.Round(float64(out.Format.Duration))),
		Artist:   tag(out.Format.Tags, "artist"),
		Title:    tag(out.Format.Tags, "title"),
	}, nil
}

func tag(tags map[string]string, name string) string {
	if v, ok := tags[name]; ok && v != "" {
		return v
	}
	key, ok := lo.Find(lo.Keys(tags), func(k string) bool {
		return strings.EqualFold(k, name) && tags[k] != ""
	})
	if !ok {
		return ""
	}
	return tags[key]
}

// flexFloat accepts both "12.6" and 12.6.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || s == "N/A" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
