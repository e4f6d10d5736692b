package thumbnail

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/workspace"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/samber/oops"
)

const (
	DefaultBinary  = "ffmpeg"
	DefaultTimeout = 60 * time.Second
	// unknownDurationSeek is used when the video duration could not be probed.
	unknownDurationSeek = 3
)

// Fetcher downloads the thumbnail the platform already has for a message.
type Fetcher interface {
	DownloadThumbnail(ctx context.Context, msg *domain.Message, path string) error
}

// Resolver picks a video thumbnail: the platform one when available, a generated frame otherwise.
type Resolver struct {
	fetcher Fetcher
	runner  command.Runner
	ws      *workspace.Workspace
	binary  string
	timeout time.Duration
	threads int
	logger  *slog.Logger
}

// New creates a resolver. fetcher may be nil, in which case thumbnails are always generated.
func New(fetcher Fetcher, runner command.Runner, ws *workspace.Workspace, binary string, logger *slog.Logger) *Resolver {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher: fetcher,
		runner:  runner,
		ws:      ws,
		binary:  binary,
		timeout: DefaultTimeout,
		threads: max(runtime.NumCPU()/2, 1),
		logger:  logger,
	}
}

// WithTimeout overrides the frame extraction ceiling.
func (r *Resolver) WithTimeout(d time.Duration) *Resolver {
	r.timeout = d
	return r
}

// Resolve always returns a usable handle; failures degrade to NoThumbnail.
func (r *Resolver) Resolve(ctx context.Context, jobID string, msg *domain.Message, videoPath string, duration int) (handle domain.ThumbnailHandle) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Thumbnail resolution panicked", "job_id", jobID, "message_id", msg.ID, "panic", rec)
			handle = domain.NoThumbnail()
		}
	}()

	if h, ok := r.reuse(ctx, jobID, msg); ok {
		return h
	}
	return r.generate(ctx, jobID, msg.ID, videoPath, duration)
}

func (r *Resolver) reuse(ctx context.Context, jobID string, msg *domain.Message) (domain.ThumbnailHandle, bool) {
	if r.fetcher == nil || !msg.HasThumbnail {
		return domain.ThumbnailHandle{}, false
	}

	path := r.ws.ThumbPath(jobID, msg.ID, domain.ThumbnailOriginReused.String())
	if err := r.fetcher.DownloadThumbnail(ctx, msg, path); err != nil {
		r.logger.Warn("Failed to download platform thumbnail", "job_id", jobID, "message_id", msg.ID, "error", err)
		_ = workspace.Remove(path)
		return domain.ThumbnailHandle{}, false
	}
	if !workspace.Exists(path) {
		return domain.ThumbnailHandle{}, false
	}

	w, h := dimensions(path)
	r.logger.Info("Using existing Telegram thumbnail", "job_id", jobID, "message_id", msg.ID)
	return domain.ThumbnailHandle{Path: path, Width: w, Height: h, Origin: domain.ThumbnailOriginReused}, true
}

func (r *Resolver) generate(ctx context.Context, jobID string, messageID int, videoPath string, duration int) domain.ThumbnailHandle {
	out := r.ws.ThumbPath(jobID, messageID, domain.ThumbnailOriginGenerated.String())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.runner.Run(ctx, r.binary,
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.Itoa(SeekOffset(duration)),
		"-i", videoPath,
		"-vf", "thumbnail",
		"-q:v", "1",
		"-frames:v", "1",
		"-threads", strconv.Itoa(r.threads),
		out,
	)
	if err != nil || res.ExitCode != 0 || !workspace.Exists(out) {
		r.logger.Warn("Error while extracting thumbnail from video",
			"video", videoPath, "exit_code", res.ExitCode, "stderr", string(res.Stderr), "error", err)
		_ = workspace.Remove(out)
		return domain.NoThumbnail()
	}

	w, h := dimensions(out)
	r.logger.Info("Generated new thumbnail", "job_id", jobID, "message_id", messageID)
	return domain.ThumbnailHandle{Path: out, Width: w, Height: h, Origin: domain.ThumbnailOriginGenerated}
}

// SeekOffset is the frame position: the middle of the video, or 3s when the duration is unknown.
func SeekOffset(duration int) int {
	if duration <= 0 {
		return unknownDurationSeek
	}
	return duration / 2
}

// ImageSize decodes only the header of an image file.
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, oops.With("path", path).Wrap(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, oops.With("path", path, "context", "failed to decode image").Wrap(err)
	}
	return cfg.Width, cfg.Height, nil
}

func dimensions(path string) (int, int) {
	w, h, err := ImageSize(path)
	if err != nil || w == 0 || h == 0 {
		return domain.DefaultThumbWidth, domain.DefaultThumbHeight
	}
	return w, h
}
