package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	result command.Result
	err    error
	name   string
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (command.Result, error) {
	f.name = name
	f.args = args
	return f.result, f.err
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name   string
		result command.Result
		err    error
		want   domain.MediaInfo
	}{
		{
			name:   "duration and tags",
			result: command.Result{Stdout: []byte(`{"format":{"duration":"12.6","tags":{"artist":"A","title":"T"}}}`)},
			want:   domain.MediaInfo{Duration: 13, Artist: "A", Title: "T"},
		},
		{
			name:   "upper case tags and numeric duration",
			result: command.Result{Stdout: []byte(`{"format":{"duration":245.2,"tags":{"ARTIST":"Band","Title":"Song"}}}`)},
			want:   domain.MediaInfo{Duration: 245, Artist: "Band", Title: "Song"},
		},
		{
			name:   "no tags",
			result: command.Result{Stdout: []byte(`{"format":{"duration":"3.4"}}`)},
			want:   domain.MediaInfo{Duration: 3},
		},
		{
			name:   "no duration",
			result: command.Result{Stdout: []byte(`{"format":{"tags":{"title":"T"}}}`)},
			want:   domain.MediaInfo{Title: "T"},
		},
		{
			name:   "no format key",
			result: command.Result{Stdout: []byte(`{"streams":[]}`)},
			want:   domain.MediaInfo{},
		},
		{
			name:   "malformed output",
			result: command.Result{Stdout: []byte(`{"format":`)},
			want:   domain.MediaInfo{},
		},
		{
			name:   "empty output",
			result: command.Result{},
			want:   domain.MediaInfo{},
		},
		{
			name:   "non zero exit",
			result: command.Result{Stdout: []byte(`{"format":{"duration":"5"}}`), ExitCode: 1},
			want:   domain.MediaInfo{},
		},
		{
			name: "launch failure",
			err:  errors.New("exec: ffprobe: not found"),
			want: domain.MediaInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result, err: tt.err}
			p := New(runner, "", nil)

			got := p.Probe(context.Background(), "/tmp/video.mp4")

			assert.Equal(t, tt.want, got)
			assert.Equal(t, "ffprobe", runner.name)
			assert.Equal(t, "/tmp/video.mp4", runner.args[len(runner.args)-1])
			assert.Contains(t, runner.args, "-show_format")
		})
	}
}

func TestParseRejectsMissingFormat(t *testing.T) {
	_, err := Parse([]byte(`{}`))
	require.Error(t, err)
}
