package console

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owner int64

func (o owner) IsOwner(id int64) bool { return int64(o) == id }

type recordingRunner struct {
	args   []string
	result command.Result
	err    error
	block  bool
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	r.args = append([]string{name}, args...)
	if r.block {
		<-ctx.Done()
		return command.Result{ExitCode: -1}, ctx.Err()
	}
	return r.result, r.err
}

func TestRunRefusesNonOwner(t *testing.T) {
	runner := &recordingRunner{}
	e := New(runner, owner(1), 0, nil)

	_, err := e.Run(context.Background(), 2, "ls")

	assert.ErrorIs(t, err, errors.ErrForbidden)
	assert.Nil(t, runner.args)
}

func TestRunExpandsAliasAndRecordsHistory(t *testing.T) {
	runner := &recordingRunner{result: command.Result{Stdout: []byte("Already up to date.\n"), PID: 12}}
	e := New(runner, owner(1), 0, nil)

	res, err := e.Run(context.Background(), 1, "update")

	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c", "git pull"}, runner.args)
	assert.Equal(t, "Already up to date.", res.Stdout)
	assert.Equal(t, 12, res.PID)
	assert.Equal(t, []string{"git pull"}, e.History())
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	runner := &recordingRunner{
		result: command.Result{Stderr: []byte("no such file"), ExitCode: 2},
		err:    fmt.Errorf("sh exited with code 2"),
	}
	e := New(runner, owner(1), 0, nil)

	res, err := e.Run(context.Background(), 1, "ls /missing")

	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "no such file", res.Stderr)
}

func TestRunTimeout(t *testing.T) {
	e := New(&recordingRunner{block: true}, owner(1), 10*time.Millisecond, nil)

	_, err := e.Run(context.Background(), 1, "sleep 100")

	assert.ErrorIs(t, err, errors.ErrValidation)
	assert.Contains(t, errors.UserMessage(err), "Timeout")
	assert.Empty(t, e.History())
}

func TestHistoryKeepsLatest(t *testing.T) {
	e := New(&recordingRunner{}, owner(1), 0, nil)
	for i := 0; i < HistorySize+5; i++ {
		_, err := e.Run(context.Background(), 1, fmt.Sprintf("echo %d", i))
		require.NoError(t, err)
	}

	h := e.History()
	require.Len(t, h, HistorySize)
	assert.Equal(t, "echo 29", h[0])
	assert.Equal(t, "echo 5", h[len(h)-1])
}

func TestFormat(t *testing.T) {
	out := Format(Result{Command: "echo <hi>", Stdout: "<hi>", PID: 3})

	assert.Contains(t, out, "<code>echo &lt;hi&gt;</code>")
	assert.Contains(t, out, "😂")
	assert.Contains(t, out, "<code>&lt;hi&gt;</code>")
	assert.False(t, TooLong(out))
	assert.True(t, TooLong(strings.Repeat("x", MaxMessageLength+1)))
	assert.Len(t, Caption(strings.Repeat("y", 5000)), MaxMessageLength/4-1)
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "<b>Command History:</b>\n<b>1.</b> <code>b</code>\n<b>2.</b> <code>a</code>", FormatHistory([]string{"b", "a"}))
}
