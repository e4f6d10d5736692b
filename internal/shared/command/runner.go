package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/samber/oops"
)

// Result is the captured outcome of one subprocess run.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	PID      int
}

// Runner executes external tools. Implementations must honour ctx cancellation.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by the local OS.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts name with args and waits for it. A non-zero exit is reported both in
// Result.ExitCode and as an error.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if cmd.Process != nil {
		res.PID = cmd.Process.Pid
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, oops.With("command", name).Wrap(ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, oops.With("command", name, "exit_code", res.ExitCode, "stderr", string(res.Stderr)).Wrapf(err, "%s exited with code %d", name, res.ExitCode)
	}
	res.ExitCode = -1
	return res, oops.With("command", name).Wrapf(err, "failed to start %s", name)
}
