package console

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/shared/command"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	DefaultTimeout   = 60 * time.Second
	HistorySize      = 25
	MaxMessageLength = 4096
	shell            = "sh"
)

// DefaultAliases expand short commands.
var DefaultAliases = map[string]string{
	"update": "git pull",
}

// Authorizer decides who may run shell commands.
type Authorizer interface {
	IsOwner(userID int64) bool
}

// Result is one shell run.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	PID      int
	Elapsed  time.Duration
}

// Executor runs owner shell commands.
type Executor struct {
	runner  command.Runner
	auth    Authorizer
	aliases map[string]string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	history []string
}

// New creates an executor. A zero timeout means DefaultTimeout.
func New(runner command.Runner, auth Authorizer, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		runner:  runner,
		auth:    auth,
		aliases: DefaultAliases,
		timeout: timeout,
		logger:  logger,
	}
}

// Run executes cmdline through the shell on behalf of caller.
func (e *Executor) Run(ctx context.Context, caller int64, cmdline string) (Result, error) {
	if e.auth == nil || !e.auth.IsOwner(caller) {
		return Result{}, oops.With("caller", caller).Wrap(errors.ErrForbidden)
	}

	cmdline = strings.TrimSpace(cmdline)
	if cmdline == "" {
		return Result{}, errors.Validation("Provide a command after /bash.")
	}
	if alias, ok := e.aliases[cmdline]; ok {
		cmdline = alias
	}

	e.logger.Info("Command executed", "user_id", caller, "command", cmdline)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	res, err := e.runner.Run(ctx, shell, "-c", cmdline)
	out := Result{
		Command:  cmdline,
		Stdout:   strings.TrimSpace(string(res.Stdout)),
		Stderr:   strings.TrimSpace(string(res.Stderr)),
		ExitCode: res.ExitCode,
		PID:      res.PID,
		Elapsed:  time.Since(start),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, errors.Validation("Timeout: the command took too long to execute.")
	}
	if err != nil && res.ExitCode <= 0 {
		return out, oops.With("command", cmdline).Wrap(err)
	}

	e.remember(cmdline)
	return out, nil
}

func (e *Executor) remember(cmdline string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, cmdline)
	if len(e.history) > HistorySize {
		e.history = e.history[len(e.history)-HistorySize:]
	}
}

// History returns executed commands, newest first.
func (e *Executor) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Reverse(append([]string(nil), e.history...))
}

// Format renders a result as HTML for a chat reply.
func Format(r Result) string {
	stderr := lo.Ternary(r.Stderr == "", "😂", r.Stderr)
	stdout := lo.Ternary(r.Stdout == "", "😐", r.Stdout)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>QUERY:</b>\n<u>Command:</u>\n<code>%s</code>\n", html.EscapeString(r.Command))
	fmt.Fprintf(&b, "<u>PID</u>: <code>%d</code>  <u>Exit</u>: <code>%d</code>\n\n", r.PID, r.ExitCode)
	fmt.Fprintf(&b, "<b>stderr</b>: \n<code>%s</code>\n\n", html.EscapeString(stderr))
	fmt.Fprintf(&b, "<b>stdout</b>: \n<code>%s</code>", html.EscapeString(stdout))
	return b.String()
}

// FormatHistory renders a numbered command list, newest first.
func FormatHistory(history []string) string {
	if len(history) == 0 {
		return "<b>Command History:</b>\nempty"
	}
	lines := lo.Map(history, func(cmd string, i int) string {
		return fmt.Sprintf("<b>%d.</b> <code>%s</code>", i+1, html.EscapeString(cmd))
	})
	return "<b>Command History:</b>\n" + strings.Join(lines, "\n")
}

// TooLong reports whether text must be sent as a document.
func TooLong(text string) bool {
	return len(text) > MaxMessageLength
}

// Caption trims a command to fit a document caption.
func Caption(cmdline string) string {
	limit := MaxMessageLength/4 - 1
	if len(cmdline) <= limit {
		return cmdline
	}
	return cmdline[:limit]
}
