package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

var (
	ErrMissingBotToken = stderrors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingAPICreds = stderrors.New("API_ID and API_HASH environment variables are required")
	ErrForbidden       = stderrors.New("operation is restricted to the owner")
	ErrUserNotFound    = stderrors.New("user not found")
	ErrTemplateMissing = stderrors.New("template file not found")
	ErrSessionNotReady = stderrors.New("user session is not authorized, run the login command first")
)

// Failure taxonomy of the relay pipeline.
var (
	ErrValidation        = stderrors.New("validation error")
	ErrSizeLimitExceeded = stderrors.New("size limit exceeded")
	ErrTransientFetch    = stderrors.New("transient fetch failure")
	ErrPeerUnavailable   = stderrors.New("peer unavailable")
	ErrToolFailure       = stderrors.New("tool failure")
	ErrCancelled         = stderrors.New("cancelled")
)

// userError is an error whose text is meant to be shown to the requesting user as-is.
type userError struct {
	kind error
	text string
}

func (e *userError) Error() string { return e.text }
func (e *userError) Unwrap() error { return e.kind }

// Validation returns an ErrValidation carrying a user-facing message.
func Validation(format string, args ...any) error {
	return &userError{kind: ErrValidation, text: fmt.Sprintf(format, args...)}
}

// SizeLimit returns an ErrSizeLimitExceeded carrying a user-facing message.
func SizeLimit(format string, args ...any) error {
	return &userError{kind: ErrSizeLimitExceeded, text: fmt.Sprintf(format, args...)}
}

// IsCancelled reports whether err is a cooperative cancellation rather than a failure.
func IsCancelled(err error) bool {
	return stderrors.Is(err, ErrCancelled) || stderrors.Is(err, context.Canceled)
}

// UserMessage renders err as the reply a chat user sees.
func UserMessage(err error) string {
	var ue *userError
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &ue):
		return "❌ " + ue.text
	case stderrors.Is(err, ErrPeerUnavailable):
		return "Make sure the user client is part of the chat."
	case stderrors.Is(err, ErrForbidden):
		return "❌ You are not allowed to use this command."
	default:
		return "❌ " + err.Error()
	}
}

// Is and As are re-exported so callers can import a single errors package.
func Is(err, target error) bool { return stderrors.Is(err, target) }
func As(err error, target any) bool { return stderrors.As(err, target) }
func Join(errs ...error) error      { return stderrors.Join(errs...) }

// reportedError marks an error the user has already been told about.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported wraps err so upper layers log it without replying a second time.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already surfaced to the user.
func IsReported(err error) bool {
	var re *reportedError
	return stderrors.As(err, &re)
}
