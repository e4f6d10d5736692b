package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", Validation("Both links must be from the same channel."), "❌ Both links must be from the same channel."},
		{"size limit wrapped by oops", oops.With("message_id", 5).Wrap(SizeLimit("too big")), "❌ too big"},
		{"peer", fmt.Errorf("resolve: %w", ErrPeerUnavailable), "Make sure the user client is part of the chat."},
		{"generic", fmt.Errorf("boom"), "❌ boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestKindsUnwrap(t *testing.T) {
	assert.True(t, Is(Validation("x"), ErrValidation))
	assert.True(t, Is(SizeLimit("x"), ErrSizeLimitExceeded))
	assert.False(t, Is(Validation("x"), ErrSizeLimitExceeded))
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(fmt.Errorf("download: %w", context.Canceled)))
	assert.False(t, IsCancelled(ErrTransientFetch))
}

func TestReported(t *testing.T) {
	err := Reported(SizeLimit("too big"))

	assert.True(t, IsReported(err))
	assert.True(t, Is(err, ErrSizeLimitExceeded))
	assert.True(t, IsReported(oops.With("job_id", "j").Wrap(err)))
	assert.False(t, IsReported(ErrTransientFetch))
	assert.Nil(t, Reported(nil))
}
