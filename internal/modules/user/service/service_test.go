package service

import (
	"testing"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/user/repository"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		name    string
		owner   int64
		allowed []int64
		user    int64
		want    bool
	}{
		{"open bot", 0, nil, 42, true},
		{"owner", 1, nil, 1, true},
		{"stranger with owner set", 1, nil, 42, false},
		{"allowlisted", 1, []int64{42}, 42, true},
		{"allowlist without owner", 0, []int64{42}, 43, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(nil, tt.owner, tt.allowed)
			assert.Equal(t, tt.want, svc.IsAuthorized(tt.user))
		})
	}
}

func TestIsOwner(t *testing.T) {
	assert.False(t, New(nil, 0, nil).IsOwner(0))
	assert.True(t, New(nil, 7, nil).IsOwner(7))
	assert.False(t, New(nil, 7, []int64{8}).IsOwner(8))
}

func TestTouchKeepsFirstSeen(t *testing.T) {
	repo, err := repository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	svc := New(repo, 7, nil)

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	_, err = svc.Touch(7, "owner", "Olga")
	require.NoError(t, err)

	later := first.Add(time.Hour)
	svc.now = func() time.Time { return later }
	user, err := svc.Touch(7, "owner2", "Olga")
	require.NoError(t, err)

	assert.True(t, first.Equal(user.AddedAt))
	assert.True(t, later.Equal(user.LastSeen))
	assert.Equal(t, "owner2", user.Username)
	assert.True(t, user.IsOwner)

	total, active, err := svc.Activity(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, active)
}

func TestActivityWindow(t *testing.T) {
	repo, err := repository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	svc := New(repo, 0, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []int64{1, 2, 3} {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * 12 * time.Hour) }
		_, err := svc.Touch(id, "", "")
		require.NoError(t, err)
	}

	svc.now = func() time.Time { return base.Add(30 * time.Hour) }
	total, active, err := svc.Activity(24 * time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, active)
}

func TestTouchSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewFileStorage(dir)
	require.NoError(t, err)
	_, err = New(repo, 0, nil).Touch(5, "five", "")
	require.NoError(t, err)

	reopened, err := repository.NewFileStorage(dir)
	require.NoError(t, err)
	user, err := reopened.Get(5)
	require.NoError(t, err)
	assert.Equal(t, "five", user.Username)

	_, err = reopened.Get(404)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}
