package service

import (
	"context"
	"testing"
	"time"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/history/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/history/repository"
	mediaDomain "github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	repo, err := repository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return New(repo)
}

func TestRecordAndRecent(t *testing.T) {
	svc := newService(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		svc.Record(context.Background(), domain.Record{
			Chat:      "news",
			MessageID: i,
			Kind:      mediaDomain.MediaKindPhoto,
			RelayedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	recent, err := svc.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].MessageID)
	assert.Equal(t, 2, recent[1].MessageID)
	assert.NotEmpty(t, recent[0].ID)

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	since, err := svc.Since(base.Add(90 * time.Second))
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestRecordFillsTimestamp(t *testing.T) {
	svc := newService(t)
	fixed := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.Record(context.Background(), domain.Record{Chat: "c", MessageID: 1})

	recent, err := svc.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, fixed.Equal(recent[0].RelayedAt))
}

func TestEmptyHistory(t *testing.T) {
	svc := newService(t)

	recent, err := svc.Recent(50)
	require.NoError(t, err)
	assert.Empty(t, recent)

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
