package service

import (
	"strings"
	"testing"

	"github.com/reshetovitsme/tg-media-relay/internal/modules/template/domain"
	"github.com/reshetovitsme/tg-media-relay/internal/modules/template/repository"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, repository.Repository) {
	t.Helper()
	repo, err := repository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return New(repo), repo
}

func TestActiveTiers(t *testing.T) {
	svc, repo := newService(t)

	assert.Equal(t, domain.DefaultConfig(), svc.Active())
	assert.Equal(t, domain.OriginDefault, svc.Origin())

	require.NoError(t, repo.Save("from file {bar}"))
	assert.Equal(t, "from file {bar}", svc.Active().Text)
	assert.Equal(t, domain.OriginFile, svc.Origin())

	require.NoError(t, svc.Set("  in memory {eta}  "))
	assert.Equal(t, "in memory {eta}", svc.Active().Text)
	assert.Equal(t, domain.OriginMemory, svc.Origin())
}

func TestSaveAndReset(t *testing.T) {
	svc, repo := newService(t)

	require.NoError(t, svc.Set("custom {percentage}"))
	require.NoError(t, svc.Save())

	stored, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, "custom {percentage}", stored)

	require.NoError(t, svc.Reset())
	assert.Equal(t, domain.DefaultConfig(), svc.Active())
	_, err = repo.Load()
	assert.ErrorIs(t, err, errors.ErrTemplateMissing)

	// resetting twice is harmless
	require.NoError(t, svc.Reset())
}

func TestSetValidation(t *testing.T) {
	svc, _ := newService(t)

	assert.ErrorIs(t, svc.Set("   "), errors.ErrValidation)
	assert.ErrorIs(t, svc.Set(strings.Repeat("x", domain.MaxLength+1)), errors.ErrValidation)
	assert.Equal(t, domain.OriginDefault, svc.Origin())
}
