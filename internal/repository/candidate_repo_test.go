package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

func setupCandidateTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Candidate{}, &models.Setting{}))
	return db
}

func TestCandidateRepositoryFindOrCreateByEmail(t *testing.T) {
	db := setupCandidateTestDB(t)
	repo := NewCandidateRepository(db)
	ctx := context.Background()

	created, err := repo.FindOrCreateByEmail(ctx, "dana@example.com", "Dana")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	again, err := repo.FindOrCreateByEmail(ctx, "dana@example.com", "")
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)
	require.Equal(t, "Dana", again.FullName)

	renamed, err := repo.FindOrCreateByEmail(ctx, "dana@example.com", "Dana Q.")
	require.NoError(t, err)
	require.Equal(t, created.ID, renamed.ID)
	require.Equal(t, "Dana Q.", renamed.FullName)
}

func TestSettingRepositorySetAndGet(t *testing.T) {
	db := setupCandidateTestDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, models.SettingCalendlyLink)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Set(ctx, models.SettingCalendlyLink, "https://calendly.com/acme/intro"))

	value, err := repo.Get(ctx, models.SettingCalendlyLink)
	require.NoError(t, err)
	require.Equal(t, "https://calendly.com/acme/intro", value)

	require.NoError(t, repo.Set(ctx, models.SettingCalendlyLink, "https://calendly.com/acme/final"))

	value, err = repo.Get(ctx, models.SettingCalendlyLink)
	require.NoError(t, err)
	require.Equal(t, "https://calendly.com/acme/final", value)
}
