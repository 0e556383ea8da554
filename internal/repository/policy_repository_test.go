package repository

import (
	"context"
	"testing"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"
	"hr_project/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyTitleIsUniqueIgnoringCase(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewPolicyRepository(db)

	require.NoError(t, repo.Create(ctx, &domain.Policy{Title: "Remote Work", IsActive: true}))

	err := repo.Create(ctx, &domain.Policy{Title: "  remote work "})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPolicyUpdateChecksNewTitle(t *testing.T) {
	ctx := context.Background()
	repo := NewPolicyRepository(testutil.NewDB(t))

	leave := &domain.Policy{Title: "Leave", Version: "1"}
	travel := &domain.Policy{Title: "Travel", Version: "1"}
	require.NoError(t, repo.Create(ctx, leave))
	require.NoError(t, repo.Create(ctx, travel))

	_, err := repo.Update(ctx, travel.ID, map[string]any{"title": "LEAVE"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	updated, err := repo.Update(ctx, travel.ID, map[string]any{"title": "Travel", "version": "2"})
	require.NoError(t, err, "keeping its own title is not a conflict")
	assert.Equal(t, "2", updated.Version)

	taken, err := repo.ExistsByTitle(ctx, "leave", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.ExistsByTitle(ctx, "leave", leave.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPolicyFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPolicyRepository(testutil.NewDB(t))

	hr := &domain.Policy{Title: "Code of Conduct", Category: "HR", IsActive: true}
	it := &domain.Policy{Title: "Password Rules", Category: "IT Security", IsActive: false}
	require.NoError(t, repo.Create(ctx, hr))
	require.NoError(t, repo.Create(ctx, it))

	got, err := repo.Filter(ctx, PolicyFilter{Category: "security"}, Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, it.ID, got[0].ID)

	active := true
	got, err = repo.Filter(ctx, PolicyFilter{IsActive: &active}, Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, hr.ID, got[0].ID)

	got, err = repo.Filter(ctx, PolicyFilter{Title: "nothing like this"}, Page{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, repo.Delete(ctx, hr.ID))
	_, err = repo.FindByID(ctx, hr.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(repo.Delete(ctx, hr.ID)))
}
