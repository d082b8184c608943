package store

import (
	"context"
	"testing"

	"github.com/notekeeper/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	created, err := repo.Create(ctx, types.User{Name: "Alice123", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byEmail, err := repo.GetByEmail(ctx, "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserRepository_RejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	_, err := repo.Create(ctx, types.User{Email: "a@x.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryUserRepository_UpdateKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	created, err := repo.Create(ctx, types.User{Name: "Alice123", Email: "a@x.com", Federated: true, Provider: "google"})
	require.NoError(t, err)

	created.Name = "Alice Renamed"
	created.Federated = false
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", updated.Name)
	assert.True(t, updated.Federated)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = repo.Update(ctx, types.User{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryNoteRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNoteRepository()

	first, err := repo.Create(ctx, types.Note{UserID: "u1", Title: "First"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.Note{UserID: "u2", Title: "Other"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, types.Note{UserID: "u1", Title: "Second"})
	require.NoError(t, err)

	notes, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, []string{notes[0].ID, notes[1].ID})

	first.Tag = "Work"
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Work", updated.Tag)
	assert.Equal(t, "u1", updated.UserID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), ErrNotFound)

	empty, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
