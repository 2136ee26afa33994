package repository

import (
	"context"
	"testing"

	"traveler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	session := &models.Session{IsLoggedIn: true, Username: "alice", Email: "a@x.com"}
	require.NoError(t, repo.Save(ctx, session))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	// Stored value is a copy.
	got.Username = "mallory"
	again, _ := repo.Get(ctx)
	assert.Equal(t, "alice", again.Username)

	require.NoError(t, repo.Clear(ctx))
	got, _ = repo.Get(ctx)
	assert.Nil(t, got)
}
