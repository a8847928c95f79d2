package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMemoryRoundTrip(t *testing.T) {
	repo := NewSessionMemory(time.Hour)
	ctx := context.Background()

	session := &entity.Session{ID: "s1", Section: "OPMGT 301 A", ParticipantID: "42"}
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.True(t, errors.Is(err, entity.ErrSessionNotFound))
}

func TestSessionMemoryUnknownID(t *testing.T) {
	repo := NewSessionMemory(time.Hour)

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, entity.ErrSessionNotFound))
}
