package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := GameRecord{
		ID:       uuid.New(),
		JoinCode: "ABCDEF",
		Players:  []byte(`[]`),
		Stage:    1,
		Events:   []byte(`[]`),
	}
	require.NoError(t, store.CreateGame(ctx, rec))
	assert.Error(t, store.CreateGame(ctx, rec), "duplicate create must fail")

	rec.Stage = 2
	rec.Events = []byte(`[{"type":"ROUND_START","time":1}]`)
	require.NoError(t, store.UpdateGame(ctx, rec))

	got, ok := store.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Stage)
	assert.Equal(t, rec.Events, got.Events)

	assert.Error(t, store.UpdateGame(ctx, GameRecord{ID: uuid.New()}),
		"updating a missing game must fail")
}

func TestMemoryStoreLoadActiveGames(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	active := GameRecord{ID: uuid.New(), JoinCode: "AAAAAA", Stage: 2}
	finished := GameRecord{ID: uuid.New(), JoinCode: "BBBBBB", Stage: 0}
	require.NoError(t, store.CreateGame(ctx, active))
	require.NoError(t, store.CreateGame(ctx, finished))

	records, err := store.LoadActiveGames(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, active.ID, records[0].ID)
}
