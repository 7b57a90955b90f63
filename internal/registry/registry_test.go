package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthistle/mahjong-back/engine"
	"github.com/jthistle/mahjong-back/internal/database"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestCreateAndLookup(t *testing.T) {
	reg := New(database.NewMemoryStore(), testLogger())
	g, err := reg.Create(context.Background())
	require.NoError(t, err)

	byID, err := reg.Get(g.ID)
	require.NoError(t, err)
	assert.Same(t, g, byID)

	byCode, err := reg.GetByCode(g.JoinCode())
	require.NoError(t, err)
	assert.Same(t, g, byCode)

	_, err = reg.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.GetByCode("NOCODE")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, reg.Len())
}

func TestCreateRegeneratesCollidingCode(t *testing.T) {
	reg := New(database.NewMemoryStore(), testLogger())
	ctx := context.Background()

	first, err := reg.Create(ctx)
	require.NoError(t, err)

	// Force the generator to hand out the live game's code before a fresh one.
	codes := []string{first.JoinCode(), "FRESHY"}
	reg.newCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	second, err := reg.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FRESHY", second.JoinCode())
	assert.NotEqual(t, first.JoinCode(), second.JoinCode())

	// Both codes still resolve, and evicting one leaves the other intact.
	byCode, err := reg.GetByCode(first.JoinCode())
	require.NoError(t, err)
	assert.Same(t, first, byCode)

	reg.Evict(second.ID)
	byCode, err = reg.GetByCode(first.JoinCode())
	require.NoError(t, err)
	assert.Same(t, first, byCode)
}

func TestEvict(t *testing.T) {
	store := database.NewMemoryStore()
	reg := New(store, testLogger())
	g, err := reg.Create(context.Background())
	require.NoError(t, err)

	reg.Evict(g.ID)
	_, err = reg.Get(g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.GetByCode(g.JoinCode())
	assert.ErrorIs(t, err, ErrNotFound)

	// Eviction is in-memory only: the durable record survives.
	_, ok := store.Get(g.ID)
	assert.True(t, ok)

	// Evicting twice is harmless.
	reg.Evict(g.ID)
}

func TestLoadRestoresActiveGames(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()

	// Seed the store through a first registry generation.
	first := New(store, testLogger())
	g, err := first.Create(ctx)
	require.NoError(t, err)
	for _, h := range []string{"a", "b", "c", "d"} {
		require.NoError(t, g.AddPlayer(ctx, h, h))
	}
	require.NoError(t, g.NewRound(ctx))

	finished, err := first.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, finished.FinishGame(ctx))

	// A fresh registry restores only the unfinished game.
	reg := New(store, testLogger())
	require.NoError(t, reg.Load(ctx))
	assert.Equal(t, 1, reg.Len())

	restored, err := reg.Get(g.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StagePlay, restored.Stage())
	assert.Len(t, restored.Players(), 4)

	byCode, err := reg.GetByCode(g.JoinCode())
	require.NoError(t, err)
	assert.Same(t, restored, byCode)
}

func TestLoadSkipsCorruptRecord(t *testing.T) {
	store := database.NewMemoryStore()
	require.NoError(t, store.CreateGame(context.Background(), database.GameRecord{
		ID:       uuid.New(),
		JoinCode: "BADBAD",
		Stage:    int(engine.StagePregame),
		Events:   []byte(`[{"type":"NOT_AN_EVENT","time":1}]`),
	}))

	reg := New(store, testLogger())
	require.NoError(t, reg.Load(context.Background()))
	assert.Equal(t, 0, reg.Len())
}
