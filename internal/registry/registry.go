package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jthistle/mahjong-back/internal/database"
	"github.com/jthistle/mahjong-back/internal/game"
)

// ErrNotFound means no live game matches the given id or join code.
var ErrNotFound = errors.New("game not found")

// Registry holds every live game in memory, indexed by id and join code.
// The store remains the durable source; the registry is rebuilt from it on
// startup and games leave it when the scheduler evicts them.
type Registry struct {
	mu     sync.RWMutex
	games  map[uuid.UUID]*game.Game
	byCode map[string]*game.Game

	store   database.Store
	log     *logrus.Logger
	newCode func() string
}

func New(store database.Store, log *logrus.Logger) *Registry {
	return &Registry{
		games:   make(map[uuid.UUID]*game.Game),
		byCode:  make(map[string]*game.Game),
		store:   store,
		log:     log,
		newCode: game.NewJoinCode,
	}
}

// Load rebuilds the registry from every unfinished game in the store. A
// record whose log fails to replay is skipped with an error logged; one
// corrupt game must not take the server down.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.store.LoadActiveGames(ctx)
	if err != nil {
		return fmt.Errorf("load games: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	loaded := 0
	for _, rec := range records {
		g, err := game.FromRecord(rec, r.store, r.log)
		if err != nil {
			r.log.WithError(err).WithField("game", rec.ID).Error("skipping unloadable game")
			continue
		}
		r.games[g.ID] = g
		r.byCode[g.JoinCode()] = g
		loaded++
	}
	r.log.WithField("count", loaded).Info("games restored from store")
	return nil
}

// Create makes a new game and registers it. The join code is drawn fresh
// until it collides with no live game, so two games never share a code and
// evicting one cannot break the other's lookup.
func (r *Registry) Create(ctx context.Context) (*game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.newCode()
	for _, taken := r.byCode[code]; taken; _, taken = r.byCode[code] {
		code = r.newCode()
	}

	g, err := game.New(ctx, r.store, r.log, code)
	if err != nil {
		return nil, err
	}
	r.games[g.ID] = g
	r.byCode[code] = g
	return g, nil
}

// Get returns the live game with the given id.
func (r *Registry) Get(id uuid.UUID) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// GetByCode returns the live game with the given join code.
func (r *Registry) GetByCode(code string) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// Evict drops a game from the registry. The durable record stays behind.
func (r *Registry) Evict(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return
	}
	delete(r.games, id)
	delete(r.byCode, g.JoinCode())
	r.log.WithField("game", id).Info("game evicted")
}

// Snapshot returns the current set of live games, for the scheduler's
// sweep. The slice is a copy; the games are shared.
func (r *Registry) Snapshot() []*game.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*game.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
