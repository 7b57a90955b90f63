package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in a map. It is the fallback when no database
// is configured and the store used throughout the tests.
type MemoryStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]GameRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[uuid.UUID]GameRecord)}
}

func (s *MemoryStore) CreateGame(ctx context.Context, rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[rec.ID]; ok {
		return fmt.Errorf("create game %s: already exists", rec.ID)
	}
	s.games[rec.ID] = rec
	return nil
}

func (s *MemoryStore) UpdateGame(ctx context.Context, rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[rec.ID]; !ok {
		return fmt.Errorf("update game %s: no such game", rec.ID)
	}
	s.games[rec.ID] = rec
	return nil
}

func (s *MemoryStore) LoadActiveGames(ctx context.Context) ([]GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []GameRecord
	for _, rec := range s.games {
		if rec.Stage != 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *MemoryStore) Close() {}

// Get returns the stored record for id, for test assertions.
func (s *MemoryStore) Get(id uuid.UUID) (GameRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[id]
	return rec, ok
}
