package database

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GameRecord is the durable snapshot of one game: identity, roster and the
// full event log. Players and Events are JSON payloads; Stage uses the
// engine's integer codes so active games can be selected in SQL.
type GameRecord struct {
	ID       uuid.UUID
	JoinCode string
	Players  []byte
	Stage    int
	Events   []byte
}

// Store persists game records. Implementations must make CreateGame and
// UpdateGame safe for concurrent use; each game serializes its own writes
// but distinct games write in parallel.
type Store interface {
	// CreateGame inserts a new game record.
	CreateGame(ctx context.Context, rec GameRecord) error
	// UpdateGame overwrites the record for rec.ID.
	UpdateGame(ctx context.Context, rec GameRecord) error
	// LoadActiveGames returns every record whose stage is not FINISHED.
	LoadActiveGames(ctx context.Context) ([]GameRecord, error)
	// Close releases the underlying connections.
	Close()
}

// Connect opens the store selected by DB_DRIVER: "postgres" (the default
// when DATABASE_URL is set) or "sqlite". With neither configured it falls
// back to an in-memory store, which loses all games on restart.
func Connect(ctx context.Context, log *logrus.Logger) (Store, error) {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" && os.Getenv("DATABASE_URL") != "" {
		driver = "postgres"
	}

	switch driver {
	case "postgres":
		url := os.Getenv("DATABASE_URL")
		if url == "" {
			return nil, fmt.Errorf("DB_DRIVER=postgres requires DATABASE_URL")
		}
		return ConnectPostgres(ctx, url)
	case "sqlite":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "mahjong.db"
		}
		return ConnectSqlite(ctx, path)
	case "":
		log.Warn("no DB_DRIVER configured, using in-memory store; games will not survive a restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}
