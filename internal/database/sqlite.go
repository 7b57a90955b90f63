package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS games (
	id        TEXT PRIMARY KEY,
	join_code TEXT NOT NULL,
	players   TEXT NOT NULL DEFAULT '[]',
	stage     INTEGER NOT NULL,
	events    TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS games_stage_idx ON games (stage);
`

// SqliteStore is the single-node alternative to Postgres, using the pure-Go
// sqlite driver. Suitable for development and small deployments.
type SqliteStore struct {
	db *sql.DB
}

// ConnectSqlite opens (creating if needed) the database at path and ensures
// the schema exists.
func ConnectSqlite(ctx context.Context, path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent game updates.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) CreateGame(ctx context.Context, rec GameRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, join_code, players, stage, events)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.JoinCode, string(rec.Players), rec.Stage, string(rec.Events))
	if err != nil {
		return fmt.Errorf("create game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SqliteStore) UpdateGame(ctx context.Context, rec GameRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET join_code = ?, players = ?, stage = ?, events = ?
		WHERE id = ?`,
		rec.JoinCode, string(rec.Players), rec.Stage, string(rec.Events), rec.ID.String())
	if err != nil {
		return fmt.Errorf("update game %s: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update game %s: no such game", rec.ID)
	}
	return nil
}

func (s *SqliteStore) LoadActiveGames(ctx context.Context) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, join_code, players, stage, events
		FROM games WHERE stage <> 0`)
	if err != nil {
		return nil, fmt.Errorf("load active games: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var (
			rec     GameRecord
			id      string
			players string
			events  string
		)
		if err := rows.Scan(&id, &rec.JoinCode, &players, &rec.Stage, &events); err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse game id %q: %w", id, err)
		}
		rec.Players = []byte(players)
		rec.Events = []byte(events)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SqliteStore) Close() {
	s.db.Close()
}
