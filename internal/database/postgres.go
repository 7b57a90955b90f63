package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id        UUID PRIMARY KEY,
	join_code TEXT NOT NULL,
	players   JSONB NOT NULL DEFAULT '[]',
	stage     INT NOT NULL,
	events    JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS games_stage_idx ON games (stage) WHERE stage <> 0;
`

// PostgresStore backs the game registry with a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool against url and ensures the schema exists.
func ConnectPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateGame(ctx context.Context, rec GameRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO games (id, join_code, players, stage, events)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.JoinCode, rec.Players, rec.Stage, rec.Events)
	if err != nil {
		return fmt.Errorf("create game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateGame(ctx context.Context, rec GameRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE games SET join_code = $2, players = $3, stage = $4, events = $5
		WHERE id = $1`,
		rec.ID, rec.JoinCode, rec.Players, rec.Stage, rec.Events)
	if err != nil {
		return fmt.Errorf("update game %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update game %s: no such game", rec.ID)
	}
	return nil
}

func (s *PostgresStore) LoadActiveGames(ctx context.Context) ([]GameRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, join_code, players, stage, events
		FROM games WHERE stage <> 0`)
	if err != nil {
		return nil, fmt.Errorf("load active games: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var rec GameRecord
		if err := rows.Scan(&rec.ID, &rec.JoinCode, &rec.Players, &rec.Stage, &rec.Events); err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
