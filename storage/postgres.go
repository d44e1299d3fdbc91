package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS room_settings (
	room_id    TEXT PRIMARY KEY,
	game_mode  TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists room settings in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the room_settings
// table exists. If databaseURL is empty, it returns (nil, nil) and callers
// should fall back to the in-memory store.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// GetMode returns the persisted mode for a room, or "" when none is stored.
func (s *PostgresStore) GetMode(ctx context.Context, roomID string) (string, error) {
	var mode string
	err := s.pool.QueryRow(ctx,
		`SELECT game_mode FROM room_settings WHERE room_id = $1`, roomID).Scan(&mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return mode, nil
}

// SetMode upserts the room's resolved mode.
func (s *PostgresStore) SetMode(ctx context.Context, roomID, mode string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_settings (room_id, game_mode, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (room_id) DO UPDATE SET game_mode = $2, updated_at = now()`,
		roomID, mode)
	return err
}

// ClearRoom removes all persisted settings for a vacated room.
func (s *PostgresStore) ClearRoom(ctx context.Context, roomID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM room_settings WHERE room_id = $1`, roomID)
	return err
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
