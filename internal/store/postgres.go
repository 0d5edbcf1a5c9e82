package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mapsync/server/internal/editor/state"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	room       TEXT PRIMARY KEY,
	revision   UUID NOT NULL,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores document snapshots as JSONB rows, one per room. Every
// save stamps a fresh revision id.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the documents table if it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Load reads the snapshot for a room.
func (p *Postgres) Load(ctx context.Context, room string) (state.DocumentSnapshot, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT snapshot FROM documents WHERE room = $1`, room,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return state.DocumentSnapshot{}, ErrNotFound
	}
	if err != nil {
		return state.DocumentSnapshot{}, fmt.Errorf("store: load %q: %w", room, err)
	}
	var snapshot state.DocumentSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return state.DocumentSnapshot{}, fmt.Errorf("store: decode %q: %w", room, err)
	}
	return snapshot, nil
}

// Save upserts the snapshot for a room under a new revision.
func (p *Postgres) Save(ctx context.Context, room string, snapshot state.DocumentSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", room, err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO documents (room, revision, snapshot, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (room) DO UPDATE
		 SET revision = EXCLUDED.revision,
		     snapshot = EXCLUDED.snapshot,
		     updated_at = now()`,
		room, uuid.New(), raw,
	)
	if err != nil {
		return fmt.Errorf("store: save %q: %w", room, err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
