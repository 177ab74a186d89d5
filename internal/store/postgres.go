// internal/store/postgres.go
//
// Postgres-backed document store.
//
// One row per game: (id, version, doc jsonb). Optimistic concurrency is
// a conditional UPDATE on the version column; a lost race touches zero
// rows and surfaces as engine.ErrVersionConflict.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adidanco/scambodia/internal/engine"
)

// Schema for the games table. Applied by Migrate; kept here so the
// store is self-describing.
const schema = `
CREATE TABLE IF NOT EXISTS scambodia_games (
	id         UUID PRIMARY KEY,
	version    BIGINT NOT NULL,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Postgres stores game documents in a single jsonb-backed table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the games table if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate games table: %w", err)
	}
	return nil
}

// Create persists a new document at version 1.
func (p *Postgres) Create(ctx context.Context, g *engine.GameState) (int64, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("marshal game %s: %w", g.GameID, err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO scambodia_games (id, version, doc) VALUES ($1, 1, $2)`,
		g.GameID, raw)
	if err != nil {
		return 0, fmt.Errorf("insert game %s: %w", g.GameID, err)
	}
	return 1, nil
}

// Load returns the document and its version.
func (p *Postgres) Load(ctx context.Context, gameID uuid.UUID) (*engine.GameState, int64, error) {
	var (
		raw     []byte
		version int64
	)
	err := p.pool.QueryRow(ctx,
		`SELECT doc, version FROM scambodia_games WHERE id = $1`,
		gameID).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: game %s", engine.ErrNotFound, gameID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load game %s: %w", gameID, err)
	}
	var g engine.GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, 0, fmt.Errorf("unmarshal game %s: %w", gameID, err)
	}
	return &g, version, nil
}

// CommitIfUnchanged performs the conditional version bump.
func (p *Postgres) CommitIfUnchanged(ctx context.Context, gameID uuid.UUID, expected int64, g *engine.GameState) (int64, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("marshal game %s: %w", gameID, err)
	}
	var newVersion int64
	err = p.pool.QueryRow(ctx,
		`UPDATE scambodia_games
		 SET doc = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3
		 RETURNING version`,
		raw, gameID, expected).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the game is unknown or someone committed first.
		var current int64
		probe := p.pool.QueryRow(ctx,
			`SELECT version FROM scambodia_games WHERE id = $1`, gameID).Scan(&current)
		if errors.Is(probe, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: game %s", engine.ErrNotFound, gameID)
		}
		return 0, fmt.Errorf("%w: game %s at version %d, expected %d", engine.ErrVersionConflict, gameID, current, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("commit game %s: %w", gameID, err)
	}
	return newVersion, nil
}
