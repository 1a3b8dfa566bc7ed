package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardclash/battle-sim/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS replays (
	game_id     TEXT PRIMARY KEY,
	seed        TEXT NOT NULL,
	winner      TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	total_turns INTEGER NOT NULL,
	actions     INTEGER NOT NULL,
	checksum    TEXT NOT NULL,
	body        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertReplay = `
INSERT INTO replays (game_id, seed, winner, reason, total_turns, actions, checksum, body)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (game_id) DO UPDATE SET
	seed = EXCLUDED.seed,
	winner = EXCLUDED.winner,
	reason = EXCLUDED.reason,
	total_turns = EXCLUDED.total_turns,
	actions = EXCLUDED.actions,
	checksum = EXCLUDED.checksum,
	body = EXCLUDED.body`

// querier is the subset of *pgxpool.Pool the sink needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSink stores replays in a PostgreSQL table.
type PostgresSink struct {
	db querier
}

// NewPostgresSink connects to dsn and makes sure the replay table exists.
// The caller closes the returned pool.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	sink := &PostgresSink{db: pool}
	if err := sink.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return sink, pool, nil
}

// Migrate creates the replay table.
func (p *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create replays table: %w", err)
	}
	return nil
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) Store(ctx context.Context, r *game.Replay) (string, error) {
	var body bytes.Buffer
	if err := r.Encode(&body, false); err != nil {
		return "", err
	}
	_, err := p.db.Exec(ctx, upsertReplay,
		r.GameID,
		r.Seed,
		r.Summary.Winner,
		r.Summary.Reason,
		r.Summary.TotalTurns,
		len(r.ActionLog),
		r.Checksum,
		body.Bytes(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert replay %s: %w", r.GameID, err)
	}
	return "postgres://replays/" + r.GameID, nil
}

func (p *PostgresSink) Load(ctx context.Context, gameID string) (*game.Replay, error) {
	var body []byte
	err := p.db.QueryRow(ctx, `SELECT body FROM replays WHERE game_id = $1`, gameID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load replay %s: %w", gameID, err)
	}
	return game.DecodeReplay(bytes.NewReader(body), false)
}

func (p *PostgresSink) List(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `SELECT game_id FROM replays ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list replays: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan replay ids: %w", err)
	}
	return ids, nil
}
