// Package store persists a best-effort audit trail of completed
// simulation runs. It is explicitly NOT a replay store: the engine
// never reads it back to reproduce a run, and a write failure here
// must never fail the HTTP request that produced the run.
package store

import (
	"context"
	"encoding/json"
	"time"

	"finsim/internal/engine"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// RunStore records a one-row-per-run audit log: seed, horizon, final
// balance, vibe, and collapse outcome, for later analytics queries.
// It never stores the full snapshot trace.
type RunStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *RunStore {
	return &RunStore{pool: pool, log: log}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS simulation_runs (
	id               BIGSERIAL PRIMARY KEY,
	seed             BIGINT NOT NULL,
	horizon_days     INT NOT NULL,
	base_currency    TEXT NOT NULL,
	engine_version   TEXT NOT NULL,
	final_balance    DOUBLE PRECISION NOT NULL,
	collapse_day     INT,
	vibe_state       TEXT NOT NULL,
	pet_state        TEXT NOT NULL,
	computed_at      TIMESTAMPTZ NOT NULL,
	recorded_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	request_digest   JSONB
)`

// EnsureSchema creates the audit table if it does not already exist.
// Called once at server startup; a failure here is logged but not
// fatal, since the HTTP surface degrades gracefully without an audit
// trail.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, createTableSQL)
	return err
}

// RecordRun inserts one audit row for a completed simulation. Errors
// are logged and swallowed: a failed audit write must never surface as
// a failed /simulate response.
func (s *RunStore) RecordRun(ctx context.Context, out engine.SimulationOutput, requestDigest interface{}) {
	if s == nil || s.pool == nil {
		return
	}

	digest, err := json.Marshal(requestDigest)
	if err != nil {
		digest = []byte("null")
	}

	finalBalance, _ := out.FinalBalance.Expected.Float64()

	const insertSQL = `
INSERT INTO simulation_runs
	(seed, horizon_days, base_currency, engine_version, final_balance, collapse_day, vibe_state, pet_state, computed_at, request_digest)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, insertSQL,
		out.Seed, out.HorizonDays, out.BaseCurrency, out.EngineVersion,
		finalBalance, out.CollapseDay, string(out.VibeState), string(out.PetState),
		out.ComputedAt, digest,
	)
	if err != nil && s.log != nil {
		s.log.Warn("failed to record simulation run audit trail", zap.Error(err))
	}
}

// RecordAsync fires RecordRun on its own goroutine with a bounded
// timeout so a slow database never adds latency to the HTTP response
// that already has its result.
func (s *RunStore) RecordAsync(out engine.SimulationOutput, requestDigest interface{}) {
	if s == nil || s.pool == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.RecordRun(ctx, out, requestDigest)
	}()
}
