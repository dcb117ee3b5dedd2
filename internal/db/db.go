// Package db provides the PostgreSQL-backed implementations of the engine's
// storage contracts: candidates, interview slots and the activity log.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

// DB wraps a PostgreSQL connection pool and implements engine.CandidateStore,
// engine.SlotStore and engine.ActivityLog.
type DB struct {
	pool *pgxpool.Pool

	// activityCapacity bounds the activity_log table; rows beyond it are
	// moved to activity_archive on append.
	activityCapacity int
}

var (
	_ engine.CandidateStore = (*DB)(nil)
	_ engine.SlotStore      = (*DB)(nil)
	_ engine.ActivityLog    = (*DB)(nil)
	_ engine.AtomicStore    = (*DB)(nil)
)

// queryRunner is the subset of pgxpool.Pool and pgx.Tx the store methods use.
type queryRunner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// runner returns the transaction bound to ctx by InTx, or the pool.
func (db *DB) runner(ctx context.Context) queryRunner {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.pool
}

// InTx runs fn with every store call on the received context in a single
// transaction. Nested calls join the outer transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return &engine.StorageError{Op: "begin transaction", Cause: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &engine.StorageError{Op: "commit transaction", Cause: err}
	}
	return nil
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string, activityCapacity int) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if activityCapacity <= 0 {
		activityCapacity = engine.DefaultActivityCapacity
	}
	return &DB{pool: pool, activityCapacity: activityCapacity}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the engine's tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			department TEXT NOT NULL DEFAULT '',
			major TEXT NOT NULL DEFAULT '',
			gpa DOUBLE PRECISION NOT NULL DEFAULT 0,
			ai_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			stage TEXT NOT NULL DEFAULT 'pending',
			tags TEXT[] NOT NULL DEFAULT '{}',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			tombstoned BOOLEAN NOT NULL DEFAULT FALSE,
			version BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS interview_slots (
			id UUID PRIMARY KEY,
			candidate_id UUID NOT NULL,
			interviewer_id UUID NOT NULL,
			start_at TIMESTAMPTZ NOT NULL,
			duration_seconds BIGINT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'medium',
			status TEXT NOT NULL DEFAULT 'scheduled',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interview_slots_interviewer ON interview_slots (interviewer_id)`,
		`CREATE TABLE IF NOT EXISTS activity_log (
			seq BIGSERIAL PRIMARY KEY,
			id UUID NOT NULL,
			actor_id UUID NOT NULL,
			actor_name TEXT NOT NULL DEFAULT '',
			actor_role TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			entity_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS activity_archive (
			seq BIGINT PRIMARY KEY,
			id UUID NOT NULL,
			actor_id UUID NOT NULL,
			actor_name TEXT NOT NULL DEFAULT '',
			actor_role TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			entity_id UUID,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
