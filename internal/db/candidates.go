package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

const candidateColumns = `id, name, department, major, gpa, ai_score, stage, tags, submitted_at, tombstoned, version`

func scanCandidate(row pgx.Row) (*engine.Candidate, error) {
	var c engine.Candidate
	var stage string
	err := row.Scan(&c.ID, &c.Name, &c.Department, &c.Major, &c.GPA, &c.AIScore,
		&stage, &c.Tags, &c.SubmittedAt, &c.Tombstoned, &c.Version)
	if err != nil {
		return nil, err
	}
	c.Stage = engine.Stage(stage)
	return &c, nil
}

// GetCandidate returns one active candidate.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*engine.Candidate, error) {
	row := db.runner(ctx).QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 AND NOT tombstoned`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &engine.NotFoundError{Kind: "candidate", ID: id}
	}
	if err != nil {
		return nil, &engine.StorageError{Op: "get candidate", Cause: err}
	}
	return c, nil
}

// ListCandidates returns all active candidates, oldest submission first.
func (db *DB) ListCandidates(ctx context.Context) ([]*engine.Candidate, error) {
	rows, err := db.runner(ctx).Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE NOT tombstoned ORDER BY submitted_at ASC`)
	if err != nil {
		return nil, &engine.StorageError{Op: "list candidates", Cause: err}
	}
	defer rows.Close()

	var out []*engine.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, &engine.StorageError{Op: "list candidates", Cause: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.StorageError{Op: "list candidates", Cause: err}
	}
	return out, nil
}

// CreateCandidate inserts a new candidate at version 1.
func (db *DB) CreateCandidate(ctx context.Context, c *engine.Candidate) (*engine.Candidate, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := *c
	stored.Version = 1
	tags := stored.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := db.runner(ctx).Exec(ctx,
		`INSERT INTO candidates (id, name, department, major, gpa, ai_score, stage, tags, submitted_at, tombstoned, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, 1)`,
		stored.ID, stored.Name, stored.Department, stored.Major, stored.GPA, stored.AIScore,
		string(stored.Stage), tags, stored.SubmittedAt)
	if err != nil {
		return nil, &engine.StorageError{Op: "create candidate", Cause: err}
	}
	return &stored, nil
}

// CompareAndSwap applies mutate to the candidate's current state and writes the
// result only if nobody advanced the version since. The version check rides on
// the UPDATE's WHERE clause, so the swap is a single atomic statement.
func (db *DB) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate engine.Mutator) (*engine.Candidate, error) {
	current, err := db.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, &engine.ConflictError{
			Resource:   "candidate",
			ResourceID: id,
			Message:    "version mismatch, re-read and retry",
		}
	}

	next, err := mutate(*current)
	if err != nil {
		return nil, err
	}
	next.ID = id
	next.Version = expectedVersion + 1
	tags := next.Tags
	if tags == nil {
		tags = []string{}
	}

	tag, err := db.runner(ctx).Exec(ctx,
		`UPDATE candidates
		 SET stage = $1, tags = $2, tombstoned = $3, version = $4
		 WHERE id = $5 AND version = $6 AND NOT tombstoned`,
		string(next.Stage), tags, next.Tombstoned, next.Version, id, expectedVersion)
	if err != nil {
		return nil, &engine.StorageError{Op: "compare and swap", Cause: err}
	}
	if tag.RowsAffected() == 0 {
		// Someone else won the race between our read and write.
		return nil, &engine.ConflictError{
			Resource:   "candidate",
			ResourceID: id,
			Message:    "version mismatch, re-read and retry",
		}
	}
	return &next, nil
}

// BatchDelete tombstones the given candidates in one transaction. Any missing
// or already-tombstoned id aborts the whole batch.
func (db *DB) BatchDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, &engine.StorageError{Op: "batch delete", Cause: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	rows, err := tx.Query(ctx,
		`SELECT id FROM candidates WHERE id = ANY($1) AND NOT tombstoned FOR UPDATE`, ids)
	if err != nil {
		return 0, &engine.StorageError{Op: "batch delete", Cause: err}
	}
	found := make(map[uuid.UUID]bool, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, &engine.StorageError{Op: "batch delete", Cause: err}
		}
		found[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, &engine.StorageError{Op: "batch delete", Cause: err}
	}
	for _, id := range ids {
		if !found[id] {
			return 0, &engine.NotFoundError{Kind: "candidate", ID: id}
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE candidates SET tombstoned = TRUE, version = version + 1 WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, &engine.StorageError{Op: "batch delete", Cause: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, &engine.StorageError{Op: "batch delete", Cause: err}
	}
	return len(ids), nil
}
