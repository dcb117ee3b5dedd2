package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

const slotColumns = `id, candidate_id, interviewer_id, start_at, duration_seconds, location, priority, status, created_at`

func scanSlot(row pgx.Row) (*engine.InterviewSlot, error) {
	var s engine.InterviewSlot
	var durationSeconds int64
	var priority, status string
	err := row.Scan(&s.ID, &s.CandidateID, &s.InterviewerID, &s.Start, &durationSeconds,
		&s.Location, &priority, &status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Duration = time.Duration(durationSeconds) * time.Second
	s.Priority = engine.Priority(priority)
	s.Status = engine.SlotStatus(status)
	return &s, nil
}

// GetSlot returns one interview slot.
func (db *DB) GetSlot(ctx context.Context, id uuid.UUID) (*engine.InterviewSlot, error) {
	row := db.runner(ctx).QueryRow(ctx,
		`SELECT `+slotColumns+` FROM interview_slots WHERE id = $1`, id)
	s, err := scanSlot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &engine.NotFoundError{Kind: "slot", ID: id}
	}
	if err != nil {
		return nil, &engine.StorageError{Op: "get slot", Cause: err}
	}
	return s, nil
}

// CreateSlot inserts a new interview slot.
func (db *DB) CreateSlot(ctx context.Context, s *engine.InterviewSlot) (*engine.InterviewSlot, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := db.runner(ctx).Exec(ctx,
		`INSERT INTO interview_slots (id, candidate_id, interviewer_id, start_at, duration_seconds, location, priority, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.CandidateID, s.InterviewerID, s.Start, int64(s.Duration/time.Second),
		s.Location, string(s.Priority), string(s.Status), s.CreatedAt)
	if err != nil {
		return nil, &engine.StorageError{Op: "create slot", Cause: err}
	}
	out := *s
	return &out, nil
}

// UpdateSlot overwrites an existing slot's mutable fields.
func (db *DB) UpdateSlot(ctx context.Context, s *engine.InterviewSlot) (*engine.InterviewSlot, error) {
	tag, err := db.runner(ctx).Exec(ctx,
		`UPDATE interview_slots
		 SET start_at = $1, duration_seconds = $2, location = $3, priority = $4, status = $5
		 WHERE id = $6`,
		s.Start, int64(s.Duration/time.Second), s.Location, string(s.Priority), string(s.Status), s.ID)
	if err != nil {
		return nil, &engine.StorageError{Op: "update slot", Cause: err}
	}
	if tag.RowsAffected() == 0 {
		return nil, &engine.NotFoundError{Kind: "slot", ID: s.ID}
	}
	out := *s
	return &out, nil
}

// SlotsByInterviewer returns every slot held by the interviewer.
func (db *DB) SlotsByInterviewer(ctx context.Context, interviewerID uuid.UUID) ([]*engine.InterviewSlot, error) {
	rows, err := db.runner(ctx).Query(ctx,
		`SELECT `+slotColumns+` FROM interview_slots WHERE interviewer_id = $1`, interviewerID)
	if err != nil {
		return nil, &engine.StorageError{Op: "slots by interviewer", Cause: err}
	}
	defer rows.Close()

	var out []*engine.InterviewSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, &engine.StorageError{Op: "slots by interviewer", Cause: err}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.StorageError{Op: "slots by interviewer", Cause: err}
	}
	return out, nil
}
