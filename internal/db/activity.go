package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

// AppendActivity inserts one log entry and archives rows beyond the configured
// capacity. Oldest rows move to activity_archive rather than being dropped.
func (db *DB) AppendActivity(ctx context.Context, e engine.ActivityEntry) (*engine.ActivityEntry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var entityID *uuid.UUID
	if e.EntityID != uuid.Nil {
		entityID = &e.EntityID
	}
	err := db.runner(ctx).QueryRow(ctx,
		`INSERT INTO activity_log (id, actor_id, actor_name, actor_role, action, entity_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq`,
		e.ID, e.Actor.ID, e.Actor.Name, e.Actor.Role, e.Action, entityID, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return nil, &engine.StorageError{Op: "append activity", Cause: err}
	}

	_, err = db.runner(ctx).Exec(ctx,
		`WITH evicted AS (
			DELETE FROM activity_log
			WHERE seq <= (SELECT MAX(seq) FROM activity_log) - $1
			RETURNING seq, id, actor_id, actor_name, actor_role, action, entity_id, created_at
		)
		INSERT INTO activity_archive (seq, id, actor_id, actor_name, actor_role, action, entity_id, created_at)
		SELECT seq, id, actor_id, actor_name, actor_role, action, entity_id, created_at FROM evicted
		ON CONFLICT (seq) DO NOTHING`,
		db.activityCapacity)
	if err != nil {
		return nil, &engine.StorageError{Op: "archive activity", Cause: err}
	}
	return &e, nil
}

// ListActivity returns one page of entries, newest first with the seq
// tie-break on equal timestamps.
func (db *DB) ListActivity(ctx context.Context, page, pageSize int) (*engine.ActivityPage, error) {
	if page < 1 {
		return nil, &engine.ValidationError{Field: "page", Message: "page must be >= 1"}
	}
	if pageSize < 1 {
		return nil, &engine.ValidationError{Field: "page_size", Message: "page size must be >= 1"}
	}

	var total int
	if err := db.runner(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&total); err != nil {
		return nil, &engine.StorageError{Op: "list activity", Cause: err}
	}

	rows, err := db.runner(ctx).Query(ctx,
		`SELECT seq, id, actor_id, actor_name, actor_role, action, entity_id, created_at
		 FROM activity_log
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, &engine.StorageError{Op: "list activity", Cause: err}
	}
	defer rows.Close()

	items := []engine.ActivityEntry{}
	for rows.Next() {
		var e engine.ActivityEntry
		var entityID *uuid.UUID
		if err := rows.Scan(&e.Seq, &e.ID, &e.Actor.ID, &e.Actor.Name, &e.Actor.Role,
			&e.Action, &entityID, &e.CreatedAt); err != nil {
			return nil, &engine.StorageError{Op: "list activity", Cause: err}
		}
		if entityID != nil {
			e.EntityID = *entityID
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.StorageError{Op: "list activity", Cause: err}
	}

	return &engine.ActivityPage{
		Items:   items,
		Total:   total,
		HasMore: (page-1)*pageSize+len(items) < total,
	}, nil
}
