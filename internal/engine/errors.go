package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError indicates malformed or missing input, caught before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NotFoundError indicates a referenced candidate or slot does not exist
// (or has been tombstoned).
type NotFoundError struct {
	Kind string // "candidate" or "slot"
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvalidTransitionError indicates a stage edge outside the transition table.
type InvalidTransitionError struct {
	CandidateID uuid.UUID
	From        Stage
	To          Stage
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid stage transition for candidate %s: %s -> %s", e.CandidateID, e.From, e.To)
}

// ConflictError indicates an optimistic-concurrency loss or an interview time
// overlap. ResourceID names the colliding resource so callers can decide how
// to retry.
type ConflictError struct {
	Resource   string // "candidate" or "slot"
	ResourceID uuid.UUID
	Message    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Resource, e.ResourceID, e.Message)
}

// StorageError indicates a failure in the storage collaborator. Fatal for the
// request; the engine never retries it internally.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
