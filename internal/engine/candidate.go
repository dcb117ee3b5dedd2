// Package engine implements the candidate pipeline and interview scheduling
// engine: stage transitions, slot allocation, and the activity log behind them.
package engine

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies a candidate's position in the recruiting pipeline.
type Stage string

const (
	StagePending          Stage = "pending"
	StagePendingInterview Stage = "pending_interview"
	StageInterviewing     Stage = "interviewing"
	StagePassed           Stage = "passed"
	StageRejected         Stage = "rejected"
)

// ParseStage converts a raw string into a Stage.
// Returns a ValidationError for anything outside the closed set.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StagePending, StagePendingInterview, StageInterviewing, StagePassed, StageRejected:
		return Stage(s), nil
	}
	return "", &ValidationError{Field: "stage", Message: "unknown stage: " + s}
}

// Priority is the scheduling priority of an interview slot.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a raw string into a Priority. Empty input defaults to medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", &ValidationError{Field: "priority", Message: "unknown priority: " + s}
}

// SlotStatus is the lifecycle state of an interview slot.
type SlotStatus string

const (
	SlotScheduled SlotStatus = "scheduled"
	SlotCompleted SlotStatus = "completed"
	SlotCancelled SlotStatus = "cancelled"
)

// Candidate is a pipeline entry. Profile fields (name, department, major, GPA,
// AI score) are computed upstream and read-only here; the engine only mutates
// Stage, Tags, Tombstoned and Version.
type Candidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Department  string    `json:"department,omitempty"`
	Major       string    `json:"major,omitempty"`
	GPA         float64   `json:"gpa,omitempty"`
	AIScore     float64   `json:"ai_score,omitempty"`
	Stage       Stage     `json:"stage"`
	Tags        []string  `json:"tags,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Tombstoned  bool      `json:"tombstoned,omitempty"`

	// Version increments by exactly 1 per successful mutation and drives
	// optimistic concurrency in the store.
	Version int64 `json:"version"`
}

// InterviewSlot is a booked interview occupying an interviewer's time range.
// The occupied interval is half-open: [Start, Start+Duration).
type InterviewSlot struct {
	ID            uuid.UUID     `json:"id"`
	CandidateID   uuid.UUID     `json:"candidate_id"`
	InterviewerID uuid.UUID     `json:"interviewer_id"`
	Start         time.Time     `json:"start"`
	Duration      time.Duration `json:"duration"`
	Location      string        `json:"location,omitempty"`
	Priority      Priority      `json:"priority"`
	Status        SlotStatus    `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// End returns the exclusive end of the slot's interval.
func (s *InterviewSlot) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Overlaps reports whether two slots occupy intersecting intervals.
// Back-to-back slots (one's end equals the other's start) do not overlap.
func (s *InterviewSlot) Overlaps(other *InterviewSlot) bool {
	return s.Start.Before(other.End()) && other.Start.Before(s.End())
}

// Actor identifies the authenticated staff member performing a mutation.
// It is always passed in explicitly; the engine never reads ambient session state.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// ActivityEntry is one immutable record in the append-only activity log.
type ActivityEntry struct {
	ID     uuid.UUID `json:"id"`
	Actor  Actor     `json:"actor"`
	Action string    `json:"action"`

	// EntityID references the affected candidate or slot, uuid.Nil if none.
	EntityID  uuid.UUID `json:"entity_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Seq is the insertion sequence number, assigned by the log. It breaks
	// ties between entries with equal timestamps.
	Seq uint64 `json:"seq"`
}

// ActivityPage is one page of activity entries, most recent first.
type ActivityPage struct {
	Items   []ActivityEntry `json:"items"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
}
