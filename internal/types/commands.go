// Package types provides the validated command structs accepted at the
// boundary of the recruit-pipeline engine.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AdvanceStageCommand moves a candidate along the pipeline.
type AdvanceStageCommand struct {
	CandidateID uuid.UUID `json:"candidate_id" validate:"required"`
	TargetStage string    `json:"target_stage" validate:"required,oneof=pending pending_interview interviewing passed rejected"`
}

// BookInterviewCommand schedules an interview slot.
type BookInterviewCommand struct {
	CandidateID     uuid.UUID `json:"candidate_id" validate:"required"`
	InterviewerID   uuid.UUID `json:"interviewer_id" validate:"required"`
	Start           time.Time `json:"start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	Location        string    `json:"location,omitempty"`
	Priority        string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

// RescheduleInterviewCommand moves an existing slot to a new time.
type RescheduleInterviewCommand struct {
	SlotID          uuid.UUID `json:"slot_id" validate:"required"`
	NewStart        time.Time `json:"new_start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
}

// CancelInterviewCommand cancels a scheduled slot.
type CancelInterviewCommand struct {
	SlotID uuid.UUID `json:"slot_id" validate:"required"`
}

// CompleteInterviewCommand marks a scheduled slot completed.
type CompleteInterviewCommand struct {
	SlotID uuid.UUID `json:"slot_id" validate:"required"`
}

// BatchDeleteCommand tombstones a set of candidates, all-or-nothing.
type BatchDeleteCommand struct {
	CandidateIDs []uuid.UUID `json:"candidate_ids" validate:"required,min=1"`
}

// ActivityQuery selects one page of the activity log.
type ActivityQuery struct {
	Page     int `json:"page" validate:"gte=1"`
	PageSize int `json:"page_size" validate:"gte=1,lte=100"`
}

// Validate validates the AdvanceStageCommand using the validator.
func (c *AdvanceStageCommand) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Validate validates the BookInterviewCommand using the validator.
func (c *BookInterviewCommand) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Validate validates the RescheduleInterviewCommand using the validator.
func (c *RescheduleInterviewCommand) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Validate validates the CancelInterviewCommand using the validator.
func (c *CancelInterviewCommand) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Validate validates the CompleteInterviewCommand using the validator.
func (c *CompleteInterviewCommand) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Validate validates the BatchDeleteCommand using the validator.
func (c *BatchDeleteCommand) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Validate validates the ActivityQuery using the validator.
func (q *ActivityQuery) Validate() error {
	validate := validator.New()
	return validate.Struct(q)
}
