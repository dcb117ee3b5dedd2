package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/recruit-pipeline/internal/types"
)

// Pipeline is the public facade composing the stage machine, scheduler and
// activity log for boundary callers. It validates command shape before any
// component is touched; component errors pass through unchanged so the
// boundary can map them to status codes.
type Pipeline struct {
	candidates CandidateStore
	stages     *StageMachine
	scheduler  *InterviewScheduler
	log        ActivityLog
}

// NewPipeline wires a facade over the given stores and log.
func NewPipeline(candidates CandidateStore, slots SlotStore, log ActivityLog) *Pipeline {
	stages := NewStageMachine(candidates, log)
	return &Pipeline{
		candidates: candidates,
		stages:     stages,
		scheduler:  NewInterviewScheduler(stages, slots, log),
		log:        log,
	}
}

// GetCandidate returns one active candidate.
func (p *Pipeline) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	if id == uuid.Nil {
		return nil, &ValidationError{Field: "candidate_id", Message: "candidate id is required"}
	}
	return p.candidates.GetCandidate(ctx, id)
}

// ListCandidates returns the active (non-tombstoned) candidate view.
func (p *Pipeline) ListCandidates(ctx context.Context) ([]*Candidate, error) {
	return p.candidates.ListCandidates(ctx)
}

// AdvanceStage moves a candidate to the command's target stage.
func (p *Pipeline) AdvanceStage(ctx context.Context, actor Actor, cmd types.AdvanceStageCommand) (*Candidate, error) {
	if err := cmd.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	target, err := ParseStage(cmd.TargetStage)
	if err != nil {
		return nil, err
	}
	return p.stages.Transition(ctx, cmd.CandidateID, target, actor)
}

// BookInterview allocates an interview slot, advancing the candidate to
// interviewing.
func (p *Pipeline) BookInterview(ctx context.Context, actor Actor, cmd types.BookInterviewCommand) (*InterviewSlot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	priority, err := ParsePriority(cmd.Priority)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(cmd.DurationMinutes) * time.Minute
	return p.scheduler.Book(ctx, cmd.CandidateID, cmd.InterviewerID, cmd.Start, duration, cmd.Location, priority, actor)
}

// RescheduleInterview moves a slot to a new time, no-op on conflict.
func (p *Pipeline) RescheduleInterview(ctx context.Context, actor Actor, cmd types.RescheduleInterviewCommand) (*InterviewSlot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	duration := time.Duration(cmd.DurationMinutes) * time.Minute
	return p.scheduler.Reschedule(ctx, cmd.SlotID, cmd.NewStart, duration, actor)
}

// CancelInterview cancels a scheduled slot without touching the candidate's stage.
func (p *Pipeline) CancelInterview(ctx context.Context, actor Actor, cmd types.CancelInterviewCommand) error {
	if err := cmd.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return p.scheduler.Cancel(ctx, cmd.SlotID, actor)
}

// CompleteInterview marks a scheduled slot completed.
func (p *Pipeline) CompleteInterview(ctx context.Context, actor Actor, cmd types.CompleteInterviewCommand) error {
	if err := cmd.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return p.scheduler.Complete(ctx, cmd.SlotID, actor)
}

// BatchDeleteCandidates tombstones the command's candidates as a set. Each
// deleted candidate stays referenced in the activity log by id.
func (p *Pipeline) BatchDeleteCandidates(ctx context.Context, actor Actor, cmd types.BatchDeleteCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, &ValidationError{Message: err.Error()}
	}

	count, err := p.candidates.BatchDelete(ctx, cmd.CandidateIDs)
	if err != nil {
		return 0, err
	}
	for _, id := range cmd.CandidateIDs {
		if _, err := p.log.AppendActivity(ctx, ActivityEntry{
			Actor:    actor,
			Action:   fmt.Sprintf("deleted candidate %s", id),
			EntityID: id,
		}); err != nil {
			return count, err
		}
	}
	return count, nil
}

// RecentActivity returns one page of the activity log, newest first.
func (p *Pipeline) RecentActivity(ctx context.Context, q types.ActivityQuery) (*ActivityPage, error) {
	if err := q.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return p.log.ListActivity(ctx, q.Page, q.PageSize)
}

// ListInterviewerSlots returns an interviewer's slots in [from, to), ascending
// by start time.
func (p *Pipeline) ListInterviewerSlots(ctx context.Context, interviewerID uuid.UUID, from, to time.Time) ([]*InterviewSlot, error) {
	if interviewerID == uuid.Nil {
		return nil, &ValidationError{Field: "interviewer_id", Message: "interviewer id is required"}
	}
	return p.scheduler.ListByInterviewer(ctx, interviewerID, from, to)
}
