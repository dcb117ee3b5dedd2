package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// stageEdges is the closed transition table. passed and rejected are terminal;
// interviewing -> pending_interview is the one permitted backward edge (failed
// round, needs rescheduling).
var stageEdges = map[Stage][]Stage{
	StagePending:          {StagePendingInterview},
	StagePendingInterview: {StageInterviewing},
	StageInterviewing:     {StagePassed, StageRejected, StagePendingInterview},
	StagePassed:           {},
	StageRejected:         {},
}

// CanTransition reports whether from -> to is a permitted stage edge.
func CanTransition(from, to Stage) bool {
	for _, next := range stageEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StageMachine validates and applies stage transitions for single candidates.
// Each successful transition is exactly one store write plus one log append;
// a failed write produces no log entry.
type StageMachine struct {
	store CandidateStore
	log   ActivityLog
}

// NewStageMachine creates a stage machine over the given store and log.
func NewStageMachine(store CandidateStore, log ActivityLog) *StageMachine {
	return &StageMachine{store: store, log: log}
}

// Transition moves the candidate to target if the edge is permitted.
// Returns InvalidTransitionError for illegal edges (leaving the candidate
// untouched) and ConflictError if a concurrent writer won the version race.
func (m *StageMachine) Transition(ctx context.Context, candidateID uuid.UUID, target Stage, actor Actor) (*Candidate, error) {
	current, err := m.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Stage, target) {
		return nil, &InvalidTransitionError{CandidateID: candidateID, From: current.Stage, To: target}
	}

	var updated *Candidate
	err = inTx(ctx, m.store, func(ctx context.Context) error {
		updated, err = m.store.CompareAndSwap(ctx, candidateID, current.Version, func(c Candidate) (Candidate, error) {
			// Revalidate inside the swap; the stage may have moved since the read.
			if !CanTransition(c.Stage, target) {
				return c, &InvalidTransitionError{CandidateID: candidateID, From: c.Stage, To: target}
			}
			c.Stage = target
			return c, nil
		})
		if err != nil {
			return err
		}

		if _, err := m.log.AppendActivity(ctx, ActivityEntry{
			Actor:    actor,
			Action:   fmt.Sprintf("moved candidate %s to %s", updated.Name, target),
			EntityID: updated.ID,
		}); err != nil {
			m.revertStage(ctx, updated, current.Stage)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// interviewEligible verifies the candidate exists and has a path to
// interviewing, without writing anything. Booking resolves this before the
// slot conflict scan so a candidate error is never masked by a time conflict.
func (m *StageMachine) interviewEligible(ctx context.Context, candidateID uuid.UUID) error {
	current, err := m.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	stage := current.Stage
	if stage == StageInterviewing {
		return nil
	}
	if stage == StagePending {
		stage = StagePendingInterview
	}
	if !CanTransition(stage, StageInterviewing) {
		return &InvalidTransitionError{CandidateID: candidateID, From: current.Stage, To: StageInterviewing}
	}
	return nil
}

// revertStage restores a candidate's previous stage after a later write in the
// same unit failed. A lost version race leaves the newer state in place.
func (m *StageMachine) revertStage(ctx context.Context, c *Candidate, prev Stage) {
	_, _ = m.store.CompareAndSwap(ctx, c.ID, c.Version, func(cur Candidate) (Candidate, error) {
		cur.Stage = prev
		return cur, nil
	})
}

// beginInterview walks the candidate to interviewing as a single atomic write,
// applying the implicit pending -> pending_interview edge when booking from
// pending. It returns the stage the candidate held before the write; a
// candidate already interviewing is returned unchanged so callers skip the
// stage log entry.
func (m *StageMachine) beginInterview(ctx context.Context, candidateID uuid.UUID) (*Candidate, Stage, error) {
	current, err := m.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, "", err
	}
	if current.Stage == StageInterviewing {
		return current, StageInterviewing, nil
	}

	updated, err := m.store.CompareAndSwap(ctx, candidateID, current.Version, func(c Candidate) (Candidate, error) {
		stage := c.Stage
		if stage == StagePending {
			if !CanTransition(stage, StagePendingInterview) {
				return c, &InvalidTransitionError{CandidateID: candidateID, From: stage, To: StagePendingInterview}
			}
			stage = StagePendingInterview
		}
		if !CanTransition(stage, StageInterviewing) {
			return c, &InvalidTransitionError{CandidateID: candidateID, From: c.Stage, To: StageInterviewing}
		}
		c.Stage = StageInterviewing
		return c, nil
	})
	if err != nil {
		return nil, "", err
	}
	return updated, current.Stage, nil
}
