package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActor() Actor {
	return Actor{ID: uuid.New(), Name: "Alice Staff", Role: "admin"}
}

// brokenActivityLog fails every append, standing in for a storage outage.
type brokenActivityLog struct {
	MemActivityLog
}

func (l *brokenActivityLog) AppendActivity(context.Context, ActivityEntry) (*ActivityEntry, error) {
	return nil, &StorageError{Op: "append activity", Cause: errors.New("connection reset by peer")}
}

func seedCandidate(t *testing.T, store CandidateStore, stage Stage) *Candidate {
	t.Helper()
	c, err := store.CreateCandidate(context.Background(), &Candidate{
		Name:        "Test Candidate",
		Department:  "Engineering",
		Stage:       stage,
		SubmittedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return c
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Stage
		to      Stage
		allowed bool
	}{
		{"pending to pending_interview", StagePending, StagePendingInterview, true},
		{"pending_interview to interviewing", StagePendingInterview, StageInterviewing, true},
		{"interviewing to passed", StageInterviewing, StagePassed, true},
		{"interviewing to rejected", StageInterviewing, StageRejected, true},
		{"interviewing back to pending_interview", StageInterviewing, StagePendingInterview, true},
		{"pending to passed skips stages", StagePending, StagePassed, false},
		{"pending to interviewing skips stages", StagePending, StageInterviewing, false},
		{"pending_interview to passed skips stages", StagePendingInterview, StagePassed, false},
		{"pending_interview back to pending", StagePendingInterview, StagePending, false},
		{"passed is terminal", StagePassed, StageInterviewing, false},
		{"rejected is terminal", StageRejected, StagePendingInterview, false},
		{"self transition", StageInterviewing, StageInterviewing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStageMachine_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("valid transition persists and logs", func(t *testing.T) {
		store := NewMemCandidateStore()
		log := NewMemActivityLog(0)
		machine := NewStageMachine(store, log)
		c := seedCandidate(t, store, StagePending)

		updated, err := machine.Transition(ctx, c.ID, StagePendingInterview, newTestActor())
		require.NoError(t, err)
		assert.Equal(t, StagePendingInterview, updated.Stage)
		assert.Equal(t, c.Version+1, updated.Version)

		page, err := log.ListActivity(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Contains(t, page.Items[0].Action, "moved candidate Test Candidate to pending_interview")
		assert.Equal(t, c.ID, page.Items[0].EntityID)
	})

	t.Run("illegal edge returns InvalidTransitionError and leaves version unchanged", func(t *testing.T) {
		store := NewMemCandidateStore()
		log := NewMemActivityLog(0)
		machine := NewStageMachine(store, log)
		c := seedCandidate(t, store, StagePending)

		_, err := machine.Transition(ctx, c.ID, StagePassed, newTestActor())
		var transitionErr *InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, StagePending, transitionErr.From)
		assert.Equal(t, StagePassed, transitionErr.To)

		fresh, err := store.GetCandidate(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Version, fresh.Version)
		assert.Equal(t, StagePending, fresh.Stage)

		// A failed transition never produces a log entry.
		page, err := log.ListActivity(ctx, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("terminal stages reject all edges", func(t *testing.T) {
		store := NewMemCandidateStore()
		machine := NewStageMachine(store, NewMemActivityLog(0))
		c := seedCandidate(t, store, StagePassed)

		for _, target := range []Stage{StagePending, StagePendingInterview, StageInterviewing, StageRejected} {
			_, err := machine.Transition(ctx, c.ID, target, newTestActor())
			var transitionErr *InvalidTransitionError
			assert.ErrorAs(t, err, &transitionErr)
		}
	})

	t.Run("unknown candidate returns NotFoundError", func(t *testing.T) {
		machine := NewStageMachine(NewMemCandidateStore(), NewMemActivityLog(0))

		_, err := machine.Transition(ctx, uuid.New(), StagePendingInterview, newTestActor())
		var notFoundErr *NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, "candidate", notFoundErr.Kind)
	})

	t.Run("failed log append restores the previous stage", func(t *testing.T) {
		store := NewMemCandidateStore()
		machine := NewStageMachine(store, &brokenActivityLog{})
		c := seedCandidate(t, store, StagePending)

		_, err := machine.Transition(ctx, c.ID, StagePendingInterview, newTestActor())
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)

		fresh, err := store.GetCandidate(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, StagePending, fresh.Stage)
	})

	t.Run("interviewing can bounce back to pending_interview", func(t *testing.T) {
		store := NewMemCandidateStore()
		machine := NewStageMachine(store, NewMemActivityLog(0))
		c := seedCandidate(t, store, StageInterviewing)

		updated, err := machine.Transition(ctx, c.ID, StagePendingInterview, newTestActor())
		require.NoError(t, err)
		assert.Equal(t, StagePendingInterview, updated.Stage)
	})
}

func TestParseStage(t *testing.T) {
	t.Run("accepts all five stages", func(t *testing.T) {
		for _, s := range []string{"pending", "pending_interview", "interviewing", "passed", "rejected"} {
			stage, err := ParseStage(s)
			require.NoError(t, err)
			assert.Equal(t, Stage(s), stage)
		}
	})

	t.Run("rejects unknown vocabulary", func(t *testing.T) {
		_, err := ParseStage("to_be_scheduled")
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}
