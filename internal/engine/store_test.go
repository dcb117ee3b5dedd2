package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMemCandidateStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()

	t.Run("successful swap bumps version by exactly one", func(t *testing.T) {
		store := NewMemCandidateStore()
		c := seedCandidate(t, store, StagePending)

		updated, err := store.CompareAndSwap(ctx, c.ID, c.Version, func(c Candidate) (Candidate, error) {
			c.Stage = StagePendingInterview
			return c, nil
		})
		require.NoError(t, err)
		assert.Equal(t, c.Version+1, updated.Version)
		assert.Equal(t, StagePendingInterview, updated.Stage)
	})

	t.Run("stale version returns ConflictError", func(t *testing.T) {
		store := NewMemCandidateStore()
		c := seedCandidate(t, store, StagePending)

		_, err := store.CompareAndSwap(ctx, c.ID, c.Version, func(c Candidate) (Candidate, error) {
			c.Tags = append(c.Tags, "reviewed")
			return c, nil
		})
		require.NoError(t, err)

		// Second writer still holds the old version.
		_, err = store.CompareAndSwap(ctx, c.ID, c.Version, func(c Candidate) (Candidate, error) {
			c.Tags = append(c.Tags, "starred")
			return c, nil
		})
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, c.ID, conflictErr.ResourceID)
	})

	t.Run("mutator error aborts the write", func(t *testing.T) {
		store := NewMemCandidateStore()
		c := seedCandidate(t, store, StagePending)

		wantErr := &InvalidTransitionError{CandidateID: c.ID, From: StagePending, To: StagePassed}
		_, err := store.CompareAndSwap(ctx, c.ID, c.Version, func(c Candidate) (Candidate, error) {
			return c, wantErr
		})
		assert.ErrorIs(t, err, wantErr)

		fresh, err := store.GetCandidate(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Version, fresh.Version)
	})

	t.Run("unknown candidate returns NotFoundError", func(t *testing.T) {
		store := NewMemCandidateStore()
		_, err := store.CompareAndSwap(ctx, uuid.New(), 1, func(c Candidate) (Candidate, error) {
			return c, nil
		})
		var notFoundErr *NotFoundError
		assert.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("concurrent swaps with the same stale version: exactly one wins", func(t *testing.T) {
		store := NewMemCandidateStore()
		c := seedCandidate(t, store, StagePending)

		const writers = 16
		var successes, conflicts atomic.Int32
		var g errgroup.Group
		for i := 0; i < writers; i++ {
			g.Go(func() error {
				_, err := store.CompareAndSwap(ctx, c.ID, c.Version, func(c Candidate) (Candidate, error) {
					c.Stage = StagePendingInterview
					return c, nil
				})
				if err == nil {
					successes.Add(1)
					return nil
				}
				var conflictErr *ConflictError
				if assert.ErrorAs(t, err, &conflictErr) {
					conflicts.Add(1)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int32(1), successes.Load())
		assert.Equal(t, int32(writers-1), conflicts.Load())

		fresh, err := store.GetCandidate(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Version+1, fresh.Version)
	})
}

func TestMemCandidateStore_BatchDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the whole set", func(t *testing.T) {
		store := NewMemCandidateStore()
		c1 := seedCandidate(t, store, StagePending)
		c2 := seedCandidate(t, store, StageInterviewing)

		count, err := store.BatchDelete(ctx, []uuid.UUID{c1.ID, c2.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		for _, id := range []uuid.UUID{c1.ID, c2.ID} {
			_, err := store.GetCandidate(ctx, id)
			var notFoundErr *NotFoundError
			assert.ErrorAs(t, err, &notFoundErr)
		}
	})

	t.Run("missing id fails the whole batch", func(t *testing.T) {
		store := NewMemCandidateStore()
		c1 := seedCandidate(t, store, StagePending)

		_, err := store.BatchDelete(ctx, []uuid.UUID{c1.ID, uuid.New()})
		var notFoundErr *NotFoundError
		require.ErrorAs(t, err, &notFoundErr)

		// c1 must be unaffected.
		fresh, err := store.GetCandidate(ctx, c1.ID)
		require.NoError(t, err)
		assert.False(t, fresh.Tombstoned)
		assert.Equal(t, c1.Version, fresh.Version)
	})

	t.Run("tombstoned candidates leave the active view", func(t *testing.T) {
		store := NewMemCandidateStore()
		c1 := seedCandidate(t, store, StagePending)
		c2 := seedCandidate(t, store, StagePending)

		_, err := store.BatchDelete(ctx, []uuid.UUID{c1.ID})
		require.NoError(t, err)

		active, err := store.ListCandidates(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, c2.ID, active[0].ID)
	})
}

func TestMemCandidateStore_Create(t *testing.T) {
	ctx := context.Background()
	store := NewMemCandidateStore()

	c, err := store.CreateCandidate(ctx, &Candidate{Name: "New"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, int64(1), c.Version)

	_, err = store.CreateCandidate(ctx, &Candidate{ID: c.ID, Name: "Dup"})
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}
