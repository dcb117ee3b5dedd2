package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Mutator receives the current candidate state and returns the proposed next
// state. It must not assume the write will succeed; the store may reject it.
type Mutator func(Candidate) (Candidate, error)

// CandidateStore owns candidate records and their current stage. Writes go
// through CompareAndSwap so concurrent conflicting mutations fail fast instead
// of silently overwriting each other.
type CandidateStore interface {
	// GetCandidate returns the candidate, or a NotFoundError if it does not
	// exist or has been tombstoned.
	GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error)

	// ListCandidates returns all active (non-tombstoned) candidates.
	ListCandidates(ctx context.Context) ([]*Candidate, error)

	// CreateCandidate inserts a new candidate at version 1.
	CreateCandidate(ctx context.Context, c *Candidate) (*Candidate, error)

	// CompareAndSwap applies mutate to the current state and persists the
	// result with Version = expectedVersion + 1. Returns a ConflictError if
	// another writer advanced the version since the caller's read.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate Mutator) (*Candidate, error)

	// BatchDelete tombstones the given candidates as a set: either all
	// succeed or none do. Returns the number of candidates affected.
	BatchDelete(ctx context.Context, ids []uuid.UUID) (int, error)
}

// AtomicStore is implemented by storage backends that can run several store
// calls as one transaction. Mutations made through the context fn receives
// commit together or not at all.
type AtomicStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// inTx runs fn through the store's transaction support when present, and
// directly otherwise.
func inTx(ctx context.Context, store any, fn func(context.Context) error) error {
	if a, ok := store.(AtomicStore); ok {
		return a.InTx(ctx, fn)
	}
	return fn(ctx)
}

// MemCandidateStore is the in-memory CandidateStore used for tests and
// single-process deployments.
type MemCandidateStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]Candidate
}

// NewMemCandidateStore creates an empty in-memory candidate store.
func NewMemCandidateStore() *MemCandidateStore {
	return &MemCandidateStore{candidates: make(map[uuid.UUID]Candidate)}
}

func (s *MemCandidateStore) GetCandidate(_ context.Context, id uuid.UUID) (*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok || c.Tombstoned {
		return nil, &NotFoundError{Kind: "candidate", ID: id}
	}
	out := c
	return &out, nil
}

func (s *MemCandidateStore) ListCandidates(_ context.Context) ([]*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if c.Tombstoned {
			continue
		}
		cc := c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *MemCandidateStore) CreateCandidate(_ context.Context, c *Candidate) (*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, ok := s.candidates[c.ID]; ok {
		return nil, &ConflictError{Resource: "candidate", ResourceID: c.ID, Message: "candidate already exists"}
	}
	stored := *c
	stored.Version = 1
	s.candidates[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *MemCandidateStore) CompareAndSwap(_ context.Context, id uuid.UUID, expectedVersion int64, mutate Mutator) (*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.candidates[id]
	if !ok || current.Tombstoned {
		return nil, &NotFoundError{Kind: "candidate", ID: id}
	}
	if current.Version != expectedVersion {
		return nil, &ConflictError{
			Resource:   "candidate",
			ResourceID: id,
			Message:    "version mismatch, re-read and retry",
		}
	}

	next, err := mutate(current)
	if err != nil {
		return nil, err
	}
	// Identity and version are the store's to manage, not the mutator's.
	next.ID = id
	next.Version = current.Version + 1
	s.candidates[id] = next
	out := next
	return &out, nil
}

func (s *MemCandidateStore) BatchDelete(_ context.Context, ids []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Verify the whole set before touching anything.
	for _, id := range ids {
		c, ok := s.candidates[id]
		if !ok || c.Tombstoned {
			return 0, &NotFoundError{Kind: "candidate", ID: id}
		}
	}
	for _, id := range ids {
		c := s.candidates[id]
		c.Tombstoned = true
		c.Version++
		s.candidates[id] = c
	}
	return len(ids), nil
}
