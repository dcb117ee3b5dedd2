package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SlotStore owns interview slot records. Conflict detection happens in the
// scheduler, not here; the store only needs to return an interviewer's slots
// without ordering guarantees.
type SlotStore interface {
	// GetSlot returns the slot, or a NotFoundError.
	GetSlot(ctx context.Context, id uuid.UUID) (*InterviewSlot, error)

	// CreateSlot inserts a new slot.
	CreateSlot(ctx context.Context, s *InterviewSlot) (*InterviewSlot, error)

	// UpdateSlot overwrites an existing slot.
	UpdateSlot(ctx context.Context, s *InterviewSlot) (*InterviewSlot, error)

	// SlotsByInterviewer returns every slot held by the interviewer,
	// regardless of status.
	SlotsByInterviewer(ctx context.Context, interviewerID uuid.UUID) ([]*InterviewSlot, error)
}

// MemSlotStore is the in-memory SlotStore.
type MemSlotStore struct {
	mu    sync.Mutex
	slots map[uuid.UUID]InterviewSlot
}

// NewMemSlotStore creates an empty in-memory slot store.
func NewMemSlotStore() *MemSlotStore {
	return &MemSlotStore{slots: make(map[uuid.UUID]InterviewSlot)}
}

func (s *MemSlotStore) GetSlot(_ context.Context, id uuid.UUID) (*InterviewSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, &NotFoundError{Kind: "slot", ID: id}
	}
	out := slot
	return &out, nil
}

func (s *MemSlotStore) CreateSlot(_ context.Context, slot *InterviewSlot) (*InterviewSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if _, ok := s.slots[slot.ID]; ok {
		return nil, &ConflictError{Resource: "slot", ResourceID: slot.ID, Message: "slot already exists"}
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	s.slots[slot.ID] = *slot
	out := *slot
	return &out, nil
}

func (s *MemSlotStore) UpdateSlot(_ context.Context, slot *InterviewSlot) (*InterviewSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[slot.ID]; !ok {
		return nil, &NotFoundError{Kind: "slot", ID: slot.ID}
	}
	s.slots[slot.ID] = *slot
	out := *slot
	return &out, nil
}

func (s *MemSlotStore) SlotsByInterviewer(_ context.Context, interviewerID uuid.UUID) ([]*InterviewSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*InterviewSlot
	for _, slot := range s.slots {
		if slot.InterviewerID == interviewerID {
			ss := slot
			out = append(out, &ss)
		}
	}
	return out, nil
}

// InterviewScheduler allocates interview slots per interviewer without
// double-booking. Conflict check and write are serialized by a mutex keyed on
// interviewer id, so two concurrent overlapping bookings for the same
// interviewer cannot both succeed.
type InterviewScheduler struct {
	stages *StageMachine
	slots  SlotStore
	log    ActivityLog

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewInterviewScheduler creates a scheduler over the given collaborators.
func NewInterviewScheduler(stages *StageMachine, slots SlotStore, log ActivityLog) *InterviewScheduler {
	return &InterviewScheduler{
		stages: stages,
		slots:  slots,
		log:    log,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// interviewerLock returns the mutex guarding one interviewer's slot set,
// creating it on first use. Locks are never removed; the working set is one
// mutex per interviewer ever seen.
func (s *InterviewScheduler) interviewerLock(interviewerID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[interviewerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[interviewerID] = lock
	}
	return lock
}

// findOverlap scans the interviewer's scheduled slots for one intersecting
// [start, start+duration), ignoring excludeID. Half-open comparison: a slot
// ending exactly at start is not a conflict.
func (s *InterviewScheduler) findOverlap(ctx context.Context, interviewerID, excludeID uuid.UUID, start time.Time, duration time.Duration) (*InterviewSlot, error) {
	existing, err := s.slots.SlotsByInterviewer(ctx, interviewerID)
	if err != nil {
		return nil, err
	}
	proposed := &InterviewSlot{Start: start, Duration: duration}
	for _, slot := range existing {
		if slot.ID == excludeID || slot.Status != SlotScheduled {
			continue
		}
		if slot.Overlaps(proposed) {
			return slot, nil
		}
	}
	return nil, nil
}

// Book allocates a slot for the candidate with the interviewer. A candidate in
// pending is implicitly advanced through pending_interview; the stage write,
// slot creation and log appends succeed as a unit or the operation performs no
// writes and reports the error for the caller to retry.
func (s *InterviewScheduler) Book(ctx context.Context, candidateID, interviewerID uuid.UUID, start time.Time, duration time.Duration, location string, priority Priority, actor Actor) (*InterviewSlot, error) {
	if duration <= 0 {
		return nil, &ValidationError{Field: "duration", Message: "duration must be positive"}
	}

	// Candidate first: a missing or terminal candidate is the caller's error
	// to fix, and it must surface even when the requested time also collides.
	if err := s.stages.interviewEligible(ctx, candidateID); err != nil {
		return nil, err
	}

	lock := s.interviewerLock(interviewerID)
	lock.Lock()
	defer lock.Unlock()

	colliding, err := s.findOverlap(ctx, interviewerID, uuid.Nil, start, duration)
	if err != nil {
		return nil, err
	}
	if colliding != nil {
		return nil, &ConflictError{
			Resource:   "slot",
			ResourceID: colliding.ID,
			Message: fmt.Sprintf("interviewer %s already booked %s - %s",
				interviewerID, colliding.Start.Format(time.RFC3339), colliding.End().Format(time.RFC3339)),
		}
	}

	var slot *InterviewSlot
	err = inTx(ctx, s.slots, func(ctx context.Context) error {
		candidate, prev, err := s.stages.beginInterview(ctx, candidateID)
		if err != nil {
			return err
		}
		transitioned := prev != StageInterviewing

		slot, err = s.slots.CreateSlot(ctx, &InterviewSlot{
			CandidateID:   candidateID,
			InterviewerID: interviewerID,
			Start:         start,
			Duration:      duration,
			Location:      location,
			Priority:      priority,
			Status:        SlotScheduled,
		})
		if err != nil {
			if transitioned {
				s.stages.revertStage(ctx, candidate, prev)
			}
			return err
		}

		if transitioned {
			if _, err := s.log.AppendActivity(ctx, ActivityEntry{
				Actor:    actor,
				Action:   fmt.Sprintf("moved candidate %s to %s", candidate.Name, StageInterviewing),
				EntityID: candidate.ID,
			}); err != nil {
				return err
			}
		}
		_, err = s.log.AppendActivity(ctx, ActivityEntry{
			Actor: actor,
			Action: fmt.Sprintf("scheduled interview for candidate %s with interviewer %s at %s",
				candidate.Name, interviewerID, start.Format(time.RFC3339)),
			EntityID: slot.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// Cancel marks the slot cancelled. The candidate's stage is untouched; moving
// them back through the pipeline is an explicit, separate call.
func (s *InterviewScheduler) Cancel(ctx context.Context, slotID uuid.UUID, actor Actor) error {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.Status != SlotScheduled {
		return &ConflictError{Resource: "slot", ResourceID: slotID, Message: fmt.Sprintf("slot is %s, only scheduled slots can be cancelled", slot.Status)}
	}

	slot.Status = SlotCancelled
	if _, err := s.slots.UpdateSlot(ctx, slot); err != nil {
		return err
	}
	_, err = s.log.AppendActivity(ctx, ActivityEntry{
		Actor:    actor,
		Action:   fmt.Sprintf("cancelled interview with interviewer %s at %s", slot.InterviewerID, slot.Start.Format(time.RFC3339)),
		EntityID: slot.ID,
	})
	return err
}

// Complete marks a scheduled slot completed.
func (s *InterviewScheduler) Complete(ctx context.Context, slotID uuid.UUID, actor Actor) error {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.Status != SlotScheduled {
		return &ConflictError{Resource: "slot", ResourceID: slotID, Message: fmt.Sprintf("slot is %s, only scheduled slots can be completed", slot.Status)}
	}

	slot.Status = SlotCompleted
	if _, err := s.slots.UpdateSlot(ctx, slot); err != nil {
		return err
	}
	_, err = s.log.AppendActivity(ctx, ActivityEntry{
		Actor:    actor,
		Action:   fmt.Sprintf("completed interview with interviewer %s at %s", slot.InterviewerID, slot.Start.Format(time.RFC3339)),
		EntityID: slot.ID,
	})
	return err
}

// Reschedule moves the slot to a new time as one logical cancel+book. If the
// new time conflicts, the original slot is left untouched and a ConflictError
// names the colliding slot.
func (s *InterviewScheduler) Reschedule(ctx context.Context, slotID uuid.UUID, newStart time.Time, newDuration time.Duration, actor Actor) (*InterviewSlot, error) {
	if newDuration <= 0 {
		return nil, &ValidationError{Field: "duration", Message: "duration must be positive"}
	}

	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != SlotScheduled {
		return nil, &ConflictError{Resource: "slot", ResourceID: slotID, Message: fmt.Sprintf("slot is %s, only scheduled slots can be rescheduled", slot.Status)}
	}

	lock := s.interviewerLock(slot.InterviewerID)
	lock.Lock()
	defer lock.Unlock()

	colliding, err := s.findOverlap(ctx, slot.InterviewerID, slot.ID, newStart, newDuration)
	if err != nil {
		return nil, err
	}
	if colliding != nil {
		return nil, &ConflictError{
			Resource:   "slot",
			ResourceID: colliding.ID,
			Message: fmt.Sprintf("interviewer %s already booked %s - %s",
				slot.InterviewerID, colliding.Start.Format(time.RFC3339), colliding.End().Format(time.RFC3339)),
		}
	}

	oldStart := slot.Start
	slot.Start = newStart
	slot.Duration = newDuration
	updated, err := s.slots.UpdateSlot(ctx, slot)
	if err != nil {
		return nil, err
	}
	if _, err := s.log.AppendActivity(ctx, ActivityEntry{
		Actor: actor,
		Action: fmt.Sprintf("rescheduled interview with interviewer %s from %s to %s",
			slot.InterviewerID, oldStart.Format(time.RFC3339), newStart.Format(time.RFC3339)),
		EntityID: slot.ID,
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByInterviewer returns the interviewer's slots intersecting [from, to),
// ascending by start time. Zero from/to leave that bound open.
func (s *InterviewScheduler) ListByInterviewer(ctx context.Context, interviewerID uuid.UUID, from, to time.Time) ([]*InterviewSlot, error) {
	slots, err := s.slots.SlotsByInterviewer(ctx, interviewerID)
	if err != nil {
		return nil, err
	}

	out := make([]*InterviewSlot, 0, len(slots))
	for _, slot := range slots {
		if !from.IsZero() && !slot.End().After(from) {
			continue
		}
		if !to.IsZero() && !slot.Start.Before(to) {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
