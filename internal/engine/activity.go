package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultActivityCapacity bounds the activity log when no capacity is configured.
const DefaultActivityCapacity = 200

// ActivityLog is the append-only, time-ordered record of engine mutations.
// Entries are immutable once appended; the log evicts oldest-first beyond its
// configured capacity.
type ActivityLog interface {
	// AppendActivity records an entry, assigning its ID, sequence number and
	// timestamp, and returns the stored entry.
	AppendActivity(ctx context.Context, e ActivityEntry) (*ActivityEntry, error)

	// ListActivity returns one page of entries ordered newest-first, with
	// ties on timestamp broken by insertion sequence. page starts at 1.
	ListActivity(ctx context.Context, page, pageSize int) (*ActivityPage, error)
}

// MemActivityLog is the in-memory ActivityLog. Evicted entries are dropped;
// a persistent implementation may archive them instead.
type MemActivityLog struct {
	mu       sync.Mutex
	entries  []ActivityEntry // insertion order, oldest first
	capacity int
	seq      uint64
}

// NewMemActivityLog creates an in-memory log. capacity <= 0 uses the default.
func NewMemActivityLog(capacity int) *MemActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivityCapacity
	}
	return &MemActivityLog{capacity: capacity}
}

func (l *MemActivityLog) AppendActivity(_ context.Context, e ActivityEntry) (*ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.Seq = l.seq
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		// FIFO eviction, oldest first.
		over := len(l.entries) - l.capacity
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	out := e
	return &out, nil
}

func (l *MemActivityLog) ListActivity(_ context.Context, page, pageSize int) (*ActivityPage, error) {
	if page < 1 {
		return nil, &ValidationError{Field: "page", Message: "page must be >= 1"}
	}
	if pageSize < 1 {
		return nil, &ValidationError{Field: "page_size", Message: "page size must be >= 1"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Appends hold the lock and stamp non-decreasing timestamps, so reverse
	// insertion order is already newest-first with the seq tie-break.
	total := len(l.entries)
	start := (page - 1) * pageSize
	items := []ActivityEntry{}
	for i := total - 1 - start; i >= 0 && len(items) < pageSize; i-- {
		items = append(items, l.entries[i])
	}
	return &ActivityPage{
		Items:   items,
		Total:   total,
		HasMore: start+len(items) < total,
	}, nil
}
