// Package audit records moderation actions so moderators can review who
// changed what and when.
package audit

import (
	"context"
	"sync"
	"time"
)

// Entry is one moderation action that changed a comment.
type Entry struct {
	CommentID  int64     `json:"comment_id"`
	Action     string    `json:"action"`
	ThreadID   string    `json:"thread_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Recorder persists entries and returns the most recent ones, newest first.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// MemoryRecorder keeps the last Capacity entries in a ring.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryRecorder{entries: make([]Entry, capacity)}
}

func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *MemoryRecorder) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}
