// Package stats computes moderation counters from the comment store.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/example/indie-comments/services/comments/internal/store"
)

// Snapshot is the moderation dashboard view. Total always equals
// Pending+Approved+Rejected.
type Snapshot struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
	Threads  int `json:"threads"`
}

// Counts is the lighter view served to the widget and the live stream.
type Counts struct {
	PendingCount  int       `json:"pending_count"`
	ApprovedCount int       `json:"approved_count"`
	LastUpdate    time.Time `json:"last_update"`
}

type Aggregator struct {
	comments store.CommentStore
	now      func() time.Time
}

func NewAggregator(cs store.CommentStore) *Aggregator {
	return &Aggregator{comments: cs, now: func() time.Time { return time.Now().UTC() }}
}

// Stats recounts every comment. A single List call reads one consistent
// snapshot of the store.
func (a *Aggregator) Stats(ctx context.Context) (Snapshot, error) {
	page, err := a.comments.List(ctx, store.Filter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("list comments: %w", err)
	}
	var s Snapshot
	threads := make(map[string]struct{})
	for _, c := range page.Comments {
		switch c.Status {
		case store.StatusPending:
			s.Pending++
		case store.StatusApproved:
			s.Approved++
		case store.StatusRejected:
			s.Rejected++
		}
		threads[c.ThreadID] = struct{}{}
	}
	s.Total = s.Pending + s.Approved + s.Rejected
	s.Threads = len(threads)
	return s, nil
}

func (a *Aggregator) Counts(ctx context.Context) (Counts, error) {
	s, err := a.Stats(ctx)
	if err != nil {
		return Counts{}, err
	}
	return s.Counts(a.now()), nil
}

func (s Snapshot) Counts(at time.Time) Counts {
	return Counts{PendingCount: s.Pending, ApprovedCount: s.Approved, LastUpdate: at}
}
