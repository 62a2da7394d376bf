// Package events carries comment mutation notifications from the moderation
// engine to whoever needs to react: cache invalidation, the stats stream hub
// and, when configured, NATS.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCreated  Kind = "created"
	KindUpdated  Kind = "updated"
	KindApproved Kind = "approved"
	KindRejected Kind = "rejected"
	KindDeleted  Kind = "deleted"
)

// Event describes one successful mutation.
type Event struct {
	EventID    string    `json:"event_id"`
	Kind       Kind      `json:"kind"`
	CommentID  int64     `json:"comment_id"`
	ThreadID   string    `json:"thread_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(kind Kind, commentID int64, threadID string) Event {
	return Event{
		EventID:    uuid.NewString(),
		Kind:       kind,
		CommentID:  commentID,
		ThreadID:   threadID,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink receives events. Implementations must not block the caller for long;
// the engine calls Publish on the request path.
type Sink interface {
	Publish(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Publish(ctx context.Context, ev Event) { f(ctx, ev) }

// Fanout delivers every event to each sink in order. Nil entries are skipped.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, s := range f {
		if s != nil {
			s.Publish(ctx, ev)
		}
	}
}

// Discard drops all events.
var Discard Sink = SinkFunc(func(context.Context, Event) {})
