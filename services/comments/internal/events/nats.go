package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher forwards events to "<prefix>.events.<kind>".
// The zero value and a nil pointer are both safe no-op stubs.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	log    *zap.Logger
}

// NewNATSPublisher returns a publisher on nc. Pass nc=nil for a no-op stub.
func NewNATSPublisher(nc *nats.Conn, prefix string, log *zap.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "comments"
	}
	return &NATSPublisher{nc: nc, prefix: prefix, log: log}
}

// Subject returns the subject an event of kind k is published on.
func (p *NATSPublisher) Subject(k Kind) string {
	return p.prefix + ".events." + string(k)
}

// Publish is fire-and-forget: failures are logged and never reach the caller.
func (p *NATSPublisher) Publish(_ context.Context, ev Event) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
		return
	}
	if err := p.nc.Publish(p.Subject(ev.Kind), data); err != nil {
		p.log.Warn("events: nats publish failed",
			zap.String("subject", p.Subject(ev.Kind)),
			zap.Int64("comment_id", ev.CommentID),
			zap.Error(err),
		)
	}
}
