package handlers

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/indie-comments/services/comments/internal/events"
	"github.com/example/indie-comments/services/comments/internal/stats"
	"github.com/example/indie-comments/services/comments/internal/store"
	"github.com/example/indie-comments/services/comments/internal/swr"
)

const statsKey = "stats"

// Caches holds the read-side caches in front of the store.
type Caches struct {
	Lists *swr.Cache[store.Page]
	Stats *swr.Cache[stats.Snapshot]
}

func NewCaches(ttl time.Duration, maxSize int, log *zap.Logger) *Caches {
	return &Caches{
		Lists: swr.New[store.Page](swr.Options{Name: "moderation_list", TTL: ttl, MaxSize: maxSize, Logger: log}),
		Stats: swr.New[stats.Snapshot](swr.Options{Name: "moderation_stats", TTL: ttl, MaxSize: 1, Logger: log}),
	}
}

// Purge empties every cache.
func (c *Caches) Purge() {
	c.Lists.Purge()
	c.Stats.Purge()
}

// Publish implements events.Sink: any mutation can change any list page or
// the counters, so everything is dropped.
func (c *Caches) Publish(_ context.Context, _ events.Event) {
	c.Purge()
}

// SubscribeInvalidation purges the caches whenever another process publishes
// a mutation event under subject.
func (c *Caches) SubscribeInvalidation(nc *nats.Conn, subject string, log *zap.Logger) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug("cache invalidated by remote event", zap.String("subject", m.Subject))
		c.Purge()
	})
}
