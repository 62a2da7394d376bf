// Package stream pushes live moderation counters to connected clients.
package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/indie-comments/services/comments/internal/events"
	"github.com/example/indie-comments/services/comments/internal/stats"
)

// Update is one frame of the live feed.
type Update struct {
	PendingCount  int       `json:"pending_count"`
	ApprovedCount int       `json:"approved_count"`
	RejectedCount int       `json:"rejected_count"`
	TotalCount    int       `json:"total_count"`
	Threads       int       `json:"threads"`
	Timestamp     time.Time `json:"timestamp"`
}

// Source produces the current statistics; *stats.Aggregator satisfies it.
type Source interface {
	Stats(ctx context.Context) (stats.Snapshot, error)
}

type Options struct {
	// Interval between unconditional broadcasts. Defaults to 5s.
	Interval time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

// Hub fans snapshots out to subscribers. It broadcasts on every tick of
// Interval and whenever a mutation event arrives through Publish.
type Hub struct {
	src      Source
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	nudge chan struct{}

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub(src Source, opts Options) *Hub {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Hub{
		src:      src,
		interval: opts.Interval,
		log:      opts.Logger,
		now:      opts.Now,
		nudge:    make(chan struct{}, 1),
		subs:     make(map[*Subscription]struct{}),
	}
}

// Subscription receives updates until Close is called. Its channel holds at
// most one pending update; a newer one replaces it.
type Subscription struct {
	ch   chan Update
	hub  *Hub
	once sync.Once
}

func (s *Subscription) C() <-chan Update { return s.ch }

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		n := len(s.hub.subs)
		s.hub.mu.Unlock()
		streamSubscribers.Set(float64(n))
	})
}

// Subscribe registers a new subscriber primed with the current snapshot.
func (h *Hub) Subscribe(ctx context.Context) (*Subscription, error) {
	u, err := h.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s := &Subscription{ch: make(chan Update, 1), hub: h}
	s.ch <- u

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	streamSubscribers.Set(float64(n))
	return s, nil
}

// Publish implements events.Sink. It never blocks; bursts of events collapse
// into a single broadcast.
func (h *Hub) Publish(_ context.Context, _ events.Event) {
	select {
	case h.nudge <- struct{}{}:
	default:
	}
}

// Run broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case <-h.nudge:
		}
		h.Broadcast(ctx)
	}
}

// Broadcast sends the current snapshot to every subscriber.
func (h *Hub) Broadcast(ctx context.Context) {
	h.mu.Lock()
	if len(h.subs) == 0 {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	u, err := h.snapshot(ctx)
	if err != nil {
		h.log.Warn("stream: snapshot failed", zap.Error(err))
		return
	}
	streamBroadcasts.Inc()

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		offer(s.ch, u)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) snapshot(ctx context.Context) (Update, error) {
	s, err := h.src.Stats(ctx)
	if err != nil {
		return Update{}, err
	}
	return Update{
		PendingCount:  s.Pending,
		ApprovedCount: s.Approved,
		RejectedCount: s.Rejected,
		TotalCount:    s.Total,
		Threads:       s.Threads,
		Timestamp:     h.now(),
	}, nil
}

// offer replaces whatever is buffered in ch with u.
func offer(ch chan Update, u Update) {
	for {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
