package stream

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type SSEOptions struct {
	// Heartbeat is the interval of ": keep-alive" comments. Zero disables.
	Heartbeat time.Duration
	// MaxLifetime closes the stream after this long. Zero means unbounded.
	MaxLifetime time.Duration
}

// Handler serves the hub as a Server-Sent Events stream. Each update is one
// "data: <json>" frame.
func Handler(h *Hub, opts SSEOptions, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		ctx := r.Context()
		sub, err := h.Subscribe(ctx)
		if err != nil {
			log.Warn("stream: subscribe failed", zap.Error(err))
			http.Error(w, "Failed to fetch comment stats", http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		hdr := w.Header()
		hdr.Set("Content-Type", "text/event-stream")
		hdr.Set("Cache-Control", "no-cache")
		hdr.Set("Connection", "keep-alive")
		hdr.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		var heartbeat <-chan time.Time
		if opts.Heartbeat > 0 {
			t := time.NewTicker(opts.Heartbeat)
			defer t.Stop()
			heartbeat = t.C
		}
		var deadline <-chan time.Time
		if opts.MaxLifetime > 0 {
			t := time.NewTimer(opts.MaxLifetime)
			defer t.Stop()
			deadline = t.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-deadline:
				return
			case <-heartbeat:
				if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
					return
				}
				flusher.Flush()
			case u := <-sub.C():
				payload, err := json.Marshal(u)
				if err != nil {
					log.Error("stream: encode update", zap.Error(err))
					return
				}
				if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
