package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/indie-comments/services/comments/internal/audit"
	"github.com/example/indie-comments/services/comments/internal/moderation"
	"github.com/example/indie-comments/services/comments/internal/stats"
	"github.com/example/indie-comments/services/comments/internal/store"
	"github.com/example/indie-comments/services/comments/internal/stream"
	"github.com/example/indie-comments/services/comments/internal/thread"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Comments    store.CommentStore
	Engine      *moderation.Engine
	Threads     *thread.Assembler
	Stats       *stats.Aggregator
	Caches      *Caches
	Hub         *stream.Hub
	Stream      stream.SSEOptions
	Audit       audit.Recorder
	Version     string
	Logger      *zap.Logger
	CreateLimit func(http.Handler) http.Handler // wraps POST /comments; nil leaves it open
}

// Mount registers the public and moderation API on r.
func Mount(r chi.Router, d Deps) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r.Get("/api/health", Health(d.Version))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/comments", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.CreateLimit != nil {
					r.Use(d.CreateLimit)
				}
				r.Post("/", CreateComment(d.Engine, log))
			})
			r.Get("/", ListThread(d.Threads, log))
			r.Get("/stats", CommentCounts(d.Stats, log))
			r.Get("/stream", stream.Handler(d.Hub, d.Stream, log))
			r.Get("/{comment_id}", GetComment(d.Comments, log))
			r.Patch("/{comment_id}", UpdateComment(d.Engine, log))
		})

		r.Route("/moderation", func(r chi.Router) {
			r.Get("/comments", ListForModeration(d.Comments, d.Caches, log))
			r.Get("/stats", ModerationStats(d.Stats, d.Caches, log))
			r.Get("/log", ModerationLog(d.Audit, log))
			r.Post("/bulk", BulkModerate(d.Engine, log))
			r.Post("/{comment_id}", ModerateComment(d.Engine, log))
		})
	})
}
