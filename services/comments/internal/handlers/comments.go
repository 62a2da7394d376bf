package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/indie-comments/internal/platform/api"
	"github.com/example/indie-comments/internal/platform/httpserver"
	"github.com/example/indie-comments/services/comments/internal/moderation"
	"github.com/example/indie-comments/services/comments/internal/stats"
	"github.com/example/indie-comments/services/comments/internal/store"
	"github.com/example/indie-comments/services/comments/internal/thread"
	"github.com/example/indie-comments/services/comments/internal/threadid"
)

const maxBody = 1 << 20

type createCommentRequest struct {
	ThreadID   string `json:"thread_id"`
	URL        string `json:"url"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	ParentID   *int64 `json:"parent_id,omitempty"`
}

type updateCommentRequest struct {
	ThreadID   *string    `json:"thread_id"`
	AuthorName *string    `json:"author_name"`
	Content    *string    `json:"content"`
	ParentID   *int64     `json:"parent_id"`
	CreatedAt  *time.Time `json:"created_at"`
}

type threadResponse struct {
	Comments []*thread.Node `json:"comments"`
	ThreadID string         `json:"thread_id"`
}

type messageResponse struct {
	Message   string `json:"message"`
	CommentID int64  `json:"comment_id"`
}

// CreateComment handles POST /api/v1/comments
func CreateComment(e *moderation.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		threadID := strings.TrimSpace(req.ThreadID)
		if threadID == "" {
			threadID = threadid.Derive(req.URL)
		}

		created, err := e.Create(r.Context(), store.NewComment{
			ThreadID:   threadID,
			AuthorName: req.AuthorName,
			Content:    req.Content,
			ParentID:   req.ParentID,
		})
		if err != nil {
			var ve *moderation.ValidationError
			if errors.As(err, &ve) {
				api.BadRequest(w, "VALIDATION", ve.Error(), rid, map[string]any{"field": ve.Field})
				return
			}
			log.Error("create comment", zap.Error(err), zap.String("request_id", rid))
			api.Internal(w, "Failed to create comment", rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// ListThread handles GET /api/v1/comments?thread_id=&status=
func ListThread(a *thread.Assembler, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		q := r.URL.Query()

		threadID := strings.TrimSpace(q.Get("thread_id"))
		if threadID == "" {
			api.BadRequest(w, "MISSING_THREAD_ID", "thread_id is required", rid, nil)
			return
		}
		var opts thread.Options
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			s, err := parseStatus(raw)
			if err != nil {
				api.BadRequest(w, "INVALID_STATUS", "Invalid status", rid, nil)
				return
			}
			opts.Status = &s
		}

		roots, err := a.Assemble(r.Context(), threadID, opts)
		if err != nil {
			log.Error("assemble thread", zap.String("thread_id", threadID), zap.Error(err))
			api.Internal(w, "Failed to fetch comments", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, threadResponse{Comments: roots, ThreadID: threadID})
	}
}

// GetComment handles GET /api/v1/comments/{comment_id}
func GetComment(cs store.CommentStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := commentIDParam(w, r)
		if !ok {
			return
		}

		c, found, err := cs.Get(r.Context(), id)
		if err != nil {
			log.Error("get comment", zap.Int64("comment_id", id), zap.Error(err))
			api.Internal(w, "Failed to fetch comment", rid)
			return
		}
		if !found {
			api.NotFound(w, "NOT_FOUND", "Comment not found", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// UpdateComment handles PATCH /api/v1/comments/{comment_id}. Moderation
// status cannot be changed here.
func UpdateComment(e *moderation.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := commentIDParam(w, r)
		if !ok {
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		updated, err := e.Update(r.Context(), id, store.Patch{
			ThreadID:   req.ThreadID,
			AuthorName: req.AuthorName,
			Content:    req.Content,
			ParentID:   req.ParentID,
			CreatedAt:  req.CreatedAt,
		})
		if err != nil {
			log.Error("update comment", zap.Int64("comment_id", id), zap.Error(err))
			api.Internal(w, "Failed to update comment", rid)
			return
		}
		if !updated {
			api.NotFound(w, "NOT_FOUND", "Comment not found", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Comment updated successfully", CommentID: id})
	}
}

// CommentCounts handles GET /api/v1/comments/stats
func CommentCounts(agg *stats.Aggregator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := agg.Counts(r.Context())
		if err != nil {
			log.Error("comment counts", zap.Error(err))
			api.Internal(w, "Failed to fetch comment stats", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		api.WriteJSON(w, http.StatusOK, counts)
	}
}

func commentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "comment_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		api.BadRequest(w, "INVALID_ID", "Invalid comment ID", httpserver.RequestIDFromContext(r.Context()), nil)
		return 0, false
	}
	return id, true
}

// parseStatus accepts status names and the numeric is_approved values.
func parseStatus(raw string) (store.Status, error) {
	switch raw {
	case "0":
		return store.StatusPending, nil
	case "1":
		return store.StatusApproved, nil
	case "2":
		return store.StatusRejected, nil
	}
	return store.ParseStatus(raw)
}
