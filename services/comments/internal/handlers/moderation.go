package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/indie-comments/internal/platform/api"
	"github.com/example/indie-comments/internal/platform/httpserver"
	"github.com/example/indie-comments/services/comments/internal/audit"
	"github.com/example/indie-comments/services/comments/internal/moderation"
	"github.com/example/indie-comments/services/comments/internal/stats"
	"github.com/example/indie-comments/services/comments/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type moderationListResponse struct {
	Comments []store.Comment `json:"comments"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
	Status   string          `json:"status"`
}

type moderateRequest struct {
	Action string `json:"action"`
}

type moderateResponse struct {
	Message   string `json:"message"`
	CommentID int64  `json:"comment_id"`
	Action    string `json:"action"`
}

type bulkRequest struct {
	CommentIDs []int64 `json:"comment_ids"`
	Action     string  `json:"action"`
}

type bulkResponse struct {
	Message    string                  `json:"message"`
	Results    []moderation.ItemResult `json:"results"`
	Successful int                     `json:"successful"`
	Total      int                     `json:"total"`
}

type logResponse struct {
	Entries []audit.Entry `json:"entries"`
}

// ListForModeration handles GET /api/v1/moderation/comments. Pages are
// served through the list cache keyed by the filter.
func ListForModeration(cs store.CommentStore, c *Caches, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		q := r.URL.Query()

		statusName := strings.ToLower(strings.TrimSpace(q.Get("status")))
		if statusName == "" {
			statusName = store.StatusPending.String()
		}
		status, err := store.ParseStatus(statusName)
		if err != nil {
			api.BadRequest(w, "INVALID_STATUS", "Invalid status", rid, nil)
			return
		}

		f := store.Filter{
			ThreadID: strings.TrimSpace(q.Get("thread_id")),
			Status:   &status,
			Search:   strings.TrimSpace(q.Get("search")),
			Limit:    intParam(q.Get("limit"), defaultPageSize, 1, maxPageSize),
			Offset:   intParam(q.Get("offset"), 0, 0, -1),
		}

		page, err := c.Lists.Get(r.Context(), f.Key(), func(ctx context.Context) (store.Page, error) {
			return cs.List(ctx, f)
		})
		if err != nil {
			log.Error("moderation list", zap.String("filter", f.Key()), zap.Error(err))
			api.Internal(w, "Failed to fetch comments", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, moderationListResponse{
			Comments: page.Comments,
			Total:    page.Total,
			Limit:    f.Limit,
			Offset:   f.Offset,
			Status:   status.String(),
		})
	}
}

// ModerateComment handles POST /api/v1/moderation/{comment_id}
func ModerateComment(e *moderation.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := commentIDParam(w, r)
		if !ok {
			return
		}

		var req moderateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		action, err := moderation.ParseAction(req.Action)
		if err != nil {
			api.BadRequest(w, "INVALID_ACTION", "Invalid action", rid, nil)
			return
		}

		switch err := e.Moderate(r.Context(), id, action); {
		case err == nil:
		case errors.Is(err, moderation.ErrNotFound), errors.Is(err, moderation.ErrNotPending):
			// A decided comment cannot be approved or rejected again and
			// reports the same way as a missing one.
			api.NotFound(w, "NOT_FOUND", "Comment not found", rid)
			return
		default:
			log.Error("moderate comment", zap.Int64("comment_id", id), zap.String("action", string(action)), zap.Error(err))
			api.Internal(w, "Failed to moderate comment", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, moderateResponse{
			Message:   "Comment " + action.PastTense() + " successfully",
			CommentID: id,
			Action:    string(action),
		})
	}
}

// BulkModerate handles POST /api/v1/moderation/bulk
func BulkModerate(e *moderation.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req bulkRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		res, err := e.Bulk(r.Context(), req.CommentIDs, moderation.Action(strings.ToLower(strings.TrimSpace(req.Action))))
		switch {
		case errors.Is(err, moderation.ErrInvalidAction):
			api.BadRequest(w, "INVALID_ACTION", "Invalid action", rid, nil)
			return
		case errors.Is(err, moderation.ErrNoCommentIDs):
			api.BadRequest(w, "NO_COMMENT_IDS", "No comment IDs provided", rid, nil)
			return
		case err != nil:
			log.Error("bulk moderate", zap.String("action", req.Action), zap.Error(err))
			api.Internal(w, "Failed to moderate comments", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, bulkResponse{
			Message:    res.Message(),
			Results:    res.Results,
			Successful: res.Successful,
			Total:      res.Total,
		})
	}
}

// ModerationStats handles GET /api/v1/moderation/stats
func ModerationStats(agg *stats.Aggregator, c *Caches, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := c.Stats.Get(r.Context(), statsKey, agg.Stats)
		if err != nil {
			log.Error("moderation stats", zap.Error(err))
			api.Internal(w, "Failed to fetch moderation stats", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		api.WriteJSON(w, http.StatusOK, s)
	}
}

// ModerationLog handles GET /api/v1/moderation/log?limit=
func ModerationLog(rec audit.Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := intParam(r.URL.Query().Get("limit"), defaultPageSize, 1, maxPageSize)
		entries, err := rec.Recent(r.Context(), limit)
		if err != nil {
			log.Error("moderation log", zap.Error(err))
			api.Internal(w, "Failed to fetch moderation log", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		if entries == nil {
			entries = []audit.Entry{}
		}
		api.WriteJSON(w, http.StatusOK, logResponse{Entries: entries})
	}
}

// intParam parses raw, falling back to def when absent or invalid, and clamps
// it to [lo, hi]. A negative hi means no upper bound.
func intParam(raw string, def, lo, hi int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < lo {
		n = lo
	}
	if hi >= 0 && n > hi {
		n = hi
	}
	return n
}
