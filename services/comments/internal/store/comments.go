package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a comment. The numeric values are part
// of the wire format (is_approved).
type Status int

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusRejected Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus accepts the names used by the moderation API.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

var (
	ErrNotFound       = errors.New("comment not found")
	ErrStatusConflict = errors.New("comment status changed")
)

// Comment is a single comment as stored and as returned on the wire.
type Comment struct {
	ID         int64     `json:"id"`
	ThreadID   string    `json:"thread_referencia_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Status     Status    `json:"is_approved"`
	ParentID   *int64    `json:"parent_id"`
}

// NewComment is the client-submitted payload for Create.
type NewComment struct {
	ThreadID   string
	AuthorName string
	Content    string
	ParentID   *int64
}

// Patch holds the fields Update may overwrite; nil fields are left alone.
// Status is not patchable; it only moves through Transition.
type Patch struct {
	ThreadID   *string
	AuthorName *string
	Content    *string
	ParentID   *int64
	CreatedAt  *time.Time
}

// Filter selects comments for List. Zero values match everything; Limit <= 0
// means no limit.
type Filter struct {
	ThreadID string
	Status   *Status
	Search   string
	Limit    int
	Offset   int
}

// Page is one window of a List result. Total counts all matches.
type Page struct {
	Comments []Comment
	Total    int
}

// CommentStore is the canonical comment collection.
type CommentStore interface {
	Create(ctx context.Context, c NewComment) (Comment, error)
	Get(ctx context.Context, id int64) (Comment, bool, error)
	Update(ctx context.Context, id int64, p Patch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f Filter) (Page, error)
	// Transition moves id from one status to another atomically and returns
	// the updated comment. It fails with ErrNotFound or ErrStatusConflict
	// when the precondition does not hold.
	Transition(ctx context.Context, id int64, from, to Status) (Comment, error)
}

func (f Filter) matches(c *Comment) bool {
	if f.ThreadID != "" && c.ThreadID != f.ThreadID {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Content), q) && !strings.Contains(strings.ToLower(c.AuthorName), q) {
			return false
		}
	}
	return true
}

// Key is a stable signature of the filter, used as a cache key.
func (f Filter) Key() string {
	status := "any"
	if f.Status != nil {
		status = f.Status.String()
	}
	return fmt.Sprintf("thread=%q status=%s search=%q limit=%d offset=%d",
		f.ThreadID, status, strings.ToLower(f.Search), f.Limit, f.Offset)
}
