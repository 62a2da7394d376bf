package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/indie-comments/services/comments/internal/store"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Policy decides whether a new comment may be stored.
type Policy interface {
	Validate(ctx context.Context, cs store.CommentStore, in store.NewComment) error
}

// AcceptAll stores whatever the client sent, including empty authors and
// content. This matches the widget's historical behaviour.
type AcceptAll struct{}

func (AcceptAll) Validate(context.Context, store.CommentStore, store.NewComment) error { return nil }

// RequireFields rejects blank thread, author or content, and replies whose
// parent is missing or belongs to another thread.
type RequireFields struct{}

func (RequireFields) Validate(ctx context.Context, cs store.CommentStore, in store.NewComment) error {
	if strings.TrimSpace(in.ThreadID) == "" {
		return &ValidationError{Field: "thread_id", Reason: "is required"}
	}
	if strings.TrimSpace(in.AuthorName) == "" {
		return &ValidationError{Field: "author_name", Reason: "is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	if in.ParentID == nil {
		return nil
	}
	parent, found, err := cs.Get(ctx, *in.ParentID)
	if err != nil {
		return fmt.Errorf("lookup parent %d: %w", *in.ParentID, err)
	}
	if !found {
		return &ValidationError{Field: "parent_id", Reason: "does not exist"}
	}
	if parent.ThreadID != in.ThreadID {
		return &ValidationError{Field: "parent_id", Reason: "belongs to another thread"}
	}
	return nil
}
