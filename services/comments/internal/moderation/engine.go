// Package moderation implements the comment state machine: pending comments
// are approved or rejected exactly once, and any comment may be deleted.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/indie-comments/services/comments/internal/audit"
	"github.com/example/indie-comments/services/comments/internal/events"
	"github.com/example/indie-comments/services/comments/internal/store"
)

// Action is a moderator command.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrNoCommentIDs  = errors.New("no comment ids provided")
	ErrNotFound      = errors.New("comment not found")
	ErrNotPending    = errors.New("comment is not pending")
)

// ParseAction maps the wire keyword to an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionApprove, ActionReject, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// PastTense is used in human readable responses ("approved").
func (a Action) PastTense() string {
	switch a {
	case ActionApprove:
		return "approved"
	case ActionReject:
		return "rejected"
	case ActionDelete:
		return "deleted"
	}
	return string(a)
}

type Options struct {
	// Policy validates new comments; nil means AcceptAll.
	Policy Policy
	// Sink receives an event for every successful mutation.
	Sink events.Sink
	// Audit records moderation actions; nil disables the trail.
	Audit  audit.Recorder
	Logger *zap.Logger
}

// Engine owns every write path to the comment store.
type Engine struct {
	comments store.CommentStore
	policy   Policy
	sink     events.Sink
	audit    audit.Recorder
	log      *zap.Logger
}

func NewEngine(cs store.CommentStore, opts Options) *Engine {
	e := &Engine{
		comments: cs,
		policy:   opts.Policy,
		sink:     opts.Sink,
		audit:    opts.Audit,
		log:      opts.Logger,
	}
	if e.policy == nil {
		e.policy = AcceptAll{}
	}
	if e.sink == nil {
		e.sink = events.Discard
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Create validates in against the configured policy and stores it as pending.
func (e *Engine) Create(ctx context.Context, in store.NewComment) (store.Comment, error) {
	if err := e.policy.Validate(ctx, e.comments, in); err != nil {
		return store.Comment{}, err
	}
	c, err := e.comments.Create(ctx, in)
	if err != nil {
		return store.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	e.sink.Publish(ctx, events.New(events.KindCreated, c.ID, c.ThreadID))
	return c, nil
}

// Update overwrites the fields present in p. It reports false for unknown ids.
func (e *Engine) Update(ctx context.Context, id int64, p store.Patch) (bool, error) {
	ok, err := e.comments.Update(ctx, id, p)
	if err != nil {
		return false, fmt.Errorf("update comment %d: %w", id, err)
	}
	if !ok {
		return false, nil
	}
	c, found, err := e.comments.Get(ctx, id)
	if err != nil {
		return true, fmt.Errorf("get comment %d: %w", id, err)
	}
	threadID := c.ThreadID
	if !found && p.ThreadID != nil {
		threadID = *p.ThreadID
	}
	e.sink.Publish(ctx, events.New(events.KindUpdated, id, threadID))
	return true, nil
}

// Approve moves a pending comment to approved. It reports false when the
// comment is missing or no longer pending.
func (e *Engine) Approve(ctx context.Context, id int64) (bool, error) {
	return e.boolResult(e.Moderate(ctx, id, ActionApprove))
}

// Reject moves a pending comment to rejected.
func (e *Engine) Reject(ctx context.Context, id int64) (bool, error) {
	return e.boolResult(e.Moderate(ctx, id, ActionReject))
}

// Delete removes a comment in any status.
func (e *Engine) Delete(ctx context.Context, id int64) (bool, error) {
	return e.boolResult(e.Moderate(ctx, id, ActionDelete))
}

func (e *Engine) boolResult(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotPending):
		return false, nil
	default:
		return false, err
	}
}

// Moderate applies a single action. Expected refusals come back as
// ErrNotFound or ErrNotPending; anything else is an internal failure.
func (e *Engine) Moderate(ctx context.Context, id int64, action Action) error {
	var (
		c    store.Comment
		kind events.Kind
		err  error
	)
	switch action {
	case ActionApprove:
		kind = events.KindApproved
		c, err = e.transition(ctx, id, store.StatusApproved)
	case ActionReject:
		kind = events.KindRejected
		c, err = e.transition(ctx, id, store.StatusRejected)
	case ActionDelete:
		kind = events.KindDeleted
		c, err = e.remove(ctx, id)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	moderationActions.WithLabelValues(string(action), resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	e.sink.Publish(ctx, events.New(kind, id, c.ThreadID))
	e.record(ctx, action, c)
	return nil
}

func (e *Engine) transition(ctx context.Context, id int64, to store.Status) (store.Comment, error) {
	c, err := e.comments.Transition(ctx, id, store.StatusPending, to)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c, ErrNotFound
	case errors.Is(err, store.ErrStatusConflict):
		return c, ErrNotPending
	case err != nil:
		return c, fmt.Errorf("transition comment %d to %s: %w", id, to, err)
	}
	return c, nil
}

func (e *Engine) remove(ctx context.Context, id int64) (store.Comment, error) {
	c, found, err := e.comments.Get(ctx, id)
	if err != nil {
		return c, fmt.Errorf("get comment %d: %w", id, err)
	}
	if !found {
		return c, ErrNotFound
	}
	ok, err := e.comments.Delete(ctx, id)
	if err != nil {
		return c, fmt.Errorf("delete comment %d: %w", id, err)
	}
	if !ok {
		return c, ErrNotFound
	}
	return c, nil
}

func (e *Engine) record(ctx context.Context, action Action, c store.Comment) {
	if e.audit == nil {
		return
	}
	entry := audit.Entry{CommentID: c.ID, Action: string(action), ThreadID: c.ThreadID}
	if err := e.audit.Record(ctx, entry); err != nil {
		e.log.Warn("moderation: audit record failed",
			zap.Int64("comment_id", c.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	default:
		return "error"
	}
}
