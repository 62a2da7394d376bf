package moderation

import (
	"context"
	"fmt"
)

// ItemResult is the outcome for one id of a bulk request.
type ItemResult struct {
	CommentID int64 `json:"comment_id"`
	Success   bool  `json:"success"`
}

type BulkResult struct {
	Action     Action
	Results    []ItemResult
	Successful int
	Total      int
}

func (r BulkResult) Message() string {
	return fmt.Sprintf("Successfully %s %d of %d comments", r.Action.PastTense(), r.Successful, r.Total)
}

// Bulk applies action to every id independently. A failure on one id never
// stops the batch; only internal errors abort it.
func (e *Engine) Bulk(ctx context.Context, ids []int64, action Action) (BulkResult, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return BulkResult{}, err
	}
	if len(ids) == 0 {
		return BulkResult{}, ErrNoCommentIDs
	}

	res := BulkResult{Action: action, Results: make([]ItemResult, 0, len(ids)), Total: len(ids)}
	for _, id := range ids {
		ok, err := e.boolResult(e.Moderate(ctx, id, action))
		if err != nil {
			return BulkResult{}, fmt.Errorf("bulk %s comment %d: %w", action, id, err)
		}
		if ok {
			res.Successful++
		}
		res.Results = append(res.Results, ItemResult{CommentID: id, Success: ok})
	}
	return res, nil
}
