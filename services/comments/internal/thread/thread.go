// Package thread builds nested reply trees for a single comment thread.
package thread

import (
	"context"
	"fmt"

	"github.com/example/indie-comments/services/comments/internal/store"
)

// Node is a comment with its direct replies. It marshals as the flat comment
// object plus a "replies" array.
type Node struct {
	store.Comment
	Replies []*Node `json:"replies"`
}

type Options struct {
	// Status restricts the tree to one moderation status. A reply whose
	// parent is filtered out is dropped with it.
	Status *store.Status
}

type Assembler struct {
	comments store.CommentStore
}

func NewAssembler(cs store.CommentStore) *Assembler {
	return &Assembler{comments: cs}
}

// Assemble returns the root comments of threadID, in creation order, with
// replies attached recursively. Unknown or empty threads yield an empty,
// non-nil slice.
func (a *Assembler) Assemble(ctx context.Context, threadID string, opts Options) ([]*Node, error) {
	if threadID == "" {
		return []*Node{}, nil
	}
	page, err := a.comments.List(ctx, store.Filter{ThreadID: threadID, Status: opts.Status})
	if err != nil {
		return nil, fmt.Errorf("list thread %q: %w", threadID, err)
	}
	return Build(page.Comments), nil
}

// Build arranges comments into trees. Comments whose parent is not in the
// input are unreachable and left out. Each comment appears at most once even
// if parent links form a cycle.
func Build(comments []store.Comment) []*Node {
	nodes := make(map[int64]*Node, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &Node{Comment: comments[i], Replies: []*Node{}}
	}
	children := make(map[int64][]int64, len(comments))
	var roots []int64
	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, c.ID)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c.ID)
	}

	visited := make(map[int64]bool, len(comments))
	var attach func(n *Node)
	attach = func(n *Node) {
		visited[n.ID] = true
		for _, childID := range children[n.ID] {
			if visited[childID] {
				continue
			}
			child := nodes[childID]
			n.Replies = append(n.Replies, child)
			attach(child)
		}
	}

	out := make([]*Node, 0, len(roots))
	for _, id := range roots {
		if visited[id] {
			continue
		}
		n := nodes[id]
		attach(n)
		out = append(out, n)
	}
	return out
}

// Count returns the number of comments in the forest.
func Count(roots []*Node) int {
	n := 0
	for _, r := range roots {
		n += 1 + Count(r.Replies)
	}
	return n
}
