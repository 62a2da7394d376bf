package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// InMemoryCommentStore keeps comments in insertion order behind one RWMutex.
// Every mutation, including the status compare-and-set, runs under the write
// lock, so readers never see a half-applied change.
type InMemoryCommentStore struct {
	mu     sync.RWMutex
	byID   map[int64]*Comment
	order  []int64
	nextID int64
	now    func() time.Time
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	s := &InMemoryCommentStore{now: func() time.Time { return time.Now().UTC() }}
	s.Reset(nil)
	return s
}

// Reset replaces the contents with seed. The next id continues after the
// largest seeded id.
func (s *InMemoryCommentStore) Reset(seed []Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[int64]*Comment, len(seed))
	s.order = make([]int64, 0, len(seed))
	s.nextID = 1
	for _, c := range seed {
		c := clone(c)
		if _, dup := s.byID[c.ID]; dup {
			continue
		}
		s.byID[c.ID] = &c
		s.order = append(s.order, c.ID)
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
}

func (s *InMemoryCommentStore) Create(_ context.Context, in NewComment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Comment{
		ID:         s.nextID,
		ThreadID:   in.ThreadID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
		ParentID:   copyID(in.ParentID),
		CreatedAt:  s.now(),
		Status:     StatusPending,
	}
	s.nextID++
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	return clone(*c), nil
}

func (s *InMemoryCommentStore) Get(_ context.Context, id int64) (Comment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return Comment{}, false, nil
	}
	return clone(*c), true, nil
}

func (s *InMemoryCommentStore) Update(_ context.Context, id int64, p Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	if p.ThreadID != nil {
		c.ThreadID = *p.ThreadID
	}
	if p.AuthorName != nil {
		c.AuthorName = *p.AuthorName
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.ParentID != nil {
		c.ParentID = copyID(p.ParentID)
	}
	if p.CreatedAt != nil {
		c.CreatedAt = p.CreatedAt.UTC()
	}
	return true, nil
}

// Delete removes the comment for good. Replies keep their parent_id and
// become unreachable from the thread root.
func (s *InMemoryCommentStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true, nil
}

func (s *InMemoryCommentStore) List(_ context.Context, f Filter) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset := max(f.Offset, 0)
	page := Page{Comments: []Comment{}}
	for _, id := range s.order {
		c := s.byID[id]
		if !f.matches(c) {
			continue
		}
		page.Total++
		if page.Total <= offset {
			continue
		}
		if f.Limit > 0 && len(page.Comments) >= f.Limit {
			continue
		}
		page.Comments = append(page.Comments, clone(*c))
	}
	return page, nil
}

func (s *InMemoryCommentStore) Transition(_ context.Context, id int64, from, to Status) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if c.Status != from {
		return clone(*c), ErrStatusConflict
	}
	c.Status = to
	return clone(*c), nil
}

func clone(c Comment) Comment {
	c.ParentID = copyID(c.ParentID)
	return c
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
