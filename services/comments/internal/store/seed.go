package store

import "time"

var seedEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DemoSeed returns the fixed data set the demo starts with. Every call returns
// fresh values, so callers may mutate the result.
func DemoSeed() []Comment {
	parent := int64(1)
	return []Comment{
		{
			ID:         1,
			ThreadID:   "thread_123",
			AuthorName: "John Doe",
			Content:    "Great article! Thanks for sharing.",
			CreatedAt:  seedEpoch,
			Status:     StatusPending,
		},
		{
			ID:         2,
			ThreadID:   "thread_123",
			AuthorName: "Jane Smith",
			Content:    "I agree with John, very helpful.",
			CreatedAt:  seedEpoch.Add(5 * time.Minute),
			Status:     StatusPending,
			ParentID:   &parent,
		},
		{
			ID:         3,
			ThreadID:   "thread_456",
			AuthorName: "Bob Wilson",
			Content:    "Looking forward to the next post.",
			CreatedAt:  seedEpoch.Add(10 * time.Minute),
			Status:     StatusApproved,
		},
		{
			ID:         4,
			ThreadID:   "thread_456",
			AuthorName: "Alice Brown",
			Content:    "Buy cheap followers at example.invalid",
			CreatedAt:  seedEpoch.Add(15 * time.Minute),
			Status:     StatusRejected,
		},
	}
}
