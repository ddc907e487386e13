package comments

import (
	"time"
)

// Comment represents a comment row as stored by the backend.
// Counters are maintained store-side; nothing in this package mutates them.
type Comment struct {
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	ParentID      *string    `json:"parentId,omitempty" db:"parent_id"`
	AuthorHandle  string     `json:"authorHandle,omitempty" db:"-"`
	ID            string     `json:"id" db:"id"`
	SubjectID     string     `json:"subjectId" db:"subject_id"`
	AuthorID      string     `json:"authorId" db:"author_id"`
	Content       string     `json:"content" db:"content"`
	Kind          Kind       `json:"kind" db:"-"`
	Depth         int        `json:"depth" db:"depth"`
	UpvoteCount   int        `json:"upvoteCount" db:"upvote_count"`
	DownvoteCount int        `json:"downvoteCount" db:"downvote_count"`
}

// NetScore is upvotes minus downvotes.
func (c *Comment) NetScore() int {
	return c.UpvoteCount - c.DownvoteCount
}

// IsTopLevel reports whether the comment replies directly to the subject.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// IsDeleted reports whether the comment has been soft-deleted.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}
