package comments

import "context"

// Repository defines the data access interface for comments.
// Every method takes the Kind explicitly; implementations resolve it through
// Kind.Table and never build identifiers from caller input.
type Repository interface {
	// Create inserts a new comment. ID and CreatedAt are set by the caller.
	Create(ctx context.Context, comment *Comment) error

	// GetByID returns a comment, including soft-deleted ones
	GetByID(ctx context.Context, kind Kind, id string) (*Comment, error)

	// UpdateContent replaces the content of a live comment and sets updated_at
	UpdateContent(ctx context.Context, kind Kind, id, content string) (*Comment, error)

	// SoftDelete sets deleted_at. Idempotent.
	SoftDelete(ctx context.Context, kind Kind, id string) error

	// ListBySubject returns the flat comment list of one thread, newest first,
	// capped at limit rows. Soft-deleted comments are included so replies keep their parent.
	ListBySubject(ctx context.Context, kind Kind, subjectID string, limit int) ([]*Comment, error)

	// ListByAuthor returns a user's live comments across all kinds, newest first
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]*Comment, error)

	// SubjectExists checks that the forum topic or product row exists
	SubjectExists(ctx context.Context, kind Kind, subjectID string) (bool, error)
}

// ViewerVotes resolves the caller's vote direction on a batch of comments.
// Implemented by the votes service.
type ViewerVotes interface {
	GetViewerVotes(ctx context.Context, userID string, kind Kind, commentIDs []string) (map[string]string, error)
}
