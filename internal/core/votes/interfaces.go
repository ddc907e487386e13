package votes

import (
	"context"

	"Agora/internal/core/comments"
	"Agora/internal/core/session"
)

// Service defines the business logic interface for votes
type Service interface {
	// Cast applies a vote with toggle semantics:
	//   - No vote -> create vote
	//   - Same direction -> delete vote (toggle off)
	//   - Different direction -> replace with a single vote in the new direction
	// Counters are updated by the store; callers refetch to display them.
	Cast(ctx context.Context, sess *session.Session, req CastVoteRequest) (*CastVoteResponse, error)

	// Clear retracts the caller's vote. Returns ErrVoteNotFound if there is none.
	Clear(ctx context.Context, sess *session.Session, req ClearVoteRequest) error

	// GetViewerVotes returns commentID -> "up"/"down" for the comments the user voted on
	GetViewerVotes(ctx context.Context, userID string, kind comments.Kind, commentIDs []string) (map[string]string, error)
}

// Repository defines the data access interface for votes.
// Every write runs in one transaction together with the matching
// upvote_count/downvote_count change on the comment row.
type Repository interface {
	// Get returns the user's active vote on a comment, or ErrVoteNotFound
	Get(ctx context.Context, userID string, kind comments.Kind, subjectID string) (*Vote, error)

	// Create inserts a vote. Returns ErrVoteAlreadyExists if one is already active.
	Create(ctx context.Context, vote *Vote) error

	// Replace deletes the old vote and inserts next in one transaction
	Replace(ctx context.Context, old, next *Vote) error

	// Delete removes a vote. Returns ErrVoteNotFound if it is already gone.
	Delete(ctx context.Context, vote *Vote) error

	// ListByUser returns every active vote of a user
	ListByUser(ctx context.Context, userID string) ([]*Vote, error)

	// GetDirections returns subjectID -> direction for the given comments
	GetDirections(ctx context.Context, userID string, kind comments.Kind, subjectIDs []string) (map[string]Direction, error)
}
