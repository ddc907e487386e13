package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Agora/internal/core/comments"
	"Agora/internal/core/session"
	"Agora/internal/live"
)

type voteService struct {
	repo      Repository
	subjects  *SubjectValidator
	cache     *VoteCache
	publisher live.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new vote service.
// cache and publisher are optional.
func NewService(repo Repository, subjects *SubjectValidator, cache *VoteCache, publisher live.Publisher, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = live.NopPublisher{}
	}
	return &voteService{
		repo:      repo,
		subjects:  subjects,
		cache:     cache,
		publisher: publisher,
		logger:    logger.Named("votes"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Cast creates a new vote or toggles an existing one
func (s *voteService) Cast(ctx context.Context, sess *session.Session, req CastVoteRequest) (*CastVoteResponse, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	direction, err := ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	if req.Subject == "" {
		return nil, NewValidationError("subject", "required")
	}

	subject, err := s.subjects.Resolve(ctx, req.Kind, req.Subject)
	if err != nil {
		return nil, err
	}

	resp, err := s.toggle(ctx, sess.UserID, subject, direction)
	if errors.Is(err, ErrVoteAlreadyExists) || errors.Is(err, ErrVoteNotFound) {
		// A concurrent request created or retracted the vote between our read
		// and write. Re-read once and apply the toggle against the winner.
		resp, err = s.toggle(ctx, sess.UserID, subject, direction)
	}
	if err != nil {
		s.logger.Error("failed to cast vote",
			zap.Error(err),
			zap.String("voter", sess.UserID),
			zap.Stringer("kind", req.Kind),
			zap.String("subject", req.Subject),
			zap.String("direction", string(direction)))
		return nil, err
	}

	s.notify(ctx, subject)
	return resp, nil
}

func (s *voteService) toggle(ctx context.Context, userID string, subject *comments.Comment, direction Direction) (*CastVoteResponse, error) {
	existing, err := s.repo.Get(ctx, userID, subject.Kind, subject.ID)
	if err != nil && !errors.Is(err, ErrVoteNotFound) {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}

	if existing != nil && existing.Direction == direction {
		if err := s.repo.Delete(ctx, existing); err != nil {
			if errors.Is(err, ErrVoteNotFound) {
				// already retracted by a concurrent request; the outcome is the same
				return &CastVoteResponse{Action: ActionRemoved}, nil
			}
			return nil, fmt.Errorf("failed to delete vote: %w", err)
		}
		s.logger.Info("vote toggled off",
			zap.String("voter", userID),
			zap.String("subject", subject.ID),
			zap.String("direction", string(direction)))
		if s.cache != nil {
			s.cache.RemoveVote(userID, subject.Kind, subject.ID)
		}
		return &CastVoteResponse{Action: ActionRemoved}, nil
	}

	next := &Vote{
		ID:          uuid.NewString(),
		UserID:      userID,
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
		Direction:   direction,
		CreatedAt:   s.now(),
	}

	action := ActionCreated
	if existing != nil {
		action = ActionReplaced
		if err := s.repo.Replace(ctx, existing, next); err != nil {
			return nil, fmt.Errorf("failed to replace vote: %w", err)
		}
		s.logger.Info("vote direction changed",
			zap.String("voter", userID),
			zap.String("subject", subject.ID),
			zap.String("old_direction", string(existing.Direction)),
			zap.String("new_direction", string(direction)))
	} else {
		if err := s.repo.Create(ctx, next); err != nil {
			if errors.Is(err, ErrVoteAlreadyExists) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to create vote: %w", err)
		}
		s.logger.Info("vote created",
			zap.String("voter", userID),
			zap.String("subject", subject.ID),
			zap.String("direction", string(direction)))
	}

	if s.cache != nil {
		s.cache.SetVote(userID, subject.Kind, subject.ID, direction)
	}
	return &CastVoteResponse{Vote: next, Action: action}, nil
}

// Clear removes the caller's vote on a comment
func (s *voteService) Clear(ctx context.Context, sess *session.Session, req ClearVoteRequest) error {
	if !sess.Valid() {
		return session.ErrNoSession
	}
	if req.Subject == "" {
		return NewValidationError("subject", "required")
	}
	if !req.Kind.Valid() {
		return ErrInvalidSubject
	}

	existing, err := s.repo.Get(ctx, sess.UserID, req.Kind, req.Subject)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing); err != nil {
		if errors.Is(err, ErrVoteNotFound) {
			return err
		}
		s.logger.Error("failed to delete vote",
			zap.Error(err),
			zap.String("voter", sess.UserID),
			zap.String("subject", req.Subject))
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	s.logger.Info("vote deleted",
		zap.String("voter", sess.UserID),
		zap.String("subject", req.Subject),
		zap.String("direction", string(existing.Direction)))

	if s.cache != nil {
		s.cache.RemoveVote(sess.UserID, req.Kind, req.Subject)
	}

	// Clear works on soft-deleted comments too; the thread lookup is best effort.
	if subject, err := s.subjects.Resolve(ctx, req.Kind, req.Subject); err == nil {
		s.notify(ctx, subject)
	}
	return nil
}

// GetViewerVotes answers from the cache when possible, populating it on first use.
// If the cache cannot be filled it falls back to a direct batch query.
func (s *voteService) GetViewerVotes(ctx context.Context, userID string, kind comments.Kind, commentIDs []string) (map[string]string, error) {
	if userID == "" || len(commentIDs) == 0 {
		return map[string]string{}, nil
	}

	if s.cache != nil {
		if !s.cache.IsCached(userID) {
			if err := s.cache.Load(ctx, s.repo, userID); err != nil {
				s.logger.Warn("failed to populate vote cache, falling back to direct query",
					zap.Error(err),
					zap.String("user", userID))
			}
		}
		if votes, ok := s.cache.Lookup(userID, kind, commentIDs); ok {
			return votes, nil
		}
	}

	directions, err := s.repo.GetDirections(ctx, userID, kind, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer votes: %w", err)
	}
	out := make(map[string]string, len(directions))
	for id, d := range directions {
		out[id] = string(d)
	}
	return out, nil
}

// notify tells thread subscribers that counters changed. Best effort.
func (s *voteService) notify(ctx context.Context, subject *comments.Comment) {
	if subject.SubjectID == "" {
		return
	}
	e := live.NewEvent(live.VoteChanged, subject.Kind.String(), subject.SubjectID, subject.ID)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish vote event", zap.Error(err), zap.String("comment", subject.ID))
	}
}
