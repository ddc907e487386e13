package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"

	"Agora/internal/core/session"
	"Agora/internal/core/users"
	"Agora/internal/live"
)

const (
	// maxCommentGraphemes is the content limit for one comment
	maxCommentGraphemes = 10000

	// maxThreadComments caps the flat snapshot loaded for one thread
	maxThreadComments = 2000

	defaultActorCommentsLimit = 50
	maxActorCommentsLimit     = 100
)

// Service defines the business logic interface for comments.
// Write operations take the caller's session explicitly.
type Service interface {
	// GetThread loads a subject's comments and arranges them into ordered threads
	GetThread(ctx context.Context, req *GetThreadRequest) (*GetThreadResponse, error)

	// GetActorComments lists a user's live comments, newest first
	GetActorComments(ctx context.Context, req *GetActorCommentsRequest) (*GetActorCommentsResponse, error)

	CreateComment(ctx context.Context, sess *session.Session, req CreateCommentRequest) (*CreateCommentResponse, error)
	UpdateComment(ctx context.Context, sess *session.Session, req UpdateCommentRequest) (*CommentView, error)
	DeleteComment(ctx context.Context, sess *session.Session, req DeleteCommentRequest) error
}

type commentService struct {
	repo      Repository
	userRepo  users.UserRepository
	votes     ViewerVotes
	publisher live.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewCommentService creates a new comment service.
// votes and publisher may be nil: viewer state is then omitted and change events are not sent.
func NewCommentService(
	repo Repository,
	userRepo users.UserRepository,
	votes ViewerVotes,
	publisher live.Publisher,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = live.NopPublisher{}
	}
	return &commentService{
		repo:      repo,
		userRepo:  userRepo,
		votes:     votes,
		publisher: publisher,
		logger:    logger.Named("comments"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetThread fetches a flat snapshot of the subject's comments and builds the reply forest.
// The snapshot is read once; ordering and nesting are computed entirely in memory.
func (s *commentService) GetThread(ctx context.Context, req *GetThreadRequest) (*GetThreadResponse, error) {
	if err := validateGetThreadRequest(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.SubjectExists(ctx, req.Kind, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check subject: %w", err)
	}
	if !exists {
		return nil, ErrSubjectNotFound
	}

	list, err := s.repo.ListBySubject(ctx, req.Kind, req.SubjectID, maxThreadComments)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	forest := BuildForest(list, req.Sort)
	if hidden := len(forest.Orphans) + len(forest.Truncated); hidden > 0 {
		s.logger.Debug("thread has unrendered comments",
			zap.Stringer("kind", req.Kind),
			zap.String("subject", req.SubjectID),
			zap.Int("orphans", len(forest.Orphans)),
			zap.Int("truncated", len(forest.Truncated)))
	}

	authors := s.loadAuthors(ctx, list)
	viewerVotes := s.loadViewerVotes(ctx, req.ViewerID, req.Kind, forest)

	return &GetThreadResponse{
		Comments: s.buildThreadViews(forest.Threads, authors, viewerVotes, req.ViewerID != nil),
		Sort:     req.Sort.String(),
		Total:    forest.Count(),
		Hidden:   len(forest.Orphans) + len(forest.Truncated),
	}, nil
}

// loadAuthors hydrates author handles in one query.
// A lookup failure degrades to id-only authors rather than failing the thread.
func (s *commentService) loadAuthors(ctx context.Context, list []*Comment) map[string]*users.User {
	if s.userRepo == nil || len(list) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	ids := make([]string, 0, len(list))
	for _, c := range list {
		if c == nil || c.AuthorID == "" {
			continue
		}
		if _, ok := seen[c.AuthorID]; ok {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		ids = append(ids, c.AuthorID)
	}
	if len(ids) == 0 {
		return nil
	}

	authors, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load comment authors", zap.Error(err), zap.Int("count", len(ids)))
		return nil
	}
	return authors
}

func (s *commentService) loadViewerVotes(ctx context.Context, viewerID *string, kind Kind, forest *Forest) map[string]string {
	if viewerID == nil || *viewerID == "" || s.votes == nil {
		return nil
	}
	ids := make([]string, 0, forest.Count())
	Walk(forest.Threads, func(n *ThreadNode) {
		ids = append(ids, n.Comment.ID)
	})
	if len(ids) == 0 {
		return nil
	}

	votes, err := s.votes.GetViewerVotes(ctx, *viewerID, kind, ids)
	if err != nil {
		s.logger.Warn("failed to load viewer votes", zap.Error(err), zap.String("viewer", *viewerID))
		return nil
	}
	return votes
}

func (s *commentService) buildThreadViews(
	nodes []*ThreadNode,
	authors map[string]*users.User,
	viewerVotes map[string]string,
	withViewer bool,
) []*ThreadViewComment {
	result := make([]*ThreadViewComment, 0, len(nodes))
	for _, n := range nodes {
		view := &ThreadViewComment{
			Comment: buildCommentView(n.Comment, authors, viewerVotes, withViewer),
		}
		view.Comment.Stats.ReplyCount = len(n.Replies)
		if len(n.Replies) > 0 {
			view.Replies = s.buildThreadViews(n.Replies, authors, viewerVotes, withViewer)
		}
		result = append(result, view)
	}
	return result
}

// buildCommentView renders one comment. Deleted comments keep their place in the
// thread but lose their content and author.
func buildCommentView(c *Comment, authors map[string]*users.User, viewerVotes map[string]string, withViewer bool) *CommentView {
	view := &CommentView{
		ID:        c.ID,
		SubjectID: c.SubjectID,
		Kind:      c.Kind,
		Depth:     c.Depth,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		Stats: &CommentStats{
			Upvotes:   c.UpvoteCount,
			Downvotes: c.DownvoteCount,
			Score:     c.NetScore(),
		},
	}
	if !c.IsTopLevel() {
		parent := *c.ParentID
		view.ParentID = &parent
	}

	if c.IsDeleted() {
		view.IsDeleted = true
		return view
	}

	view.Content = c.Content
	if c.UpdatedAt != nil {
		updated := c.UpdatedAt.UTC().Format(time.RFC3339)
		view.UpdatedAt = &updated
	}

	author := &AuthorView{ID: c.AuthorID, Handle: c.AuthorHandle}
	if u, ok := authors[c.AuthorID]; ok {
		author.Handle = u.Handle
		author.DisplayName = u.DisplayName
	}
	view.Author = author

	if withViewer {
		view.Viewer = &CommentViewerState{}
		if dir, ok := viewerVotes[c.ID]; ok {
			d := dir
			view.Viewer.Vote = &d
		}
	}
	return view
}

// CreateComment adds a top-level comment or a reply to the subject's thread
func (s *commentService) CreateComment(ctx context.Context, sess *session.Session, req CreateCommentRequest) (*CreateCommentResponse, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	if _, err := req.Kind.Table(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SubjectID) == "" {
		return nil, ErrSubjectNotFound
	}

	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.SubjectExists(ctx, req.Kind, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check subject: %w", err)
	}
	if !exists {
		return nil, ErrSubjectNotFound
	}

	depth := 0
	var parentID *string
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.repo.GetByID(ctx, req.Kind, *req.ParentID)
		if err != nil {
			if errors.Is(err, ErrCommentNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
		if parent.SubjectID != req.SubjectID || parent.IsDeleted() {
			return nil, ErrInvalidReply
		}
		depth = parent.Depth + 1
		if depth > MaxThreadDepth {
			return nil, ErrThreadTooDeep
		}
		pid := parent.ID
		parentID = &pid
	}

	comment := &Comment{
		ID:           uuid.NewString(),
		Kind:         req.Kind,
		SubjectID:    req.SubjectID,
		ParentID:     parentID,
		AuthorID:     sess.UserID,
		AuthorHandle: sess.Handle,
		Content:      content,
		Depth:        depth,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			zap.Error(err),
			zap.String("author", sess.UserID),
			zap.Stringer("kind", req.Kind),
			zap.String("subject", req.SubjectID))
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("comment created",
		zap.String("id", comment.ID),
		zap.String("author", sess.UserID),
		zap.Stringer("kind", req.Kind),
		zap.String("subject", req.SubjectID),
		zap.Int("depth", depth))

	s.notify(ctx, live.CommentCreated, comment)

	return &CreateCommentResponse{ID: comment.ID, Depth: depth}, nil
}

// UpdateComment replaces the content of the caller's own comment
func (s *commentService) UpdateComment(ctx context.Context, sess *session.Session, req UpdateCommentRequest) (*CommentView, error) {
	if !sess.Valid() {
		return nil, session.ErrNoSession
	}
	if _, err := req.Kind.Table(); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, ErrCommentNotFound
	}

	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, req.Kind, req.ID)
	if err != nil {
		return nil, err
	}
	if existing.IsDeleted() {
		return nil, ErrCommentNotFound
	}
	if !sess.Owns(existing.AuthorID) {
		return nil, ErrNotAuthorized
	}

	updated, err := s.repo.UpdateContent(ctx, req.Kind, req.ID, content)
	if err != nil {
		s.logger.Error("failed to update comment", zap.Error(err), zap.String("id", req.ID))
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	updated.Kind = req.Kind

	s.logger.Info("comment updated", zap.String("id", req.ID), zap.String("author", sess.UserID))
	s.notify(ctx, live.CommentUpdated, updated)

	authors := map[string]*users.User{}
	if s.userRepo != nil {
		if u, err := s.userRepo.GetByID(ctx, updated.AuthorID); err == nil {
			authors[u.ID] = u
		}
	}
	return buildCommentView(updated, authors, nil, false), nil
}

// DeleteComment soft-deletes a comment. Authors may delete their own comments;
// moderators may delete anyone's. Replies stay attached to the tombstone.
func (s *commentService) DeleteComment(ctx context.Context, sess *session.Session, req DeleteCommentRequest) error {
	if !sess.Valid() {
		return session.ErrNoSession
	}
	if _, err := req.Kind.Table(); err != nil {
		return err
	}
	if req.ID == "" {
		return ErrCommentNotFound
	}

	existing, err := s.repo.GetByID(ctx, req.Kind, req.ID)
	if err != nil {
		return err
	}
	if !sess.Owns(existing.AuthorID) && !sess.CanModerate() {
		return ErrNotAuthorized
	}
	if existing.IsDeleted() {
		return nil
	}

	if err := s.repo.SoftDelete(ctx, req.Kind, req.ID); err != nil {
		s.logger.Error("failed to delete comment", zap.Error(err), zap.String("id", req.ID))
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.logger.Info("comment deleted",
		zap.String("id", req.ID),
		zap.String("by", sess.UserID),
		zap.Bool("moderator", existing.AuthorID != sess.UserID))
	existing.Kind = req.Kind
	s.notify(ctx, live.CommentDeleted, existing)
	return nil
}

// GetActorComments lists one user's live comments across every kind
func (s *commentService) GetActorComments(ctx context.Context, req *GetActorCommentsRequest) (*GetActorCommentsResponse, error) {
	if err := validateGetActorCommentsRequest(req); err != nil {
		return nil, err
	}

	list, err := s.repo.ListByAuthor(ctx, req.ActorID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actor comments: %w", err)
	}

	authors := s.loadAuthors(ctx, list)
	views := make([]*CommentView, 0, len(list))
	for _, c := range list {
		if c == nil || c.IsDeleted() {
			continue
		}
		views = append(views, buildCommentView(c, authors, nil, false))
	}
	return &GetActorCommentsResponse{Comments: views}, nil
}

// notify publishes a change event. Delivery is best effort and never fails the write.
func (s *commentService) notify(ctx context.Context, t live.EventType, c *Comment) {
	e := live.NewEvent(t, c.Kind.String(), c.SubjectID, c.ID)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish change event",
			zap.Error(err),
			zap.String("type", string(t)),
			zap.String("comment", c.ID))
	}
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrContentEmpty
	}
	if uniseg.GraphemeClusterCount(content) > maxCommentGraphemes {
		return "", ErrContentTooLong
	}
	return content, nil
}

func validateGetThreadRequest(req *GetThreadRequest) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if _, err := req.Kind.Table(); err != nil {
		return err
	}
	if strings.TrimSpace(req.SubjectID) == "" {
		return ErrSubjectNotFound
	}
	switch req.Sort {
	case SortByRecency, SortByUpvotes, SortByDownvotes:
	default:
		req.Sort = SortByRecency
	}
	return nil
}

func validateGetActorCommentsRequest(req *GetActorCommentsRequest) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if req.ActorID == "" {
		return users.ErrUserNotFound
	}
	if req.Limit <= 0 {
		req.Limit = defaultActorCommentsLimit
	}
	if req.Limit > maxActorCommentsLimit {
		req.Limit = maxActorCommentsLimit
	}
	return nil
}
