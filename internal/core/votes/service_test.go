package votes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Agora/internal/core/comments"
	"Agora/internal/core/session"
	"Agora/internal/core/users"
	"Agora/internal/live"
)

// Mock repositories for testing
type mockVoteRepository struct {
	mock.Mock
}

func (m *mockVoteRepository) Get(ctx context.Context, userID string, kind comments.Kind, subjectID string) (*Vote, error) {
	args := m.Called(ctx, userID, kind, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Vote), args.Error(1)
}

func (m *mockVoteRepository) Create(ctx context.Context, vote *Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *mockVoteRepository) Replace(ctx context.Context, old, next *Vote) error {
	args := m.Called(ctx, old, next)
	return args.Error(0)
}

func (m *mockVoteRepository) Delete(ctx context.Context, vote *Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *mockVoteRepository) ListByUser(ctx context.Context, userID string) ([]*Vote, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Vote), args.Error(1)
}

func (m *mockVoteRepository) GetDirections(ctx context.Context, userID string, kind comments.Kind, ids []string) (map[string]Direction, error) {
	args := m.Called(ctx, userID, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]Direction), args.Error(1)
}

type mockCommentLookup struct {
	mock.Mock
}

func (m *mockCommentLookup) GetByID(ctx context.Context, kind comments.Kind, id string) (*comments.Comment, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*comments.Comment), args.Error(1)
}

type capturePublisher struct {
	events []live.Event
}

func (p *capturePublisher) Publish(ctx context.Context, e live.Event) error {
	p.events = append(p.events, e)
	return nil
}

const (
	voterID   = "c3c3c3c3-0000-4000-8000-000000000003"
	commentID = "comment-1"
)

func voterSession() *session.Session {
	return &session.Session{UserID: voterID, Handle: "carol", Role: users.RoleMember, ExpiresAt: time.Now().Add(time.Hour)}
}

func newTestService(t *testing.T) (*mockVoteRepository, *capturePublisher, Service) {
	t.Helper()
	repo := new(mockVoteRepository)
	lookup := new(mockCommentLookup)
	lookup.On("GetByID", mock.Anything, comments.KindForum, commentID).
		Return(&comments.Comment{ID: commentID, SubjectID: "topic-1"}, nil).Maybe()
	pub := &capturePublisher{}
	return repo, pub, NewService(repo, NewSubjectValidator(lookup), nil, pub, nil)
}

func castReq(dir string) CastVoteRequest {
	return CastVoteRequest{Kind: comments.KindForum, Subject: commentID, Direction: dir}
}

func TestCast_NoPriorVoteCreates(t *testing.T) {
	repo, pub, svc := newTestService(t)
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(nil, ErrVoteNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(v *Vote) bool {
		return v.UserID == voterID && v.SubjectID == commentID && v.Direction == DirectionUp && v.ID != ""
	})).Return(nil)

	resp, err := svc.Cast(context.Background(), voterSession(), castReq("up"))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, resp.Action)
	require.NotNil(t, resp.Vote)
	assert.Equal(t, DirectionUp, resp.Vote.Direction)

	require.Len(t, pub.events, 1)
	assert.Equal(t, live.VoteChanged, pub.events[0].Type)
	assert.Equal(t, "forum:topic-1", pub.events[0].Topic())
	assert.Equal(t, commentID, pub.events[0].CommentID)
	repo.AssertExpectations(t)
}

func TestCast_SameDirectionTogglesOff(t *testing.T) {
	repo, _, svc := newTestService(t)
	existing := &Vote{ID: "v1", UserID: voterID, SubjectKind: comments.KindForum, SubjectID: commentID, Direction: DirectionUp}
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(existing, nil)
	repo.On("Delete", mock.Anything, existing).Return(nil)

	resp, err := svc.Cast(context.Background(), voterSession(), castReq("up"))
	require.NoError(t, err)
	assert.Equal(t, ActionRemoved, resp.Action)
	assert.Nil(t, resp.Vote)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCast_OppositeDirectionReplaces(t *testing.T) {
	repo, _, svc := newTestService(t)
	existing := &Vote{ID: "v1", UserID: voterID, SubjectKind: comments.KindForum, SubjectID: commentID, Direction: DirectionUp}
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(existing, nil)
	repo.On("Replace", mock.Anything, existing, mock.MatchedBy(func(v *Vote) bool {
		return v.Direction == DirectionDown && v.ID != existing.ID
	})).Return(nil)

	resp, err := svc.Cast(context.Background(), voterSession(), castReq("down"))
	require.NoError(t, err)
	assert.Equal(t, ActionReplaced, resp.Action)
	assert.Equal(t, DirectionDown, resp.Vote.Direction)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCast_ConcurrentCreateRetriesToggle(t *testing.T) {
	repo, _, svc := newTestService(t)
	winner := &Vote{ID: "v9", UserID: voterID, SubjectKind: comments.KindForum, SubjectID: commentID, Direction: DirectionUp}
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(nil, ErrVoteNotFound).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(ErrVoteAlreadyExists).Once()
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(winner, nil).Once()
	repo.On("Delete", mock.Anything, winner).Return(nil).Once()

	resp, err := svc.Cast(context.Background(), voterSession(), castReq("up"))
	require.NoError(t, err)
	assert.Equal(t, ActionRemoved, resp.Action)
	repo.AssertExpectations(t)
}

func TestCast_ConcurrentRetractRetriesToggle(t *testing.T) {
	repo, _, svc := newTestService(t)
	existing := &Vote{ID: "v1", UserID: voterID, SubjectKind: comments.KindForum, SubjectID: commentID, Direction: DirectionUp}
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(existing, nil).Once()
	repo.On("Replace", mock.Anything, existing, mock.Anything).Return(ErrVoteNotFound).Once()
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(nil, ErrVoteNotFound).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(v *Vote) bool {
		return v.Direction == DirectionDown
	})).Return(nil).Once()

	resp, err := svc.Cast(context.Background(), voterSession(), castReq("down"))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, resp.Action)
	assert.Equal(t, DirectionDown, resp.Vote.Direction)
	repo.AssertExpectations(t)
}

func TestCast_Validation(t *testing.T) {
	repo, pub, svc := newTestService(t)

	_, err := svc.Cast(context.Background(), voterSession(), castReq("sideways"))
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.True(t, IsValidationError(err))

	_, err = svc.Cast(context.Background(), voterSession(), CastVoteRequest{Kind: comments.KindForum, Direction: "up"})
	assert.True(t, IsValidationError(err))

	_, err = svc.Cast(context.Background(), voterSession(), CastVoteRequest{Kind: comments.Kind(0), Subject: commentID, Direction: "up"})
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = svc.Cast(context.Background(), nil, castReq("up"))
	assert.ErrorIs(t, err, session.ErrNoSession)

	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, pub.events)
}

func TestCast_SubjectMissingOrDeleted(t *testing.T) {
	repo := new(mockVoteRepository)
	lookup := new(mockCommentLookup)
	deletedAt := time.Now()
	lookup.On("GetByID", mock.Anything, comments.KindProduct, "gone").
		Return(&comments.Comment{ID: "gone", SubjectID: "p1", DeletedAt: &deletedAt}, nil)
	lookup.On("GetByID", mock.Anything, comments.KindProduct, "missing").
		Return(nil, comments.ErrCommentNotFound)
	svc := NewService(repo, NewSubjectValidator(lookup), nil, nil, nil)

	_, err := svc.Cast(context.Background(), voterSession(), CastVoteRequest{Kind: comments.KindProduct, Subject: "gone", Direction: "up"})
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	_, err = svc.Cast(context.Background(), voterSession(), CastVoteRequest{Kind: comments.KindProduct, Subject: "missing", Direction: "down"})
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.True(t, IsNotFound(err))
}

func TestCast_RepositoryErrorWrapped(t *testing.T) {
	repo, pub, svc := newTestService(t)
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(nil, errors.New("connection reset"))

	_, err := svc.Cast(context.Background(), voterSession(), castReq("up"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check existing vote")
	assert.Empty(t, pub.events)
}

func TestClear(t *testing.T) {
	repo, pub, svc := newTestService(t)
	existing := &Vote{ID: "v1", UserID: voterID, SubjectKind: comments.KindForum, SubjectID: commentID, Direction: DirectionDown}
	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(existing, nil).Once()
	repo.On("Delete", mock.Anything, existing).Return(nil).Once()

	err := svc.Clear(context.Background(), voterSession(), ClearVoteRequest{Kind: comments.KindForum, Subject: commentID})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)

	repo.On("Get", mock.Anything, voterID, comments.KindForum, commentID).Return(nil, ErrVoteNotFound).Once()
	err = svc.Clear(context.Background(), voterSession(), ClearVoteRequest{Kind: comments.KindForum, Subject: commentID})
	assert.ErrorIs(t, err, ErrVoteNotFound)
	repo.AssertExpectations(t)
}

func TestGetViewerVotes_UsesCache(t *testing.T) {
	repo := new(mockVoteRepository)
	cache := NewVoteCache(time.Minute, nil)
	svc := NewService(repo, NewSubjectValidator(nil), cache, nil, nil)

	repo.On("ListByUser", mock.Anything, voterID).Return([]*Vote{
		{SubjectKind: comments.KindForum, SubjectID: "a", Direction: DirectionUp},
		{SubjectKind: comments.KindProduct, SubjectID: "b", Direction: DirectionDown},
	}, nil).Once()

	got, err := svc.GetViewerVotes(context.Background(), voterID, comments.KindForum, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "up"}, got)

	// second call is served from the cache
	got, err = svc.GetViewerVotes(context.Background(), voterID, comments.KindProduct, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "down"}, got)
	repo.AssertExpectations(t)
}

func TestGetViewerVotes_FallsBackWhenCacheLoadFails(t *testing.T) {
	repo := new(mockVoteRepository)
	svc := NewService(repo, NewSubjectValidator(nil), NewVoteCache(time.Minute, nil), nil, nil)

	ids := []string{"a", "b"}
	repo.On("ListByUser", mock.Anything, voterID).Return(nil, errors.New("timeout"))
	repo.On("GetDirections", mock.Anything, voterID, comments.KindForum, ids).
		Return(map[string]Direction{"b": DirectionDown}, nil)

	got, err := svc.GetViewerVotes(context.Background(), voterID, comments.KindForum, ids)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "down"}, got)
}

func TestGetViewerVotes_Empty(t *testing.T) {
	repo := new(mockVoteRepository)
	svc := NewService(repo, nil, nil, nil, nil)

	got, err := svc.GetViewerVotes(context.Background(), "", comments.KindForum, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "GetDirections", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" UP ")
	require.NoError(t, err)
	assert.Equal(t, DirectionUp, d)
	assert.Equal(t, DirectionDown, d.Opposite())

	_, err = ParseDirection("")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}
