package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Agora/internal/api/middleware"
	"Agora/internal/auth"
	"Agora/internal/core/comments"
	"Agora/internal/core/session"
	"Agora/internal/core/users"
	"Agora/internal/core/votes"
	"Agora/internal/live"
)

type stubComments struct{}

func (stubComments) GetThread(_ context.Context, req *comments.GetThreadRequest) (*comments.GetThreadResponse, error) {
	return &comments.GetThreadResponse{Comments: []*comments.ThreadViewComment{}, Sort: req.Sort.String()}, nil
}

func (stubComments) GetActorComments(context.Context, *comments.GetActorCommentsRequest) (*comments.GetActorCommentsResponse, error) {
	return &comments.GetActorCommentsResponse{Comments: []*comments.CommentView{}}, nil
}

func (stubComments) CreateComment(context.Context, *session.Session, comments.CreateCommentRequest) (*comments.CreateCommentResponse, error) {
	return &comments.CreateCommentResponse{ID: "c1"}, nil
}

func (stubComments) UpdateComment(context.Context, *session.Session, comments.UpdateCommentRequest) (*comments.CommentView, error) {
	return &comments.CommentView{ID: "c1"}, nil
}

func (stubComments) DeleteComment(context.Context, *session.Session, comments.DeleteCommentRequest) error {
	return nil
}

type stubVotes struct{}

func (stubVotes) Cast(context.Context, *session.Session, votes.CastVoteRequest) (*votes.CastVoteResponse, error) {
	return &votes.CastVoteResponse{Action: votes.ActionCreated}, nil
}

func (stubVotes) Clear(context.Context, *session.Session, votes.ClearVoteRequest) error {
	return nil
}

func (stubVotes) GetViewerVotes(context.Context, string, comments.Kind, []string) (map[string]string, error) {
	return map[string]string{}, nil
}

type stubUsers struct{}

func (stubUsers) EnsureUser(_ context.Context, req users.EnsureUserRequest) (*users.User, error) {
	return &users.User{ID: req.ID, Handle: req.Handle, Role: users.RoleMember}, nil
}

func (stubUsers) GetUser(context.Context, string) (*users.User, error) {
	return nil, users.ErrUserNotFound
}

func (stubUsers) ResolveActor(context.Context, string) (*users.User, error) {
	return &users.User{ID: "u1", Handle: "alice"}, nil
}

func (stubUsers) GetProfile(context.Context, string) (*users.ProfileView, error) {
	return &users.ProfileView{ID: "u1", Handle: "alice"}, nil
}

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	verifier, err := auth.NewTokenVerifier(auth.WithSecret("routes-test-secret-0123456789abcdef"))
	require.NoError(t, err)
	authMiddleware := middleware.NewAuthMiddleware(verifier, stubUsers{}, nil)

	hub := live.NewHub(0, nil)
	t.Cleanup(hub.Close)

	r := chi.NewRouter()
	RegisterCommentRoutes(r, stubComments{}, authMiddleware)
	RegisterVoteRoutes(r, stubVotes{}, authMiddleware)
	RegisterActorRoutes(r, stubUsers{}, stubComments{})
	RegisterLiveRoutes(r, hub, []string{"*"}, authMiddleware, nil)
	return r
}

func TestRoutes_PublicReads(t *testing.T) {
	r := newRouter(t)
	for _, path := range []string{
		"/xrpc/agora.comment.getThread?kind=forum&subject=t1",
		"/xrpc/agora.actor.getComments?actor=alice",
		"/xrpc/agora.actor.getProfile?actor=alice",
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestRoutes_WritesRequireAuth(t *testing.T) {
	r := newRouter(t)
	for _, path := range []string{
		"/xrpc/agora.comment.create",
		"/xrpc/agora.comment.update",
		"/xrpc/agora.comment.delete",
		"/xrpc/agora.vote.cast",
		"/xrpc/agora.vote.clear",
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`)))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRoutes_UnknownMethod(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/xrpc/agora.vote.cast", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
