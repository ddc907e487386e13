package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Agora/internal/auth"
	"Agora/internal/core/session"
	"Agora/internal/core/users"
)

const (
	testSecret = "middleware-test-secret-0123456789abcdef"
	testUserID = "0b8f4c1a-6a8e-4a57-9d2b-3c1e5f7a9b01"
)

type fakeUserService struct {
	stored *users.User
	err    error
	calls  int
}

func (f *fakeUserService) EnsureUser(_ context.Context, req users.EnsureUserRequest) (*users.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.stored != nil {
		return f.stored, nil
	}
	return &users.User{ID: req.ID, Handle: req.Handle, Role: users.RoleMember}, nil
}

func (f *fakeUserService) GetUser(context.Context, string) (*users.User, error) {
	return nil, users.ErrUserNotFound
}

func (f *fakeUserService) ResolveActor(context.Context, string) (*users.User, error) {
	return nil, users.ErrUserNotFound
}

func (f *fakeUserService) GetProfile(context.Context, string) (*users.ProfileView, error) {
	return nil, users.ErrUserNotFound
}

func newTestMiddleware(t *testing.T, svc users.UserService) *AuthMiddleware {
	t.Helper()
	v, err := auth.NewTokenVerifier(auth.WithSecret(testSecret))
	require.NoError(t, err)
	return NewAuthMiddleware(v, svc, nil)
}

func createTestToken(t *testing.T, sub, role string, ttl time.Duration) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Handle: "alice",
		Role:   role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestRequireAuth_ValidToken(t *testing.T) {
	svc := &fakeUserService{}
	m := newTestMiddleware(t, svc)

	var got *session.Session
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token := createTestToken(t, testUserID, "", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, testUserID, got.UserID)
	assert.Equal(t, "alice", got.Handle)
	assert.Equal(t, token, got.Token)
	assert.Equal(t, users.RoleMember, got.Role)
	assert.True(t, got.Valid())
	assert.Equal(t, 1, svc.calls)
}

func TestRequireAuth_Rejections(t *testing.T) {
	m := newTestMiddleware(t, &fakeUserService{})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic auth", "Basic dGVzdDp0ZXN0"},
		{"malformed token", "Bearer not-a-valid-jwt"},
		{"expired token", "Bearer " + createTestToken(t, testUserID, "", -time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "AuthenticationRequired")
		})
	}
}

func TestRequireAuth_UserStoreFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid identity", &users.InvalidIDError{ID: "x"}, http.StatusUnauthorized},
		{"handle taken", users.ErrHandleAlreadyTaken, http.StatusUnauthorized},
		{"store down", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMiddleware(t, &fakeUserService{err: tt.err})
			handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer "+createTestToken(t, testUserID, "", time.Hour))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireAuth_StoredRoleWins(t *testing.T) {
	svc := &fakeUserService{stored: &users.User{ID: testUserID, Handle: "alice", Role: users.RoleModerator}}
	m := newTestMiddleware(t, svc)

	var got *session.Session
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testUserID, "member", time.Hour))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.True(t, got.CanModerate())

	// a token claiming admin keeps admin even when the row says moderator
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testUserID, "admin", time.Hour))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, users.RoleAdmin, got.Role)
}

func TestOptionalAuth(t *testing.T) {
	m := newTestMiddleware(t, nil)

	var got *session.Session
	called := 0
	handler := m.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		got = session.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got, "anonymous request")

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got, "invalid token falls through anonymously")

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testUserID, "", time.Hour))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, testUserID, got.UserID)
	assert.Equal(t, 3, called)
}
