package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"Agora/internal/api/handlers"
	"Agora/internal/auth"
	"Agora/internal/core/session"
	"Agora/internal/core/users"
)

// AuthMiddleware turns backend-issued bearer tokens into a *session.Session.
// Verified callers are registered through UserService.EnsureUser on first sight.
type AuthMiddleware struct {
	verifier auth.Verifier
	users    users.UserService
	logger   *zap.Logger
}

// NewAuthMiddleware creates the auth middleware.
// userService may be nil, in which case sessions are built from claims alone.
func NewAuthMiddleware(verifier auth.Verifier, userService users.UserService, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		verifier: verifier,
		users:    userService,
		logger:   logger.Named("auth"),
	}
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired",
				"Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		sess, status := m.authenticate(r, strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		switch status {
		case http.StatusOK:
		case http.StatusInternalServerError:
			handlers.WriteError(w, status, "InternalServerError", "Failed to load user")
			return
		default:
			handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

// OptionalAuth attaches a session when a valid token is present and otherwise
// lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		sess, status := m.authenticate(r, strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if status != http.StatusOK {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

// authenticate verifies the token and builds the session.
// The returned status is 200 on success, 401 for bad credentials, 500 for store failures.
func (m *AuthMiddleware) authenticate(r *http.Request, token string) (*session.Session, int) {
	claims, err := m.verifier.Verify(r.Context(), token)
	if err != nil {
		m.logger.Info("token rejected",
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil, http.StatusUnauthorized
	}

	sess := &session.Session{
		UserID: claims.Subject,
		Handle: claims.Handle,
		Role:   users.ParseRole(claims.Role),
		Token:  token,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	if m.users == nil {
		return sess, http.StatusOK
	}

	user, err := m.users.EnsureUser(r.Context(), users.EnsureUserRequest{
		ID:          claims.Subject,
		Handle:      claims.Handle,
		DisplayName: claims.DisplayName,
	})
	if err != nil {
		if users.IsValidationError(err) || errors.Is(err, users.ErrHandleAlreadyTaken) {
			m.logger.Info("token identity rejected", zap.String("sub", claims.Subject), zap.Error(err))
			return nil, http.StatusUnauthorized
		}
		m.logger.Error("failed to ensure user", zap.String("sub", claims.Subject), zap.Error(err))
		return nil, http.StatusInternalServerError
	}

	sess.Handle = user.Handle
	// moderators are promoted in the database; the token may lag behind
	if user.Role.AtLeast(sess.Role) {
		sess.Role = user.Role
	}
	return sess, http.StatusOK
}
