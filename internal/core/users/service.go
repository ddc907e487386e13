package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handles: 3-32 chars, lowercase alphanumeric plus '_' and '-', starting with a letter or digit
var handleRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,31}$`)

type userService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// EnsureUser registers the user if needed. Idempotent.
// Called after a token is verified so that comments can be joined to a handle.
func (s *userService) EnsureUser(ctx context.Context, req EnsureUserRequest) (*User, error) {
	if err := validateID(req.ID); err != nil {
		return nil, err
	}

	handle := normalizeHandle(req.Handle)
	if err := validateHandle(handle); err != nil {
		return nil, err
	}

	user, err := s.userRepo.Upsert(ctx, &User{
		ID:          strings.TrimSpace(req.ID),
		Handle:      handle,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        RoleMember,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	s.logger.Debug("user ensured", zap.String("user", user.ID), zap.String("handle", user.Handle))
	return user, nil
}

// GetUser retrieves a user by id
func (s *userService) GetUser(ctx context.Context, id string) (*User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

// ResolveActor looks a user up by id when the value parses as a UUID, by handle otherwise.
func (s *userService) ResolveActor(ctx context.Context, actor string) (*User, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, &InvalidHandleError{Handle: actor, Reason: "actor is required"}
	}
	if _, err := uuid.Parse(actor); err == nil {
		return s.userRepo.GetByID(ctx, actor)
	}
	return s.userRepo.GetByHandle(ctx, normalizeHandle(actor))
}

// GetProfile retrieves a user's profile with aggregated statistics.
// Stats are best effort: a failing aggregate query still returns the profile.
func (s *userService) GetProfile(ctx context.Context, actor string) (*ProfileView, error) {
	user, err := s.ResolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{
		ID:          user.ID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}

	stats, err := s.userRepo.GetProfileStats(ctx, user.ID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("failed to load profile stats", zap.String("user", user.ID), zap.Error(err))
		return view, nil
	}
	view.Stats = stats
	return view, nil
}

func normalizeHandle(handle string) string {
	return strings.TrimSpace(strings.ToLower(handle))
}

func validateID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return &InvalidIDError{ID: id}
	}
	return nil
}

func validateHandle(handle string) error {
	if handle == "" {
		return &InvalidHandleError{Handle: handle, Reason: "handle is required"}
	}
	if !handleRegex.MatchString(handle) {
		return &InvalidHandleError{
			Handle: handle,
			Reason: "must be 3-32 characters of lowercase letters, digits, '_' or '-'",
		}
	}
	return nil
}
