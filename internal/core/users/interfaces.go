package users

import "context"

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	// Upsert inserts the user or refreshes handle/display name on conflict.
	// The stored role is never overwritten.
	Upsert(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByHandle(ctx context.Context, handle string) (*User, error)

	// GetByIDs retrieves multiple users in one query.
	// Missing users are simply absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)

	GetProfileStats(ctx context.Context, id string) (*ProfileStats, error)
}

// UserService defines the interface for user business logic
type UserService interface {
	EnsureUser(ctx context.Context, req EnsureUserRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)

	// ResolveActor accepts either a user id or a handle.
	ResolveActor(ctx context.Context, actor string) (*User, error)

	GetProfile(ctx context.Context, actor string) (*ProfileView, error)
}
