package users

import (
	"time"
)

// Role is a platform-wide permission level.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var roleRank = map[Role]int{
	RoleMember:    1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// ParseRole converts a stored or claimed role name. Unknown names become RoleMember.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roleRank[r]; ok {
		return r
	}
	return RoleMember
}

// AtLeast reports whether r grants at least the permissions of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// User is a profile row mirrored from the hosted auth backend.
// The backend owns credentials; this table only tracks what the AppView renders.
type User struct {
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	ID          string    `json:"id" db:"id"`
	Handle      string    `json:"handle" db:"handle"`
	DisplayName string    `json:"displayName,omitempty" db:"display_name"`
	Role        Role      `json:"role" db:"role"`
}

// EnsureUserRequest registers the caller on first sight.
type EnsureUserRequest struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
}

// ProfileStats contains aggregated user statistics
type ProfileStats struct {
	CommentCount int `json:"commentCount"`
	VoteCount    int `json:"voteCount"`
	Reputation   int `json:"reputation"` // net score across the user's comments
}

// ProfileView is the getProfile response body
type ProfileView struct {
	CreatedAt   time.Time     `json:"createdAt"`
	Stats       *ProfileStats `json:"stats,omitempty"`
	ID          string        `json:"id"`
	Handle      string        `json:"handle"`
	DisplayName string        `json:"displayName,omitempty"`
	Role        Role          `json:"role"`
}
