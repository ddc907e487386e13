package votes

import (
	"strings"
	"time"

	"Agora/internal/core/comments"
)

// Direction is the polarity of a vote.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up" or "down", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionUp {
		return DirectionDown
	}
	return DirectionUp
}

// Vote is one user's active vote on one comment.
// The store holds at most one row per (UserID, SubjectKind, SubjectID).
type Vote struct {
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"userId" db:"user_id"`
	SubjectID   string        `json:"subject" db:"subject_id"`
	Direction   Direction     `json:"direction" db:"direction"`
	SubjectKind comments.Kind `json:"kind" db:"subject_kind"`
}

// subjectKey identifies a comment across kinds; used as the cache key.
func subjectKey(kind comments.Kind, subjectID string) string {
	return kind.String() + ":" + subjectID
}
