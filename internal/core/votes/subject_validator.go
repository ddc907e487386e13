package votes

import (
	"context"
	"errors"
	"fmt"

	"Agora/internal/core/comments"
)

// CommentLookup loads the comment a vote points at.
// comments.Repository satisfies it.
type CommentLookup interface {
	GetByID(ctx context.Context, kind comments.Kind, id string) (*comments.Comment, error)
}

// SubjectValidator checks that votes only land on live comments
type SubjectValidator struct {
	lookup CommentLookup
}

// NewSubjectValidator wraps a comment lookup.
// A nil lookup accepts every subject and reports no thread.
func NewSubjectValidator(lookup CommentLookup) *SubjectValidator {
	return &SubjectValidator{lookup: lookup}
}

// Resolve returns the comment being voted on.
// Unknown kinds fail with ErrInvalidSubject, missing or deleted comments with ErrSubjectNotFound.
func (v *SubjectValidator) Resolve(ctx context.Context, kind comments.Kind, id string) (*comments.Comment, error) {
	if !kind.Valid() || id == "" {
		return nil, ErrInvalidSubject
	}
	if v == nil || v.lookup == nil {
		return &comments.Comment{ID: id, Kind: kind}, nil
	}

	c, err := v.lookup.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, comments.ErrCommentNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to load vote subject: %w", err)
	}
	if c.IsDeleted() {
		return nil, ErrSubjectNotFound
	}
	c.Kind = kind
	return c, nil
}
