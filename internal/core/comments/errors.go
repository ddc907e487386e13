package comments

import "errors"

var (
	// ErrCommentNotFound indicates the requested comment doesn't exist
	ErrCommentNotFound = errors.New("comment not found")

	// ErrSubjectNotFound indicates the forum topic or product doesn't exist
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrParentNotFound indicates the parent comment doesn't exist in this thread
	ErrParentNotFound = errors.New("parent comment not found")

	// ErrInvalidKind indicates an unknown comment kind
	ErrInvalidKind = errors.New("invalid comment kind")

	// ErrInvalidReply indicates the parent belongs to another thread or is deleted
	ErrInvalidReply = errors.New("invalid reply reference")

	// ErrContentTooLong indicates comment content exceeds 10000 graphemes
	ErrContentTooLong = errors.New("comment content exceeds 10000 graphemes")

	// ErrContentEmpty indicates comment content is empty
	ErrContentEmpty = errors.New("comment content is required")

	// ErrThreadTooDeep indicates a reply would exceed MaxThreadDepth
	ErrThreadTooDeep = errors.New("reply nesting limit reached")

	// ErrNotAuthorized indicates the user is not authorized to perform this action
	ErrNotAuthorized = errors.New("not authorized")

	// ErrCommentAlreadyExists indicates a comment with this id already exists
	ErrCommentAlreadyExists = errors.New("comment already exists")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrSubjectNotFound)
}

// IsConflict checks if an error is a conflict/already exists error
func IsConflict(err error) bool {
	return errors.Is(err, ErrCommentAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidReply) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrContentEmpty) ||
		errors.Is(err, ErrThreadTooDeep)
}
