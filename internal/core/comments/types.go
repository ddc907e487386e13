package comments

// GetThreadRequest defines the parameters for fetching one thread
type GetThreadRequest struct {
	ViewerID  *string
	SubjectID string
	Sort      SortMode
	Kind      Kind
}

// CreateCommentRequest contains parameters for creating a comment
type CreateCommentRequest struct {
	ParentID  *string `json:"parentId,omitempty"`
	SubjectID string  `json:"subject"`
	Content   string  `json:"content"`
	Kind      Kind    `json:"kind"`
}

// CreateCommentResponse contains the result of creating a comment
type CreateCommentResponse struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
}

// UpdateCommentRequest contains parameters for updating a comment
type UpdateCommentRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Kind    Kind   `json:"kind"`
}

// DeleteCommentRequest contains parameters for deleting a comment
type DeleteCommentRequest struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// GetActorCommentsRequest defines the parameters for fetching a user's comments
type GetActorCommentsRequest struct {
	ActorID string
	Limit   int // 1-100, default 50
}
