package comments

// CommentView represents the full view of a comment with all metadata.
// For deleted comments, IsDeleted=true and content/author are empty.
type CommentView struct {
	Author    *AuthorView         `json:"author,omitempty"`
	Viewer    *CommentViewerState `json:"viewer,omitempty"`
	Stats     *CommentStats       `json:"stats"`
	ParentID  *string             `json:"parentId,omitempty"`
	UpdatedAt *string             `json:"updatedAt,omitempty"`
	ID        string              `json:"id"`
	SubjectID string              `json:"subject"`
	Content   string              `json:"content"`
	CreatedAt string              `json:"createdAt"`
	Kind      Kind                `json:"kind"`
	Depth     int                 `json:"depth"`
	IsDeleted bool                `json:"isDeleted,omitempty"`
}

// AuthorView is the minimal author info rendered next to a comment
type AuthorView struct {
	ID          string `json:"id"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// ThreadViewComment represents a comment with its nested replies
type ThreadViewComment struct {
	Comment *CommentView         `json:"comment"`
	Replies []*ThreadViewComment `json:"replies,omitempty"`
}

// CommentStats represents aggregated statistics for a comment
type CommentStats struct {
	Upvotes    int `json:"upvotes"`
	Downvotes  int `json:"downvotes"`
	Score      int `json:"score"`
	ReplyCount int `json:"replyCount"`
}

// CommentViewerState represents the viewer's relationship with the comment
type CommentViewerState struct {
	Vote *string `json:"vote,omitempty"` // "up" or "down"
}

// GetThreadResponse is the getThread response body
type GetThreadResponse struct {
	Comments []*ThreadViewComment `json:"comments"`
	Sort     string               `json:"sort"`
	Total    int                  `json:"total"`
	Hidden   int                  `json:"hidden"` // orphans and truncated replies not rendered
}

// GetActorCommentsResponse represents the response for fetching a user's comments
type GetActorCommentsResponse struct {
	Comments []*CommentView `json:"comments"`
}
