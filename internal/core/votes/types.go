package votes

import "Agora/internal/core/comments"

// CastVoteRequest is the body of agora.vote.cast
type CastVoteRequest struct {
	Subject   string        `json:"subject"`
	Direction string        `json:"direction"`
	Kind      comments.Kind `json:"kind"`
}

// CastVoteResponse reports the caller's vote after the toggle.
// Vote is nil when the cast retracted an existing vote.
type CastVoteResponse struct {
	Vote   *Vote  `json:"vote,omitempty"`
	Action string `json:"action"` // created, removed, replaced
}

// ClearVoteRequest is the body of agora.vote.clear
type ClearVoteRequest struct {
	Subject string        `json:"subject"`
	Kind    comments.Kind `json:"kind"`
}

const (
	ActionCreated  = "created"
	ActionRemoved  = "removed"
	ActionReplaced = "replaced"
)
