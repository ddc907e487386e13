// Package live fans out change notifications for comment threads.
//
// Events only say that something changed; they never carry counters.
// Subscribers react by re-fetching the thread, which is then rebuilt from
// a fresh snapshot.
package live

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened to a thread.
type EventType string

const (
	CommentCreated EventType = "comment.created"
	CommentUpdated EventType = "comment.updated"
	CommentDeleted EventType = "comment.deleted"
	VoteChanged    EventType = "vote.changed"
)

// Event is a change notification for one thread.
type Event struct {
	At        time.Time `json:"at"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Kind      string    `json:"kind"`
	SubjectID string    `json:"subjectId"`
	CommentID string    `json:"commentId,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(t EventType, kind, subjectID, commentID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Kind:      kind,
		SubjectID: subjectID,
		CommentID: commentID,
		At:        time.Now().UTC(),
	}
}

// Topic is the subscription key of the thread the event belongs to.
func (e Event) Topic() string {
	return Topic(e.Kind, e.SubjectID)
}

// Topic builds the subscription key for a thread.
func Topic(kind, subjectID string) string {
	return kind + ":" + subjectID
}

// Publisher accepts change notifications.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
