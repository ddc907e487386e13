package votes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Agora/internal/core/comments"
)

func TestVoteCache_Expiry(t *testing.T) {
	cache := NewVoteCache(time.Minute, nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.SetVotesForUser("u1", []*Vote{{SubjectKind: comments.KindForum, SubjectID: "c1", Direction: DirectionUp}})
	assert.True(t, cache.IsCached("u1"))

	got, ok := cache.Lookup("u1", comments.KindForum, []string{"c1", "c2"})
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"c1": "up"}, got)

	now = now.Add(2 * time.Minute)
	assert.False(t, cache.IsCached("u1"))
	_, ok = cache.Lookup("u1", comments.KindForum, []string{"c1"})
	assert.False(t, ok)
}

func TestVoteCache_KindsDoNotCollide(t *testing.T) {
	cache := NewVoteCache(time.Minute, nil)
	cache.SetVotesForUser("u1", []*Vote{{SubjectKind: comments.KindForum, SubjectID: "42", Direction: DirectionUp}})

	got, ok := cache.Lookup("u1", comments.KindProduct, []string{"42"})
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestVoteCache_SetAndRemove(t *testing.T) {
	cache := NewVoteCache(time.Minute, nil)

	// not cached yet: single updates are ignored
	cache.SetVote("u1", comments.KindForum, "c1", DirectionUp)
	assert.False(t, cache.IsCached("u1"))

	cache.SetVotesForUser("u1", nil)
	cache.SetVote("u1", comments.KindForum, "c1", DirectionDown)
	got, _ := cache.Lookup("u1", comments.KindForum, []string{"c1"})
	assert.Equal(t, "down", got["c1"])

	cache.RemoveVote("u1", comments.KindForum, "c1")
	got, _ = cache.Lookup("u1", comments.KindForum, []string{"c1"})
	assert.Empty(t, got)

	cache.Invalidate("u1")
	assert.False(t, cache.IsCached("u1"))
}
