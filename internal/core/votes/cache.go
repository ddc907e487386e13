package votes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Agora/internal/core/comments"
)

// VoteCache holds each user's full set of active votes for a short TTL.
// Thread renders ask for viewer state on every comment, so one load per user
// replaces a query per thread view.
type VoteCache struct {
	votes  map[string]map[string]Direction // userID -> subjectKey -> direction
	expiry map[string]time.Time            // userID -> expiry time
	logger *zap.Logger
	now    func() time.Time
	ttl    time.Duration
	mu     sync.RWMutex
}

// NewVoteCache creates a new vote cache with the specified TTL
func NewVoteCache(ttl time.Duration, logger *zap.Logger) *VoteCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteCache{
		votes:  make(map[string]map[string]Direction),
		expiry: make(map[string]time.Time),
		ttl:    ttl,
		logger: logger.Named("vote_cache"),
		now:    time.Now,
	}
}

// IsCached returns true if the user's votes are cached and not expired
func (c *VoteCache) IsCached(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, exists := c.expiry[userID]
	return exists && c.now().Before(expiry)
}

// Lookup returns commentID -> direction for the requested comments.
// ok is false when the user's votes are not cached.
func (c *VoteCache) Lookup(userID string, kind comments.Kind, ids []string) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, exists := c.expiry[userID]
	if !exists || !c.now().Before(expiry) {
		return nil, false
	}

	userVotes := c.votes[userID]
	out := make(map[string]string)
	for _, id := range ids {
		if d, ok := userVotes[subjectKey(kind, id)]; ok {
			out[id] = string(d)
		}
	}
	return out, true
}

// SetVotesForUser replaces all cached votes for a user
func (c *VoteCache) SetVotesForUser(userID string, list []*Vote) {
	votes := make(map[string]Direction, len(list))
	for _, v := range list {
		votes[subjectKey(v.SubjectKind, v.SubjectID)] = v.Direction
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.votes[userID] = votes
	c.expiry[userID] = c.now().Add(c.ttl)

	c.logger.Debug("vote cache updated",
		zap.String("user", userID),
		zap.Int("vote_count", len(votes)))
}

// SetVote records a vote for a user whose votes are already cached.
// Users without a cache entry are left alone so a partial set is never served.
func (c *VoteCache) SetVote(userID string, kind comments.Kind, subjectID string, d Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.votes[userID] == nil {
		return
	}
	c.votes[userID][subjectKey(kind, subjectID)] = d

	// Active users keep their cache fresh
	c.expiry[userID] = c.now().Add(c.ttl)
}

// RemoveVote removes a vote from the cache (for toggle-off)
func (c *VoteCache) RemoveVote(userID string, kind comments.Kind, subjectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.votes[userID] == nil {
		return
	}
	delete(c.votes[userID], subjectKey(kind, subjectID))
	c.expiry[userID] = c.now().Add(c.ttl)
}

// Invalidate removes all cached votes for a user
func (c *VoteCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.votes, userID)
	delete(c.expiry, userID)
}

// Load fetches every active vote of the user from the repository and caches them
func (c *VoteCache) Load(ctx context.Context, repo Repository, userID string) error {
	list, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load votes: %w", err)
	}
	c.SetVotesForUser(userID, list)
	return nil
}
