package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Agora/internal/core/comments"
	"Agora/internal/core/users"
	"Agora/internal/core/votes"
)

func newTestComment(topicID, authorID string, parent *comments.Comment, offset time.Duration) *comments.Comment {
	c := &comments.Comment{
		ID:        uuid.NewString(),
		Kind:      comments.KindForum,
		SubjectID: topicID,
		AuthorID:  authorID,
		Content:   "test comment",
		CreatedAt: testTime(offset),
	}
	if parent != nil {
		pid := parent.ID
		c.ParentID = &pid
		c.Depth = parent.Depth + 1
	}
	return c
}

func TestCommentRepo_CreateListAndBuild(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewCommentRepository(db, nil)

	author := createTestUser(t, db, "author")
	topic := createTestTopic(t, db)

	exists, err := repo.SubjectExists(ctx, comments.KindForum, topic)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SubjectExists(ctx, comments.KindProduct, topic)
	require.NoError(t, err)
	assert.False(t, exists, "forum topic ids do not resolve as products")

	root := newTestComment(topic, author, nil, 0)
	reply := newTestComment(topic, author, root, time.Minute)
	second := newTestComment(topic, author, nil, 2*time.Minute)
	for _, c := range []*comments.Comment{root, reply, second} {
		require.NoError(t, repo.Create(ctx, c))
	}

	list, err := repo.ListBySubject(ctx, comments.KindForum, topic, 100)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Contains(t, list[0].AuthorHandle, "author-")

	forest := comments.BuildForest(list, comments.SortByRecency)
	require.Len(t, forest.Threads, 2)
	assert.Equal(t, 3, forest.Count())

	got, err := repo.GetByID(ctx, comments.KindForum, reply.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)
	assert.Equal(t, 1, got.Depth)

	_, err = repo.GetByID(ctx, comments.KindProduct, reply.ID)
	assert.ErrorIs(t, err, comments.ErrCommentNotFound)
}

func TestCommentRepo_CreateErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewCommentRepository(db, nil)

	author := createTestUser(t, db, "author")
	topic := createTestTopic(t, db)

	c := newTestComment(topic, author, nil, 0)
	require.NoError(t, repo.Create(ctx, c))
	assert.ErrorIs(t, repo.Create(ctx, c), comments.ErrCommentAlreadyExists)

	orphan := newTestComment(topic, author, nil, 0)
	missing := "does-not-exist"
	orphan.ParentID = &missing
	assert.ErrorIs(t, repo.Create(ctx, orphan), comments.ErrParentNotFound)

	noTopic := newTestComment(uuid.NewString(), author, nil, 0)
	assert.ErrorIs(t, repo.Create(ctx, noTopic), comments.ErrSubjectNotFound)
}

func TestCommentRepo_UpdateAndSoftDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewCommentRepository(db, nil)

	author := createTestUser(t, db, "author")
	topic := createTestTopic(t, db)
	c := newTestComment(topic, author, nil, 0)
	require.NoError(t, repo.Create(ctx, c))

	updated, err := repo.UpdateContent(ctx, comments.KindForum, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.NotNil(t, updated.UpdatedAt)

	require.NoError(t, repo.SoftDelete(ctx, comments.KindForum, c.ID))
	require.NoError(t, repo.SoftDelete(ctx, comments.KindForum, c.ID))

	got, err := repo.GetByID(ctx, comments.KindForum, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	_, err = repo.UpdateContent(ctx, comments.KindForum, c.ID, "again")
	assert.ErrorIs(t, err, comments.ErrCommentNotFound)

	mine, err := repo.ListByAuthor(ctx, author, 10)
	require.NoError(t, err)
	assert.Empty(t, mine, "deleted comments are not listed on the profile")

	// deleted comments stay in the thread snapshot
	list, err := repo.ListBySubject(ctx, comments.KindForum, topic, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVoteRepo_ToggleKeepsCountersInStep(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	commentRepo := NewCommentRepository(db, nil)
	repo := NewVoteRepository(db, nil)

	author := createTestUser(t, db, "author")
	voter := createTestUser(t, db, "voter")
	topic := createTestTopic(t, db)
	c := newTestComment(topic, author, nil, 0)
	require.NoError(t, commentRepo.Create(ctx, c))

	counts := func() (int, int) {
		got, err := commentRepo.GetByID(ctx, comments.KindForum, c.ID)
		require.NoError(t, err)
		return got.UpvoteCount, got.DownvoteCount
	}

	up := &votes.Vote{ID: uuid.NewString(), UserID: voter, SubjectKind: comments.KindForum, SubjectID: c.ID, Direction: votes.DirectionUp, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, up))
	u, d := counts()
	assert.Equal(t, 1, u)
	assert.Equal(t, 0, d)

	dup := *up
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), votes.ErrVoteAlreadyExists)

	got, err := repo.Get(ctx, voter, comments.KindForum, c.ID)
	require.NoError(t, err)
	assert.Equal(t, votes.DirectionUp, got.Direction)
	assert.Equal(t, comments.KindForum, got.SubjectKind)

	down := &votes.Vote{ID: uuid.NewString(), UserID: voter, SubjectKind: comments.KindForum, SubjectID: c.ID, Direction: votes.DirectionDown, CreatedAt: time.Now()}
	require.NoError(t, repo.Replace(ctx, got, down))
	u, d = counts()
	assert.Equal(t, 0, u)
	assert.Equal(t, 1, d)

	dirs, err := repo.GetDirections(ctx, voter, comments.KindForum, []string{c.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]votes.Direction{c.ID: votes.DirectionDown}, dirs)

	all, err := repo.ListByUser(ctx, voter)
	require.NoError(t, err)
	assert.Len(t, all, 1, "never two records for the same user and comment")

	require.NoError(t, repo.Delete(ctx, down))
	assert.ErrorIs(t, repo.Delete(ctx, down), votes.ErrVoteNotFound)
	u, d = counts()
	assert.Equal(t, 0, u)
	assert.Equal(t, 0, d)

	_, err = repo.Get(ctx, voter, comments.KindForum, c.ID)
	assert.ErrorIs(t, err, votes.ErrVoteNotFound)
}

func TestRecountVotes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	commentRepo := NewCommentRepository(db, nil)
	repo := NewVoteRepository(db, nil)

	author := createTestUser(t, db, "author")
	voter := createTestUser(t, db, "voter")
	topic := createTestTopic(t, db)
	c := newTestComment(topic, author, nil, 0)
	require.NoError(t, commentRepo.Create(ctx, c))
	require.NoError(t, repo.Create(ctx, &votes.Vote{
		ID: uuid.NewString(), UserID: voter, SubjectKind: comments.KindForum,
		SubjectID: c.ID, Direction: votes.DirectionUp, CreatedAt: time.Now(),
	}))

	_, err := db.Exec(`UPDATE forum_comments SET upvote_count = 7 WHERE id = $1`, c.ID)
	require.NoError(t, err)

	drifted, err := RecountVotes(ctx, db, comments.KindForum, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, drifted, int64(1))

	_, err = RecountVotes(ctx, db, comments.KindForum, false)
	require.NoError(t, err)

	got, err := commentRepo.GetByID(ctx, comments.KindForum, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UpvoteCount)
}

func TestUserRepo_UpsertAndStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db, nil)

	id := uuid.NewString()
	handle := "upsert-" + id[:8]
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM users WHERE id = $1`, id) })

	created, err := repo.Upsert(ctx, &users.User{ID: id, Handle: handle, DisplayName: "First"})
	require.NoError(t, err)
	assert.Equal(t, users.RoleMember, created.Role)

	_, err = db.Exec(`UPDATE users SET role = 'moderator' WHERE id = $1`, id)
	require.NoError(t, err)

	updated, err := repo.Upsert(ctx, &users.User{ID: id, Handle: handle, Role: users.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, users.RoleModerator, updated.Role, "upsert never downgrades a role")
	assert.Equal(t, "First", updated.DisplayName, "empty display name keeps the stored one")

	other := createTestUser(t, db, "other")
	_, err = repo.Upsert(ctx, &users.User{ID: other, Handle: handle})
	assert.ErrorIs(t, err, users.ErrHandleAlreadyTaken)

	byHandle, err := repo.GetByHandle(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, id, byHandle.ID)

	many, err := repo.GetByIDs(ctx, []string{id, other, "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, users.ErrUserNotFound)

	stats, err := repo.GetProfileStats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CommentCount)
}
