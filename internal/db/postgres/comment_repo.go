package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"Agora/internal/core/comments"
)

type postgresCommentRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCommentRepository creates a new PostgreSQL comment repository.
// Table and column names come from comments.Kind.Table; request data only
// ever reaches the database as bind parameters.
func NewCommentRepository(db *sql.DB, logger *zap.Logger) comments.Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresCommentRepo{db: db, logger: logger}
}

// commentSelect returns the column list for one kind, aliased to c
func commentSelect(t comments.KindTable) string {
	return fmt.Sprintf(`c.id, c.%s, c.parent_id, c.author_id, COALESCE(u.handle, ''), c.content, c.depth,
		c.upvote_count, c.downvote_count, c.created_at, c.updated_at, c.deleted_at`, t.SubjectColumn)
}

func scanComment(row interface{ Scan(...any) error }, kind comments.Kind) (*comments.Comment, error) {
	c := &comments.Comment{Kind: kind}
	var parentID sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.SubjectID, &parentID, &c.AuthorID, &c.AuthorHandle, &c.Content, &c.Depth,
		&c.UpvoteCount, &c.DownvoteCount, &c.CreatedAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ParentID = nullStringPtr(parentID)
	c.UpdatedAt = nullTimePtr(updatedAt)
	c.DeletedAt = nullTimePtr(deletedAt)
	return c, nil
}

// Create inserts a new comment
func (r *postgresCommentRepo) Create(ctx context.Context, comment *comments.Comment) error {
	t, err := comment.Kind.Table()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, parent_id, author_id, content, depth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, t.Comments, t.SubjectColumn)

	var parentID sql.NullString
	if comment.ParentID != nil {
		parentID = sql.NullString{String: *comment.ParentID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		comment.ID, comment.SubjectID, parentID, comment.AuthorID,
		comment.Content, comment.Depth, comment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return comments.ErrCommentAlreadyExists
		}
		if strings.Contains(err.Error(), "foreign key") {
			if strings.Contains(err.Error(), "parent_id") {
				return comments.ErrParentNotFound
			}
			return comments.ErrSubjectNotFound
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment, including soft-deleted ones
func (r *postgresCommentRepo) GetByID(ctx context.Context, kind comments.Kind, id string) (*comments.Comment, error) {
	t, err := kind.Table()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s c LEFT JOIN users u ON u.id = c.author_id WHERE c.id = $1`,
		commentSelect(t), t.Comments)

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comments.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// UpdateContent replaces the content of a live comment
func (r *postgresCommentRepo) UpdateContent(ctx context.Context, kind comments.Kind, id, content string) (*comments.Comment, error) {
	t, err := kind.Table()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET content = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, t.Comments)

	result, err := r.db.ExecContext(ctx, query, id, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return nil, comments.ErrCommentNotFound
	}
	return r.GetByID(ctx, kind, id)
}

// SoftDelete marks a comment deleted. Deleting twice is a no-op.
func (r *postgresCommentRepo) SoftDelete(ctx context.Context, kind comments.Kind, id string) error {
	t, err := kind.Table()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET deleted_at = COALESCE(deleted_at, NOW()) WHERE id = $1`, t.Comments)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return comments.ErrCommentNotFound
	}
	return nil
}

// ListBySubject returns one thread's comments newest first
func (r *postgresCommentRepo) ListBySubject(ctx context.Context, kind comments.Kind, subjectID string, limit int) ([]*comments.Comment, error) {
	t, err := kind.Table()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.%s = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2`, commentSelect(t), t.Comments, t.SubjectColumn)

	return r.queryComments(ctx, kind, query, subjectID, limit)
}

// ListByAuthor returns a user's live comments across every kind, newest first
func (r *postgresCommentRepo) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*comments.Comment, error) {
	var result []*comments.Comment
	for _, kind := range comments.Kinds() {
		t, err := kind.Table()
		if err != nil {
			return nil, err
		}

		query := fmt.Sprintf(`
			SELECT %s FROM %s c
			LEFT JOIN users u ON u.id = c.author_id
			WHERE c.author_id = $1 AND c.deleted_at IS NULL
			ORDER BY c.created_at DESC
			LIMIT $2`, commentSelect(t), t.Comments)

		list, err := r.queryComments(ctx, kind, query, authorID, limit)
		if err != nil {
			return nil, err
		}
		result = append(result, list...)
	}

	slices.SortStableFunc(result, func(a, b *comments.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *postgresCommentRepo) queryComments(ctx context.Context, kind comments.Kind, query string, args ...any) ([]*comments.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer closeRows(rows, r.logger)

	var result []*comments.Comment
	for rows.Next() {
		c, err := scanComment(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return result, nil
}

// SubjectExists checks that the forum topic or product exists
func (r *postgresCommentRepo) SubjectExists(ctx context.Context, kind comments.Kind, subjectID string) (bool, error) {
	t, err := kind.Table()
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, t.Subjects)
	if err := r.db.QueryRowContext(ctx, query, subjectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check subject: %w", err)
	}
	return exists, nil
}

// RecountVotes recomputes upvote_count and downvote_count from the votes table.
// It returns the number of comment rows whose counters changed, or would change when dryRun is set.
func RecountVotes(ctx context.Context, db *sql.DB, kind comments.Kind, dryRun bool) (int64, error) {
	t, err := kind.Table()
	if err != nil {
		return 0, err
	}

	tally := fmt.Sprintf(`
		WITH tally AS (
			SELECT c.id,
				COUNT(v.id) FILTER (WHERE v.direction = 'up')   AS up,
				COUNT(v.id) FILTER (WHERE v.direction = 'down') AS down
			FROM %s c
			LEFT JOIN votes v ON v.subject_kind = $1 AND v.subject_id = c.id
			GROUP BY c.id
		)`, t.Comments)

	if dryRun {
		query := tally + fmt.Sprintf(`
			SELECT COUNT(*) FROM %s c JOIN tally ON tally.id = c.id
			WHERE c.upvote_count <> tally.up OR c.downvote_count <> tally.down`, t.Comments)
		var drifted int64
		if err := db.QueryRowContext(ctx, query, t.VoteSubject).Scan(&drifted); err != nil {
			return 0, fmt.Errorf("failed to count drifted counters: %w", err)
		}
		return drifted, nil
	}

	query := tally + fmt.Sprintf(`
		UPDATE %s c SET upvote_count = tally.up, downvote_count = tally.down
		FROM tally
		WHERE tally.id = c.id AND (c.upvote_count <> tally.up OR c.downvote_count <> tally.down)`, t.Comments)
	result, err := db.ExecContext(ctx, query, t.VoteSubject)
	if err != nil {
		return 0, fmt.Errorf("failed to recount votes: %w", err)
	}
	return result.RowsAffected()
}
