package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"Agora/internal/core/comments"
	"Agora/internal/core/votes"
)

type postgresVoteRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoteRepository creates a new PostgreSQL vote repository.
// Every write adjusts the voted comment's counters in the same transaction.
func NewVoteRepository(db *sql.DB, logger *zap.Logger) votes.Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresVoteRepo{db: db, logger: logger}
}

// counterColumn maps a direction to the counter it feeds
func counterColumn(d votes.Direction) (string, error) {
	switch d {
	case votes.DirectionUp:
		return "upvote_count", nil
	case votes.DirectionDown:
		return "downvote_count", nil
	default:
		return "", votes.ErrInvalidDirection
	}
}

func scanVote(row interface{ Scan(...any) error }) (*votes.Vote, error) {
	v := &votes.Vote{}
	var kind, direction string
	if err := row.Scan(&v.ID, &v.UserID, &kind, &v.SubjectID, &direction, &v.CreatedAt); err != nil {
		return nil, err
	}
	k, err := comments.ParseVoteSubject(kind)
	if err != nil {
		return nil, fmt.Errorf("unexpected subject kind %q: %w", kind, err)
	}
	v.SubjectKind = k
	v.Direction = votes.Direction(direction)
	return v, nil
}

// Get returns the user's vote on one comment
func (r *postgresVoteRepo) Get(ctx context.Context, userID string, kind comments.Kind, subjectID string) (*votes.Vote, error) {
	t, err := kind.Table()
	if err != nil {
		return nil, votes.ErrInvalidSubject
	}

	query := `
		SELECT id, user_id, subject_kind, subject_id, direction, created_at
		FROM votes
		WHERE user_id = $1 AND subject_kind = $2 AND subject_id = $3`

	v, err := scanVote(r.db.QueryRowContext(ctx, query, userID, t.VoteSubject, subjectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, votes.ErrVoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return v, nil
}

// Create inserts a vote and increments the matching counter
func (r *postgresVoteRepo) Create(ctx context.Context, vote *votes.Vote) error {
	return withTx(ctx, r.db, r.logger, func(tx *sql.Tx) error {
		return r.insert(ctx, tx, vote)
	})
}

// Replace swaps old for next in one transaction
func (r *postgresVoteRepo) Replace(ctx context.Context, old, next *votes.Vote) error {
	return withTx(ctx, r.db, r.logger, func(tx *sql.Tx) error {
		if err := r.remove(ctx, tx, old); err != nil {
			return err
		}
		return r.insert(ctx, tx, next)
	})
}

// Delete removes a vote and decrements the matching counter
func (r *postgresVoteRepo) Delete(ctx context.Context, vote *votes.Vote) error {
	return withTx(ctx, r.db, r.logger, func(tx *sql.Tx) error {
		return r.remove(ctx, tx, vote)
	})
}

func (r *postgresVoteRepo) insert(ctx context.Context, tx *sql.Tx, vote *votes.Vote) error {
	t, err := vote.SubjectKind.Table()
	if err != nil {
		return votes.ErrInvalidSubject
	}
	column, err := counterColumn(vote.Direction)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO votes (id, user_id, subject_kind, subject_id, direction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		vote.ID, vote.UserID, t.VoteSubject, vote.SubjectID, string(vote.Direction), vote.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "unique_voter_subject") {
			return votes.ErrVoteAlreadyExists
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	counter := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE id = $1`, t.Comments, column, column)
	result, err := tx.ExecContext(ctx, counter, vote.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return votes.ErrSubjectNotFound
	}
	return nil
}

func (r *postgresVoteRepo) remove(ctx context.Context, tx *sql.Tx, vote *votes.Vote) error {
	t, err := vote.SubjectKind.Table()
	if err != nil {
		return votes.ErrInvalidSubject
	}

	var direction string
	err = tx.QueryRowContext(ctx, `DELETE FROM votes WHERE id = $1 RETURNING direction`, vote.ID).Scan(&direction)
	if errors.Is(err, sql.ErrNoRows) {
		return votes.ErrVoteNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	// the stored direction is authoritative; the caller's copy may be stale
	column, err := counterColumn(votes.Direction(direction))
	if err != nil {
		return err
	}
	counter := fmt.Sprintf(`UPDATE %s SET %s = GREATEST(%s - 1, 0) WHERE id = $1`, t.Comments, column, column)
	if _, err := tx.ExecContext(ctx, counter, vote.SubjectID); err != nil {
		return fmt.Errorf("failed to decrement %s: %w", column, err)
	}
	return nil
}

// ListByUser returns every vote the user has cast
func (r *postgresVoteRepo) ListByUser(ctx context.Context, userID string) ([]*votes.Vote, error) {
	query := `
		SELECT id, user_id, subject_kind, subject_id, direction, created_at
		FROM votes
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer closeRows(rows, r.logger)

	var result []*votes.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return result, nil
}

// GetDirections returns subjectID -> direction for the given comments
func (r *postgresVoteRepo) GetDirections(ctx context.Context, userID string, kind comments.Kind, subjectIDs []string) (map[string]votes.Direction, error) {
	result := make(map[string]votes.Direction)
	if len(subjectIDs) == 0 {
		return result, nil
	}
	if len(subjectIDs) > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum %d", len(subjectIDs), MaxBatchSize)
	}
	t, err := kind.Table()
	if err != nil {
		return nil, votes.ErrInvalidSubject
	}

	query := `
		SELECT subject_id, direction
		FROM votes
		WHERE user_id = $1 AND subject_kind = $2 AND subject_id = ANY($3)`

	rows, err := r.db.QueryContext(ctx, query, userID, t.VoteSubject, pq.Array(subjectIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query vote directions: %w", err)
	}
	defer closeRows(rows, r.logger)

	for rows.Next() {
		var id, direction string
		if err := rows.Scan(&id, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan vote direction: %w", err)
		}
		result[id] = votes.Direction(direction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote directions: %w", err)
	}
	return result, nil
}
