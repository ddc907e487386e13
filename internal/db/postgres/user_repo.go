package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"Agora/internal/core/users"
)

type postgresUserRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) users.UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresUserRepo{db: db, logger: logger}
}

const userColumns = `id, handle, display_name, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*users.User, error) {
	user := &users.User{}
	var role string
	if err := row.Scan(&user.ID, &user.Handle, &user.DisplayName, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.Role = users.ParseRole(role)
	return user, nil
}

// Upsert inserts the user or refreshes handle and display name.
// The role column is only written on insert.
func (r *postgresUserRepo) Upsert(ctx context.Context, user *users.User) (*users.User, error) {
	role := user.Role
	if role == "" {
		role = users.RoleMember
	}

	query := `
		INSERT INTO users (id, handle, display_name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			handle = EXCLUDED.handle,
			display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE users.display_name END,
			updated_at = NOW()
		RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query, user.ID, user.Handle, user.DisplayName, string(role)))
	if err != nil {
		if isUniqueViolation(err, "users_handle_key") {
			return nil, users.ErrHandleAlreadyTaken
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return saved, nil
}

// GetByID retrieves a user by id
func (r *postgresUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// GetByHandle retrieves a user by handle
func (r *postgresUserRepo) GetByHandle(ctx context.Context, handle string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE handle = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, handle))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by handle: %w", err)
	}
	return user, nil
}

// GetByIDs retrieves multiple users in one query
func (r *postgresUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error) {
	if len(ids) == 0 {
		return map[string]*users.User{}, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum %d", len(ids), MaxBatchSize)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users by ids: %w", err)
	}
	defer closeRows(rows, r.logger)

	result := make(map[string]*users.User, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return result, nil
}

// GetProfileStats aggregates a user's live comments, votes cast and net score received
func (r *postgresUserRepo) GetProfileStats(ctx context.Context, id string) (*users.ProfileStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM forum_comments WHERE author_id = $1 AND deleted_at IS NULL)
			+ (SELECT COUNT(*) FROM product_comments WHERE author_id = $1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM votes WHERE user_id = $1),
			(SELECT COALESCE(SUM(upvote_count - downvote_count), 0) FROM forum_comments WHERE author_id = $1 AND deleted_at IS NULL)
			+ (SELECT COALESCE(SUM(upvote_count - downvote_count), 0) FROM product_comments WHERE author_id = $1 AND deleted_at IS NULL)`

	stats := &users.ProfileStats{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&stats.CommentCount, &stats.VoteCount, &stats.Reputation)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile stats: %w", err)
	}
	return stats, nil
}
