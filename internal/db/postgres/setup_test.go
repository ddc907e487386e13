package postgres

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"Agora/internal/db/migrations"
)

// setupTestDB connects to TEST_DATABASE_URL and runs migrations.
// Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(db), "Failed to run migrations")
	return db
}

// createTestUser inserts a user and removes it, with everything it owns, on cleanup
func createTestUser(t *testing.T, db *sql.DB, handle string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO users (id, handle) VALUES ($1, $2)`, id, handle+"-"+id[:8])
	require.NoError(t, err, "Failed to create test user")

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM votes WHERE user_id = $1`, id)
		_, _ = db.Exec(`DELETE FROM forum_comments WHERE author_id = $1`, id)
		_, _ = db.Exec(`DELETE FROM product_comments WHERE author_id = $1`, id)
		_, _ = db.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

// createTestTopic inserts a forum topic removed on cleanup
func createTestTopic(t *testing.T, db *sql.DB) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO forum_topics (id, title) VALUES ($1, 'test topic')`, id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM forum_comments WHERE topic_id = $1`, id)
		_, _ = db.Exec(`DELETE FROM forum_topics WHERE id = $1`, id)
	})
	return id
}

func testTime(offset time.Duration) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(offset)
}
