// seed fills a development database with users, a forum topic, a product and
// comment threads with votes. Writes go through the repositories so vote
// counters stay in step with the votes table.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Agora/internal/core/comments"
	"Agora/internal/core/users"
	"Agora/internal/core/votes"
	"Agora/internal/db/migrations"
	postgresRepo "Agora/internal/db/postgres"
	"Agora/internal/logging"
)

type options struct {
	databaseURL string
	users       int
	topLevel    int
	deepChain   int
	seed        int64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Generate development threads and votes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string (default $DATABASE_URL)")
	cmd.Flags().IntVar(&opts.users, "users", 12, "number of users")
	cmd.Flags().IntVar(&opts.topLevel, "top-level", 15, "top-level comments per subject")
	cmd.Flags().IntVar(&opts.deepChain, "deep-chain", 0, "also add a single reply chain this deep to the forum topic")
	cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	return cmd
}

var topLevelContent = []string{
	"Has anyone tried the new release yet? Curious how it compares.",
	"I ran into the same issue last week, clearing the cache fixed it for me.",
	"Great write-up, the section on setup saved me an hour.",
	"Price seems high for what you get, but the build quality is excellent.",
	"Does this ship internationally? The store page is unclear.",
	"Bought two of these for the team, no complaints so far.",
	"The docs are out of date on this, the flag was renamed.",
	"Honestly the older version was better. Too many changes at once.",
}

var replyContent = []string{
	"Agreed, same experience here.",
	"Not for me, it broke on the second day.",
	"Do you have a link for that?",
	"This. Exactly this.",
	"Which version are you on?",
	"Thanks, that worked!",
	"I think you're mixing it up with the other one.",
	"Following, I want to know too.",
}

// plannedComment is a comment plus the index of its parent in the plan (-1 for top level)
type plannedComment struct {
	comment *comments.Comment
	parent  int
}

// planThread generates a newest-last thread for one subject.
// Authors are picked from authorIDs; timestamps increase from base.
func planThread(rng *rand.Rand, kind comments.Kind, subjectID string, authorIDs []string, topLevel, deepChain int, base time.Time) []plannedComment {
	var plan []plannedComment
	at := base
	add := func(parent int, content string) int {
		at = at.Add(time.Duration(1+rng.Intn(5)) * time.Minute)
		c := &comments.Comment{
			ID:        uuid.NewString(),
			Kind:      kind,
			SubjectID: subjectID,
			AuthorID:  authorIDs[rng.Intn(len(authorIDs))],
			Content:   content,
			CreatedAt: at,
		}
		if parent >= 0 {
			p := plan[parent].comment
			pid := p.ID
			c.ParentID = &pid
			c.Depth = p.Depth + 1
		}
		plan = append(plan, plannedComment{comment: c, parent: parent})
		return len(plan) - 1
	}

	for i := 0; i < topLevel; i++ {
		root := add(-1, topLevelContent[rng.Intn(len(topLevelContent))])
		// 60% of top-level comments get 1-3 replies, 40% of those get a nested reply
		if rng.Float64() > 0.6 {
			continue
		}
		for j := 0; j < 1+rng.Intn(3); j++ {
			reply := add(root, replyContent[rng.Intn(len(replyContent))])
			if rng.Float64() < 0.4 {
				add(reply, replyContent[rng.Intn(len(replyContent))])
			}
		}
	}

	if deepChain > 0 {
		parent := add(-1, "Let's see how deep this goes.")
		for i := 1; i < deepChain && i <= comments.MaxThreadDepth; i++ {
			parent = add(parent, fmt.Sprintf("Level %d", i))
		}
	}
	return plan
}

func run(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if opts.databaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	if opts.users < 1 {
		return fmt.Errorf("--users must be at least 1")
	}

	logger, err := logging.New("info")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := sql.Open("postgres", opts.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := migrations.Up(db); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(opts.seed))
	userRepo := postgresRepo.NewUserRepository(db, logger)
	commentRepo := postgresRepo.NewCommentRepository(db, logger)
	voteRepo := postgresRepo.NewVoteRepository(db, logger)

	authorIDs := make([]string, 0, opts.users)
	for i := 0; i < opts.users; i++ {
		id := uuid.NewString()
		_, err := userRepo.Upsert(ctx, &users.User{
			ID:     id,
			Handle: fmt.Sprintf("seed_%s", id[:8]),
			Role:   users.RoleMember,
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		authorIDs = append(authorIDs, id)
	}

	topicID, productID := uuid.NewString(), uuid.NewString()
	if _, err := db.ExecContext(ctx, `INSERT INTO forum_topics (id, title) VALUES ($1, $2)`, topicID, "Seeded topic"); err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO products (id, name) VALUES ($1, $2)`, productID, "Seeded product"); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	base := time.Now().Add(-48 * time.Hour)
	subjects := []struct {
		kind      comments.Kind
		id        string
		deepChain int
	}{
		{comments.KindForum, topicID, opts.deepChain},
		{comments.KindProduct, productID, 0},
	}

	var created, voted int
	for _, s := range subjects {
		for _, p := range planThread(rng, s.kind, s.id, authorIDs, opts.topLevel, s.deepChain, base) {
			if err := commentRepo.Create(ctx, p.comment); err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			created++

			// each user votes on a comment with 30% probability, mostly up
			for _, voter := range authorIDs {
				if rng.Float64() > 0.3 {
					continue
				}
				direction := votes.DirectionUp
				if rng.Float64() < 0.25 {
					direction = votes.DirectionDown
				}
				err := voteRepo.Create(ctx, &votes.Vote{
					ID:          uuid.NewString(),
					UserID:      voter,
					SubjectKind: s.kind,
					SubjectID:   p.comment.ID,
					Direction:   direction,
					CreatedAt:   p.comment.CreatedAt.Add(time.Minute),
				})
				if err != nil {
					return fmt.Errorf("failed to create vote: %w", err)
				}
				voted++
			}
		}
	}

	logger.Info("seed complete",
		zap.String("topic", topicID),
		zap.String("product", productID),
		zap.Int("comments", created),
		zap.Int("votes", voted))
	fmt.Fprintf(cmd.OutOrStdout(), "forum topic %s\nproduct %s\n", topicID, productID)
	return nil
}
