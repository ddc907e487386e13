// cmd/reindex-votes/main.go
// Recomputes comment vote counters from the votes table.
// Counters are maintained in the vote transaction; this repairs drift after
// manual edits or restores.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Agora/internal/core/comments"
	postgresRepo "Agora/internal/db/postgres"
	"Agora/internal/logging"
)

type options struct {
	databaseURL string
	kind        string
	logLevel    string
	dryRun      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "reindex-votes",
		Short:        "Recompute upvote/downvote counters from the votes table",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string (default $DATABASE_URL)")
	cmd.Flags().StringVar(&opts.kind, "kind", "all", "comment kind to reindex: forum, product or all")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "only report how many comments have drifted counters")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level")
	return cmd
}

// selectKinds resolves the --kind flag
func selectKinds(kind string) ([]comments.Kind, error) {
	if strings.EqualFold(strings.TrimSpace(kind), "all") {
		return comments.Kinds(), nil
	}
	k, err := comments.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("--kind must be forum, product or all: %w", err)
	}
	return []comments.Kind{k}, nil
}

func run(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if opts.databaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	kinds, err := selectKinds(opts.kind)
	if err != nil {
		return err
	}

	logger, err := logging.New(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	db, err := sql.Open("postgres", opts.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var total int64
	for _, kind := range kinds {
		n, err := postgresRepo.RecountVotes(ctx, db, kind, opts.dryRun)
		if err != nil {
			return fmt.Errorf("failed to reindex %s comments: %w", kind, err)
		}
		logger.Info("reindexed vote counters",
			zap.String("kind", kind.String()),
			zap.Int64("drifted", n),
			zap.Bool("dry_run", opts.dryRun))
		total += n
	}

	verb := "fixed"
	if opts.dryRun {
		verb = "found"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d comments with drifted counters\n", verb, total)
	return nil
}
