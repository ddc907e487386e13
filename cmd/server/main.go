package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Agora/internal/api/middleware"
	"Agora/internal/api/routes"
	"Agora/internal/auth"
	"Agora/internal/config"
	"Agora/internal/core/comments"
	"Agora/internal/core/users"
	"Agora/internal/core/votes"
	"Agora/internal/db/migrations"
	postgresRepo "Agora/internal/db/postgres"
	"Agora/internal/live"
	"Agora/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) error {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("failed to close database", zap.Error(closeErr))
		}
	}()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}
	logger.Info("connected to database")

	if err := migrations.Up(db); err != nil {
		return err
	}
	logger.Info("migrations completed")

	g, gctx := errgroup.WithContext(ctx)

	// Live change feed: a local hub always serves WebSocket subscribers.
	// With NATS configured, writes go to the broker and every instance's hub
	// is fed from it, so subscribers see changes made on any instance.
	hub := live.NewHub(live.DefaultBuffer, logger.Named("live"))
	defer hub.Close()
	var publisher live.Publisher = hub
	if cfg.NATS.URL != "" {
		broker, err := live.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer broker.Close()
		publisher = broker
		g.Go(func() error { return broker.Relay(gctx, hub) })
	}

	verifierOpts := []auth.Option{
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAudience(cfg.Auth.Audience),
	}
	if cfg.Auth.JWTSecret != "" {
		verifierOpts = append(verifierOpts, auth.WithSecret(cfg.Auth.JWTSecret))
	}
	if cfg.Auth.JWKSURL != "" {
		fetcher, err := auth.NewJWKSFetcher(ctx, cfg.Auth.JWKSURL, cfg.Auth.JWKSRefresh, logger)
		if err != nil {
			return err
		}
		verifierOpts = append(verifierOpts, auth.WithKeyFetcher(fetcher))
	}
	verifier, err := auth.NewTokenVerifier(verifierOpts...)
	if err != nil {
		return err
	}

	// Repositories
	userRepo := postgresRepo.NewUserRepository(db, logger)
	commentRepo := postgresRepo.NewCommentRepository(db, logger)
	voteRepo := postgresRepo.NewVoteRepository(db, logger)

	// Services
	userService := users.NewUserService(userRepo, logger)
	voteService := votes.NewService(
		voteRepo,
		votes.NewSubjectValidator(commentRepo),
		votes.NewVoteCache(cfg.VoteCacheTTL, logger),
		publisher,
		logger,
	)
	commentService := comments.NewCommentService(commentRepo, userRepo, voteService, publisher, logger)

	authMiddleware := middleware.NewAuthMiddleware(verifier, userService, logger)
	rateLimiter := middleware.NewRateLimiter(gctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(rateLimiter.Middleware)

	routes.RegisterCommentRoutes(r, commentService, authMiddleware)
	routes.RegisterVoteRoutes(r, voteService, authMiddleware)
	routes.RegisterActorRoutes(r, userService, commentService)
	routes.RegisterLiveRoutes(r, hub, cfg.HTTP.CORSOrigins, authMiddleware, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Agora AppView starting", zap.String("addr", cfg.HTTP.Addr), zap.Bool("nats", cfg.NATS.URL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		// close live streams first so Shutdown is not held up by hijacked connections
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
