package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/gokatarajesh/mathquest/internal/config"
	"github.com/gokatarajesh/mathquest/internal/db/repository"
	"github.com/gokatarajesh/mathquest/internal/hint"
	"github.com/gokatarajesh/mathquest/internal/leaderboard"
	"github.com/gokatarajesh/mathquest/internal/lesson"
	"github.com/gokatarajesh/mathquest/internal/logging"
	"github.com/gokatarajesh/mathquest/internal/metrics"
	"github.com/gokatarajesh/mathquest/internal/profile"
	"github.com/gokatarajesh/mathquest/internal/server"
	"github.com/gokatarajesh/mathquest/internal/submission"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	snapshotWorker *leaderboard.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps logger, Postgres, Redis, services and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := waitForPostgres(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	store := repository.NewStore(pool)
	m := metrics.New(prometheus.DefaultRegisterer)

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		DailyTTL:  cfg.Leaderboard.DailyTTL,
		WeeklyTTL: cfg.Leaderboard.WeeklyTTL,
	})
	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(
			leaderboardSvc,
			store,
			interval,
			cfg.Leaderboard.SnapshotTopN,
			logger,
		)
	}

	lessonSvc := lesson.NewService(
		store,
		lesson.NewCache(redisClient, cfg.Cache.LessonTTL),
		lesson.ServiceOptions{Metrics: m},
		logger,
	)

	submissionSvc := submission.NewService(
		submission.NewPostgresStore(store),
		submission.ServiceOptions{Leaderboard: leaderboardSvc, Metrics: m},
		logger,
	)

	profileSvc := profile.NewService(store, logger)

	var generator hint.Generator
	if cfg.AI.OpenAIKey != "" {
		g, err := hint.NewOpenAIGenerator(hint.OpenAIConfig{
			APIKey:      cfg.AI.OpenAIKey,
			Model:       cfg.AI.Model,
			BaseURL:     cfg.AI.BaseURL,
			Timeout:     cfg.AI.HTTPTimeout,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		})
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init hint generator: %w", err)
		}
		generator = g
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not configured; hints fall back to canned messages")
	}
	hintSvc := hint.NewService(store, generator, hint.ServiceOptions{Metrics: m}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, server.Deps{
		Postgres: store,
		Redis:    redisClient,
	}, server.Handlers{
		Lessons:     lesson.NewHTTPHandlers(lessonSvc, logger),
		Submissions: submission.NewHTTPHandlers(submissionSvc, logger),
		Profiles:    profile.NewHTTPHandlers(profileSvc, logger),
		Hints:       hint.NewHTTPHandlers(hintSvc, logger),
		Leaderboard: leaderboard.NewHTTPHandler(leaderboardSvc, store, logger),
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 1),
	}, nil
}

// waitForPostgres retries the initial ping so the API can start alongside
// its database container.
func waitForPostgres(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("postgres not ready")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}
}
