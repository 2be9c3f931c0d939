package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

// Ranker yields the current top entries of a window.
type Ranker interface {
	Top(ctx context.Context, window string, limit int) ([]Entry, error)
}

// SnapshotWriter persists serialized leaderboards.
type SnapshotWriter interface {
	InsertLeaderboardSnapshot(ctx context.Context, arg repository.InsertLeaderboardSnapshotParams) (repository.LeaderboardSnapshot, error)
}

// SnapshotWorker periodically persists Redis leaderboards into Postgres.
type SnapshotWorker struct {
	ranker   Ranker
	store    SnapshotWriter
	logger   zerolog.Logger
	interval time.Duration
	topN     int
	lastHash map[string]string
}

func NewSnapshotWorker(ranker Ranker, store SnapshotWriter, interval time.Duration, topN int, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if topN <= 0 {
		topN = 50
	}
	return &SnapshotWorker{
		ranker:   ranker,
		store:    store,
		logger:   logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval: interval,
		topN:     topN,
		lastHash: make(map[string]string, len(defaultWindows)),
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.ranker == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	for _, window := range defaultWindows {
		if err := w.snapshotWindow(ctx, window); err != nil {
			w.logger.Warn().Err(err).Str("window", window).Msg("snapshot failed")
		}
	}
}

func (w *SnapshotWorker) snapshotWindow(ctx context.Context, window string) error {
	entries, err := w.ranker.Top(ctx, window, w.topN)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	sum := sha256.Sum256(data)
	sourceHash := hex.EncodeToString(sum[:])
	if w.lastHash[window] == sourceHash {
		return nil
	}

	now := time.Now().UTC()
	if _, err := w.store.InsertLeaderboardSnapshot(ctx, repository.InsertLeaderboardSnapshotParams{
		TimeWindow:  window,
		GeneratedAt: now,
		Entries:     data,
		SourceHash:  sourceHash,
	}); err != nil {
		return err
	}
	w.lastHash[window] = sourceHash

	w.logger.Info().
		Str("window", window).
		Int("entries", len(entries)).
		Time("generated_at", now).
		Msg("leaderboard snapshot persisted")

	return nil
}
