package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
)

type historyStore interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	ListAll(ctx context.Context, userID string) ([]model.HistoryEntry, error)
	ReplaceAll(ctx context.Context, userID string, entries []model.HistoryEntry) error
}

type imageStore interface {
	Delete(ctx context.Context, key string) error
}

// Job drops history entries past the retention window and reclaims the
// face images they reference.
type Job struct {
	history   historyStore
	images    imageStore
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(history historyStore, images imageStore, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		history:   history,
		images:    images,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.history == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)

	userIDs, err := j.history.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list history users: %w", err)
	}

	dropped := 0
	for _, userID := range userIDs {
		entries, err := j.history.ListAll(ctx, userID)
		if err != nil {
			return fmt.Errorf("list history for %s: %w", userID, err)
		}

		kept := make([]model.HistoryEntry, 0, len(entries))
		var staleKeys []string
		for _, entry := range entries {
			if entry.Timestamp.After(cutoff) {
				kept = append(kept, entry)
				continue
			}
			if entry.ImageKey != "" {
				staleKeys = append(staleKeys, entry.ImageKey)
			}
		}

		if len(kept) == len(entries) {
			continue
		}

		if err := j.history.ReplaceAll(ctx, userID, kept); err != nil {
			return fmt.Errorf("rewrite history for %s: %w", userID, err)
		}
		dropped += len(entries) - len(kept)

		if j.images == nil {
			continue
		}
		for _, key := range staleKeys {
			if err := j.images.Delete(ctx, key); err != nil {
				j.logger.Warn("failed to delete face image from storage", zap.Error(err), zap.String("object_key", key))
			}
		}
	}

	if dropped > 0 {
		j.logger.Info("cleanup stale history completed", zap.Int("dropped", dropped))
	}
	return nil
}

// RunEvery runs the job on a fixed interval until the context is canceled.
func (j *Job) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("history cleanup run failed", zap.Error(err))
			}
		}
	}
}
