// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/sessions"
	"github.com/sitebooks/backend/pkg/redis"
)

const heartbeatKey = "worker:retention:last_run"

// RetentionSweeper periodically hard-deletes sessions that have been revoked
// for longer than the retention window. Live and recently revoked sessions
// are never touched, so audit lookups keep working for the whole window.
type RetentionSweeper struct {
	store     sessions.Store
	cache     *redis.Client
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewRetentionSweeper creates a sweeper.
func NewRetentionSweeper(store sessions.Store, cache *redis.Client, retention, interval time.Duration, logger *zap.Logger) *RetentionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionSweeper{store: store, cache: cache, retention: retention, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *RetentionSweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	purged, err := s.store.PurgeRevokedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("session purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("purged revoked sessions",
			zap.Int64("count", purged),
			zap.Time("cutoff", cutoff))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, heartbeatKey, time.Now().Format(time.RFC3339), 0).Err(); err != nil {
			s.logger.Warn("heartbeat write failed", zap.Error(err))
		}
	}
}
