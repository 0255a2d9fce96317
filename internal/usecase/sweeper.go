package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupService periodically prunes expired refresh tokens and blacklist
// entries so neither table grows without bound.
type CleanupService struct {
	refresh   *RefreshTokenService
	blacklist *BlacklistService
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

// NewCleanupService constructs a CleanupService.
func NewCleanupService(
	refresh *RefreshTokenService,
	blacklist *BlacklistService,
	interval time.Duration,
	batchSize int,
	logger *zap.Logger,
) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	return &CleanupService{
		refresh:   refresh,
		blacklist: blacklist,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until the context is canceled.
// Intended to be launched in its own goroutine.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Cleanup loop started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize),
	)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Cleanup loop stopped")
			return
		}
	}
}

// RunOnce performs a single sweep of both stores. Errors are logged, not
// returned; the next tick retries.
func (s *CleanupService) RunOnce(ctx context.Context) {
	tokens, err := s.refresh.SweepExpired(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Refresh token sweep failed", zap.Error(err))
	}

	entries, err := s.blacklist.SweepExpired(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Blacklist sweep failed", zap.Error(err))
	}

	if tokens > 0 || entries > 0 {
		s.logger.Info("Expired token records removed",
			zap.Int("refresh_tokens", tokens),
			zap.Int("blacklist_entries", entries),
		)
	}
}
