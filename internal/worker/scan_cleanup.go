package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/postoppal-api/internal/repository"
	"github.com/jwalitptl/postoppal-api/pkg/logger"
)

// DefaultCleanupInterval is used when no positive interval is configured.
const DefaultCleanupInterval = time.Hour

// ScanCleanupWorker prunes scan audit events past their retention period.
type ScanCleanupWorker struct {
	repo            repository.ScanEventRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewScanCleanupWorker(repo repository.ScanEventRepository, retention, cleanupInterval time.Duration, log *logger.Logger) *ScanCleanupWorker {
	if log == nil {
		log = logger.Nop()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &ScanCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log,
		now:             time.Now,
	}
}

func (w *ScanCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "Error cleaning up scan events")
			}
		}
	}
}

func (w *ScanCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup scan events: %w", err)
	}

	w.logger.Info("Cleaned up scan events", "rows", rows, "cutoff", cutoff)
	return nil
}
