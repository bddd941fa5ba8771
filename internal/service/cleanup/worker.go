package cleanup

import (
	"context"
	"time"

	"github.com/iamasit07/cartline/backend/internal/logging"
)

// CartDeduplicator removes all but the first cart of each user.
type CartDeduplicator interface {
	CleanupDuplicates(ctx context.Context) (int64, error)
}

type Worker struct {
	carts    CartDeduplicator
	interval time.Duration
	log      logging.Logger
}

func NewWorker(carts CartDeduplicator, interval time.Duration, log logging.Logger) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{carts: carts, interval: interval, log: log}
}

// Start runs one pass immediately and then one per interval until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.runCleanup(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Info(ctx, "cleanup worker started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "cleanup worker stopped")
			return
		case <-ticker.C:
			w.runCleanup(ctx)
		}
	}
}

func (w *Worker) runCleanup(ctx context.Context) {
	removed, err := w.carts.CleanupDuplicates(ctx)
	if err != nil {
		w.log.Error(ctx, "duplicate cart cleanup failed", "err", err)
		return
	}
	if removed > 0 {
		w.log.Info(ctx, "duplicate carts removed", "count", removed)
	}
}
