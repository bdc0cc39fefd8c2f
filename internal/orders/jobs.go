package orders

import (
	"context"
	"sync"
	"time"

	"ticketcore/pkg/logger"
)

// Sweeper is the part of the service the background jobs need
type Sweeper interface {
	ExpireStalePending(ctx context.Context) (int, error)
}

// JobProcessor runs background maintenance for orders
type JobProcessor struct {
	sweeper  Sweeper
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewJobProcessor creates a job processor sweeping every interval
func NewJobProcessor(sweeper Sweeper, interval time.Duration, log *logger.Logger) *JobProcessor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &JobProcessor{
		sweeper:  sweeper,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.log.InfoContext(ctx, "Starting order background jobs", "sweep_interval", jp.interval.String())
	go jp.startPendingSweeper(ctx)
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() {
		close(jp.done)
		jp.log.Info("Order background jobs stopped")
	})
}

func (jp *JobProcessor) startPendingSweeper(ctx context.Context) {
	ticker := time.NewTicker(jp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.sweepPending(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweepPending cancels one batch of abandoned checkouts
func (jp *JobProcessor) sweepPending(ctx context.Context) int {
	expired, err := jp.sweeper.ExpireStalePending(ctx)
	if err != nil {
		jp.log.ErrorWithContext(ctx, "Error expiring stale orders", err, nil)
	}
	if expired > 0 {
		jp.log.InfoContext(ctx, "Expired stale pending orders", "count", expired)
	}
	return expired
}
