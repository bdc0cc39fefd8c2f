package orders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ticketcore/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) ExpireStalePending(context.Context) (int, error) {
	s.calls.Add(1)
	return 2, s.err
}

func TestJobProcessor_SweepsUntilStopped(t *testing.T) {
	sweeper := &countingSweeper{}
	jp := NewJobProcessor(sweeper, 5*time.Millisecond, logger.Discard())

	jp.Start(context.Background())
	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	jp.Stop()

	// Stopped: no further sweeps
	stoppedAt := sweeper.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, sweeper.calls.Load(), stoppedAt+1)
}

func TestJobProcessor_StopTwice(t *testing.T) {
	jp := NewJobProcessor(&countingSweeper{}, time.Hour, logger.Discard())
	jp.Start(context.Background())

	assert.NotPanics(t, func() {
		jp.Stop()
		jp.Stop()
	})
}

func TestJobProcessor_SweepLogsErrors(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	jp := NewJobProcessor(sweeper, 0, logger.Discard())

	assert.Equal(t, 2, jp.sweepPending(context.Background()))
	assert.Equal(t, 5*time.Minute, jp.interval)
}
