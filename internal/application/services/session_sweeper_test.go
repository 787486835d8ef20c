package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ai-event-scanner/backend/internal/application/services"
)

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) CleanupExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestSessionSweeper_SweepsPeriodically(t *testing.T) {
	cleaner := &countingCleaner{}
	sweeper := services.NewSessionSweeper(cleaner, 10*time.Millisecond)

	sweeper.Start(context.Background())
	require.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	sweeper.Stop()

	after := cleaner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, cleaner.calls.Load())
}

func TestSessionSweeper_StopsOnContextCancel(t *testing.T) {
	cleaner := &countingCleaner{}
	sweeper := services.NewSessionSweeper(cleaner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessionSweeper_StopWithoutStart(t *testing.T) {
	sweeper := services.NewSessionSweeper(&countingCleaner{}, 0)
	sweeper.Stop()
}
