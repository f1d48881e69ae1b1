package consumer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang-stock-recommender/internal/retrainer/config"
	"golang-stock-recommender/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingService struct {
	tasks   atomic.Int64
	retries atomic.Int64
}

func (s *countingService) ProcessTask(ctx context.Context) {
	s.tasks.Add(1)
	select {
	case <-ctx.Done():
	case <-time.After(time.Millisecond):
	}
}

func (s *countingService) ProcessRetries(context.Context) {
	s.retries.Add(1)
}

func TestRedisConsumer_RunsHandlersUntilStopped(t *testing.T) {
	cfg := &config.Config{Worker: config.Worker{
		RedisStreamRetrainTimeout:       time.Second,
		RedisStreamRetrainRetryInterval: 5 * time.Millisecond,
	}}
	svc := &countingService{}
	c := NewRedisConsumer(cfg, svc, logger.NewNop())

	c.Start(context.Background())
	require.Eventually(t, func() bool {
		return svc.tasks.Load() > 0 && svc.retries.Load() > 0
	}, time.Second, 5*time.Millisecond)

	c.Stop()
	tasks := svc.tasks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, tasks, svc.tasks.Load())

	c.Stop()
}

func TestRedisConsumer_StopsOnContextCancel(t *testing.T) {
	cfg := &config.Config{Worker: config.Worker{
		RedisStreamRetrainTimeout:       time.Second,
		RedisStreamRetrainRetryInterval: time.Hour,
	}}
	svc := &countingService{}
	c := NewRedisConsumer(cfg, svc, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	c.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers did not stop after cancel")
	}
}
