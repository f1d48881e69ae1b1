package service

import (
	"context"
	"testing"

	"golang-stock-recommender/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRefitScheduler_RejectsInvalidSchedule(t *testing.T) {
	s := NewBatchRefitScheduler(&stubHard{}, logger.NewNop())

	err := s.Start(context.Background(), "every tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")
}

func TestBatchRefitScheduler_RunFitsOnce(t *testing.T) {
	hard := &stubHard{}
	s := NewBatchRefitScheduler(hard, logger.NewNop())

	s.Run(context.Background())

	assert.Equal(t, 1, hard.batchCount())
}

func TestBatchRefitScheduler_RunSkipsCancelledContext(t *testing.T) {
	hard := &stubHard{}
	s := NewBatchRefitScheduler(hard, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Run(ctx)

	assert.Equal(t, 0, hard.batchCount())
}

func TestBatchRefitScheduler_StartAndStop(t *testing.T) {
	s := NewBatchRefitScheduler(&stubHard{}, logger.NewNop())

	require.NoError(t, s.Start(context.Background(), "@daily"))
	s.Stop()
}
