package service

import (
	"testing"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelService_RefitRunsInBackground(t *testing.T) {
	h := newHarness(t)
	h.seedClusters()
	svc := NewModelService(h.hard, h.runRepo, logger.NewNop())

	resp := svc.Refit(h.ctx)
	assert.Equal(t, "accepted", resp.Status)

	require.Eventually(t, func() bool {
		snap, err := h.modelRepo.Load(h.ctx)
		return err == nil && snap.Version == 1
	}, 10*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		runs, err := svc.ListRuns(h.ctx, 0)
		return err == nil && len(runs) == 1 && runs[0].Status == string(entity.TrainingStatusCompleted)
	}, 10*time.Second, 20*time.Millisecond)

	runs, err := svc.ListRuns(h.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, string(entity.TrainingKindBatch), runs[0].Kind)
	assert.NotNil(t, runs[0].CompletedAt)
	assert.NotEmpty(t, runs[0].Stats)
}
