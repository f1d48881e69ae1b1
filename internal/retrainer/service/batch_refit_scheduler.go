package service

import (
	"context"
	"fmt"

	recommender "golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/robfig/cron/v3"
)

// BatchRefitScheduler runs a full batch fit on a cron schedule.
type BatchRefitScheduler struct {
	cron *cron.Cron
	hard recommender.HardRecommender
	log  *logger.Logger
}

// NewBatchRefitScheduler creates a scheduler for the given standard
// five-field cron expression or descriptor such as "@daily".
func NewBatchRefitScheduler(hard recommender.HardRecommender, log *logger.Logger) *BatchRefitScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &BatchRefitScheduler{
		cron: cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		hard: hard,
		log:  log,
	}
}

// Start registers the refit job and starts the scheduler.
func (s *BatchRefitScheduler) Start(ctx context.Context, expression string) error {
	_, err := s.cron.AddFunc(expression, func() { s.Run(ctx) })
	if err != nil {
		return fmt.Errorf("parse batch refit schedule %q: %w", expression, err)
	}
	s.cron.Start()
	s.log.Info("Batch refit scheduled", logger.StringField("cron", expression))
	return nil
}

// Run performs one batch fit.
func (s *BatchRefitScheduler) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	run, err := s.hard.BatchFit(ctx)
	if err != nil {
		s.log.Error("Scheduled batch refit failed", logger.ErrorField(err))
		return
	}
	s.log.Info("Scheduled batch refit completed", logger.UintField("run_id", run.ID), logger.Field("model_version", run.ModelVersion))
}

// Stop stops the scheduler and waits for a running refit to finish.
func (s *BatchRefitScheduler) Stop() {
	<-s.cron.Stop().Done()
}
