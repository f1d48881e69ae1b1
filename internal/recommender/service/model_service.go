package service

import (
	"context"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"
)

const defaultRunLimit = 20

// ModelService exposes model maintenance to operators.
type ModelService interface {
	// Refit starts a batch fit in the background.
	Refit(ctx context.Context) *dto.RefitResponse
	ListRuns(ctx context.Context, limit int) ([]dto.TrainingRunResponse, error)
}

// NewModelService creates a new model service.
func NewModelService(hard HardRecommender, runRepo repository.TrainingRunRepository, log *logger.Logger) ModelService {
	return &modelService{hard: hard, runRepo: runRepo, logger: log}
}

type modelService struct {
	hard    HardRecommender
	runRepo repository.TrainingRunRepository
	logger  *logger.Logger
}

func (s *modelService) Refit(ctx context.Context) *dto.RefitResponse {
	bg := context.WithoutCancel(ctx)
	utils.GoSafe(func() {
		if _, err := s.hard.BatchFit(bg); err != nil {
			s.logger.Error("Requested batch fit failed", logger.ErrorField(err))
		}
	})
	return &dto.RefitResponse{Status: "accepted"}
}

func (s *modelService) ListRuns(ctx context.Context, limit int) ([]dto.TrainingRunResponse, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	runs, err := s.runRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TrainingRunResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, MapTrainingRun(&runs[i]))
	}
	return resp, nil
}

// MapTrainingRun converts a run into its API form.
func MapTrainingRun(run *entity.TrainingRun) dto.TrainingRunResponse {
	r := dto.TrainingRunResponse{
		ID:           run.ID,
		Kind:         string(run.Kind),
		UserID:       run.UserID,
		Status:       string(run.Status),
		ModelVersion: run.ModelVersion,
		StartedAt:    run.StartedAt,
		ErrorMessage: run.ErrorMessage.String,
	}
	if run.CompletedAt.Valid {
		t := run.CompletedAt.Time
		r.CompletedAt = &t
	}
	if len(run.Stats) > 0 {
		r.Stats = []byte(run.Stats)
	}
	return r
}
