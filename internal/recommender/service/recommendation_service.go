package service

import (
	"context"

	"golang-stock-recommender/internal/recommender/config"
	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/pkg/logger"
)

// RecommendationService picks the recommender tier for a user and degrades
// to sector based ranking whenever the personalized path cannot answer.
type RecommendationService interface {
	Recommend(ctx context.Context, userID uint, k int) (*dto.RecommendationResponse, error)
}

// NewRecommendationService creates a new recommendation service. queue may
// be nil when retrains run inline.
func NewRecommendationService(
	cfg config.Recommender,
	gate *ReadinessGate,
	soft SoftRecommender,
	hard HardRecommender,
	queue RetrainQueue,
	log *logger.Logger,
) RecommendationService {
	return &recommendationService{
		cfg:    cfg,
		gate:   gate,
		soft:   soft,
		hard:   hard,
		queue:  queue,
		logger: log,
	}
}

type recommendationService struct {
	cfg    config.Recommender
	gate   *ReadinessGate
	soft   SoftRecommender
	hard   HardRecommender
	queue  RetrainQueue
	logger *logger.Logger
}

// Recommend returns up to k companies. Only a missing user is an error;
// every failure of the personalized path falls back to sector ranking.
func (s *recommendationService) Recommend(ctx context.Context, userID uint, k int) (*dto.RecommendationResponse, error) {
	if s.cfg.MaxK > 0 && k > s.cfg.MaxK {
		k = s.cfg.MaxK
	}

	_, state, err := s.gate.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if state != NotReady && k > 0 {
		if items, ok := s.personalized(ctx, userID, k, state); ok {
			return &dto.RecommendationResponse{UserID: userID, Source: dto.SourcePersonalized, Items: items}, nil
		}
	}

	entries, err := s.soft.Recommend(ctx, userID, k)
	if err != nil {
		return nil, err
	}
	items := make([]dto.RecommendedCompany, 0, len(entries))
	for _, e := range entries {
		d := e.Distance
		items = append(items, dto.RecommendedCompany{
			CompanyID:      e.CompanyID,
			Name:           e.Company.Name,
			Sentiment:      e.Company.Sentiment,
			SentimentLabel: SentimentLabel(e.Company.Sentiment),
			Distance:       &d,
			Unfollowed:     e.IsUnfollowed(),
		})
	}
	return &dto.RecommendationResponse{UserID: userID, Source: dto.SourceSector, Items: items}, nil
}

func (s *recommendationService) personalized(ctx context.Context, userID uint, k int, state ReadinessState) ([]dto.RecommendedCompany, bool) {
	if state == ReadyStale {
		s.retrain(ctx, userID)
	}

	scored, err := s.hard.Recommend(ctx, userID, k)
	if err != nil {
		s.logger.WarnContext(ctx, "Personalized recommendation failed, using sector ranking",
			logger.ErrorField(err),
			logger.UintField("user_id", userID),
		)
		return nil, false
	}
	if len(scored) == 0 {
		s.logger.DebugContext(ctx, "Personalized recommendation empty, using sector ranking", logger.UintField("user_id", userID))
		return nil, false
	}

	items := make([]dto.RecommendedCompany, 0, len(scored))
	for _, sc := range scored {
		score := sc.Score
		items = append(items, dto.RecommendedCompany{
			CompanyID:      sc.Company.ID,
			Name:           sc.Company.Name,
			Sentiment:      sc.Company.Sentiment,
			SentimentLabel: SentimentLabel(sc.Company.Sentiment),
			Score:          &score,
		})
	}
	return items, true
}

// retrain runs the incremental fit inline or hands it to the worker. Failures
// are logged only; the current model still serves this request.
func (s *recommendationService) retrain(ctx context.Context, userID uint) {
	if s.cfg.AsyncRetrain && s.queue != nil {
		if err := s.queue.Enqueue(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to enqueue retrain", logger.ErrorField(err), logger.UintField("user_id", userID))
		}
		return
	}
	if _, err := s.hard.Train(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "Inline retrain failed", logger.ErrorField(err), logger.UintField("user_id", userID))
	}
}
