package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/config"
	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/pkg/als"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/utils"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// ScoredCompany is a personalized recommendation.
type ScoredCompany struct {
	Company entity.Company
	Score   float64
}

// HardRecommender maintains the shared factorization model and serves
// personalized recommendations from it.
type HardRecommender interface {
	Train(ctx context.Context, userID uint) (bool, error)
	Recommend(ctx context.Context, userID uint, k int) ([]ScoredCompany, error)
	BatchFit(ctx context.Context) (*entity.TrainingRun, error)
}

// NewHardRecommender creates a new personalized recommender.
func NewHardRecommender(
	cfg config.Recommender,
	gate *ReadinessGate,
	ledgerRepo repository.FollowLedgerRepository,
	companyRepo repository.CompanyRepository,
	modelRepo repository.ModelRepository,
	runRepo repository.TrainingRunRepository,
	log *logger.Logger,
) HardRecommender {
	return &hardRecommender{
		cfg:         cfg,
		gate:        gate,
		ledgerRepo:  ledgerRepo,
		companyRepo: companyRepo,
		modelRepo:   modelRepo,
		runRepo:     runRepo,
		logger:      log,
	}
}

type hardRecommender struct {
	cfg         config.Recommender
	gate        *ReadinessGate
	ledgerRepo  repository.FollowLedgerRepository
	companyRepo repository.CompanyRepository
	modelRepo   repository.ModelRepository
	runRepo     repository.TrainingRunRepository
	logger      *logger.Logger

	// mu serialises writers within the process; the model store's
	// compare-and-swap covers writers in other processes.
	mu sync.Mutex
}

// Params returns the model hyperparameters from configuration.
func Params(cfg config.Recommender) als.Params {
	return als.Params{
		Factors:        cfg.Factors,
		Regularization: cfg.Regularization,
		Iterations:     cfg.Iterations,
		Alpha:          cfg.Alpha,
		Seed:           cfg.Seed,
	}
}

// corpus is the global feedback matrix in both orientations.
type corpus struct {
	userItems *als.CSR
	itemUsers *als.CSR
}

// loadCorpus builds the feedback matrices from every following and
// unfollowed entry of every user: +1 for a follow, -1 for an unfollow.
// minUsers lets the caller make sure a user without feedback still has a row.
func (s *hardRecommender) loadCorpus(ctx context.Context, minUsers int) (*corpus, error) {
	entries, err := s.ledgerRepo.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	feedback := make([]als.Entry, 0, len(entries))
	for _, e := range entries {
		feedback = append(feedback, als.Entry{Row: int(e.UserID), Col: int(e.CompanyID), Value: e.FeedbackWeight()})
	}
	userItems := als.NewCSR(minUsers, 0, feedback)
	return &corpus{userItems: userItems, itemUsers: userItems.Transpose()}, nil
}

func (s *hardRecommender) timeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *hardRecommender) startRun(ctx context.Context, kind entity.TrainingKind, userID *uint) (*entity.TrainingRun, error) {
	run := &entity.TrainingRun{
		Kind:      kind,
		UserID:    userID,
		Status:    entity.TrainingStatusRunning,
		StartedAt: utils.TimeNowUTC(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create training run: %w", err)
	}
	return run, nil
}

// finishRun records the outcome with a context detached from the training
// deadline so a timed out fit is still recorded.
func (s *hardRecommender) finishRun(ctx context.Context, run *entity.TrainingRun, stats dto.TrainingStats, version int64, runErr error) {
	run.CompletedAt = sql.NullTime{Time: utils.TimeNowUTC(), Valid: true}
	run.ModelVersion = version
	if runErr != nil {
		run.Status = entity.TrainingStatusFailed
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	} else {
		run.Status = entity.TrainingStatusCompleted
	}
	if raw, err := json.Marshal(stats); err == nil {
		run.Stats = datatypes.JSON(raw)
	}

	if err := s.runRepo.Update(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error("Failed to update training run", logger.ErrorField(err), logger.UintField("run_id", run.ID))
	}
}

func (s *hardRecommender) checkWidth(m *als.Model) error {
	if m.Params.Factors != s.cfg.Factors {
		return fmt.Errorf("%w: model has %d factors, configured %d", ErrStaleModel, m.Params.Factors, s.cfg.Factors)
	}
	return nil
}

// Train refits the user's row and the rows of every company the user gave
// feedback on, then resets the user's counter. Follows counted while the fit
// ran are kept. It returns false without
// touching the model unless the user is due.
func (s *hardRecommender) Train(ctx context.Context, userID uint) (bool, error) {
	_, state, err := s.gate.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if state != ReadyStale {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have trained this user while we waited.
	user, state, err := s.gate.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if state != ReadyStale {
		return false, nil
	}

	ctx, cancel := s.timeout(ctx, s.cfg.TrainTimeout)
	defer cancel()

	run, err := s.startRun(ctx, entity.TrainingKindIncremental, &userID)
	if err != nil {
		return false, err
	}

	version, stats, err := s.train(ctx, userID)
	s.finishRun(ctx, run, stats, version, err)
	if err != nil {
		s.logger.Error("Incremental training failed", logger.ErrorField(err), logger.UintField("user_id", userID))
		return false, err
	}

	if err := s.gate.Reset(ctx, userID, user.HardReady); err != nil {
		return false, fmt.Errorf("reset readiness: %w", err)
	}

	s.logger.Info("Incremental training completed",
		logger.UintField("user_id", userID),
		logger.Field("model_version", version),
		logger.IntField("touched_items", stats.TouchedItems),
	)
	return true, nil
}

func (s *hardRecommender) train(ctx context.Context, userID uint) (int64, dto.TrainingStats, error) {
	var stats dto.TrainingStats

	c, err := s.loadCorpus(ctx, int(userID)+1)
	if err != nil {
		return 0, stats, err
	}
	stats.Users, stats.Items, stats.NNZ = c.userItems.Rows, c.userItems.Cols, c.userItems.NNZ()

	touched, _ := c.userItems.Row(int(userID))
	items := append([]int(nil), touched...)
	stats.TouchedItems = len(items)

	attempts := s.cfg.SaveAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		stats.Attempts = attempt

		snap, err := s.modelRepo.Load(ctx)
		if err != nil {
			return 0, stats, fmt.Errorf("load model: %w", err)
		}
		m := snap.Model
		if err := s.checkWidth(m); err != nil {
			return snap.Version, stats, err
		}

		m.Grow(c.userItems.Rows, c.userItems.Cols)
		if err := m.PartialFitUsers(ctx, c.userItems, []int{int(userID)}); err != nil {
			return snap.Version, stats, fmt.Errorf("fit user: %w", err)
		}
		if err := m.PartialFitItems(ctx, c.itemUsers, items); err != nil {
			return snap.Version, stats, fmt.Errorf("fit items: %w", err)
		}

		version, err := s.modelRepo.Save(ctx, m, snap.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("Model changed during training, retrying",
				logger.UintField("user_id", userID),
				logger.IntField("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return snap.Version, stats, fmt.Errorf("save model: %w", err)
		}
		return version, stats, nil
	}
	return 0, stats, ErrModelConflict
}

// Recommend returns up to k companies the user does not follow, best first.
// Only strictly positive scores are returned, so an empty result means the
// model has nothing useful for the user.
func (s *hardRecommender) Recommend(ctx context.Context, userID uint, k int) ([]ScoredCompany, error) {
	if k <= 0 {
		return []ScoredCompany{}, nil
	}

	snap, err := s.modelRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	m := snap.Model
	if err := s.checkWidth(m); err != nil {
		return nil, err
	}
	if int(userID) >= m.Users {
		return nil, fmt.Errorf("%w: user %d outside model of %d users", ErrStaleModel, userID, m.Users)
	}

	followed, err := s.ledgerRepo.ListFollowedCompanies(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := make(map[int]struct{}, len(followed))
	for _, c := range followed {
		exclude[int(c.ID)] = struct{}{}
	}

	// Ask for every item so deleted companies can be dropped without
	// shrinking the result below k.
	recs, err := m.Recommend(int(userID), m.Items, exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaleModel, err)
	}

	ids := make([]uint, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, uint(r.ItemID))
	}
	companies, err := s.companyRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	live := make(map[uint]entity.Company, len(companies))
	for _, c := range companies {
		live[c.ID] = c
	}

	result := make([]ScoredCompany, 0, k)
	for _, r := range recs {
		c, ok := live[uint(r.ItemID)]
		if !ok {
			continue
		}
		result = append(result, ScoredCompany{Company: c, Score: r.Score})
		if len(result) == k {
			break
		}
	}
	return result, nil
}

// BatchFit trains a fresh model over the whole feedback corpus and replaces
// the stored one.
func (s *hardRecommender) BatchFit(ctx context.Context) (*entity.TrainingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.timeout(ctx, s.cfg.BatchFitTimeout)
	defer cancel()

	run, err := s.startRun(ctx, entity.TrainingKindBatch, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Batch fit started", logger.UintField("run_id", run.ID))
	version, stats, err := s.batchFit(ctx)
	s.finishRun(ctx, run, stats, version, err)
	if err != nil {
		s.logger.Error("Batch fit failed", logger.ErrorField(err), logger.UintField("run_id", run.ID))
		return run, err
	}

	s.logger.Info("Batch fit completed",
		logger.UintField("run_id", run.ID),
		logger.Field("model_version", version),
		logger.IntField("users", stats.Users),
		logger.IntField("items", stats.Items),
		logger.IntField("nnz", stats.NNZ),
	)
	return run, nil
}

func (s *hardRecommender) batchFit(ctx context.Context) (int64, dto.TrainingStats, error) {
	var stats dto.TrainingStats

	attempts := s.cfg.SaveAttempts
	if attempts <= 0 {
		attempts = 1
	}
	// The version is read before the corpus, so any save that lands after
	// the read fails the swap and the next attempt refits with its feedback.
	for attempt := 1; attempt <= attempts; attempt++ {
		stats.Attempts = attempt

		snap, err := s.modelRepo.Load(ctx)
		if err != nil {
			return 0, stats, fmt.Errorf("load model: %w", err)
		}

		c, err := s.loadCorpus(ctx, 0)
		if err != nil {
			return 0, stats, err
		}
		stats.Users, stats.Items, stats.NNZ = c.userItems.Rows, c.userItems.Cols, c.userItems.NNZ()

		m := als.NewModel(Params(s.cfg))
		if err := m.Fit(ctx, c.userItems); err != nil {
			return 0, stats, fmt.Errorf("fit: %w", err)
		}

		version, err := s.modelRepo.Save(ctx, m, snap.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("Model changed during batch fit, refitting", logger.IntField("attempt", attempt))
			continue
		}
		if err != nil {
			return 0, stats, fmt.Errorf("save model: %w", err)
		}
		return version, stats, nil
	}
	return 0, stats, ErrModelConflict
}
