package service

import (
	"context"
	"sync"
	"testing"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/recommender/config"
	"golang-stock-recommender/internal/recommender/repository"
	"golang-stock-recommender/internal/testutil"
	"golang-stock-recommender/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() config.Recommender {
	return config.Recommender{
		ReadinessThreshold: 5,
		RetrainThreshold:   5,
		Factors:            2,
		Regularization:     0.1,
		Iterations:         30,
		Alpha:              1,
		Seed:               7,
		SaveAttempts:       3,
		DefaultK:           10,
		MaxK:               50,
	}
}

type harness struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB
	f   *testutil.Fixture
	cfg config.Recommender

	userRepo    repository.UserRepository
	ledgerRepo  repository.FollowLedgerRepository
	sectorRepo  repository.SectorGraphRepository
	companyRepo repository.CompanyRepository
	runRepo     repository.TrainingRunRepository
	modelRepo   repository.ModelRepository

	gate     *ReadinessGate
	affinity AffinityService
	ledger   LedgerService
	soft     SoftRecommender
	hard     HardRecommender
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, testConfig(), nil)
}

func newHarnessWith(t *testing.T, cfg config.Recommender, modelRepo repository.ModelRepository) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := logger.NewNop()

	if modelRepo == nil {
		modelRepo = repository.NewMemoryModelRepository(Params(cfg))
	}
	h := &harness{
		t:           t,
		ctx:         context.Background(),
		db:          db,
		f:           testutil.NewFixture(t, db),
		cfg:         cfg,
		userRepo:    repository.NewUserRepository(db),
		ledgerRepo:  repository.NewFollowLedgerRepository(db),
		sectorRepo:  repository.NewSectorGraphRepository(db),
		companyRepo: repository.NewCompanyRepository(db),
		runRepo:     repository.NewTrainingRunRepository(db),
		modelRepo:   modelRepo,
	}
	h.gate = NewReadinessGate(h.userRepo, cfg.ReadinessThreshold, cfg.RetrainThreshold)
	h.affinity = NewAffinityService(db, h.gate, h.sectorRepo, h.ledgerRepo, log)
	h.ledger = NewLedgerService(db, h.gate, h.userRepo, h.ledgerRepo, h.companyRepo, h.sectorRepo, log)
	h.soft = NewSoftRecommender(h.affinity, h.ledgerRepo)
	h.hard = NewHardRecommender(cfg, h.gate, h.ledgerRepo, h.companyRepo, h.modelRepo, h.runRepo, log)
	return h
}

func (h *harness) follow(userID, companyID uint) *FollowResult {
	h.t.Helper()
	res, err := h.ledger.Follow(h.ctx, userID, companyID)
	require.NoError(h.t, err)
	return res
}

func (h *harness) unfollow(userID, companyID uint) *FollowResult {
	h.t.Helper()
	res, err := h.ledger.Unfollow(h.ctx, userID, companyID)
	require.NoError(h.t, err)
	return res
}

func (h *harness) companies(n int) []entity.Company {
	h.t.Helper()
	out := make([]entity.Company, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, h.f.Company(string(rune('A'+i))))
	}
	return out
}

// seedClusters creates users 1..9 and companies 1..5: users 1-4 follow
// companies 1,2,3, user 5 follows 1,2, users 6-8 follow 4,5 and user 9 has
// no feedback.
func (h *harness) seedClusters() ([]entity.User, []entity.Company) {
	h.t.Helper()
	companies := h.companies(5)
	users := make([]entity.User, 0, 9)
	for i := 0; i < 9; i++ {
		users = append(users, h.f.User(string(rune('a'+i))+"@example.com"))
	}
	like := func(u entity.User, cs ...int) {
		for _, c := range cs {
			h.f.Ledger(u.ID, companies[c-1].ID, entity.FollowStateFollowing, 0)
		}
	}
	for i := 0; i < 4; i++ {
		like(users[i], 1, 2, 3)
	}
	like(users[4], 1, 2)
	for i := 5; i < 8; i++ {
		like(users[i], 4, 5)
	}
	return users, companies
}

type fakeQueue struct {
	mu    sync.Mutex
	users []uint
}

func (q *fakeQueue) Enqueue(_ context.Context, userID uint) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.users = append(q.users, userID)
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) SendMessage(text string) error {
	n.messages = append(n.messages, text)
	return nil
}
