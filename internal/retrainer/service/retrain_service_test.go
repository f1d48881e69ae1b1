package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang-stock-recommender/internal/entity"
	recommender "golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/internal/retrainer/config"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHard struct {
	mu       sync.Mutex
	trainErr error
	trained  []uint
	batches  int
}

func (s *stubHard) Train(_ context.Context, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = append(s.trained, userID)
	if s.trainErr != nil {
		return false, s.trainErr
	}
	return true, nil
}

func (s *stubHard) Recommend(context.Context, uint, int) ([]recommender.ScoredCompany, error) {
	return nil, nil
}

func (s *stubHard) BatchFit(context.Context) (*entity.TrainingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	return &entity.TrainingRun{ID: uint(s.batches), Kind: entity.TrainingKindBatch, ModelVersion: int64(s.batches)}, nil
}

func (s *stubHard) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trainErr = err
}

func (s *stubHard) trainedUsers() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint(nil), s.trained...)
}

func (s *stubHard) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

type stubNotifier struct {
	messages []string
}

func (n *stubNotifier) SendMessage(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

type retrainFixture struct {
	ctx      context.Context
	client   *redis.Client
	hard     *stubHard
	notifier *stubNotifier
	svc      RetrainService
}

func testWorker() config.Worker {
	return config.Worker{
		RedisStreamRetrainBlock:           10 * time.Millisecond,
		RedisStreamRetrainMaxIdleDuration: 0,
		RedisStreamRetrainMaxRetry:        5,
	}
}

func newRetrainFixture(t *testing.T, cfg config.Worker) *retrainFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.XGroupCreateMkStream(ctx, common.RedisStreamRecommenderRetrain, common.RedisStreamGroup, "0").Err())

	f := &retrainFixture{ctx: ctx, client: client, hard: &stubHard{}, notifier: &stubNotifier{}}
	f.svc = NewRetrainService(cfg, logger.NewNop(), client, f.hard, f.notifier, common.RedisStreamConsumer+"-test")
	return f
}

func (f *retrainFixture) publish(t *testing.T, payload string) {
	t.Helper()
	require.NoError(t, f.client.XAdd(f.ctx, &redis.XAddArgs{
		Stream: common.RedisStreamRecommenderRetrain,
		Values: map[string]interface{}{"payload": payload},
	}).Err())
}

func (f *retrainFixture) pending(t *testing.T) int64 {
	t.Helper()
	p, err := f.client.XPending(f.ctx, common.RedisStreamRecommenderRetrain, common.RedisStreamGroup).Result()
	require.NoError(t, err)
	return p.Count
}

func (f *retrainFixture) streamLen(t *testing.T) int64 {
	t.Helper()
	n, err := f.client.XLen(f.ctx, common.RedisStreamRecommenderRetrain).Result()
	require.NoError(t, err)
	return n
}

func TestRetrainService_ProcessTaskTrainsAndAcks(t *testing.T) {
	f := newRetrainFixture(t, testWorker())
	f.publish(t, `{"user_id":7,"requested_at":"2026-01-02T03:04:05Z"}`)

	f.svc.ProcessTask(f.ctx)

	assert.Equal(t, []uint{7}, f.hard.trainedUsers())
	assert.Equal(t, int64(0), f.pending(t))
	assert.Equal(t, int64(0), f.streamLen(t))
}

func TestRetrainService_ProcessTaskEmptyStream(t *testing.T) {
	f := newRetrainFixture(t, testWorker())

	f.svc.ProcessTask(f.ctx)

	assert.Empty(t, f.hard.trainedUsers())
}

func TestRetrainService_FailedTrainStaysPending(t *testing.T) {
	f := newRetrainFixture(t, testWorker())
	f.hard.setErr(recommender.ErrModelConflict)
	f.publish(t, `{"user_id":3}`)

	f.svc.ProcessTask(f.ctx)

	assert.Equal(t, []uint{3}, f.hard.trainedUsers())
	assert.Equal(t, int64(1), f.pending(t))
	assert.Equal(t, int64(1), f.streamLen(t))
}

func TestRetrainService_MissingUserIsDropped(t *testing.T) {
	f := newRetrainFixture(t, testWorker())
	f.hard.setErr(recommender.ErrUserNotFound)
	f.publish(t, `{"user_id":99}`)

	f.svc.ProcessTask(f.ctx)

	assert.Equal(t, int64(0), f.pending(t))
	assert.Equal(t, int64(0), f.streamLen(t))
}

func TestRetrainService_MalformedPayloadIsDropped(t *testing.T) {
	f := newRetrainFixture(t, testWorker())
	f.publish(t, `not-json`)

	f.svc.ProcessTask(f.ctx)

	assert.Empty(t, f.hard.trainedUsers())
	assert.Equal(t, int64(0), f.pending(t))
}

func TestRetrainService_ProcessRetriesRecoversPendingTask(t *testing.T) {
	f := newRetrainFixture(t, testWorker())
	f.hard.setErr(errors.New("store unavailable"))
	f.publish(t, `{"user_id":4}`)
	f.svc.ProcessTask(f.ctx)
	require.Equal(t, int64(1), f.pending(t))

	f.hard.setErr(nil)
	f.svc.ProcessRetries(f.ctx)

	assert.Equal(t, []uint{4, 4}, f.hard.trainedUsers())
	assert.Equal(t, int64(0), f.pending(t))
	assert.Empty(t, f.notifier.messages)
}

func TestRetrainService_ProcessRetriesGivesUpAfterMaxRetry(t *testing.T) {
	cfg := testWorker()
	cfg.RedisStreamRetrainMaxRetry = 1
	f := newRetrainFixture(t, cfg)
	f.hard.setErr(errors.New("store unavailable"))
	f.publish(t, `{"user_id":5}`)
	f.svc.ProcessTask(f.ctx)

	f.svc.ProcessRetries(f.ctx)

	assert.Equal(t, []uint{5}, f.hard.trainedUsers())
	assert.Equal(t, int64(0), f.pending(t))
	assert.Equal(t, int64(0), f.streamLen(t))
	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "user_id=5")
}

func TestRetrainService_ProcessRetriesNothingPending(t *testing.T) {
	f := newRetrainFixture(t, testWorker())

	f.svc.ProcessRetries(f.ctx)

	assert.Empty(t, f.hard.trainedUsers())
	assert.Empty(t, f.notifier.messages)
}

func (f *retrainFixture) marked(t *testing.T, userID uint) bool {
	t.Helper()
	n, err := f.client.Exists(f.ctx, recommender.RetrainPendingKey(userID)).Result()
	require.NoError(t, err)
	return n == 1
}

func TestRetrainService_ClearsPendingMarkerAfterTraining(t *testing.T) {
	f := newRetrainFixture(t, testWorker())
	queue := recommender.NewRetrainQueue(f.client, time.Minute)

	require.NoError(t, queue.Enqueue(f.ctx, 8))
	require.NoError(t, queue.Enqueue(f.ctx, 8))
	assert.Equal(t, int64(1), f.streamLen(t))
	assert.True(t, f.marked(t, 8))

	f.hard.setErr(errors.New("store unavailable"))
	f.svc.ProcessTask(f.ctx)
	assert.True(t, f.marked(t, 8))

	f.hard.setErr(nil)
	f.svc.ProcessRetries(f.ctx)
	assert.False(t, f.marked(t, 8))
	assert.Equal(t, int64(0), f.streamLen(t))

	require.NoError(t, queue.Enqueue(f.ctx, 8))
	assert.Equal(t, int64(1), f.streamLen(t))
}

func TestRetrainService_ClearsPendingMarkerOnDrop(t *testing.T) {
	cfg := testWorker()
	cfg.RedisStreamRetrainMaxRetry = 1
	f := newRetrainFixture(t, cfg)
	queue := recommender.NewRetrainQueue(f.client, time.Minute)

	f.hard.setErr(recommender.ErrUserNotFound)
	require.NoError(t, queue.Enqueue(f.ctx, 11))
	f.svc.ProcessTask(f.ctx)
	assert.False(t, f.marked(t, 11))

	f.hard.setErr(errors.New("store unavailable"))
	require.NoError(t, queue.Enqueue(f.ctx, 12))
	f.svc.ProcessTask(f.ctx)
	f.svc.ProcessRetries(f.ctx)
	assert.False(t, f.marked(t, 12))
	require.Len(t, f.notifier.messages, 1)
}
