package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RetrainQueue hands retrains to the single writer in the retrain worker.
type RetrainQueue interface {
	Enqueue(ctx context.Context, userID uint) error
}

// RetrainPendingKey marks a user whose retrain is queued and not yet
// processed. The retrain worker deletes it once the task is done.
func RetrainPendingKey(userID uint) string {
	return fmt.Sprintf("%s%d", common.RedisKeyRetrainPendingPrefix, userID)
}

// NewRetrainQueue creates a queue backed by a redis stream. While a user's
// task is pending, further enqueues for the user are dropped; dedupeTTL bounds
// how long a marker survives a worker that never clears it. A zero dedupeTTL
// publishes every request.
func NewRetrainQueue(redisClient *redis.Client, dedupeTTL time.Duration) RetrainQueue {
	return &retrainQueue{redisClient: redisClient, dedupeTTL: dedupeTTL}
}

type retrainQueue struct {
	redisClient *redis.Client
	dedupeTTL   time.Duration
}

// Enqueue publishes a retrain task for the user unless one is already pending.
func (q *retrainQueue) Enqueue(ctx context.Context, userID uint) error {
	if q.dedupeTTL > 0 {
		fresh, err := q.redisClient.SetNX(ctx, RetrainPendingKey(userID), 1, q.dedupeTTL).Result()
		if err != nil {
			return fmt.Errorf("mark retrain pending: %w", err)
		}
		if !fresh {
			return nil
		}
	}

	if err := q.publish(ctx, userID); err != nil {
		if q.dedupeTTL > 0 {
			_ = q.redisClient.Del(context.WithoutCancel(ctx), RetrainPendingKey(userID)).Err()
		}
		return err
	}
	return nil
}

func (q *retrainQueue) publish(ctx context.Context, userID uint) error {
	payload, err := json.Marshal(dto.RetrainTask{UserID: userID, RequestedAt: utils.TimeNowUTC()})
	if err != nil {
		return err
	}
	err = q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamRecommenderRetrain,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish retrain task: %w", err)
	}
	return nil
}
