package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-stock-recommender/internal/recommender/dto"
	recommender "golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/internal/retrainer/config"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/telegram"
	"golang-stock-recommender/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RetrainService drains the retrain stream. Running one per deployment makes
// it the single writer of incremental model updates.
type RetrainService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
}

type retrainService struct {
	cfg          config.Worker
	log          *logger.Logger
	redisClient  *redis.Client
	hard         recommender.HardRecommender
	telegramBot  telegram.Notifier
	limiter      *rate.Limiter
	consumerName string
}

// NewRetrainService creates a new retrain service reading as consumerName.
func NewRetrainService(
	cfg config.Worker,
	log *logger.Logger,
	redisClient *redis.Client,
	hard recommender.HardRecommender,
	telegramBot telegram.Notifier,
	consumerName string,
) RetrainService {
	limit := rate.Inf
	if cfg.RetrainsPerSecond > 0 {
		limit = rate.Limit(cfg.RetrainsPerSecond)
	}
	burst := cfg.RetrainBurst
	if burst <= 0 {
		burst = 1
	}
	return &retrainService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		hard:         hard,
		telegramBot:  telegramBot,
		limiter:      rate.NewLimiter(limit, burst),
		consumerName: consumerName,
	}
}

func (s *retrainService) ProcessTask(ctx context.Context) {
	block := s.cfg.RedisStreamRetrainBlock
	if block <= 0 {
		block = 2 * time.Second
	}
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: s.consumerName,
		Streams:  []string{common.RedisStreamRecommenderRetrain, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	task, err := decodeTask(message)
	if err != nil {
		s.log.Error("Dropping malformed retrain task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		_ = s.AckNDel(ctx, message.ID)
		return
	}

	if err := s.retrain(ctx, task); err != nil {
		if errors.Is(err, recommender.ErrUserNotFound) {
			s.log.Warn("Dropping retrain for missing user", logger.UintField("user_id", task.UserID), logger.Field("message_id", message.ID))
			s.finish(ctx, message.ID, task.UserID)
			return
		}
		// Left pending; ProcessRetries picks it up after the idle window.
		s.log.Error("Retrain failed", logger.ErrorField(err), logger.Field("message_id", message.ID), logger.UintField("user_id", task.UserID))
		return
	}
	s.finish(ctx, message.ID, task.UserID)
}

// finish removes the task and clears the user's pending marker so the next
// stale request can queue another retrain.
func (s *retrainService) finish(ctx context.Context, messageID string, userID uint) {
	if err := s.AckNDel(ctx, messageID); err != nil {
		return
	}
	if err := s.redisClient.Del(ctx, recommender.RetrainPendingKey(userID)).Err(); err != nil {
		s.log.Error("Failed to clear retrain marker", logger.ErrorField(err), logger.UintField("user_id", userID))
	}
}

func decodeTask(message redis.XMessage) (*dto.RetrainTask, error) {
	taskData, ok := message.Values["payload"].(string)
	if !ok {
		return nil, errors.New("field 'payload' not found or not a string in stream message")
	}
	var task dto.RetrainTask
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task data: %w", err)
	}
	return &task, nil
}

func (s *retrainService) retrain(ctx context.Context, task *dto.RetrainTask) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	trained, err := s.hard.Train(ctx, task.UserID)
	if err != nil {
		return err
	}
	s.log.Debug("Retrain task processed",
		logger.UintField("user_id", task.UserID),
		logger.Field("trained", trained),
		logger.DurationField("queued_for", time.Since(task.RequestedAt)),
	)
	return nil
}

// AckNDel acknowledges and removes a message from the retrain stream.
func (s *retrainService) AckNDel(ctx context.Context, messageID string) error {
	if err := s.redisClient.XAck(ctx, common.RedisStreamRecommenderRetrain, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge retrain task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	if err := s.redisClient.XDel(ctx, common.RedisStreamRecommenderRetrain, messageID).Err(); err != nil {
		s.log.Error("Failed to delete retrain task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	return nil
}

func (s *retrainService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamRecommenderRetrain,
		Group:    common.RedisStreamGroup,
		Consumer: s.consumerName + "-retry",
		MinIdle:  s.cfg.RedisStreamRetrainMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim retrain task on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		return
	}

	msg := msgs[0]
	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamRecommenderRetrain,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim", logger.StringField("message_id", msg.ID))
		return
	}

	task, err := decodeTask(msg)
	if err != nil {
		s.log.Error("Dropping malformed retrain task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		_ = s.AckNDel(ctx, msg.ID)
		return
	}

	if pendingInfo[0].RetryCount >= int64(s.cfg.RedisStreamRetrainMaxRetry) {
		s.log.Error("pending msg retry count exceeded",
			logger.StringField("message_id", msg.ID),
			logger.UintField("user_id", task.UserID),
			logger.IntField("retry_count", int(pendingInfo[0].RetryCount)),
			logger.IntField("max_retry", s.cfg.RedisStreamRetrainMaxRetry),
		)
		alert := telegram.FormatErrorAlertMessage(utils.TimeNowUTC(), "retrain", "retry count exceeded", fmt.Sprintf("user_id=%d", task.UserID))
		if err := s.telegramBot.SendMessage(alert); err != nil {
			s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err), logger.UintField("user_id", task.UserID))
		}
		s.finish(ctx, msg.ID, task.UserID)
		return
	}

	if err := s.retrain(ctx, task); err != nil {
		s.log.Error("Retrain failed on retry", logger.ErrorField(err), logger.Field("message_id", msg.ID), logger.UintField("user_id", task.UserID))
		return
	}
	s.finish(ctx, msg.ID, task.UserID)
	s.log.Info("Retry retrain task processed successfully", logger.UintField("user_id", task.UserID))
}
