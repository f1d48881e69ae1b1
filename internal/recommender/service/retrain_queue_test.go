package service

import (
	"context"
	"testing"
	"time"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrainQueue_Enqueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	queue := NewRetrainQueue(client, time.Minute)
	require.NoError(t, queue.Enqueue(ctx, 7))

	msgs, err := client.XRange(ctx, common.RedisStreamRecommenderRetrain, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["payload"].(string)
	require.True(t, ok)
	var task dto.RetrainTask
	require.NoError(t, json.Unmarshal([]byte(raw), &task))
	assert.Equal(t, uint(7), task.UserID)
	assert.False(t, task.RequestedAt.IsZero())
}

func TestRetrainQueue_DropsDuplicatesWhilePending(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	queue := NewRetrainQueue(client, time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Enqueue(ctx, 7))
	}
	require.NoError(t, queue.Enqueue(ctx, 8))

	n, err := client.XLen(ctx, common.RedisStreamRecommenderRetrain).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists(RetrainPendingKey(7)))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, queue.Enqueue(ctx, 7))
	n, err = client.XLen(ctx, common.RedisStreamRecommenderRetrain).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRetrainQueue_ZeroTTLPublishesEveryRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	queue := NewRetrainQueue(client, 0)
	require.NoError(t, queue.Enqueue(ctx, 7))
	require.NoError(t, queue.Enqueue(ctx, 7))

	n, err := client.XLen(ctx, common.RedisStreamRecommenderRetrain).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.False(t, mr.Exists(RetrainPendingKey(7)))
}
