package common

const (
	RedisStreamRecommenderRetrain = "recommender.retrain"

	RedisStreamGroup    = "retrainer-group"
	RedisStreamConsumer = "retrainer-consumer"

	RedisKeyModelBlob    = "recommender:model:blob"
	RedisKeyModelVersion = "recommender:model:version"

	RedisKeyRetrainPendingPrefix = "recommender:retrain:pending:"
)
