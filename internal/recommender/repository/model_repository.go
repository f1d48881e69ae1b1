package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang-stock-recommender/pkg/als"
	"golang-stock-recommender/pkg/common"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrVersionConflict is returned by Save when the stored version moved since Load.
var ErrVersionConflict = errors.New("model version conflict")

// ModelRepository is a versioned store for the factorization model blob.
// Load returns a private copy; callers may mutate it freely and hand it back
// to Save together with the version they read.
type ModelRepository interface {
	Load(ctx context.Context) (*als.Snapshot, error)
	Save(ctx context.Context, model *als.Model, expectedVersion int64) (int64, error)
}

// snapshotCache keeps decoded models keyed by version so hot reads skip decoding.
type snapshotCache struct {
	c *cache.Cache
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &snapshotCache{c: cache.New(ttl, 2*ttl)}
}

func (s *snapshotCache) get(version int64) (*als.Model, bool) {
	v, ok := s.c.Get(strconv.FormatInt(version, 10))
	if !ok {
		return nil, false
	}
	return v.(*als.Model).Clone(), true
}

func (s *snapshotCache) set(version int64, m *als.Model) {
	s.c.SetDefault(strconv.FormatInt(version, 10), m.Clone())
}

// NewRedisModelRepository creates a model store over two redis keys: the
// monotonic version counter and the encoded blob. Saves are compare-and-swap
// on the version key via WATCH/MULTI.
func NewRedisModelRepository(client *redis.Client, params als.Params, cacheTTL time.Duration) ModelRepository {
	return &redisModelRepository{
		client: client,
		params: params,
		cache:  newSnapshotCache(cacheTTL),
	}
}

type redisModelRepository struct {
	client *redis.Client
	params als.Params
	cache  *snapshotCache
}

// Load reads the current version and model. An empty store yields version 0
// and an empty model built from the configured params.
func (r *redisModelRepository) Load(ctx context.Context) (*als.Snapshot, error) {
	version, err := r.client.Get(ctx, common.RedisKeyModelVersion).Int64()
	if errors.Is(err, redis.Nil) {
		return &als.Snapshot{Model: als.NewModel(r.params), Version: 0}, nil
	}
	if err != nil {
		return nil, err
	}
	if m, ok := r.cache.get(version); ok {
		return &als.Snapshot{Model: m, Version: version}, nil
	}

	// Version and blob are read together so they always describe the same write.
	vals, err := r.client.MGet(ctx, common.RedisKeyModelVersion, common.RedisKeyModelBlob).Result()
	if err != nil {
		return nil, err
	}
	rawVersion, _ := vals[0].(string)
	rawBlob, _ := vals[1].(string)
	if rawBlob == "" {
		return &als.Snapshot{Model: als.NewModel(r.params), Version: 0}, nil
	}
	version, err = strconv.ParseInt(rawVersion, 10, 64)
	if err != nil {
		return nil, err
	}
	m, err := als.Decode([]byte(rawBlob))
	if err != nil {
		return nil, err
	}
	r.cache.set(version, m)
	return &als.Snapshot{Model: m, Version: version}, nil
}

// Save writes the model if the stored version still equals expectedVersion.
func (r *redisModelRepository) Save(ctx context.Context, model *als.Model, expectedVersion int64) (int64, error) {
	blob, err := als.Encode(model)
	if err != nil {
		return 0, err
	}

	var newVersion int64
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, common.RedisKeyModelVersion).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		newVersion = current + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, common.RedisKeyModelBlob, blob, 0)
			pipe.Set(ctx, common.RedisKeyModelVersion, newVersion, 0)
			return nil
		})
		return err
	}, common.RedisKeyModelVersion)
	if errors.Is(err, redis.TxFailedErr) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, err
	}
	r.cache.set(newVersion, model)
	return newVersion, nil
}

// NewMemoryModelRepository creates a process-local model store.
func NewMemoryModelRepository(params als.Params) ModelRepository {
	return &memoryModelRepository{params: params}
}

type memoryModelRepository struct {
	mu      sync.RWMutex
	params  als.Params
	model   *als.Model
	version int64
}

func (r *memoryModelRepository) Load(ctx context.Context) (*als.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.model == nil {
		return &als.Snapshot{Model: als.NewModel(r.params), Version: r.version}, nil
	}
	return &als.Snapshot{Model: r.model.Clone(), Version: r.version}, nil
}

func (r *memoryModelRepository) Save(ctx context.Context, model *als.Model, expectedVersion int64) (int64, error) {
	if err := model.Validate(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != expectedVersion {
		return 0, ErrVersionConflict
	}
	r.model = model.Clone()
	r.version++
	return r.version, nil
}
