package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "evaljob:"
	redisIndexKey  = "evaljobs:index"
)

// RedisStore persists job records in Redis, for deployments where job state
// must survive process restarts. Records carry no TTL; the retention janitor
// owns expiry so that staleness is measured from completion, not creation.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Get returns the stored record, or (nil, nil) if absent.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &j, nil
}

// Put stores the record and tracks its id in the listing index.
func (s *RedisStore) Put(ctx context.Context, j *Job) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", j.ID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, redisKey(j.ID), payload, 0)
	pipe.SAdd(ctx, redisIndexKey, j.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", j.ID, err)
	}
	return nil
}

// Delete removes the record and its index entry, reporting whether it existed.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, redisKey(id))
	pipe.SRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis delete %s: %w", id, err)
	}
	return del.Val() > 0, nil
}

// List returns all records tracked in the index. Index entries whose record
// has vanished are skipped.
func (s *RedisStore) List(ctx context.Context) ([]*Job, error) {
	ids, err := s.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list mget: %w", err)
	}

	out := make([]*Job, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var j Job
		if err := json.Unmarshal([]byte(str), &j); err != nil {
			return nil, fmt.Errorf("decode job record: %w", err)
		}
		out = append(out, &j)
	}
	return out, nil
}
