package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FollowingCache caches the ids a user follows as a redis list.
// Empty sets are never cached so a miss always falls back to the store.
// Writers pass the version read before their store query; a write racing
// with Invalidate is dropped.
type FollowingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFollowingCache(client *redis.Client, ttl time.Duration) *FollowingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowingCache{client: client, ttl: ttl}
}

// versionTTL 须远大于一次读库的耗时
const versionTTL = 24 * time.Hour

func followingKey(userID string) string {
	return fmt.Sprintf("following:index:%s", userID)
}

func versionKey(userID string) string {
	return fmt.Sprintf("following:ver:%s", userID)
}

// Get returns the cached ids and whether the key was present.
func (c *FollowingCache) Get(ctx context.Context, userID string) ([]string, bool, error) {
	ids, err := c.client.LRange(ctx, followingKey(userID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}
	return ids, true, nil
}

// Set stores ids only if no Invalidate ran since ver was read with Version.
// It reports whether the list was written.
func (c *FollowingCache) Set(ctx context.Context, userID string, ids []string, ver int64) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	key, vkey := followingKey(userID), versionKey(userID)
	stored := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, interfaceSlice(ids)...)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Version returns the invalidation counter of userID, 0 if never invalidated.
func (c *FollowingCache) Version(ctx context.Context, userID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Invalidate bumps the version and drops the cached set after the follow graph changes.
func (c *FollowingCache) Invalidate(ctx context.Context, userID string) error {
	vkey := versionKey(userID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, vkey)
	pipe.Expire(ctx, vkey, versionTTL)
	pipe.Del(ctx, followingKey(userID))
	_, err := pipe.Exec(ctx)
	return err
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
