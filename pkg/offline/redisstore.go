package offline

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the keys written by [RedisStore].
const DefaultRedisPrefix = "labelsheet:offline:"

// RedisStore keeps caches in Redis: a set holds the cache names and each
// cache is one hash mapping asset keys to JSON-encoded entries.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. An empty prefix uses [DefaultRedisPrefix].
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) namesKey() string           { return s.prefix + "names" }
func (s *RedisStore) cacheKey(name string) string { return s.prefix + "cache:" + name }

func (s *RedisStore) Put(ctx context.Context, name, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.namesKey(), name)
		p.HSet(ctx, s.cacheKey(name), key, data)
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, name, key string) (Entry, bool, error) {
	data, err := s.client.HGet(ctx, s.cacheKey(name), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *RedisStore) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *RedisStore) Drop(ctx context.Context, name string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.cacheKey(name))
		p.SRem(ctx, s.namesKey(), name)
		return nil
	})
	return err
}

var _ Store = (*RedisStore)(nil)
