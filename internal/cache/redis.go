package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// RedisStore shares cached lists across API replicas. Purge bumps a
// generation counter that is part of every key, so stale entries are never
// read again and simply age out.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return newRedisStore(rdb, cfg)
}

func newRedisStore(rdb *redis.Client, cfg RedisConfig) *RedisStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "eventdesk"
	}

	return &RedisStore{rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix}
}

func (s *RedisStore) genKey() string {
	return s.prefix + ":gen"
}

func (s *RedisStore) generation(ctx context.Context) (string, error) {
	gen, err := s.rdb.Get(ctx, s.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (s *RedisStore) fullKey(ctx context.Context, key string) (string, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return "", err
	}
	return s.prefix + ":" + gen + ":" + key, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := s.fullKey(ctx, key)
	if err != nil {
		return nil, err
	}

	val, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) error {
	k, err := s.fullKey(ctx, key)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, k, val, s.ttl).Err()
}

func (s *RedisStore) Purge(ctx context.Context) error {
	return s.rdb.Incr(ctx, s.genKey()).Err()
}

// this ping function checks redis connectivity

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Generation reports the current purge counter; handy in tests and logs.
func (s *RedisStore) Generation(ctx context.Context) (int64, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(gen, 10, 64)
}
