package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is a JSON cache over Redis
type Service interface {
	// Generic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// GetOrSet is the cache-aside helper: on a miss it calls fetcher, stores the
	// result and decodes it into dest. Cache failures never fail the read.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error

	// Health check
	Ping(ctx context.Context) error
}

type service struct {
	client redis.Cmdable
	onErr  func(ctx context.Context, op string, err error)
}

// NewService wraps client. onErr receives cache failures that GetOrSet swallows.
func NewService(client redis.Cmdable, onErr func(ctx context.Context, op string, err error)) Service {
	if onErr == nil {
		onErr = func(context.Context, string, error) {}
	}
	return &service{client: client, onErr: onErr}
}

func (s *service) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

func (s *service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (s *service) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	// Try the cache first
	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	// Redis trouble is reported, then treated as a miss
	if !errors.Is(err, ErrCacheMiss) {
		s.onErr(ctx, "get", err)
	}

	// Miss: load from the source
	data, err := fetcher()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal fetched data error: %w", err)
	}
	// Best effort store
	if setErr := s.client.Set(ctx, key, jsonData, ttl).Err(); setErr != nil {
		s.onErr(ctx, "set", setErr)
	}

	// Round-trip so dest is filled the same way on hit and miss
	return json.Unmarshal(jsonData, dest)
}

func (s *service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var (
	ErrCacheMiss = errors.New("cache miss")
)
