package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

// Redis stores responses in Redis with native key expiry.
type Redis struct {
	client redis.UniversalClient
}

var _ zerobounce.Cache = (*Redis)(nil)

// NewRedis wraps an existing client. The caller keeps ownership of it.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// NewRedisFromURL connects using a redis:// or rediss:// URL.
func NewRedisFromURL(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*zerobounce.Response, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	resp, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, resp *zerobounce.Response, ttl time.Duration) (bool, error) {
	data, err := encode(resp)
	if err != nil {
		return false, err
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
