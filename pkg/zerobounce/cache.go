package zerobounce

import (
	"context"
	"errors"
	"time"
)

// Cache stores responses by key with a TTL measured from write time.
// Adapters live in the cache subpackage.
type Cache interface {
	// Get returns the cached response and true on a hit, or false on a miss.
	Get(ctx context.Context, key string) (*Response, bool, error)
	// Set stores a response and reports whether it was written.
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration) (bool, error)
}

var errInvalidCachedResponse = errors.New("invalid cached response")

type bypassCacheKey struct{}

// WithoutCache returns a context whose calls skip the cache entirely, for
// lookups that must observe fresh state such as status polling.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCacheKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassCacheKey{}).(bool)
	return v
}

func (c *Client) cacheLookup(ctx context.Context, key string) (*Response, bool, error) {
	resp, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false, &CacheError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	if resp == nil {
		return nil, false, &CacheError{Op: "get", Key: key, Err: errInvalidCachedResponse}
	}
	return resp, true, nil
}

func (c *Client) cacheStore(ctx context.Context, key string, resp *Response) error {
	if _, err := c.cache.Set(ctx, key, resp, c.cacheTTL); err != nil {
		return &CacheError{Op: "set", Key: key, Err: err}
	}
	return nil
}
