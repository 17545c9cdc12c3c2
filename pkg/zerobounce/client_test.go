package zerobounce

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mapCache is an in-memory Cache that counts its calls and can be told to fail.
type mapCache struct {
	mu      sync.Mutex
	items   map[string]*Response
	ttls    map[string]time.Duration
	gets    int
	sets    int
	getErr  func(n int) error
	setErr  error
	nilHits bool
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string]*Response{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (*Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		if err := c.getErr(c.gets); err != nil {
			return nil, false, err
		}
	}
	if c.nilHits {
		return nil, true, nil
	}
	resp, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	return NewResponse(resp.StatusCode, resp.Body), true, nil
}

func (c *mapCache) Set(_ context.Context, key string, resp *Response, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return false, c.setErr
	}
	c.items[key] = NewResponse(resp.StatusCode, resp.Body)
	c.ttls[key] = ttl
	return true, nil
}

// stubTransport answers every request with the same status and body.
func stubTransport(status int, body string, calls *atomic.Int32) Transport {
	return TransportFunc(func(_ context.Context, _ *Request) (*Response, error) {
		calls.Add(1)
		return NewResponse(status, []byte(body)), nil
	})
}

func TestNewDefaults(t *testing.T) {
	client := New(" key ")

	if client.apiKey != "key" {
		t.Errorf("Expected trimmed api key, got %q", client.apiKey)
	}
	if client.Version() != DefaultVersion {
		t.Errorf("Expected version %s, got %s", DefaultVersion, client.Version())
	}
	if client.Timeout() != DefaultTimeout {
		t.Errorf("Expected timeout %s, got %s", DefaultTimeout, client.Timeout())
	}
	if client.CachingEnabled() {
		t.Error("Expected caching disabled without a cache")
	}
	if client.apiBaseURL() != "https://api.zerobounce.net/v2" {
		t.Errorf("Unexpected api base URL %s", client.apiBaseURL())
	}
	if client.bulkAPIBaseURL() != "https://bulkapi.zerobounce.net/v2" {
		t.Errorf("Unexpected bulk base URL %s", client.bulkAPIBaseURL())
	}
	if client.Last() != nil {
		t.Error("Expected no last call before any request")
	}
}

func TestNewOptions(t *testing.T) {
	cache := newMapCache()
	client := New("key",
		WithVersion("v3"),
		WithTimeout(3*time.Second),
		WithAPIBaseURL("http://localhost:1/"),
		WithBulkAPIBaseURL("http://localhost:2"),
		WithCache(cache, 0, "p_"),
	)

	if client.Version() != "3" {
		t.Errorf("Expected version 3, got %s", client.Version())
	}
	if client.Timeout() != 3*time.Second {
		t.Errorf("Expected timeout 3s, got %s", client.Timeout())
	}
	if client.apiBaseURL() != "http://localhost:1/v3" {
		t.Errorf("Unexpected api base URL %s", client.apiBaseURL())
	}
	if client.bulkAPIBaseURL() != "http://localhost:2/v3" {
		t.Errorf("Unexpected bulk base URL %s", client.bulkAPIBaseURL())
	}
	if !client.CachingEnabled() {
		t.Error("Expected caching enabled")
	}
	if client.cacheTTL != DefaultCacheTTL {
		t.Errorf("Expected default TTL when zero is given, got %s", client.cacheTTL)
	}
}

func TestCallMissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	client := New("", WithTransport(stubTransport(200, `{"Credits":"1"}`, &calls)))

	_, err := client.GetCredits(context.Background())
	if !IsParameterError(err) {
		t.Fatalf("Expected ParameterError, got %v", err)
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected error to wrap ErrMissingAPIKey, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no transport calls, got %d", calls.Load())
	}
}

func TestParameterErrorsBeforeTransport(t *testing.T) {
	var calls atomic.Int32
	client := New("key", WithTransport(stubTransport(200, `{}`, &calls)))
	ctx := context.Background()

	checks := map[string]func() error{
		"validate without email": func() error {
			_, err := client.Validate(ctx, "  ", "")
			return err
		},
		"status without file id": func() error {
			_, err := client.BulkFileStatus(ctx, "", JobValidation)
			return err
		},
		"delete without file id": func() error {
			_, err := client.BulkDeleteFile(ctx, "", JobScoring)
			return err
		},
		"get file without file id": func() error {
			_, err := client.BulkGetFile(ctx, "", JobValidation)
			return err
		},
		"send without email column": func() error {
			_, err := client.BulkSendFile(ctx, "emails.csv", JobValidation, BulkSendFileParams{HasHeaderRow: Bool(true)})
			return err
		},
		"send without path": func() error {
			_, err := client.BulkSendFile(ctx, "", JobValidation, BulkSendFileParams{EmailAddressColumn: Int(1)})
			return err
		},
		"send with bad return url": func() error {
			_, err := client.BulkSendFile(ctx, "emails.csv", JobValidation, BulkSendFileParams{
				EmailAddressColumn: Int(1),
				ReturnURL:          String("not a url"),
			})
			return err
		},
		"usage with bad date": func() error {
			_, err := client.GetUsage(ctx, "someday", "now")
			return err
		},
	}

	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			if err := fn(); !IsParameterError(err) {
				t.Fatalf("Expected ParameterError, got %v", err)
			}
		})
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no transport calls, got %d", calls.Load())
	}
}

func TestCallCachesSuccessfulResponses(t *testing.T) {
	var calls atomic.Int32
	cache := newMapCache()
	client := New("key",
		WithTransport(stubTransport(200, `{"Credits":"2375323"}`, &calls)),
		WithCache(cache, 30*time.Second, "zb_"),
	)
	ctx := context.Background()

	first, err := client.GetCredits(ctx)
	if err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}
	if client.Last().Response.FromCache {
		t.Error("Expected first response to come from the transport")
	}

	second, err := client.GetCredits(ctx)
	if err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}
	if first != 2375323 || second != first {
		t.Errorf("Expected 2375323 twice, got %d and %d", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 transport call, got %d", calls.Load())
	}
	last := client.Last()
	if !last.Response.FromCache {
		t.Error("Expected second response to be served from cache")
	}
	if !strings.HasPrefix(last.CacheKey, "zb_") {
		t.Errorf("Expected cache key with prefix, got %s", last.CacheKey)
	}
	if cache.ttls[last.CacheKey] != 30*time.Second {
		t.Errorf("Expected TTL 30s, got %s", cache.ttls[last.CacheKey])
	}
}

func TestCallDoesNotCacheErrorStatus(t *testing.T) {
	var calls atomic.Int32
	cache := newMapCache()
	client := New("key",
		WithTransport(stubTransport(500, `{"error":"boom"}`, &calls)),
		WithCache(cache, 0, ""),
	)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.Validate(ctx, "user@example.com", ""); !IsProtocolError(err) {
			t.Fatalf("Expected ProtocolError, got %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 transport calls, got %d", calls.Load())
	}
	if cache.sets != 0 {
		t.Errorf("Expected nothing stored, got %d sets", cache.sets)
	}
}

func TestCallCacheErrors(t *testing.T) {
	t.Run("get failure is not masked", func(t *testing.T) {
		var calls atomic.Int32
		cache := newMapCache()
		cache.getErr = func(int) error { return errors.New("connection refused") }
		client := New("key", WithTransport(stubTransport(200, `{"Credits":1}`, &calls)), WithCache(cache, 0, ""))

		_, err := client.GetCredits(context.Background())
		if !IsCacheError(err) {
			t.Fatalf("Expected CacheError, got %v", err)
		}
		if calls.Load() != 0 {
			t.Errorf("Expected no transport call after cache failure, got %d", calls.Load())
		}
	})

	t.Run("set failure", func(t *testing.T) {
		var calls atomic.Int32
		cache := newMapCache()
		cache.setErr = errors.New("read only")
		client := New("key", WithTransport(stubTransport(200, `{"Credits":1}`, &calls)), WithCache(cache, 0, ""))

		_, err := client.GetCredits(context.Background())
		var cacheErr *CacheError
		if !errors.As(err, &cacheErr) {
			t.Fatalf("Expected CacheError, got %v", err)
		}
		if cacheErr.Op != "set" {
			t.Errorf("Expected set op, got %s", cacheErr.Op)
		}
	})

	t.Run("hit without response", func(t *testing.T) {
		var calls atomic.Int32
		cache := newMapCache()
		cache.nilHits = true
		client := New("key", WithTransport(stubTransport(200, `{"Credits":1}`, &calls)), WithCache(cache, 0, ""))

		if _, err := client.GetCredits(context.Background()); !IsCacheError(err) {
			t.Fatalf("Expected CacheError, got %v", err)
		}
	})
}

func TestCallWithoutCacheContext(t *testing.T) {
	var calls atomic.Int32
	cache := newMapCache()
	client := New("key", WithTransport(stubTransport(200, `{"Credits":5}`, &calls)), WithCache(cache, 0, ""))
	ctx := WithoutCache(context.Background())

	for i := 0; i < 2; i++ {
		if _, err := client.GetCredits(ctx); err != nil {
			t.Fatalf("GetCredits error: %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 transport calls, got %d", calls.Load())
	}
	if cache.gets != 0 || cache.sets != 0 {
		t.Errorf("Expected cache untouched, got %d gets and %d sets", cache.gets, cache.sets)
	}
}

func TestCallWrapsTransportFailures(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	client := New("key", WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
		return nil, boom
	})))

	_, err := client.GetCredits(context.Background())
	if !IsTransportError(err) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped error, got %v", err)
	}

	nilClient := New("key", WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
		return nil, nil
	})))
	if _, err := nilClient.GetCredits(context.Background()); !errors.Is(err, errNoResponse) {
		t.Errorf("Expected errNoResponse, got %v", err)
	}
}

func TestCallLogsEveryOutcome(t *testing.T) {
	var (
		mu     sync.Mutex
		logged []*Call
	)
	logger := LoggerFunc(func(_ context.Context, call *Call) {
		mu.Lock()
		logged = append(logged, call)
		mu.Unlock()
	})

	fail := true
	transport := TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
		if fail {
			return nil, &TransportError{Op: req.Method, URL: req.Endpoint(), Err: errors.New("timeout")}
		}
		return NewResponse(http.StatusOK, []byte(`{"Credits":7}`)), nil
	})
	client := New("key", WithTransport(transport), WithLogger(logger), WithCache(newMapCache(), 0, ""))
	ctx := context.Background()

	if _, err := client.GetCredits(ctx); err == nil {
		t.Fatal("Expected transport failure")
	}
	fail = false
	if _, err := client.GetCredits(ctx); err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}
	if _, err := client.GetCredits(ctx); err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}

	if len(logged) != 3 {
		t.Fatalf("Expected 3 logged calls, got %d", len(logged))
	}
	if logged[0].Err == nil || logged[0].Response != nil {
		t.Error("Expected first call to log the transport error")
	}
	if logged[1].Response == nil || logged[1].Response.FromCache {
		t.Error("Expected second call to log a live response")
	}
	if logged[2].Response == nil || !logged[2].Response.FromCache {
		t.Error("Expected third call to log a cache hit")
	}
	if got := logged[1].Request.Params.QueryString(); got != "api_key=key" {
		t.Errorf("Expected api_key param, got %q", got)
	}
}

// pointerCache hands back the exact *Response it was given.
type pointerCache struct {
	mu    sync.Mutex
	items map[string]*Response
}

func (c *pointerCache) Get(_ context.Context, key string) (*Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.items[key]
	return resp, ok, nil
}

func (c *pointerCache) Set(_ context.Context, key string, resp *Response, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = resp
	return true, nil
}

func TestCallCacheHitLeavesStoredResponseUntouched(t *testing.T) {
	var calls atomic.Int32
	cache := &pointerCache{items: map[string]*Response{}}
	client := New("key",
		WithTransport(stubTransport(200, `{"Credits":"7"}`, &calls)),
		WithCache(cache, time.Minute, "zb_"),
	)
	ctx := context.Background()

	if _, err := client.GetCredits(ctx); err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}
	live := client.Last().Response

	if _, err := client.GetCredits(ctx); err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}
	hit := client.Last().Response

	if calls.Load() != 1 {
		t.Errorf("Expected 1 transport call, got %d", calls.Load())
	}
	if !hit.FromCache {
		t.Error("Expected second response to be flagged as cached")
	}
	if hit == live {
		t.Error("Expected the cache hit to be a copy")
	}
	if live.FromCache {
		t.Error("Expected the live response to stay unflagged")
	}
	if cache.items[client.Last().CacheKey].FromCache {
		t.Error("Expected the stored entry to stay unflagged")
	}
}
