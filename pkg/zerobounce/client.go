package zerobounce

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// APIURL is the host of the validation API.
	APIURL = "https://api.zerobounce.net"
	// BulkAPIURL is the host of the bulk file API.
	BulkAPIURL = "https://bulkapi.zerobounce.net"

	// DefaultVersion is the API version appended to both hosts as "/v2".
	DefaultVersion = "2"
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 10 * time.Second
	// DefaultCacheTTL is how long cached responses stay valid.
	DefaultCacheTTL = 60 * time.Second
	// DefaultCachePrefix is prepended to every request fingerprint to form the cache key.
	DefaultCachePrefix = "zerobounce_client_"
	// DefaultUserAgent is sent when WithUserAgent is not given.
	DefaultUserAgent = "zerobounce-cli"
)

// Client is the ZeroBounce API client.
//
// Configuration is fixed at construction. A Client may be shared between
// goroutines; only Last is affected by concurrent use, and it reflects an
// arbitrary one of the concurrent calls.
type Client struct {
	apiKey      string
	version     string
	timeout     time.Duration
	apiHost     string
	bulkAPIHost string
	transport   Transport
	cache       Cache
	cacheTTL    time.Duration
	cachePrefix string
	logger      Logger
	now         func() time.Time

	lastMu sync.Mutex
	last   *Call
}

type clientConfig struct {
	version     string
	timeout     time.Duration
	apiHost     string
	bulkAPIHost string
	transport   Transport
	httpClient  *http.Client
	userAgent   string
	cache       Cache
	cacheTTL    time.Duration
	cachePrefix string
	logger      Logger
	now         func() time.Time
}

// Option configures the client.
type Option func(*clientConfig)

// WithVersion sets the API version used in request paths ("2" by default).
func WithVersion(version string) Option {
	return func(c *clientConfig) {
		c.version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithAPIBaseURL overrides the validation API host.
func WithAPIBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.apiHost = strings.TrimSuffix(url, "/")
	}
}

// WithBulkAPIBaseURL overrides the bulk API host.
func WithBulkAPIBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.bulkAPIHost = strings.TrimSuffix(url, "/")
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithHTTPClient uses the given http.Client in the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithUserAgent sets the User-Agent of the default transport.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithCache enables response caching. A nil cache disables it.
// Zero ttl keeps the default; prefix namespaces every key.
func WithCache(cache Cache, ttl time.Duration, prefix string) Option {
	return func(c *clientConfig) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
		c.cachePrefix = prefix
	}
}

// WithLogger sets the hook invoked after every call.
func WithLogger(logger Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithNow overrides the clock used to resolve relative dates.
func WithNow(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}

// New creates a client for the given API key. An empty key is accepted here
// and reported as a ParameterError on the first call.
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		version:     DefaultVersion,
		timeout:     DefaultTimeout,
		apiHost:     APIURL,
		bulkAPIHost: BulkAPIURL,
		userAgent:   DefaultUserAgent,
		cacheTTL:    DefaultCacheTTL,
		cachePrefix: DefaultCachePrefix,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := cfg.transport
	if transport == nil {
		ht := NewHTTPTransport(cfg.userAgent)
		if cfg.httpClient != nil {
			ht.HTTP = cfg.httpClient
		}
		transport = ht
	}
	logger := cfg.logger
	if logger == nil {
		logger = nopLogger{}
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		version:     cfg.version,
		timeout:     cfg.timeout,
		apiHost:     cfg.apiHost,
		bulkAPIHost: cfg.bulkAPIHost,
		transport:   transport,
		cache:       cfg.cache,
		cacheTTL:    cfg.cacheTTL,
		cachePrefix: cfg.cachePrefix,
		logger:      logger,
		now:         cfg.now,
	}
}

// Version returns the API version in use.
func (c *Client) Version() string {
	return c.version
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// CachingEnabled reports whether a cache adapter is configured.
func (c *Client) CachingEnabled() bool {
	return c.cache != nil
}

// Last returns the most recent call made by this client, or nil.
// Under concurrent use it is advisory only.
func (c *Client) Last() *Call {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.last
}

func (c *Client) apiBaseURL() string {
	return c.apiHost + "/v" + c.version
}

func (c *Client) bulkAPIBaseURL() string {
	return c.bulkAPIHost + "/v" + c.version
}

// call runs the shared pipeline: API key injection, descriptor and cache key,
// cache lookup, transport dispatch, logging and cache store.
func (c *Client) call(ctx context.Context, method, baseURL, path string, params *ParamSet, uploadPath string) (*Response, error) {
	if params == nil {
		params = NewParamSet()
	}
	if c.apiKey == "" {
		return nil, &ParameterError{Field: "api_key", Reason: "missing API key", Err: ErrMissingAPIKey}
	}
	params.Set("api_key", c.apiKey)

	req := NewRequest(method, baseURL, path, params, c.timeout, uploadPath)
	key := c.cachePrefix + req.Fingerprint()

	useCache := c.cache != nil && !cacheBypassed(ctx)
	if useCache {
		cached, ok, err := c.cacheLookup(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			// Flag a copy; the adapter may hand out its stored value.
			cached = NewResponse(cached.StatusCode, cached.Body)
			cached.FromCache = true
			c.record(ctx, &Call{Request: req, Response: cached, CacheKey: key, Timestamp: c.now()})
			return cached, nil
		}
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, req)
	if err != nil && !IsTransportError(err) {
		err = &TransportError{Op: req.Method, URL: req.Endpoint(), Err: err}
	}
	if err == nil && resp == nil {
		err = &TransportError{Op: req.Method, URL: req.Endpoint(), Err: errNoResponse}
	}
	c.record(ctx, &Call{
		Request:   req,
		Response:  resp,
		Err:       err,
		CacheKey:  key,
		Duration:  time.Since(start),
		Timestamp: c.now(),
	})
	if err != nil {
		return nil, err
	}

	if useCache && resp.Successful() {
		if err := c.cacheStore(ctx, key, resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *Client) record(ctx context.Context, call *Call) {
	c.lastMu.Lock()
	c.last = call
	c.lastMu.Unlock()
	c.logger.LogCall(ctx, call)
}
