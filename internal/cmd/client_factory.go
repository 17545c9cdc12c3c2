package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/zerobounce/zerobounce-cli/internal/config"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce/cache"
)

const (
	cacheNone   = "none"
	cacheFile   = "file"
	cacheMemory = "memory"
	cacheRedis  = "redis"
)

func validateCacheFlags() error {
	flags.Cache = strings.ToLower(strings.TrimSpace(flags.Cache))
	switch flags.Cache {
	case "", cacheNone, cacheFile, cacheMemory:
	case cacheRedis:
		if strings.TrimSpace(flags.RedisURL) == "" {
			return fmt.Errorf("--redis-url is required with --cache redis")
		}
	default:
		return fmt.Errorf("invalid --cache %q: must be none, file, memory or redis", flags.Cache)
	}
	if flags.CacheTTL < 0 {
		return fmt.Errorf("--cache-ttl must be >= 0")
	}
	return nil
}

type clientFactory struct {
	apiKey     string
	profile    string
	apiVersion string
	userAgent  string
	apiURL     string
	bulkAPIURL string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		apiKey:     flags.APIKey,
		profile:    flags.Profile,
		apiVersion: flags.APIVersion,
		userAgent:  "zerobounce-cli/" + version,
		apiURL:     strings.TrimSuffix(os.Getenv(envAPIURL), "/"),
		bulkAPIURL: strings.TrimSuffix(os.Getenv(envBulkAPIURL), "/"),
	}
}

// client builds an API client for the resolved credentials. The returned
// close func releases the cache backend and must be called.
func (f *clientFactory) client() (*zerobounce.Client, func(), error) {
	creds, err := config.ResolveCredentials(f.apiKey, f.profile)
	if err != nil {
		return nil, nil, err
	}
	return f.clientForKey(creds.APIKey, creds.APIVersion)
}

func (f *clientFactory) clientForKey(apiKey, profileVersion string) (*zerobounce.Client, func(), error) {
	apiVersion := f.apiVersion
	if apiVersion == "" {
		apiVersion = profileVersion
	}

	opts := []zerobounce.Option{
		zerobounce.WithTimeout(flags.Timeout),
		zerobounce.WithUserAgent(f.userAgent),
		zerobounce.WithLogger(zerobounce.SlogLogger(slog.Default())),
	}
	if apiVersion != "" {
		opts = append(opts, zerobounce.WithVersion(apiVersion))
	}
	if f.apiURL != "" {
		opts = append(opts, zerobounce.WithAPIBaseURL(f.apiURL))
	}
	if f.bulkAPIURL != "" {
		opts = append(opts, zerobounce.WithBulkAPIBaseURL(f.bulkAPIURL))
	}

	store, closeStore, err := openCache()
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, zerobounce.WithCache(store, flags.CacheTTL, flags.CachePrefix))
	}
	return zerobounce.New(apiKey, opts...), closeStore, nil
}

func openCache() (zerobounce.Cache, func(), error) {
	noop := func() {}
	switch flags.Cache {
	case cacheFile:
		dir, err := resolveCacheDir()
		if err != nil {
			return nil, nil, err
		}
		return cache.NewFileStore(dir), noop, nil
	case cacheMemory:
		return cache.NewMemory(), noop, nil
	case cacheRedis:
		store, err := cache.NewRedisFromURL(flags.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, noop, nil
	}
}

// resolveCacheDir honors ZEROBOUNCE_CACHE_DIR before the platform default.
func resolveCacheDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envCacheDir)); dir != "" {
		return dir, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("could not determine cache directory: %w", err)
	}
	return dir, nil
}
