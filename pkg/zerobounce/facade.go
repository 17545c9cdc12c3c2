package zerobounce

import (
	"context"
	"sync"
)

var (
	sharedMu      sync.Mutex
	sharedClients = map[string]*Client{}
)

// Shared returns a process-wide client for apiKey, creating it with opts on
// first use. Options passed on later calls for the same key are ignored.
func Shared(apiKey string, opts ...Option) *Client {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if c, ok := sharedClients[apiKey]; ok {
		return c
	}
	c := New(apiKey, opts...)
	sharedClients[apiKey] = c
	return c
}

// Validate validates email with the shared client for apiKey.
func Validate(ctx context.Context, apiKey, email, ip string) (*Email, error) {
	return Shared(apiKey).Validate(ctx, email, ip)
}

// Credits returns the balance using the shared client for apiKey.
func Credits(ctx context.Context, apiKey string) (int, error) {
	return Shared(apiKey).GetCredits(ctx)
}
