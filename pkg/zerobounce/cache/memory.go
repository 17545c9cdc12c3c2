package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

type memoryEntry struct {
	data    []byte
	expires time.Time // zero means no expiry
}

// Memory is an in-process cache for short-lived programs and tests.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

var _ zerobounce.Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (*zerobounce.Response, bool, error) {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	resp, err := decode(e.data)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (m *Memory) Set(_ context.Context, key string, resp *zerobounce.Response, ttl time.Duration) (bool, error) {
	data, err := encode(resp)
	if err != nil {
		return false, err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return true, nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
