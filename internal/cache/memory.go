package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
	access   time.Time
}

// MemoryStore is an in-process Store with LRU eviction and per-entry TTL.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	maxSize int
	now     func() time.Time
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its expiry sweeper.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}

	ms := &MemoryStore{
		data:    make(map[string]*memoryItem),
		maxSize: cfg.MaxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		ms.ticker = time.NewTicker(cfg.CleanupInterval)
		go ms.cleanupExpired()
	}
	return ms
}

func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	now := ms.now()
	if now.After(item.expireAt) {
		delete(ms.data, key)
		return nil, ErrCacheMiss
	}
	item.access = now
	return item.value, nil
}

// Set stores value; a non-positive ttl keeps it until evicted.
func (ms *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	if _, exists := ms.data[key]; !exists && len(ms.data) >= ms.maxSize {
		ms.evictLRU()
	}
	expireAt := now.Add(ttl)
	if ttl <= 0 {
		expireAt = now.Add(100 * 365 * 24 * time.Hour)
	}
	ms.data[key] = &memoryItem{value: value, expireAt: expireAt, access: now}
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range keys {
		delete(ms.data, key)
	}
	return nil
}

func (ms *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	n := 0
	for key := range ms.data {
		if strings.HasPrefix(key, prefix) {
			delete(ms.data, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired or not.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.data)
}

func (ms *MemoryStore) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, item := range ms.data {
		if oldestKey == "" || item.access.Before(oldest) {
			oldestKey = key
			oldest = item.access
		}
	}
	if oldestKey != "" {
		delete(ms.data, oldestKey)
	}
}

func (ms *MemoryStore) cleanupExpired() {
	for {
		select {
		case <-ms.done:
			return
		case <-ms.ticker.C:
			ms.mu.Lock()
			now := ms.now()
			for key, item := range ms.data {
				if now.After(item.expireAt) {
					delete(ms.data, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}

// Close stops the sweeper.
func (ms *MemoryStore) Close() error {
	ms.once.Do(func() {
		if ms.ticker != nil {
			ms.ticker.Stop()
		}
		close(ms.done)
	})
	return nil
}
