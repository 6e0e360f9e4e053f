package inmemorycache

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value      V
	expiration time.Time
}

type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
}

type InMemoryCache[V any] struct {
	cache           map[string]cacheEntry[V]
	mutex           sync.Mutex
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

func NewInMemoryCache[V any](cleanupInterval time.Duration) *InMemoryCache[V] {
	provider := &InMemoryCache[V]{
		cache:           make(map[string]cacheEntry[V]),
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
	}

	go provider.startCleanup()

	return provider
}

func (m *InMemoryCache[V]) Get(key string) (V, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var zero V

	entry, exists := m.cache[key]
	if !exists {
		return zero, false
	}

	if time.Now().After(entry.expiration) {
		delete(m.cache, key)
		return zero, false
	}

	return entry.value, true
}

func (m *InMemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.cache[key] = cacheEntry[V]{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

func (m *InMemoryCache[V]) Delete(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.cache, key)
}

// Close stops the cleanup goroutine.
func (m *InMemoryCache[V]) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *InMemoryCache[V]) startCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mutex.Lock()
			now := time.Now()
			for k, v := range m.cache {
				if now.After(v.expiration) {
					delete(m.cache, k)
				}
			}
			m.mutex.Unlock()
		}
	}
}

func (m *InMemoryCache[V]) len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.cache)
}
