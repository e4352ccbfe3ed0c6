package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

const (
	// Tenant-scoped entries live under "tenant:<id>:"; entries that stay
	// valid across tenant switches (my tenant list, my account) live under
	// "global:".
	tenantNamespace = "tenant"
	globalNamespace = "global"
)

// TenantKey builds a cache key scoped to one tenant. The tenant id is part
// of the key so a response started under one tenant can never be read back
// under another.
func TenantKey(tenantID, resource string) string {
	return fmt.Sprintf("%s:%s:%s", tenantNamespace, tenantID, resource)
}

// GlobalKey builds a cache key that survives tenant switches.
func GlobalKey(resource string) string {
	return fmt.Sprintf("%s:%s", globalNamespace, resource)
}

// QueryCache caches raw API responses. Ristretto cannot enumerate its keys,
// so a side registry tracks which keys belong to which tenant namespace;
// invalidating a tenant walks the registry, not the cache.
type QueryCache struct {
	cache *ristretto.Cache[string, []byte]
	group singleflight.Group
	ttl   time.Duration

	mu   sync.Mutex
	keys map[string]map[string]struct{} // tenantID -> keys
}

// NewQueryCache creates a QueryCache bounded to maxCostBytes of cached
// response data.
func NewQueryCache(maxCostBytes int64, ttl time.Duration) (*QueryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &QueryCache{
		cache: c,
		ttl:   ttl,
		keys:  make(map[string]map[string]struct{}),
	}, nil
}

// GetOrFetch returns the cached value for key, or runs fetch once for all
// concurrent callers and caches the result. tenantID is empty for global
// entries.
func (q *QueryCache) GetOrFetch(ctx context.Context, tenantID, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok := q.cache.Get(key); ok {
		return v, nil
	}

	v, err, _ := q.group.Do(key, func() (any, error) {
		if v, ok := q.cache.Get(key); ok {
			return v, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		q.cache.SetWithTTL(key, data, int64(len(data)), q.ttl)
		q.track(tenantID, key)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (q *QueryCache) track(tenantID, key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, ok := q.keys[tenantID]
	if !ok {
		m = make(map[string]struct{})
		q.keys[tenantID] = m
	}
	m[key] = struct{}{}
}

// InvalidateTenant drops every entry keyed under one tenant's namespace.
// Global entries are untouched.
func (q *QueryCache) InvalidateTenant(tenantID string) {
	q.mu.Lock()
	keys := q.keys[tenantID]
	delete(q.keys, tenantID)
	q.mu.Unlock()

	for key := range keys {
		q.cache.Del(key)
	}
}

// Invalidate drops a single entry.
func (q *QueryCache) Invalidate(tenantID, key string) {
	q.mu.Lock()
	if m, ok := q.keys[tenantID]; ok {
		delete(m, key)
	}
	q.mu.Unlock()
	q.cache.Del(key)
}

// Close releases the cache's resources.
func (q *QueryCache) Close() {
	q.cache.Close()
}
