package pricing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// Cache keeps the latest price per (asset, quote). Put must only replace a
// point with a strictly newer one and report whether it did.
type Cache interface {
	Get(ctx context.Context, asset, quote string) (*model.PricePoint, error)
	Put(ctx context.Context, p model.PricePoint) (bool, error)
}

// HistoryStore persists candle closes returned by OHLCV resolutions.
type HistoryStore interface {
	PutHistory(ctx context.Context, asset, quote, source string, candles []model.Candle) (int, error)
}

// PreferenceStore keeps the provider that last succeeded per asset.
// GetPreference returns "" when no preference exists.
type PreferenceStore interface {
	GetPreference(ctx context.Context, asset string) (string, error)
	SetPreference(ctx context.Context, asset, provider string) error
}

func cacheKey(asset, quote string) string {
	return strings.ToUpper(asset) + "/" + strings.ToUpper(quote)
}

// MemoryCache is an in-process Cache backed by go-cache.
type MemoryCache struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewMemoryCache returns a cache whose entries expire after ttl.
// A ttl <= 0 keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := ttl * 2
	if ttl == cache.NoExpiration {
		cleanup = 0
	}
	return &MemoryCache{items: cache.New(ttl, cleanup)}
}

// Get returns the cached point or nil.
func (c *MemoryCache) Get(_ context.Context, asset, quote string) (*model.PricePoint, error) {
	v, ok := c.items.Get(cacheKey(asset, quote))
	if !ok {
		return nil, nil
	}
	p := v.(model.PricePoint)
	return &p, nil
}

// Put stores p if it is newer than the cached point.
func (c *MemoryCache) Put(_ context.Context, p model.PricePoint) (bool, error) {
	key := cacheKey(p.AssetSymbol, p.QuoteCcy)

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items.Get(key); ok {
		if !p.Timestamp.After(v.(model.PricePoint).Timestamp) {
			return false, nil
		}
	}
	c.items.Set(key, p, cache.DefaultExpiration)
	return true, nil
}

// Forget drops the entry for asset and quote.
func (c *MemoryCache) Forget(asset, quote string) {
	c.items.Delete(cacheKey(asset, quote))
}

// TieredCache fronts a persistent cache with a short-lived in-process one.
// The back cache stays authoritative for the newer-wins rule.
type TieredCache struct {
	front *MemoryCache
	back  Cache
}

// NewTieredCache layers front over back.
func NewTieredCache(front *MemoryCache, back Cache) *TieredCache {
	return &TieredCache{front: front, back: back}
}

// Get reads through the front cache.
func (c *TieredCache) Get(ctx context.Context, asset, quote string) (*model.PricePoint, error) {
	if p, _ := c.front.Get(ctx, asset, quote); p != nil {
		return p, nil
	}
	p, err := c.back.Get(ctx, asset, quote)
	if err != nil || p == nil {
		return p, err
	}
	_, _ = c.front.Put(ctx, *p)
	return p, nil
}

// Put writes to the back cache and mirrors successful writes in front.
func (c *TieredCache) Put(ctx context.Context, p model.PricePoint) (bool, error) {
	written, err := c.back.Put(ctx, p)
	if err != nil {
		return false, err
	}
	if written {
		_, _ = c.front.Put(ctx, p)
	} else {
		c.front.Forget(p.AssetSymbol, p.QuoteCcy)
	}
	return written, nil
}

// MemoryPreferences is an in-process PreferenceStore.
type MemoryPreferences struct {
	mu    sync.RWMutex
	prefs map[string]string
}

// NewMemoryPreferences returns an empty store.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{prefs: make(map[string]string)}
}

func (m *MemoryPreferences) GetPreference(_ context.Context, asset string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs[strings.ToUpper(asset)], nil
}

func (m *MemoryPreferences) SetPreference(_ context.Context, asset, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[strings.ToUpper(asset)] = provider
	return nil
}
