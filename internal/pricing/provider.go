// Package pricing resolves market prices through interchangeable providers
// with ordered fallback, sticky per-asset provider preference and a
// newer-wins price cache.
package pricing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// Candle intervals understood by every provider.
const (
	IntervalHour = "1h"
	IntervalDay  = "1d"
)

// Provider is implemented once per external price vendor.
type Provider interface {
	ID() string
	// GetQuote returns the latest price of symbol in quote.
	GetQuote(ctx context.Context, symbol, quote string) (model.PricePoint, error)
	// GetOHLCV returns candles within [start, end] in ascending order.
	GetOHLCV(ctx context.Context, symbol string, start, end time.Time, interval, quote string) ([]model.Candle, error)
}

// Factory builds a provider. It is called lazily on first use.
type Factory func() (Provider, error)

// Registry maps provider ids to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Provider),
	}
}

// Register adds a factory under id. Registering the same id twice fails.
func (r *Registry) Register(id string, f Factory) error {
	id = normalizeID(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; ok {
		return errors.Wrap(apperrors.ErrDuplicateProvider, id)
	}
	r.factories[id] = f
	return nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeID(id)]
	return ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Provider returns the instance for id, building it on first use. A factory
// error is returned as is and retried on the next call.
func (r *Registry) Provider(id string) (Provider, error) {
	id = normalizeID(id)

	r.mu.RLock()
	p, ok := r.instances[id]
	f, registered := r.factories[id]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}
	if !registered {
		return nil, errors.Wrap(apperrors.ErrUnknownProvider, id)
	}

	p, err := f()
	if err != nil {
		return nil, errors.Wrapf(err, "init provider %s", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instances[id]; ok {
		return existing, nil
	}
	r.instances[id] = p
	return p, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ParseOrder splits a comma separated provider list.
func ParseOrder(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		if id := normalizeID(part); id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
