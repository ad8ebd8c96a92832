package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// Resolution kinds reported to observers.
const (
	KindQuote = "quote"
	KindOHLCV = "ohlcv"
)

// Resolution describes the outcome of one resolve call.
type Resolution struct {
	Asset    string
	Quote    string
	Kind     string
	Provider string
	Attempts []string
	Err      error
	At       time.Time
}

// Observer is notified after every resolution, successful or not.
type Observer interface {
	Observe(ctx context.Context, res Resolution)
}

// History is the result of an OHLCV resolution.
type History struct {
	Provider string
	Candles  []model.Candle
}

// Resolver tries providers in order until one returns data, then records the
// winner as the asset's preferred provider and writes the data to the cache.
type Resolver struct {
	registry     *Registry
	cache        Cache
	prefs        PreferenceStore
	history      HistoryStore
	defaultOrder []string
	observer     Observer
	logger       *zap.Logger
	now          func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultOrder sets the order used when the caller passes none.
func WithDefaultOrder(order []string) ResolverOption {
	return func(r *Resolver) {
		r.defaultOrder = order
	}
}

// WithHistoryStore persists OHLCV candles.
func WithHistoryStore(h HistoryStore) ResolverOption {
	return func(r *Resolver) {
		r.history = h
	}
}

// WithObserver registers an observer for resolution outcomes.
func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) {
		r.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(registry *Registry, cache Cache, prefs PreferenceStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry: registry,
		cache:    cache,
		prefs:    prefs,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the provider registry.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// DefaultOrder returns a copy of the order used when the caller passes none.
func (r *Resolver) DefaultOrder() []string {
	return append([]string(nil), r.defaultOrder...)
}

// Candidates returns the provider order for asset: the preferred provider,
// then explicit (or the default order when explicit is empty), without duplicates.
func (r *Resolver) Candidates(ctx context.Context, asset string, explicit []string) ([]string, error) {
	preferred, err := r.prefs.GetPreference(ctx, asset)
	if err != nil {
		return nil, errors.Wrap(err, "read provider preference")
	}

	rest := explicit
	if len(rest) == 0 {
		rest = r.defaultOrder
	}

	seen := make(map[string]bool, len(rest)+1)
	order := make([]string, 0, len(rest)+1)
	for _, id := range append([]string{preferred}, rest...) {
		id = normalizeID(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}
	return order, nil
}

// leadWith puts lead ahead of the stored preference when it names a
// registered provider.
func (r *Resolver) leadWith(lead string, order []string) []string {
	lead = normalizeID(lead)
	if lead == "" || !r.registry.Has(lead) {
		return order
	}
	out := make([]string, 0, len(order)+1)
	out = append(out, lead)
	for _, id := range order {
		if id != lead {
			out = append(out, id)
		}
	}
	return out
}

// ResolveQuote fetches the latest price of asset in quote.
func (r *Resolver) ResolveQuote(ctx context.Context, asset, quote string, explicit []string) (model.PricePoint, error) {
	return r.resolveQuote(ctx, asset, quote, "", explicit)
}

// ResolveQuoteVia is ResolveQuote with lead tried before the stored
// preference. A lead that is not registered is ignored.
func (r *Resolver) ResolveQuoteVia(ctx context.Context, asset, quote, lead string) (model.PricePoint, error) {
	return r.resolveQuote(ctx, asset, quote, lead, nil)
}

func (r *Resolver) resolveQuote(ctx context.Context, asset, quote, lead string, explicit []string) (model.PricePoint, error) {
	asset, quote = strings.ToUpper(asset), strings.ToUpper(quote)

	var point model.PricePoint
	winner, res, err := r.resolve(ctx, KindQuote, asset, quote, lead, explicit, func(p Provider) error {
		q, err := p.GetQuote(ctx, asset, quote)
		if err != nil {
			return err
		}
		if !q.Price.IsPositive() {
			return apperrors.ErrEmptyResult
		}
		if q.Timestamp.IsZero() {
			q.Timestamp = r.now()
		}
		q.AssetSymbol, q.QuoteCcy, q.Source = asset, quote, p.ID()
		point = q
		return nil
	})
	if err != nil {
		return model.PricePoint{}, err
	}

	if err := r.commit(ctx, res, winner, point, nil); err != nil {
		return model.PricePoint{}, err
	}
	return point, nil
}

// ResolveOHLCV fetches candles of asset in quote within [start, end].
// The newest close also becomes the cached latest price if it is newer.
func (r *Resolver) ResolveOHLCV(ctx context.Context, asset, quote string, start, end time.Time, interval string, explicit []string) (History, error) {
	asset, quote = strings.ToUpper(asset), strings.ToUpper(quote)
	if end.Before(start) {
		return History{}, apperrors.ErrInvalidDateRange
	}

	var candles []model.Candle
	winner, res, err := r.resolve(ctx, KindOHLCV, asset, quote, "", explicit, func(p Provider) error {
		cs, err := p.GetOHLCV(ctx, asset, start, end, interval, quote)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			return apperrors.ErrEmptyResult
		}
		candles = cs
		return nil
	})
	if err != nil {
		return History{}, err
	}

	latest := candles[0]
	for _, c := range candles[1:] {
		if c.Timestamp.After(latest.Timestamp) {
			latest = c
		}
	}
	point := model.PricePoint{AssetSymbol: asset, QuoteCcy: quote, Price: latest.Close, Timestamp: latest.Timestamp, Source: winner}
	if err := r.commit(ctx, res, winner, point, candles); err != nil {
		return History{}, err
	}
	return History{Provider: winner, Candles: candles}, nil
}

// resolve walks the candidates, calling fetch for each until one succeeds.
// Failures are reported to the observer here; a success is reported by
// commit once the result is stored.
func (r *Resolver) resolve(ctx context.Context, kind, asset, quote, lead string, explicit []string, fetch func(Provider) error) (string, Resolution, error) {
	res := Resolution{Asset: asset, Quote: quote, Kind: kind}
	order, err := r.Candidates(ctx, asset, explicit)
	if err != nil {
		return "", res, err
	}
	order = r.leadWith(lead, order)

	exhausted := &apperrors.ResolutionExhaustedError{Asset: asset, Quote: quote}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			res.Err = err
			r.notify(ctx, res)
			return "", res, err
		}
		res.Attempts = append(res.Attempts, id)

		err := r.attempt(id, fetch)
		if err == nil {
			res.Provider = id
			return id, res, nil
		}

		failure := &apperrors.ProviderFailure{Provider: id, Asset: asset, Quote: quote, Err: err}
		exhausted.Failures = append(exhausted.Failures, failure)
		r.logger.Warn("price provider failed",
			zap.String("kind", kind),
			zap.String("asset", asset),
			zap.String("quote", quote),
			zap.String("provider", id),
			zap.Error(err),
		)
	}

	r.logger.Error("price resolution exhausted",
		zap.String("kind", kind),
		zap.String("asset", asset),
		zap.String("quote", quote),
		zap.Strings("attempts", res.Attempts),
	)
	res.Err = exhausted
	r.notify(ctx, res)
	return "", res, exhausted
}

func (r *Resolver) attempt(id string, fetch func(Provider) error) (err error) {
	p, err := r.registry.Provider(id)
	if err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("provider panicked: %v", rec)
		}
	}()
	return fetch(p)
}

// commit writes the fetched data, then records the winner as the preferred
// provider, then notifies the observer with the outcome. A failed write leaves
// the preference untouched.
func (r *Resolver) commit(ctx context.Context, res Resolution, winner string, point model.PricePoint, candles []model.Candle) error {
	err := r.store(ctx, winner, point, candles)
	if err == nil {
		if perr := r.prefs.SetPreference(ctx, res.Asset, winner); perr != nil {
			err = errors.Wrap(perr, "store provider preference")
		}
	}
	if err != nil {
		r.logger.Error("price resolution not stored",
			zap.String("kind", res.Kind),
			zap.String("asset", res.Asset),
			zap.String("provider", winner),
			zap.Error(err),
		)
	}
	res.Err = err
	r.notify(ctx, res)
	return err
}

func (r *Resolver) store(ctx context.Context, winner string, point model.PricePoint, candles []model.Candle) error {
	if len(candles) > 0 && r.history != nil {
		if _, err := r.history.PutHistory(ctx, point.AssetSymbol, point.QuoteCcy, winner, candles); err != nil {
			return errors.Wrap(err, "store price history")
		}
	}
	if _, err := r.cache.Put(ctx, point); err != nil {
		return errors.Wrap(err, "store price point")
	}
	return nil
}

func (r *Resolver) notify(ctx context.Context, res Resolution) {
	if r.observer == nil {
		return
	}
	res.At = r.now()
	r.observer.Observe(ctx, res)
}
