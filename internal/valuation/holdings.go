package valuation

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// GroupByAsset splits a ledger per upper-cased asset symbol, keeping order.
// The returned symbols are sorted.
func GroupByAsset(txs []model.Transaction) (map[string][]model.Transaction, []string) {
	groups := make(map[string][]model.Transaction)
	for _, tx := range txs {
		sym := strings.ToUpper(tx.AssetSymbol)
		groups[sym] = append(groups[sym], tx)
	}
	assets := make([]string, 0, len(groups))
	for sym := range groups {
		assets = append(assets, sym)
	}
	slices.Sort(assets)
	return groups, assets
}

// MatchAll runs MatchLots for every asset in the ledger.
func MatchAll(txs []model.Transaction, asOf time.Time, opts Options) ([]MatchResult, error) {
	groups, assets := GroupByAsset(txs)
	results := make([]MatchResult, 0, len(assets))
	for _, asset := range assets {
		res, err := MatchLots(asset, groups[asset], asOf, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Holdings returns the open quantity per asset as of asOf. Assets that are
// fully disposed are omitted.
func Holdings(txs []model.Transaction, asOf time.Time, opts Options) (map[string]decimal.Decimal, error) {
	results, err := MatchAll(txs, asOf, opts)
	if err != nil {
		return nil, err
	}
	holdings := make(map[string]decimal.Decimal, len(results))
	for _, r := range results {
		if qty := r.OpenQuantity(); !qty.IsZero() {
			holdings[r.AssetSymbol] = qty
		}
	}
	return holdings, nil
}
