package valuation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// ValuePosition turns the matched lots of one asset into a position priced in
// quote. price may be nil, in which case value and unrealized PnL are absent.
// Cost basis is absent when any open lot has an unknown cost, was bought in
// another currency than quote or paid a fee that could not be valued. Gains
// touched by an unvalued fee are left out of realized PnL and mark it incomplete.
func ValuePosition(match MatchResult, price *model.PricePoint, quote string) model.Position {
	pos := model.Position{
		AssetSymbol: match.AssetSymbol,
		Quantity:    match.OpenQuantity(),
		RealizedPnL: decimal.Zero,
	}

	unvalued := make(map[int64]bool, len(match.UnvaluedFees))
	for _, id := range match.UnvaluedFees {
		unvalued[id] = true
	}

	for _, ev := range match.Realized {
		if ev.Known(quote) && !unvalued[ev.TransactionID] && !unvalued[ev.LotTransactionID] {
			pos.RealizedPnL = pos.RealizedPnL.Add(ev.Gain)
		} else {
			pos.RealizedIncomplete = true
		}
	}

	if price != nil {
		ts := price.Timestamp
		pos.Price = decimal.NewNullDecimal(price.Price)
		pos.PriceTimestamp = &ts
		pos.PriceSource = price.Source
	}

	if pos.Quantity.IsZero() {
		pos.Value = decimal.NewNullDecimal(decimal.Zero)
		pos.CostOpen = decimal.NewNullDecimal(decimal.Zero)
		pos.UnrealizedPnL = decimal.NewNullDecimal(decimal.Zero)
		return pos
	}

	cost, costKnown := openCost(match.Lots, quote, unvalued)
	if costKnown {
		pos.CostOpen = decimal.NewNullDecimal(cost)
	}
	if price != nil {
		value := pos.Quantity.Mul(price.Price)
		pos.Value = decimal.NewNullDecimal(value)
		if costKnown {
			pos.UnrealizedPnL = decimal.NewNullDecimal(value.Sub(cost))
		}
	}
	return pos
}

func openCost(lots []model.Lot, quote string, unvalued map[int64]bool) (decimal.Decimal, bool) {
	total := decimal.Zero
	for _, l := range lots {
		if l.CostUnknown || l.QuoteCcy != quote || unvalued[l.TransactionID] {
			return decimal.Zero, false
		}
		total = total.Add(l.Cost)
	}
	return total, true
}

// PickPrice returns the newest candidate observed at or before asOf, or nil.
func PickPrice(asOf time.Time, candidates ...*model.PricePoint) *model.PricePoint {
	var best *model.PricePoint
	for _, c := range candidates {
		if c == nil || c.Timestamp.After(asOf) {
			continue
		}
		if best == nil || c.Timestamp.After(best.Timestamp) {
			best = c
		}
	}
	return best
}
