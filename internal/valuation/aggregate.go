package valuation

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// Aggregate drops positions that never mattered (zero quantity and zero
// realized PnL, with every gain known), sorts the rest by asset symbol and
// sums them. Absent values count as zero in the totals and mark them Incomplete.
func Aggregate(positions []model.Position, quote string) ([]model.Position, model.PortfolioTotals) {
	totals := model.PortfolioTotals{
		QuoteCcy:      quote,
		Value:         decimal.Zero,
		CostOpen:      decimal.Zero,
		UnrealizedPnL: decimal.Zero,
		RealizedPnL:   decimal.Zero,
	}

	kept := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if p.Quantity.IsZero() && p.RealizedPnL.IsZero() && !p.RealizedIncomplete {
			continue
		}
		kept = append(kept, p)

		if p.Value.Valid {
			totals.Value = totals.Value.Add(p.Value.Decimal)
		} else {
			totals.Incomplete = true
		}
		if p.CostOpen.Valid {
			totals.CostOpen = totals.CostOpen.Add(p.CostOpen.Decimal)
		} else {
			totals.Incomplete = true
		}
		if p.UnrealizedPnL.Valid {
			totals.UnrealizedPnL = totals.UnrealizedPnL.Add(p.UnrealizedPnL.Decimal)
		}
		if p.RealizedIncomplete {
			totals.Incomplete = true
		}
		totals.RealizedPnL = totals.RealizedPnL.Add(p.RealizedPnL)
	}

	slices.SortFunc(kept, func(a, b model.Position) int {
		return cmp.Compare(a.AssetSymbol, b.AssetSymbol)
	})
	return kept, totals
}
