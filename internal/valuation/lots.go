package valuation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// MatchResult is the outcome of replaying one asset's ledger.
type MatchResult struct {
	AssetSymbol string
	Lots        []model.Lot
	Realized    []model.RealizedEvent
	// UnvaluedFees lists transactions whose fee could not be converted into
	// the quote currency and was therefore left out of cost or proceeds.
	UnvaluedFees []int64
}

// OpenQuantity sums the remaining quantity of all open lots.
func (r MatchResult) OpenQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lots {
		total = total.Add(l.Quantity)
	}
	return total
}

// MatchLots replays the transactions of one asset with timestamp <= asOf into
// FIFO lots and realized events. Entries of other assets are ignored. A
// disposal that exceeds the open quantity fails with a
// *apperrors.LedgerInconsistencyError, an acquisition whose asset fee consumes
// the whole quantity with a *apperrors.InvalidNetQuantityError.
func MatchLots(asset string, txs []model.Transaction, asOf time.Time, opts Options) (MatchResult, error) {
	m := &matcher{
		asset:  asset,
		opts:   opts,
		result: MatchResult{AssetSymbol: asset},
	}

	for _, tx := range Chronological(txs, asset, asOf) {
		var err error
		switch tx.Side {
		case model.SideBuy:
			err = m.acquire(tx)
		case model.SideSell:
			err = m.dispose(tx)
		case model.SideTransferIn:
			if opts.Transfers == TransferCarryBasis {
				err = m.receive(tx)
			} else {
				err = m.acquire(tx)
			}
		case model.SideTransferOut:
			if opts.Transfers == TransferCarryBasis {
				err = m.send(tx)
			} else {
				err = m.dispose(tx)
			}
		default:
			err = fmt.Errorf("transaction %d: %w %q", tx.ID, apperrors.ErrInvalidSide, tx.Side)
		}
		if err != nil {
			return MatchResult{}, err
		}
	}

	m.result.Lots = m.lots
	return m.result, nil
}

// Chronological returns the entries of asset with timestamp <= asOf ordered by
// timestamp, then id. An empty asset keeps every entry.
func Chronological(txs []model.Transaction, asset string, asOf time.Time) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if asset != "" && !strings.EqualFold(tx.AssetSymbol, asset) {
			continue
		}
		if tx.Timestamp.After(asOf) {
			continue
		}
		out = append(out, tx)
	}
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

type matcher struct {
	asset     string
	opts      Options
	lots      []model.Lot
	inTransit []model.Lot
	result    MatchResult
}

func (m *matcher) acquire(tx model.Transaction) error {
	net := tx.Quantity
	fee, hasFee := m.assetFee(tx)
	if hasFee {
		net = net.Sub(fee)
	}
	if !net.IsPositive() {
		return &apperrors.InvalidNetQuantityError{
			Asset:         m.asset,
			TransactionID: tx.ID,
			Quantity:      tx.Quantity,
			Fee:           fee,
		}
	}

	lot := model.Lot{
		TransactionID: tx.ID,
		OpenedAt:      tx.Timestamp,
		Quantity:      net,
		QuoteCcy:      tx.QuoteCcy,
	}

	cost, known := grossQuote(tx)
	if known {
		lot.Cost = cost.Add(m.feeValue(tx))
		lot.UnitCost = lot.Cost.Div(net)
	} else {
		lot.CostUnknown = true
	}

	m.lots = append(m.lots, lot)
	return nil
}

func (m *matcher) dispose(tx model.Transaction) error {
	if err := m.ensureCovered(tx); err != nil {
		return err
	}

	proceeds, known := grossQuote(tx)
	if known && tx.PriceQuote.Valid {
		// Fee units in the traded asset leave the holding with zero proceeds.
		if fee, ok := m.assetFee(tx); ok {
			proceeds = tx.PriceQuote.Decimal.Mul(decimal.Max(tx.Quantity.Sub(fee), decimal.Zero))
		}
	}
	if known {
		proceeds = proceeds.Sub(m.feeValue(tx))
	}

	left := proceeds
	for _, slice := range m.take(tx.Quantity) {
		ev := model.RealizedEvent{
			TransactionID:    tx.ID,
			LotTransactionID: slice.TransactionID,
			DisposedAt:       tx.Timestamp,
			Quantity:         slice.Quantity,
			CostCcy:          slice.QuoteCcy,
			ProceedsCcy:      tx.QuoteCcy,
			CostUnknown:      slice.CostUnknown,
			ProceedsUnknown:  !known,
		}
		if !slice.CostUnknown {
			ev.UnitCost = slice.Cost.Div(slice.Quantity)
		}
		if known {
			part := left
			if slice.last {
				left = decimal.Zero
			} else {
				part = proceeds.Mul(slice.Quantity).Div(tx.Quantity)
				left = left.Sub(part)
			}
			ev.UnitProceeds = part.Div(slice.Quantity)
			if !slice.CostUnknown {
				ev.Gain = part.Sub(slice.Cost)
			}
		}
		m.result.Realized = append(m.result.Realized, ev)
	}
	return nil
}

// send moves lots into the in-transit pool without realizing anything.
func (m *matcher) send(tx model.Transaction) error {
	if err := m.ensureCovered(tx); err != nil {
		return err
	}
	for _, slice := range m.take(tx.Quantity) {
		m.inTransit = append(m.inTransit, slice.Lot)
	}
	return nil
}

// receive reopens in-transit lots with their original basis. Quantity beyond
// what is in transit is acquired at the transaction's own price.
func (m *matcher) receive(tx model.Transaction) error {
	need := tx.Quantity
	for need.IsPositive() && len(m.inTransit) > 0 {
		head := &m.inTransit[0]
		lot := *head
		if head.Quantity.LessThanOrEqual(need) {
			m.inTransit = m.inTransit[1:]
		} else {
			lot.Quantity = need
			lot.Cost = head.Cost.Mul(need).Div(head.Quantity)
			head.Quantity = head.Quantity.Sub(need)
			head.Cost = head.Cost.Sub(lot.Cost)
		}
		need = need.Sub(lot.Quantity)
		m.insertByAge(lot)
	}
	if !need.IsPositive() {
		return nil
	}

	excess := tx
	excess.Quantity = need
	excess.FeeQuantity = decimal.NullDecimal{}
	if tx.TotalQuote.Valid {
		excess.TotalQuote = decimal.NewNullDecimal(tx.TotalQuote.Decimal.Mul(need).Div(tx.Quantity))
	}
	return m.acquire(excess)
}

func (m *matcher) insertByAge(lot model.Lot) {
	i, _ := slices.BinarySearchFunc(m.lots, lot, func(a, b model.Lot) int {
		if c := a.OpenedAt.Compare(b.OpenedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TransactionID, b.TransactionID)
	})
	m.lots = slices.Insert(m.lots, i, lot)
}

func (m *matcher) ensureCovered(tx model.Transaction) error {
	open := decimal.Zero
	for _, l := range m.lots {
		open = open.Add(l.Quantity)
	}
	if open.LessThan(tx.Quantity) {
		return &apperrors.LedgerInconsistencyError{
			Asset:         m.asset,
			TransactionID: tx.ID,
			Shortfall:     tx.Quantity.Sub(open),
		}
	}
	return nil
}

type lotSlice struct {
	model.Lot
	last bool
}

// take removes qty from the front of the queue. Callers check coverage first.
func (m *matcher) take(qty decimal.Decimal) []lotSlice {
	var out []lotSlice
	remaining := qty
	for remaining.IsPositive() {
		head := &m.lots[0]
		slice := lotSlice{Lot: *head}
		if head.Quantity.LessThanOrEqual(remaining) {
			m.lots = m.lots[1:]
		} else {
			slice.Quantity = remaining
			slice.Cost = head.Cost.Mul(remaining).Div(head.Quantity)
			head.Quantity = head.Quantity.Sub(remaining)
			head.Cost = head.Cost.Sub(slice.Cost)
		}
		remaining = remaining.Sub(slice.Quantity)
		slice.last = !remaining.IsPositive()
		out = append(out, slice)
	}
	return out
}

// assetFee returns the fee when it is denominated in the traded asset.
func (m *matcher) assetFee(tx model.Transaction) (decimal.Decimal, bool) {
	if !tx.FeeQuantity.Valid || tx.FeeQuantity.Decimal.IsZero() {
		return decimal.Zero, false
	}
	if !strings.EqualFold(tx.FeeAsset, m.asset) {
		return decimal.Zero, false
	}
	return tx.FeeQuantity.Decimal, true
}

// feeValue converts a fee not denominated in the traded asset into the quote
// currency. A fee without an asset is taken to be in the quote currency.
func (m *matcher) feeValue(tx model.Transaction) decimal.Decimal {
	if !tx.FeeQuantity.Valid || tx.FeeQuantity.Decimal.IsZero() {
		return decimal.Zero
	}
	fee := tx.FeeQuantity.Decimal
	switch {
	case strings.EqualFold(tx.FeeAsset, m.asset):
		return decimal.Zero
	case tx.FeeAsset == "" || strings.EqualFold(tx.FeeAsset, tx.QuoteCcy):
		return fee
	}
	if m.opts.FeeValuer != nil {
		if px, ok := m.opts.FeeValuer(strings.ToUpper(tx.FeeAsset), tx.QuoteCcy, tx.Timestamp); ok {
			return fee.Mul(px)
		}
	}
	m.result.UnvaluedFees = append(m.result.UnvaluedFees, tx.ID)
	return decimal.Zero
}

// grossQuote prices the full quantity of tx, preferring the unit price over the total.
func grossQuote(tx model.Transaction) (decimal.Decimal, bool) {
	if tx.PriceQuote.Valid {
		return tx.PriceQuote.Decimal.Mul(tx.Quantity), true
	}
	if tx.TotalQuote.Valid {
		return tx.TotalQuote.Decimal, true
	}
	return decimal.Zero, false
}
