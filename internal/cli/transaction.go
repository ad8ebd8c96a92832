package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// TxCmd groups the ledger commands.
type TxCmd struct {
	Add  TxAddCmd  `cmd:"" help:"Record a transaction."`
	List TxListCmd `cmd:"" help:"List transactions." default:"1"`
	Edit TxEditCmd `cmd:"" help:"Change a transaction."`
	Rm   TxRmCmd   `cmd:"" help:"Delete a transaction."`
}

// TxAddCmd records one ledger entry. Without --price and --total a recent
// buy or sell is priced from the latest quote.
type TxAddCmd struct {
	Side     string `arg:"" help:"buy, sell, transfer_in or transfer_out." enum:"buy,sell,transfer_in,transfer_out"`
	Asset    string `arg:"" help:"Asset symbol, e.g. BTC."`
	Quantity string `arg:"" name:"qty" help:"Quantity in asset units."`

	Account    int64  `help:"Account id." short:"a" required:""`
	At         string `help:"Trade time as YYYY-MM-DD or RFC3339. Defaults to now."`
	Price      string `help:"Unit price in the quote currency." short:"p"`
	Total      string `help:"Total in the quote currency."`
	Quote      string `help:"Quote currency. Defaults to the account currency." short:"q"`
	Fee        string `help:"Fee quantity."`
	FeeAsset   string `help:"Asset the fee was paid in." name:"fee-asset"`
	Note       string `help:"Free text note."`
	TxHash     string `help:"On-chain transaction hash." name:"tx-hash"`
	Datasource string `help:"Import source."`
	ExternalID string `help:"Identifier at the import source." name:"external-id"`
	Batch      string `help:"Import batch id."`
	Tags       string `help:"Comma separated tags."`
}

func (cmd *TxAddCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	req, err := cmd.request(time.Now())
	if err != nil {
		return err
	}
	if err := validation.ValidateCreateTransaction(req); err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	tx, err := a.Transactions.CreateTransaction(ctx, req)
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Recorded transaction #%d: %s %s %s", tx.ID, tx.Side, tx.Quantity, tx.AssetSymbol))
	if !tx.PriceQuote.Valid && !tx.TotalQuote.Valid && (tx.Side == model.SideBuy || tx.Side == model.SideSell) {
		printWarnf(kctx.Stdout, "No price recorded; the lot will have an unknown cost basis")
	}
	return nil
}

func (cmd *TxAddCmd) request(now time.Time) (request.CreateTransactionRequest, error) {
	qty, err := decimal.NewFromString(cmd.Quantity)
	if err != nil {
		return request.CreateTransactionRequest{}, fmt.Errorf("invalid qty %q", cmd.Quantity)
	}
	amounts, err := parseDecimals(map[string]string{"price": cmd.Price, "total": cmd.Total, "fee": cmd.Fee})
	if err != nil {
		return request.CreateTransactionRequest{}, err
	}

	at := cmd.At
	if at == "" {
		at = now.UTC().Format(time.RFC3339)
	}
	return request.CreateTransactionRequest{
		Timestamp:     at,
		AccountID:     cmd.Account,
		AssetSymbol:   cmd.Asset,
		Side:          cmd.Side,
		Quantity:      qty,
		PriceQuote:    amounts["price"],
		TotalQuote:    amounts["total"],
		QuoteCcy:      cmd.Quote,
		FeeQuantity:   amounts["fee"],
		FeeAsset:      cmd.FeeAsset,
		Note:          cmd.Note,
		TxHash:        cmd.TxHash,
		ExternalID:    cmd.ExternalID,
		Datasource:    cmd.Datasource,
		ImportBatchID: cmd.Batch,
		Tags:          cmd.Tags,
	}, nil
}

type TxListCmd struct {
	Asset   string `help:"Only this asset."`
	Account string `help:"Only this account id." short:"a"`
	Side    string `help:"Only this side."`
	From    string `help:"Earliest trade time, inclusive."`
	Until   string `help:"Latest trade time, inclusive."`
}

func (cmd *TxListCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	filter, err := request.ParseTransactionFilters(cmd.Asset, cmd.Account, cmd.Side, cmd.From, cmd.Until)
	if err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	txs, err := a.Transactions.GetTransactions(ctx, *filter)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		printInfof(kctx.Stdout, "No transactions match")
		return nil
	}

	headers := []string{"ID", "Time", "Account", "Side", "Asset", "Qty", "Price", "Total", "Fee", "Note"}
	renderTable(kctx.Stdout, headers, transactionRows(txs), 0, 5, 6, 7)
	return nil
}

func transactionRows(txs []model.Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		fee := formatNullDecimal(tx.FeeQuantity)
		if tx.FeeQuantity.Valid && tx.FeeAsset != "" {
			fee += " " + tx.FeeAsset
		}
		rows = append(rows, []string{
			strconv.FormatInt(tx.ID, 10),
			formatTime(tx.Timestamp),
			strconv.FormatInt(tx.AccountID, 10),
			string(tx.Side),
			tx.AssetSymbol,
			tx.Quantity.String(),
			formatNullAmount(tx.PriceQuote, tx.QuoteCcy),
			formatNullAmount(tx.TotalQuote, tx.QuoteCcy),
			fee,
			orDash(tx.Note),
		})
	}
	return rows
}

// TxEditCmd changes the flags that are given.
type TxEditCmd struct {
	ID int64 `arg:"" help:"Transaction id."`

	Account  int64  `help:"Move to this account id." short:"a"`
	Side     string `help:"New side."`
	Asset    string `help:"New asset symbol."`
	Quantity string `help:"New quantity." name:"qty"`
	At       string `help:"New trade time."`
	Price    string `help:"New unit price." short:"p"`
	Total    string `help:"New total."`
	Quote    string `help:"New quote currency." short:"q"`
	Fee      string `help:"New fee quantity."`
	FeeAsset string `help:"New fee asset." name:"fee-asset"`
	Note     string `help:"New note."`
	TxHash   string `help:"New transaction hash." name:"tx-hash"`
	Tags     string `help:"New tags."`

	Datasource string   `help:"New import source."`
	ExternalID string   `help:"New identifier at the import source." name:"external-id"`
	Batch      string   `help:"New import batch id."`
	Clear      []string `help:"Reset to empty: priceQuote, totalQuote or feeQty." sep:","`
}

func (cmd *TxEditCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	id, err := positiveID(cmd.ID)
	if err != nil {
		return err
	}
	req, err := cmd.request()
	if err != nil {
		return err
	}
	if err := validation.ValidateUpdateTransaction(req); err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	tx, err := a.Transactions.UpdateTransaction(ctx, id, req)
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Updated transaction #%d: %s %s %s", tx.ID, tx.Side, tx.Quantity, tx.AssetSymbol))
	return nil
}

func (cmd *TxEditCmd) request() (request.UpdateTransactionRequest, error) {
	amounts, err := parseDecimals(map[string]string{
		"qty": cmd.Quantity, "price": cmd.Price, "total": cmd.Total, "fee": cmd.Fee,
	})
	if err != nil {
		return request.UpdateTransactionRequest{}, err
	}

	req := request.UpdateTransactionRequest{
		Timestamp:   optional(cmd.At),
		AssetSymbol: optional(cmd.Asset),
		Side:        optional(cmd.Side),
		Quantity:    amounts["qty"],
		PriceQuote:  amounts["price"],
		TotalQuote:  amounts["total"],
		QuoteCcy:    optional(cmd.Quote),
		FeeQuantity: amounts["fee"],
		FeeAsset:    optional(cmd.FeeAsset),
		Note:        optional(cmd.Note),
		TxHash:      optional(cmd.TxHash),
		Tags:        optional(cmd.Tags),

		Datasource:    optional(cmd.Datasource),
		ExternalID:    optional(cmd.ExternalID),
		ImportBatchID: optional(cmd.Batch),
		Clear:         cmd.Clear,
	}
	if cmd.Account != 0 {
		req.AccountID = &cmd.Account
	}
	return req, nil
}

type TxRmCmd struct {
	ID int64 `arg:"" help:"Transaction id."`
}

func (cmd *TxRmCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	id, err := positiveID(cmd.ID)
	if err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Transactions.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Deleted transaction #%d", id))
	return nil
}

// parseDecimals parses the non-empty values of flags. Empty flags are
// absent from the result.
func parseDecimals(flags map[string]string) (map[string]*decimal.Decimal, error) {
	out := make(map[string]*decimal.Decimal, len(flags))
	for name, raw := range flags {
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", name, raw)
		}
		out[name] = &d
	}
	return out, nil
}
