package cli

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// PriceCmd groups the price commands.
type PriceCmd struct {
	Quote     PriceQuoteCmd     `cmd:"" help:"Resolve the latest price of an asset."`
	Sync      PriceSyncCmd      `cmd:"" help:"Fetch and store historical candles."`
	Providers PriceProvidersCmd `cmd:"" help:"List registered price providers."`
	Refresh   PriceRefreshCmd   `cmd:"" help:"Re-resolve missing and stale prices of held assets."`
	Journal   PriceJournalCmd   `cmd:"" help:"Show recent price resolutions."`
}

type PriceQuoteCmd struct {
	Asset     string   `arg:"" help:"Asset symbol."`
	Quote     string   `help:"Quote currency. Defaults to the base currency." short:"q"`
	Providers []string `help:"Providers to try, in order." sep:","`
}

func (cmd *PriceQuoteCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	point, err := a.Prices.Quote(ctx, cmd.Asset, cmd.Quote, cmd.Providers)
	if err != nil {
		return err
	}
	renderTable(kctx.Stdout, []string{"Asset", "Price", "Time", "Source"}, [][]string{pointRow(point)}, 1)
	return nil
}

func pointRow(p model.PricePoint) []string {
	return []string{
		p.AssetSymbol,
		formatAmount(p.Price, p.QuoteCcy),
		formatTime(p.Timestamp),
		p.Source,
	}
}

type PriceSyncCmd struct {
	Asset     string   `arg:"" help:"Asset symbol."`
	From      string   `help:"First day, YYYY-MM-DD or RFC3339." required:""`
	Until     string   `help:"Last day. Defaults to now."`
	Quote     string   `help:"Quote currency. Defaults to the base currency." short:"q"`
	Interval  string   `help:"Candle interval." enum:"1d,1h" default:"1d"`
	Providers []string `help:"Providers to try, in order." sep:","`
}

func (cmd *PriceSyncCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	until := cmd.Until
	if until == "" {
		until = time.Now().UTC().Format(time.RFC3339)
	}
	req := request.SyncHistoryRequest{
		Asset:     cmd.Asset,
		Quote:     cmd.Quote,
		Start:     cmd.From,
		End:       until,
		Interval:  cmd.Interval,
		Providers: cmd.Providers,
	}
	if err := validation.ValidateSyncHistory(req); err != nil {
		return err
	}
	// Validated above.
	start, _ := request.ParseTime(req.Start)
	end, _ := request.ParseTime(req.End)

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	result, err := a.Prices.SyncHistory(ctx, req.Asset, req.Quote, start, end, req.Interval, req.Providers)
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, "Stored "+strconv.Itoa(result.Stored)+" "+result.AssetSymbol+"/"+result.QuoteCcy+
		" candles from "+result.Provider)
	return nil
}

type PriceProvidersCmd struct{}

func (cmd *PriceProvidersCmd) Run(kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	order := a.Resolver.DefaultOrder()
	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i + 1
	}

	ids := a.Prices.Providers()
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		pos := mutedStyle.Render("-")
		if n, ok := rank[id]; ok {
			pos = strconv.Itoa(n)
		}
		rows = append(rows, []string{id, pos})
	}
	renderTable(kctx.Stdout, []string{"Provider", "Default order"}, rows, 1)
	return nil
}

type PriceRefreshCmd struct {
	Quote   string        `help:"Quote currency. Defaults to the base currency." short:"q"`
	Account string        `help:"Only assets held in this account id." short:"a"`
	MaxAge  time.Duration `help:"Refresh prices older than this. Defaults to WEALTH_PRICE_STALE_AFTER." name:"max-age"`
}

func (cmd *PriceRefreshCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	accountID, err := request.ParseOptionalID(cmd.Account)
	if err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	maxAge := cmd.MaxAge
	if maxAge <= 0 {
		maxAge = a.Config.Price.StaleAfter
	}

	report, err := a.Prices.RefreshStale(ctx, cmd.Quote, accountID, maxAge)
	if err != nil {
		return err
	}
	printRefreshReport(kctx, report)
	return nil
}

func printRefreshReport(kctx *kong.Context, report *model.RefreshReport) {
	if len(report.Refreshed) > 0 {
		rows := make([][]string, 0, len(report.Refreshed))
		for _, p := range report.Refreshed {
			rows = append(rows, pointRow(p))
		}
		renderTable(kctx.Stdout, []string{"Asset", "Price", "Time", "Source"}, rows, 1)
	}
	printInfof(kctx.Stdout, "Checked %d assets in %s: %d fresh, %d refreshed, %d failed",
		report.Checked, report.QuoteCcy, len(report.Fresh), len(report.Refreshed), len(report.Failed))

	failed := make([]string, 0, len(report.Failed))
	for asset := range report.Failed {
		failed = append(failed, asset)
	}
	sort.Strings(failed)
	for _, asset := range failed {
		printWarnf(kctx.Stdout, "%s: %s", asset, report.Failed[asset])
	}
}

type PriceJournalCmd struct {
	Limit int `help:"Number of entries." short:"n" default:"20"`
}

func (cmd *PriceJournalCmd) Run(kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	entries, err := a.Prices.Journal(cmd.Limit)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			formatTime(e.At),
			e.Kind,
			e.Asset + "/" + e.Quote,
			orDash(e.Provider),
			strings.Join(e.Attempts, ","),
			orDash(e.Error),
		})
	}
	renderTable(kctx.Stdout, []string{"Time", "Kind", "Pair", "Provider", "Attempts", "Error"}, rows)
	return nil
}
