package cli

import (
	"context"
	"sort"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
)

// PortfolioCmd groups the valuation commands.
type PortfolioCmd struct {
	Summary  PortfolioSummaryCmd  `cmd:"" help:"Value positions and report gains." default:"1"`
	Holdings PortfolioHoldingsCmd `cmd:"" help:"Show net quantity per asset."`
}

// PortfolioSummaryCmd values the portfolio. Stale prices are refreshed first
// unless --no-refresh is given or --as-of lies in the past.
type PortfolioSummaryCmd struct {
	Quote   string `help:"Quote currency. Defaults to the base currency." short:"q"`
	Account string `help:"Only this account id." short:"a"`
	AsOf    string `help:"Value as of this time. Defaults to now." name:"as-of"`
	Refresh bool   `help:"Refresh stale prices before valuing." default:"true" negatable:""`
}

func (cmd *PortfolioSummaryCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	now := time.Now()
	query, err := request.ParsePortfolioQuery(cmd.Quote, cmd.Account, cmd.AsOf, "", a.Valuation.BaseCurrency(), now)
	if err != nil {
		return err
	}

	staleAfter := a.Config.Price.StaleAfter
	if cmd.Refresh && !query.AsOf.Before(now.Add(-staleAfter)) {
		report, err := a.Prices.RefreshStale(ctx, query.QuoteCcy, query.AccountID, staleAfter)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			printWarnf(kctx.Stderr, "price refresh failed: %v", err)
		} else {
			for asset, reason := range report.Failed {
				printWarnf(kctx.Stderr, "could not refresh %s: %s", asset, reason)
			}
		}
	}

	summary, err := a.Valuation.SummarizePortfolio(ctx, query.AsOf, query.QuoteCcy, query.AccountID)
	if err != nil {
		return err
	}
	printSummary(kctx, summary)
	return nil
}

func printSummary(kctx *kong.Context, s *model.PortfolioSummary) {
	if len(s.Positions) == 0 {
		printInfof(kctx.Stdout, "No open or closed positions as of %s", formatTime(s.AsOf))
		return
	}

	ccy := s.QuoteCcy
	rows := make([][]string, 0, len(s.Positions)+1)
	for _, p := range s.Positions {
		realized := formatPnL(p.RealizedPnL, ccy)
		if p.RealizedIncomplete {
			realized += warnStyle.Render("*")
		}
		price := formatNullAmount(p.Price, ccy)
		if p.PriceTimestamp != nil {
			price += " " + mutedStyle.Render(p.PriceTimestamp.UTC().Format("01-02 15:04"))
		}
		rows = append(rows, []string{
			p.AssetSymbol,
			p.Quantity.String(),
			price,
			formatNullAmount(p.Value, ccy),
			formatNullAmount(p.CostOpen, ccy),
			formatNullPnL(p.UnrealizedPnL, ccy),
			realized,
		})
	}

	t := s.Totals
	total := "Total"
	if t.Incomplete {
		total += warnStyle.Render("*")
	}
	rows = append(rows, []string{
		total, "", "",
		formatAmount(t.Value, ccy),
		formatAmount(t.CostOpen, ccy),
		formatPnL(t.UnrealizedPnL, ccy),
		formatPnL(t.RealizedPnL, ccy),
	})

	headers := []string{"Asset", "Qty", "Price", "Value", "Cost", "Unrealized", "Realized"}
	renderTable(kctx.Stdout, headers, rows, 1, 2, 3, 4, 5, 6)
	printInfof(kctx.Stdout, "Valued in %s as of %s", ccy, formatTime(s.AsOf))
	if t.Incomplete {
		printWarnf(kctx.Stdout, "* some prices, cost bases or proceeds are unknown and count as zero")
	}
}

type PortfolioHoldingsCmd struct {
	Account string `help:"Only this account id." short:"a"`
	AsOf    string `help:"Holdings as of this time. Defaults to now." name:"as-of"`
}

func (cmd *PortfolioHoldingsCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	query, err := request.ParsePortfolioQuery("", cmd.Account, cmd.AsOf, "", a.Valuation.BaseCurrency(), time.Now())
	if err != nil {
		return err
	}

	holdings, err := a.Valuation.ComputeHoldings(ctx, query.AsOf, query.AccountID)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		printInfof(kctx.Stdout, "Nothing held as of %s", formatTime(query.AsOf))
		return nil
	}

	assets := make([]string, 0, len(holdings))
	for asset := range holdings {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, []string{asset, holdings[asset].String()})
	}
	renderTable(kctx.Stdout, []string{"Asset", "Qty"}, rows, 1)
	return nil
}
