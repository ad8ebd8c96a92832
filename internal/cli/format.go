package cli

import (
	"io"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#BCBCBC", Dark: "#4E4E4E"})
)

const timeLayout = "2006-01-02 15:04:05"

// renderTable writes rows under headers. Columns listed in right are
// right-aligned.
func renderTable(w io.Writer, headers []string, rows [][]string, right ...int) {
	align := make(map[int]bool, len(right))
	for _, col := range right {
		align[col] = true
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cellStyle
			if row == table.HeaderRow {
				style = headerStyle
			}
			if align[col] {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	_, _ = io.WriteString(w, t.Render()+"\n")
}

// formatAmount renders d in ccy. ISO currencies known to go-money use their
// symbol and fraction digits; anything else, such as a crypto quote, is
// printed as a plain decimal followed by the code.
func formatAmount(d decimal.Decimal, ccy string) string {
	ccy = strings.ToUpper(ccy)
	cur := money.GetCurrency(ccy)
	if cur == nil {
		return d.String() + " " + ccy
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, ccy).Display()
}

// formatNullAmount renders a missing amount as "-".
func formatNullAmount(d decimal.NullDecimal, ccy string) string {
	if !d.Valid {
		return mutedStyle.Render("-")
	}
	return formatAmount(d.Decimal, ccy)
}

// formatPnL renders a gain or loss with an explicit sign.
func formatPnL(d decimal.Decimal, ccy string) string {
	switch {
	case d.IsPositive():
		return successStyle.Render("+" + formatAmount(d, ccy))
	case d.IsNegative():
		return errorStyle.Render(formatAmount(d, ccy))
	default:
		return formatAmount(d, ccy)
	}
}

func formatNullPnL(d decimal.NullDecimal, ccy string) string {
	if !d.Valid {
		return mutedStyle.Render("-")
	}
	return formatPnL(d.Decimal, ccy)
}

func formatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return mutedStyle.Render("-")
	}
	return d.Decimal.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return mutedStyle.Render("-")
	}
	return t.UTC().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return mutedStyle.Render("-")
	}
	return s
}
