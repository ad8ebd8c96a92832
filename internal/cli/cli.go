// Package cli implements the wealth operator command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/ndewijer/wealth-tracker/internal/app"
	"github.com/ndewijer/wealth-tracker/internal/config"
	"github.com/ndewijer/wealth-tracker/internal/logging"
	"github.com/ndewijer/wealth-tracker/internal/version"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"
	warnSymbol    = "!"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00A86B", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7005F", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"})
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD75F"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008787", Dark: "#00D7D7"})
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render(successSymbol), message)
}

func printInfof(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", infoStyle.Render(infoSymbol), fmt.Sprintf(format, args...))
}

func printWarnf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", warnStyle.Render(warnSymbol), fmt.Sprintf(format, args...))
}

// PrintError writes err to w in the error style.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render(errorSymbol), errorStyle.Render(err.Error()))
}

// Globals are the flags shared by every command.
type Globals struct {
	EnvFile  string `help:"Environment file to load before reading configuration." default:".env" env:"WEALTH_ENV_FILE" placeholder:"PATH"`
	Database string `help:"SQLite database path. Overrides WEALTH_DB_PATH." short:"d" placeholder:"PATH"`
	Verbose  bool   `help:"Log at debug level to stderr." short:"v"`
}

// config loads the environment file, if present, and the configuration.
func (g *Globals) config() (*config.Config, error) {
	if g.EnvFile != "" {
		if err := godotenv.Load(g.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", g.EnvFile, err)
		}
	}
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if g.Database != "" {
		cfg.Database.Path = g.Database
	}
	return cfg, nil
}

// open builds the application. The logger writes warnings to stderr unless
// Verbose is set.
func (g *Globals) open() (*app.App, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if g.Verbose {
		level = "debug"
	}
	logger, err := logging.New(config.LogConfig{Level: level, Format: "console"})
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

// closeApp closes a and flushes its logger.
func closeApp(a *app.App) error {
	err := a.Close()
	_ = a.Logger.Sync()
	return err
}

// CLI is the root of the command tree.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information."`
	Globals

	Init      InitCmd      `cmd:"" help:"Create the database and apply migrations."`
	Config    ConfigCmd    `cmd:"" help:"Inspect configuration and encrypt secrets."`
	Account   AccountCmd   `cmd:"" help:"Manage accounts."`
	Tx        TxCmd        `cmd:"" help:"Manage ledger transactions."`
	Price     PriceCmd     `cmd:"" help:"Resolve, refresh and sync prices."`
	Portfolio PortfolioCmd `cmd:"" help:"Value the portfolio."`
}

// New returns a parser for root. Extra options are applied last.
func New(root *CLI, options ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("wealth"),
		kong.Description("Track crypto and fiat holdings, price them and report gains."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(&root.Globals),
	}
	return kong.New(root, append(base, options...)...)
}

// Execute parses args and runs the selected command with ctx bound for
// commands that block on I/O.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var root CLI
	parser, err := New(&root,
		kong.Writers(stdout, stderr),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run()
}

// InitCmd creates the database.
type InitCmd struct{}

func (cmd *InitCmd) Run(kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	info, err := a.System.CheckVersion()
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Database ready at %s (schema version %d)",
		pathStyle.Render(a.Config.Database.Path), info.DbVersion))
	printInfof(kctx.Stdout, "Providers: %v", a.Prices.Providers())
	return nil
}
