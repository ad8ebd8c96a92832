package cli

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ndewijer/wealth-tracker/internal/config"
)

// ConfigCmd groups the configuration commands.
type ConfigCmd struct {
	Show       ConfigShowCmd       `cmd:"" help:"Print the effective configuration with secrets masked." default:"1"`
	EncryptKey ConfigEncryptKeyCmd `cmd:"" name:"encrypt-key" help:"Encrypt a provider API key for use as <NAME>_ENC."`
}

type ConfigShowCmd struct{}

func (cmd *ConfigShowCmd) Run(kctx *kong.Context, globals *Globals) error {
	cfg, err := globals.config()
	if err != nil {
		return err
	}
	renderTable(kctx.Stdout, []string{"Setting", "Value"}, configRows(cfg))
	return nil
}

func configRows(cfg *config.Config) [][]string {
	p := cfg.Providers
	return [][]string{
		{"Server address", cfg.Server.Addr},
		{"Database", cfg.Database.Path},
		{"CORS origins", strings.Join(cfg.CORS.AllowedOrigins, ", ")},
		{"Log", cfg.Log.Level + " (" + cfg.Log.Format + ")"},
		{"Base currency", cfg.Portfolio.BaseCurrency},
		{"Transfer policy", cfg.Portfolio.TransferPolicy.String()},
		{"Provider order", strings.Join(cfg.Price.ProviderOrder, ", ")},
		{"Stale after", cfg.Price.StaleAfter.String()},
		{"Sync pacing", cfg.Price.SyncPacing.String()},
		{"Cache TTL", cfg.Price.CacheTTL.String()},
		{"HTTP timeout", cfg.Price.HTTPTimeout.String()},
		{"Refresh schedule", orDash(cfg.Price.RefreshCron)},
		{"Journal", orDash(cfg.Journal.Dir)},
		{"CoinMarketCap key", mask(p.CoinMarketCap.APIKey)},
		{"CoinDesk key", mask(p.CoinDesk.APIKey)},
	}
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	switch {
	case secret == "":
		return mutedStyle.Render("not set")
	case len(secret) <= 4:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}

// ConfigEncryptKeyCmd encrypts a value with WEALTH_SECRET_KEY. A new key is
// generated and printed when none is given.
type ConfigEncryptKeyCmd struct {
	Key   string `help:"Fernet key, base64 encoded." env:"WEALTH_SECRET_KEY"`
	Value string `help:"Value to encrypt." required:""`
}

func (cmd *ConfigEncryptKeyCmd) Run(kctx *kong.Context) error {
	key := cmd.Key
	if key == "" {
		generated, err := config.GenerateKey()
		if err != nil {
			return err
		}
		key = generated
		printWarnf(kctx.Stdout, "No key given. Generated WEALTH_SECRET_KEY=%s", key)
	}

	token, err := config.Encrypt(key, cmd.Value)
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, "Encrypted value:")
	_, _ = kctx.Stdout.Write([]byte(token + "\n"))
	return nil
}
