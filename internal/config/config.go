package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ndewijer/wealth-tracker/internal/pricing"
	"github.com/ndewijer/wealth-tracker/internal/valuation"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Portfolio PortfolioConfig
	Price     PriceConfig
	Providers ProvidersConfig
	Journal   JournalConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

// PortfolioConfig holds valuation defaults.
type PortfolioConfig struct {
	BaseCurrency   string
	TransferPolicy valuation.TransferPolicy
}

// PriceConfig holds resolver and refresh settings.
type PriceConfig struct {
	ProviderOrder []string
	StaleAfter    time.Duration
	SyncPacing    time.Duration
	RefreshCron   string
	CacheTTL      time.Duration
	HTTPTimeout   time.Duration
}

// ProvidersConfig holds per-provider credentials and endpoints.
type ProvidersConfig struct {
	CoinMarketCap CoinMarketCapConfig
	CoinDesk      EndpointConfig
	Binance       EndpointConfig
	Bybit         EndpointConfig
	Yahoo         EndpointConfig
}

// CoinMarketCapConfig configures the CoinMarketCap provider.
type CoinMarketCapConfig struct {
	APIKey     string
	BaseURL    string
	UseSandbox bool
}

// EndpointConfig is a base URL with an optional API key.
type EndpointConfig struct {
	APIKey  string
	BaseURL string
}

// JournalConfig enables the resolution journal when Dir is set.
type JournalConfig struct {
	Dir string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Invalid values are reported as errors.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{getenv: getenv}

	policy, err := valuation.ParseTransferPolicy(e.str("WEALTH_TRANSFER_POLICY", ""))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: e.str("SERVER_PORT", "5000"),
			Host: e.str("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: e.str("WEALTH_DB_PATH", "wealth.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(e.str("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Log: LogConfig{
			Level:  e.str("WEALTH_LOG_LEVEL", "info"),
			Format: e.str("WEALTH_LOG_FORMAT", "json"),
		},
		Portfolio: PortfolioConfig{
			BaseCurrency:   strings.ToUpper(e.str("WEALTH_BASE_CURRENCY", "USD")),
			TransferPolicy: policy,
		},
		Price: PriceConfig{
			ProviderOrder: pricing.ParseOrder(e.str("WEALTH_PRICE_PROVIDER_ORDER", "coinmarketcap,coindesk,binance,bybit,yahoo")),
			StaleAfter:    e.duration("WEALTH_PRICE_STALE_AFTER", 300*time.Second),
			SyncPacing:    e.duration("WEALTH_PRICE_SYNC_PACING", time.Second),
			RefreshCron:   e.str("WEALTH_PRICE_REFRESH_CRON", ""),
			CacheTTL:      e.duration("WEALTH_PRICE_CACHE_TTL", 60*time.Second),
			HTTPTimeout:   e.duration("WEALTH_HTTP_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			CoinMarketCap: CoinMarketCapConfig{
				APIKey:     e.secret("COINMARKETCAP_API_KEY"),
				BaseURL:    e.str("COINMARKETCAP_BASE_URL", ""),
				UseSandbox: e.boolean("COINMARKETCAP_USE_SANDBOX", false),
			},
			CoinDesk: EndpointConfig{
				APIKey:  e.secret("COINDESK_API_KEY"),
				BaseURL: e.str("COINDESK_BASE_URL", ""),
			},
			Binance: EndpointConfig{BaseURL: e.str("BINANCE_BASE_URL", "")},
			Bybit:   EndpointConfig{BaseURL: e.str("BYBIT_BASE_URL", "")},
			Yahoo:   EndpointConfig{BaseURL: e.str("YAHOO_BASE_URL", "")},
		},
		Journal: JournalConfig{
			Dir: e.str("WEALTH_JOURNAL_DIR", ""),
		},
	}
	if e.err != nil {
		return nil, e.err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// env reads typed values and keeps the first parse error.
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) str(key, defaultValue string) string {
	value := strings.TrimSpace(e.getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func (e *env) duration(key string, defaultValue time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		e.fail(fmt.Errorf("invalid duration for %s: %q", key, raw))
		return defaultValue
	}
	return d
}

func (e *env) boolean(key string, defaultValue bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(fmt.Errorf("invalid boolean for %s: %q", key, raw))
		return defaultValue
	}
	return b
}

// secret returns key, or decrypts key_ENC with WEALTH_SECRET_KEY.
func (e *env) secret(key string) string {
	if plain := e.str(key, ""); plain != "" {
		return plain
	}
	token := e.str(key+"_ENC", "")
	if token == "" {
		return ""
	}
	value, err := Decrypt(e.str("WEALTH_SECRET_KEY", ""), token)
	if err != nil {
		e.fail(fmt.Errorf("failed to decrypt %s_ENC: %w", key, err))
		return ""
	}
	return value
}

func (e *env) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
