package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/vngold/internal/db"
	"github.com/tropicaldog17/vngold/internal/models"
)

// Config represents the application configuration.
type Config struct {
	HTTP    HTTPConfig    `toml:"http"`
	Cache   CacheConfig   `toml:"cache"`
	Storage StorageConfig `toml:"storage"`
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`
	Sources SourcesConfig `toml:"sources"`
	Land    LandConfig    `toml:"land"`
}

type HTTPConfig struct {
	TimeoutSeconds int               `toml:"timeout_seconds"`
	UserAgent      string            `toml:"user_agent"`
	Headers        map[string]string `toml:"headers"`
}

type CacheConfig struct {
	Dir        string `toml:"dir"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

type StorageConfig struct {
	// Driver selects the history backend: json, sqlite or postgres.
	Driver           string    `toml:"driver"`
	HistoryFile      string    `toml:"history_file"`
	PayloadFile      string    `toml:"payload_file"`
	LandLastGoodFile string    `toml:"land_last_good_file"`
	Database         db.Config `toml:"database"`
}

type HistoryConfig struct {
	Periods             []models.Period `toml:"periods"`
	SeedFallbackPeriods []string        `toml:"seed_fallback_periods"`
	SeedToleranceDays   int             `toml:"seed_tolerance_days"`
	LiveToleranceDays   int             `toml:"live_tolerance_days"`
	CoinGeckoMaxDays    int             `toml:"coingecko_max_days"`
}

type ServerConfig struct {
	Port                   int `toml:"port"`
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
}

type SourcesConfig struct {
	DojiURL            string `toml:"doji_url"`
	MihongURL          string `toml:"mihong_url"`
	SJCURL             string `toml:"sjc_url"`
	ChogiaAjaxURL      string `toml:"chogia_ajax_url"`
	EGCurrencyURL      string `toml:"egcurrency_url"`
	OpenERAPIURL       string `toml:"open_er_api_url"`
	CoinMarketCapURL   string `toml:"coinmarketcap_url"`
	CoinGeckoURL       string `toml:"coingecko_url"`
	CoinGeckoChartURL  string `toml:"coingecko_chart_url"`
	VietstockURL       string `toml:"vietstock_url"`
	VPSHistoryURL      string `toml:"vps_history_url"`
	CafeFURL           string `toml:"cafef_url"`
	WebgiaGoldURL      string `toml:"webgia_gold_url"`
	AlonhadatURL       string `toml:"alonhadat_url"`
	HomedyURL          string `toml:"homedy_url"`
	BlackMarketPremium string `toml:"black_market_premium"`
}

type LandConfig struct {
	Location    string `toml:"location"`
	MinValid    string `toml:"min_valid_vnd_per_m2"`
	MaxValid    string `toml:"max_valid_vnd_per_m2"`
	BenchmarkLo string `toml:"benchmark_min"`
	BenchmarkHi string `toml:"benchmark_max"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewDefaultConfig returns the built-in configuration.
func NewDefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			TimeoutSeconds: 10,
			UserAgent:      defaultUserAgent,
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9,vi;q=0.8",
				"Cache-Control":   "max-age=0",
			},
		},
		Cache: CacheConfig{Dir: ".cache", TTLSeconds: 600},
		Storage: StorageConfig{
			Driver:           "json",
			HistoryFile:      "data/history.json",
			PayloadFile:      "public/data.json",
			LandLastGoodFile: "data/land_last_good.json",
			Database:         *db.NewConfig(),
		},
		History: HistoryConfig{
			Periods: []models.Period{
				{Label: "1D", Days: 1},
				{Label: "1W", Days: 7},
				{Label: "1M", Days: 30},
				{Label: "1Y", Days: 365},
				{Label: "3Y", Days: 1095},
			},
			SeedFallbackPeriods: []string{"3Y"},
			SeedToleranceDays:   45,
			LiveToleranceDays:   3,
			CoinGeckoMaxDays:    365,
		},
		Server: ServerConfig{Port: 8080, RefreshIntervalSeconds: 600},
		Sources: SourcesConfig{
			DojiURL:            "http://giavang.doji.vn/api/giavang/?api_key=258fbd2a72ce8481089d88c678e9fe4f",
			MihongURL:          "https://www.mihong.vn/en/vietnam-gold-pricings",
			SJCURL:             "https://sjc.com.vn/gia-vang-online",
			ChogiaAjaxURL:      "https://chogia.vn/wp-admin/admin-ajax.php",
			EGCurrencyURL:      "https://egcurrency.com/en/currency/USD-to-VND/blackMarket",
			OpenERAPIURL:       "https://open.er-api.com/v6/latest/USD",
			CoinMarketCapURL:   "https://coinmarketcap.com/currencies/bitcoin/btc/vnd/",
			CoinGeckoURL:       "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=vnd",
			CoinGeckoChartURL:  "https://api.coingecko.com/api/v3/coins/bitcoin/market_chart?vs_currency=vnd",
			VietstockURL:       "https://banggia.vietstock.vn/bang-gia/vn30",
			VPSHistoryURL:      "https://histdatafeed.vps.com.vn/tradingview/history?symbol=VN30&resolution=D",
			CafeFURL:           "https://s.cafef.vn/hastc/VN30-INDEX.chn",
			WebgiaGoldURL:      "https://webgia.com/gia-vang/sjc/bieu-do-1-nam.html",
			AlonhadatURL:       "https://alonhadat.com.vn/nha-dat/can-ban/nha-mat-tien/2/ho-chi-minh/quan-11.html",
			HomedyURL:          "https://homedy.com/ban-nha-mat-pho-duong-hong-bang-quan-11-tp-ho-chi-minh",
			BlackMarketPremium: "1.025",
		},
		Land: LandConfig{
			Location:    "Hong Bang Street, District 11, Ho Chi Minh City",
			MinValid:    "50000000",
			MaxValid:    "1000000000",
			BenchmarkLo: "230000000",
			BenchmarkHi: "280000000",
		},
	}
}

// Load loads configuration with priority: defaults -> files -> .env -> env.
// Later files override earlier files.
func Load(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies VNGOLD_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setInt("VNGOLD_REQUEST_TIMEOUT", &config.HTTP.TimeoutSeconds)
	setInt("VNGOLD_CACHE_TTL", &config.Cache.TTLSeconds)
	setString("VNGOLD_CACHE_DIR", &config.Cache.Dir)
	setString("VNGOLD_STORE_DRIVER", &config.Storage.Driver)
	setString("VNGOLD_HISTORY_FILE", &config.Storage.HistoryFile)
	setString("VNGOLD_PAYLOAD_FILE", &config.Storage.PayloadFile)
	setString("VNGOLD_LAND_LAST_GOOD_FILE", &config.Storage.LandLastGoodFile)
	setInt("VNGOLD_SERVER_PORT", &config.Server.Port)
	setInt("VNGOLD_REFRESH_INTERVAL", &config.Server.RefreshIntervalSeconds)
	setString("VNGOLD_BLACK_MARKET_PREMIUM", &config.Sources.BlackMarketPremium)

	if v := os.Getenv("VNGOLD_PERIODS"); v != "" {
		if periods, err := ParsePeriods(v); err == nil {
			config.History.Periods = periods
		}
	}
}

// ParsePeriods reads "1D=1,1W=7" into ordered periods.
func ParsePeriods(raw string) ([]models.Period, error) {
	var periods []models.Period
	for _, part := range strings.Split(raw, ",") {
		label, days, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("invalid period %q", part)
		}
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid days in period %q", part)
		}
		periods = append(periods, models.Period{Label: label, Days: n})
	}
	return periods, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive")
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative")
	}
	if c.Server.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("server.refresh_interval_seconds must be positive")
	}
	if len(c.History.Periods) == 0 {
		return fmt.Errorf("history.periods must not be empty")
	}
	seen := make(map[string]bool)
	for _, p := range c.History.Periods {
		if p.Label == "" || p.Days <= 0 {
			return fmt.Errorf("invalid history period %+v", p)
		}
		if seen[p.Label] {
			return fmt.Errorf("duplicate history period %s", p.Label)
		}
		seen[p.Label] = true
	}
	switch c.Storage.Driver {
	case "json", db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.PayloadFile == "" {
		return fmt.Errorf("storage.payload_file is required")
	}
	if _, err := decimal.NewFromString(c.Sources.BlackMarketPremium); err != nil {
		return fmt.Errorf("sources.black_market_premium: %w", err)
	}
	for name, v := range map[string]string{
		"land.min_valid_vnd_per_m2": c.Land.MinValid,
		"land.max_valid_vnd_per_m2": c.Land.MaxValid,
		"land.benchmark_min":        c.Land.BenchmarkLo,
		"land.benchmark_max":        c.Land.BenchmarkHi,
	} {
		if _, err := decimal.NewFromString(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Server.RefreshIntervalSeconds) * time.Second
}

// Premium is the multiplier applied to official USD/VND rates to
// approximate the free-market rate.
func (c *Config) Premium() decimal.Decimal {
	return decimal.RequireFromString(c.Sources.BlackMarketPremium)
}

// LongestPeriodDays is the widest configured lookback.
func (h HistoryConfig) LongestPeriodDays() int {
	longest := 0
	for _, p := range h.Periods {
		if p.Days > longest {
			longest = p.Days
		}
	}
	return longest
}

// UsesSeedFallback reports whether a period label may resolve directly
// against the seed table.
func (h HistoryConfig) UsesSeedFallback(label string) bool {
	for _, l := range h.SeedFallbackPeriods {
		if l == label {
			return true
		}
	}
	return false
}
