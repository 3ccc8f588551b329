// ABOUTME: Configuration for Zoho credentials, storage paths, and sync tuning
// ABOUTME: Loads .env files, binds environment variables through viper, applies XDG defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName is used for XDG data directories.
const AppName = "zohosync"

// Keys understood by Load. Credential keys use the ZOHO_ names the Catalyst
// functions were deployed with; everything else uses the ZOHOSYNC_ prefix.
const (
	ClientID       = "ZOHO_CRM_CLIENT_ID"
	ClientSecret   = "ZOHO_CRM_CLIENT_SECRET"
	RefreshToken   = "ZOHO_CRM_REFRESH_TOKEN"
	BooksOrgID     = "ZOHO_BOOKS_ORG_ID"
	AnalyticsOrgID = "ZOHO_ANALYTICS_ORG_ID"
	Environment    = "ZOHO_ENVIRONMENT"
	Domain         = "ZOHO_DOMAIN"

	DBPath       = "ZOHOSYNC_DB_PATH"
	CachePath    = "ZOHOSYNC_CACHE_PATH"
	CacheTTL     = "ZOHOSYNC_CACHE_TTL"
	LogLevel     = "ZOHOSYNC_LOG_LEVEL"
	LogFormat    = "ZOHOSYNC_LOG_FORMAT"
	ListenAddr   = "ZOHOSYNC_LISTEN_ADDR"
	SyncSchedule = "ZOHOSYNC_SYNC_SCHEDULE"
	BatchSize    = "ZOHOSYNC_BATCH_SIZE"
	PageSize     = "ZOHOSYNC_PAGE_SIZE"
	HTTPTimeout  = "ZOHOSYNC_HTTP_TIMEOUT"
	TokenCache   = "ZOHOSYNC_TOKEN_CACHE"
	TokenMargin  = "ZOHOSYNC_TOKEN_MARGIN"
	RateLimit    = "ZOHOSYNC_RATE_LIMIT"
	RateBurst    = "ZOHOSYNC_RATE_BURST"
	EnvFile      = "ZOHOSYNC_ENV_FILE"
)

// Config is the immutable service configuration.
type Config struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	BooksOrgID     string
	AnalyticsOrgID string
	Environment    string
	Domain         string

	DBPath       string
	CachePath    string
	CacheTTL     time.Duration
	LogLevel     string
	LogFormat    string
	ListenAddr   string
	SyncSchedule string

	BatchSize   int
	PageSize    int
	HTTPTimeout time.Duration

	TokenCache  bool
	TokenMargin time.Duration
	RateLimit   float64
	RateBurst   int
}

// DataDir returns the XDG data directory for the service.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Load reads configuration from the environment. If envFile is non-empty it
// is loaded first; otherwise a .env in the working directory is loaded when
// present. Variables already set in the process environment win.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = os.Getenv(EnvFile)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	options := viper.New()

	options.SetDefault(Environment, "sandbox")
	options.SetDefault(Domain, "com")
	options.SetDefault(DBPath, filepath.Join(DataDir(), "zohosync.db"))
	options.SetDefault(CachePath, filepath.Join(DataDir(), "cache"))
	options.SetDefault(CacheTTL, "5m")
	options.SetDefault(LogLevel, "info")
	options.SetDefault(LogFormat, "text")
	options.SetDefault(ListenAddr, ":9000")
	options.SetDefault(SyncSchedule, "@every 1h")
	options.SetDefault(BatchSize, 100)
	options.SetDefault(PageSize, 200)
	options.SetDefault(HTTPTimeout, "30s")
	options.SetDefault(TokenCache, false)
	options.SetDefault(TokenMargin, "5m")
	options.SetDefault(RateLimit, 10.0)
	options.SetDefault(RateBurst, 5)

	for _, key := range []string{
		ClientID, ClientSecret, RefreshToken, BooksOrgID, AnalyticsOrgID, Environment, Domain,
		DBPath, CachePath, CacheTTL, LogLevel, LogFormat, ListenAddr, SyncSchedule,
		BatchSize, PageSize, HTTPTimeout, TokenCache, TokenMargin, RateLimit, RateBurst,
	} {
		if err := options.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		ClientID:       options.GetString(ClientID),
		ClientSecret:   options.GetString(ClientSecret),
		RefreshToken:   options.GetString(RefreshToken),
		BooksOrgID:     options.GetString(BooksOrgID),
		AnalyticsOrgID: options.GetString(AnalyticsOrgID),
		Environment:    options.GetString(Environment),
		Domain:         strings.TrimPrefix(options.GetString(Domain), "."),
		DBPath:         options.GetString(DBPath),
		CachePath:      options.GetString(CachePath),
		CacheTTL:       options.GetDuration(CacheTTL),
		LogLevel:       options.GetString(LogLevel),
		LogFormat:      options.GetString(LogFormat),
		ListenAddr:     options.GetString(ListenAddr),
		SyncSchedule:   options.GetString(SyncSchedule),
		BatchSize:      options.GetInt(BatchSize),
		PageSize:       options.GetInt(PageSize),
		HTTPTimeout:    options.GetDuration(HTTPTimeout),
		TokenCache:     options.GetBool(TokenCache),
		TokenMargin:    options.GetDuration(TokenMargin),
		RateLimit:      options.GetFloat64(RateLimit),
		RateBurst:      options.GetInt(RateBurst),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the tuning values. Credentials are not required here so
// that commands like `serve` can start without Zoho access; the token
// manager reports missing credentials as an auth failure instead.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid %s %d: must be >= 1", BatchSize, c.BatchSize)
	}
	if c.PageSize < 1 || c.PageSize > 200 {
		return fmt.Errorf("invalid %s %d: must be between 1 and 200", PageSize, c.PageSize)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid %s %s: must be positive", HTTPTimeout, c.HTTPTimeout)
	}
	if c.TokenMargin < 0 {
		return fmt.Errorf("invalid %s %s: must not be negative", TokenMargin, c.TokenMargin)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("invalid %s %v: must be positive", RateLimit, c.RateLimit)
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	return nil
}

// HasCredentials reports whether the OAuth refresh credentials are present.
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", ClientID, mask(c.ClientID))
	fmt.Fprintf(&b, "%s: %s\n", ClientSecret, mask(c.ClientSecret))
	fmt.Fprintf(&b, "%s: %s\n", RefreshToken, mask(c.RefreshToken))
	fmt.Fprintf(&b, "%s: %s\n", BooksOrgID, c.BooksOrgID)
	fmt.Fprintf(&b, "%s: %s\n", AnalyticsOrgID, c.AnalyticsOrgID)
	fmt.Fprintf(&b, "%s: %s\n", Environment, c.Environment)
	fmt.Fprintf(&b, "%s: %s\n", Domain, c.Domain)
	fmt.Fprintf(&b, "%s: %s\n", DBPath, c.DBPath)
	fmt.Fprintf(&b, "%s: %s\n", CachePath, c.CachePath)
	fmt.Fprintf(&b, "%s: %s\n", SyncSchedule, c.SyncSchedule)
	fmt.Fprintf(&b, "%s: %d\n", BatchSize, c.BatchSize)
	fmt.Fprintf(&b, "%s: %d\n", PageSize, c.PageSize)
	fmt.Fprintf(&b, "%s: %s\n", HTTPTimeout, c.HTTPTimeout)
	fmt.Fprintf(&b, "%s: %t\n", TokenCache, c.TokenCache)
	fmt.Fprintf(&b, "%s: %s\n", TokenMargin, c.TokenMargin)
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
