package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port               string `mapstructure:"port"`
	PostgresDSN        string `mapstructure:"postgres_dsn"`
	RedisAddr          string `mapstructure:"redis_addr"`
	ProductionCacheTTL int    `mapstructure:"production_cache_ttl_seconds"`
	HeadshotAPIURL     string `mapstructure:"headshot_api_url"`
	PaymentAPIURL      string `mapstructure:"payment_api_url"`
	PaymentAPIKey      string `mapstructure:"payment_api_key"`
	PaymentCurrency    string `mapstructure:"payment_currency"`
	NATSURL            string `mapstructure:"nats_url"`
	TemporalAddress    string `mapstructure:"temporal_address"`
	TemporalNamespace  string `mapstructure:"temporal_namespace"`
	TemporalDisabled   bool   `mapstructure:"temporal_disabled"`
	StaleAfterMinutes  int    `mapstructure:"session_stale_after_minutes"`
	LogLevel           string `mapstructure:"log_level"`
}

var configKeys = []string{
	"port",
	"postgres_dsn",
	"redis_addr",
	"production_cache_ttl_seconds",
	"headshot_api_url",
	"payment_api_url",
	"payment_api_key",
	"payment_currency",
	"nats_url",
	"temporal_address",
	"temporal_namespace",
	"temporal_disabled",
	"session_stale_after_minutes",
	"log_level",
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("production_cache_ttl_seconds", 300)
	v.SetDefault("payment_currency", "usd")
	v.SetDefault("temporal_address", client.DefaultHostPort)
	v.SetDefault("temporal_namespace", client.DefaultNamespace)
	v.SetDefault("temporal_disabled", false)
	v.SetDefault("session_stale_after_minutes", 1440)
	v.SetDefault("log_level", "info")

	// Explicit bindings so Unmarshal sees keys that have no default.
	for _, key := range configKeys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.trim()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) trim() {
	for _, field := range []*string{
		&c.Port, &c.PostgresDSN, &c.RedisAddr, &c.HeadshotAPIURL, &c.PaymentAPIURL,
		&c.PaymentAPIKey, &c.NATSURL, &c.TemporalAddress, &c.TemporalNamespace, &c.LogLevel,
	} {
		*field = strings.TrimSpace(*field)
	}
	c.PaymentCurrency = strings.ToLower(strings.TrimSpace(c.PaymentCurrency))
}

func (c Config) validate() error {
	if c.ProductionCacheTTL <= 0 {
		return fmt.Errorf("PRODUCTION_CACHE_TTL_SECONDS must be a positive integer")
	}
	if c.StaleAfterMinutes <= 0 {
		return fmt.Errorf("SESSION_STALE_AFTER_MINUTES must be a positive integer")
	}
	if len(c.PaymentCurrency) != 3 {
		return fmt.Errorf("PAYMENT_CURRENCY must be a three letter ISO code")
	}
	return nil
}

// CacheTTL is the production cache expiry.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.ProductionCacheTTL) * time.Second
}

// StaleAfter is how long an unpaid session may sit idle before it is purged.
func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterMinutes) * time.Minute
}
