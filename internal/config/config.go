// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/govalues/money"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name, e.g. BANKING_HTTP_ADDR.
const Prefix = "banking"

type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`

	Currency            string `envconfig:"CURRENCY" default:"INR"`
	StatementTZ         string `envconfig:"STATEMENT_TZ" default:"UTC"`
	TopAccountThreshold string `envconfig:"TOP_ACCOUNT_THRESHOLD" default:"100000"`

	// StatementCacheTTL bounds how long a closed month's statement stays cached.
	StatementCacheTTL time.Duration `envconfig:"STATEMENT_CACHE_TTL" default:"24h"`

	JWTSecret   string `envconfig:"JWT_HS256_SECRET"`
	JWTIssuer   string `envconfig:"JWT_ISSUER"`
	JWTAudience string `envconfig:"JWT_AUDIENCE"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"0"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	DevSeed   bool   `envconfig:"DEV_SEED" default:"false"`
}

// Load reads envFiles (missing files are ignored) and then the process
// environment. Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, err
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) validate() error {
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if _, err := money.ParseCurr(c.Currency); err != nil {
		return fmt.Errorf("invalid currency %q: %w", c.Currency, err)
	}
	if _, err := time.LoadLocation(c.StatementTZ); err != nil {
		return fmt.Errorf("invalid statement timezone %q: %w", c.StatementTZ, err)
	}
	if _, err := c.Threshold(); err != nil {
		return fmt.Errorf("invalid top account threshold %q: %w", c.TopAccountThreshold, err)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("rate limit values must be >= 0")
	}
	return nil
}

// Location returns the statement time zone. validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StatementTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Threshold parses the admin top-account threshold in the ledger currency.
func (c Config) Threshold() (money.Amount, error) {
	return money.ParseAmount(c.Currency, strings.TrimSpace(c.TopAccountThreshold))
}

// ParseLogLevel maps config values to slog.Leveler.
func ParseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds the process logger: JSON by default, text when LOG_FORMAT=text.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(c.LogLevel)}
	if strings.EqualFold(strings.TrimSpace(c.LogFormat), "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
