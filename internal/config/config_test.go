package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "INR", c.Currency)
	assert.Equal(t, time.UTC, c.Location())
	assert.Equal(t, 24*time.Hour, c.StatementCacheTTL)
	assert.Empty(t, c.DatabaseURL)
	assert.False(t, c.DevSeed)

	th, err := c.Threshold()
	require.NoError(t, err)
	assert.Equal(t, "100000", th.Decimal().Trim(0).String())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BANKING_HTTP_ADDR", ":9090")
	t.Setenv("BANKING_CURRENCY", " usd ")
	t.Setenv("BANKING_STATEMENT_TZ", "Asia/Kolkata")
	t.Setenv("BANKING_RATE_LIMIT_RPS", "2.5")
	t.Setenv("BANKING_DEV_SEED", "true")

	c, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "Asia/Kolkata", c.Location().String())
	assert.Equal(t, 2.5, c.RateLimitRPS)
	assert.True(t, c.DevSeed)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BANKING_TOP_ACCOUNT_THRESHOLD=5000\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BANKING_TOP_ACCOUNT_THRESHOLD") })

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "5000", c.TopAccountThreshold)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"BANKING_CURRENCY":              "XYZW",
		"BANKING_STATEMENT_TZ":          "Mars/Olympus",
		"BANKING_TOP_ACCOUNT_THRESHOLD": "lots",
		"BANKING_RATE_LIMIT_BURST":      "-1",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Config{LogLevel: "warn", LogFormat: "text"}.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "level=WARN"))

	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("nonsense"))
}
