package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/config"
	"github.com/warp/shift-payroll/money"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PAYROLL_ADDR", "PAYROLL_DATABASE_URL", "PAYROLL_TIMEZONE",
		"PAYROLL_TIMEZONE_TTL", "PAYROLL_WORKERS", "PAYROLL_LOG_LEVEL", "PAYROLL_ALLOWED_ORIGINS", "PAYROLL_MAX_AMOUNT", "PAYROLL_MONTH_CLOSE_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "payroll.db", cfg.DatabaseURL)
	assert.Equal(t, "Asia/Jerusalem", cfg.Timezone)
	assert.Equal(t, 60*time.Second, cfg.TimezoneTTL)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 100000.0, cfg.Bounds().Max)
	assert.Equal(t, time.Hour, cfg.MonthClose)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PAYROLL_ADDR", ":9090")
	t.Setenv("PAYROLL_TIMEZONE_TTL", "5m")
	t.Setenv("PAYROLL_WORKERS", "8")
	t.Setenv("PAYROLL_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PAYROLL_LOG_LEVEL", "debug")

	cfg := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.TimezoneTTL)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// GIVEN: a .env file and one variable also set in the environment
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAYROLL_TIMEZONE=UTC\nPAYROLL_WORKERS=2\n"), 0o600))
	t.Setenv("PAYROLL_WORKERS", "6")
	t.Setenv("PAYROLL_TIMEZONE", "")
	os.Unsetenv("PAYROLL_TIMEZONE")

	// WHEN
	cfg := config.Load(path)

	// THEN: .env fills gaps, the environment wins
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 6, cfg.Workers)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := config.Config{
		Addr:        ":8080",
		DatabaseURL: "payroll.db",
		Timezone:    "Nowhere/Land",
		TimezoneTTL: time.Minute,
		Workers:     0,
		LogLevel:    "loud",
		MaxAmount:   100,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYROLL_TIMEZONE")
	assert.Contains(t, err.Error(), "PAYROLL_WORKERS")
	assert.Contains(t, err.Error(), "PAYROLL_LOG_LEVEL")
}

func TestValidate_MaxAmountMustFitAgorot(t *testing.T) {
	cfg := config.Config{
		Addr:        ":8080",
		DatabaseURL: "payroll.db",
		Timezone:    "UTC",
		TimezoneTTL: time.Minute,
		Workers:     1,
		LogLevel:    "info",
		MaxAmount:   1e17,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYROLL_MAX_AMOUNT")
	assert.ErrorIs(t, err, money.ErrInvalidBounds)

	cfg.MaxAmount = money.MaxShekels
	assert.NoError(t, cfg.Validate())
}
