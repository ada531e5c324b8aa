// Package config loads server settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/money"
)

type Config struct {
	Addr           string
	DatabaseURL    string
	Timezone       string
	TimezoneTTL    time.Duration
	Workers        int
	LogLevel       string
	AllowedOrigins []string
	MaxAmount      float64

	// MonthClose is the month-close scheduler interval. Zero disables it.
	MonthClose time.Duration
}

// Load reads .env when present, then the environment. Variables already
// set in the environment win over .env entries.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)

	return Config{
		Addr:           getEnv("PAYROLL_ADDR", ":8080"),
		DatabaseURL:    getEnv("PAYROLL_DATABASE_URL", "payroll.db"),
		Timezone:       getEnv("PAYROLL_TIMEZONE", "Asia/Jerusalem"),
		TimezoneTTL:    getEnvDuration("PAYROLL_TIMEZONE_TTL", calendar.DefaultZoneTTL),
		Workers:        getEnvInt("PAYROLL_WORKERS", 4),
		LogLevel:       getEnv("PAYROLL_LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("PAYROLL_ALLOWED_ORIGINS", []string{"*"}),
		MaxAmount:      getEnvFloat("PAYROLL_MAX_AMOUNT", money.DefaultBounds.Max),
		MonthClose:     getEnvDuration("PAYROLL_MONTH_CLOSE_INTERVAL", time.Hour),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("PAYROLL_ADDR is empty"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("PAYROLL_DATABASE_URL is empty"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("PAYROLL_TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.TimezoneTTL <= 0 {
		errs = append(errs, errors.New("PAYROLL_TIMEZONE_TTL must be positive"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("PAYROLL_WORKERS must be at least 1"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxAmount <= 0 {
		errs = append(errs, errors.New("PAYROLL_MAX_AMOUNT must be positive"))
	} else if err := c.Bounds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("PAYROLL_MAX_AMOUNT: %w", err))
	}
	if c.MonthClose < 0 {
		errs = append(errs, errors.New("PAYROLL_MONTH_CLOSE_INTERVAL must not be negative"))
	}
	return errors.Join(errs...)
}

// Bounds is the accepted shekel range for rates and bonus amounts.
func (c Config) Bounds() money.Bounds {
	return money.Bounds{Min: 0, Max: c.MaxAmount}
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("PAYROLL_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
