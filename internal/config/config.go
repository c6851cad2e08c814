package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr         string
	DBPath           string
	InitialBalance   decimal.Decimal
	PriceInterval    time.Duration
	PredictionWindow time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		DBPath:   getEnvOrDefault("DB_PATH", "quickplay.db"),
	}

	balance, err := decimal.NewFromString(getEnvOrDefault("INITIAL_BALANCE", "2.0"))
	if err != nil {
		return nil, fmt.Errorf("INITIAL_BALANCE: %w", err)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("INITIAL_BALANCE must be non-negative")
	}
	cfg.InitialBalance = balance

	cfg.PriceInterval, err = parseDuration("PRICE_INTERVAL", "2s")
	if err != nil {
		return nil, err
	}
	cfg.PredictionWindow, err = parseDuration("PREDICTION_WINDOW", "120s")
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
