package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// TaxPolicy holds the report tax parameters. The exemption threshold and
// rates differ between FIRS revisions, so they are configuration, not code:
// revenue strictly below ExemptionThreshold is CIT-exempt, at or above it
// the business is liable.
type TaxPolicy struct {
	VATRate            float64
	CITRate            float64
	ExemptionThreshold float64
}

type Config struct {
	Port        int
	DatabaseURL string
	DBMaxConns  int
	JWTSecret   string
	LogLevel    string
	LogFormat   string
	Tax         TaxPolicy
}

func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		VATRate:            0.075,
		CITRate:            0.30,
		ExemptionThreshold: 25_000_000,
	}
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:       8080,
		DBMaxConns: 10,
		LogLevel:   "info",
		LogFormat:  "text",
		Tax:        DefaultTaxPolicy(),
	}

	if raw := lookup("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT: %q", raw)
		}
		cfg.Port = port
	}

	cfg.DatabaseURL = lookup("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required (environment variable or .env)")
	}

	if raw := lookup("DB_MAX_CONNS"); raw != "" {
		conns, err := strconv.Atoi(raw)
		if err != nil || conns <= 0 {
			return Config{}, fmt.Errorf("invalid DB_MAX_CONNS: %q", raw)
		}
		cfg.DBMaxConns = conns
	}

	cfg.JWTSecret = lookup("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required (environment variable or .env)")
	}

	if raw := lookup("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw := lookup("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = strings.ToLower(raw)
	}

	var err error
	if cfg.Tax.VATRate, err = lookupRate("VAT_RATE", cfg.Tax.VATRate); err != nil {
		return Config{}, err
	}
	if cfg.Tax.CITRate, err = lookupRate("CIT_RATE", cfg.Tax.CITRate); err != nil {
		return Config{}, err
	}
	if cfg.Tax.ExemptionThreshold, err = lookupRate("CIT_EXEMPTION_THRESHOLD", cfg.Tax.ExemptionThreshold); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func lookupRate(key string, defaultValue float64) (float64, error) {
	raw := lookup(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return value, nil
}
