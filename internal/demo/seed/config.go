package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

// Config drives one seeding run.
type Config struct {
	DatabasePath string
	Count        int
	Seed         int64
	// Reset drops existing customers before inserting.
	Reset       bool
	ParquetPath string
	// DatabaseName names the published dataset in the object store.
	DatabaseName string
	Publish      bool
	Timeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		DatabasePath: "data/retail_sample.db",
		Count:        100,
		Seed:         42,
		Reset:        true,
		DatabaseName: "retail",
		Timeout:      time.Minute,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	applyString(lookup, "TEXTSQL_SEED_DB", &cfg.DatabasePath)
	applyString(lookup, "TEXTSQL_SEED_PARQUET_PATH", &cfg.ParquetPath)
	applyString(lookup, "TEXTSQL_SEED_DATABASE_NAME", &cfg.DatabaseName)
	if err := applyInt(lookup, "TEXTSQL_SEED_COUNT", &cfg.Count); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "TEXTSQL_SEED_RANDOM_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TEXTSQL_SEED_RESET", &cfg.Reset); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TEXTSQL_SEED_PUBLISH", &cfg.Publish); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TEXTSQL_SEED_TIMEOUT", &cfg.Timeout); err != nil {
		return Config{}, err
	}

	if cfg.DatabasePath == "" {
		return Config{}, fmt.Errorf("TEXTSQL_SEED_DB is required")
	}
	if cfg.Publish && cfg.DatabaseName == "" {
		return Config{}, fmt.Errorf("TEXTSQL_SEED_DATABASE_NAME is required when publishing")
	}
	if cfg.Count < 0 {
		return Config{}, fmt.Errorf("TEXTSQL_SEED_COUNT must be >= 0")
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("TEXTSQL_SEED_TIMEOUT must be > 0")
	}
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, dst *string) {
	if raw, ok := lookup(key); ok {
		*dst = strings.TrimSpace(raw)
	}
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
