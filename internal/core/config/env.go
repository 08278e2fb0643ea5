package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PATHRES_[SECTION]_[KEY] (e.g., PATHRES_RESOLVE_CACHE_CAPACITY).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Workspace.Root, "PATHRES_WORKSPACE_ROOT")

	setEnvInt(&cfg.Resolve.CacheCapacity, "PATHRES_RESOLVE_CACHE_CAPACITY")

	setEnvDuration(&cfg.Watch.Debounce, "PATHRES_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.ReloadRate, "PATHRES_WATCH_RELOAD_RATE")

	setEnvString(&cfg.Crates.IndexPath, "PATHRES_CRATES_INDEX_PATH")

	setEnvBool(&cfg.History.Enabled, "PATHRES_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "PATHRES_HISTORY_PATH")

	setEnvBool(&cfg.Observability.EnableMetrics, "PATHRES_OBSERVABILITY_ENABLE_METRICS")
	setEnvString(&cfg.Observability.MetricsAddress, "PATHRES_OBSERVABILITY_METRICS_ADDRESS")
	setEnvBool(&cfg.Observability.EnableTracing, "PATHRES_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "PATHRES_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
