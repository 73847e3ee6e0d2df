package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MASMNAV_[SECTION]_[KEY] (e.g., MASMNAV_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Registry.Dir, "MASMNAV_REGISTRY_DIR")

	setEnvDuration(&cfg.Watch.Debounce, "MASMNAV_WATCH_DEBOUNCE")

	setEnvBool(&cfg.Server.RateLimitEnabled, "MASMNAV_SERVER_RATE_LIMIT_ENABLED")
	setEnvInt(&cfg.Server.RequestsPerMinute, "MASMNAV_SERVER_REQUESTS_PER_MINUTE")
	setEnvInt(&cfg.Server.Burst, "MASMNAV_SERVER_BURST")

	setEnvBool(&cfg.History.Enabled, "MASMNAV_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "MASMNAV_HISTORY_PATH")

	setEnvBool(&cfg.Observ.Enabled, "MASMNAV_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observ.Port, "MASMNAV_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observ.OTLPEndpoint, "MASMNAV_OBSERVABILITY_OTLP_ENDPOINT")
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
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
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
