package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	WatchPaths []string      `toml:"watch_paths"`
	Registry   Registry      `toml:"registry"`
	Exclude    Exclude       `toml:"exclude"`
	Watch      Watch         `toml:"watch"`
	Server     Server        `toml:"server"`
	History    History       `toml:"history"`
	Observ     Observability `toml:"observability"`
}

type Registry struct {
	// Dir overrides the registry cache root. Empty means the env/default
	// chain (MASMNAV_REGISTRY_DIR, CARGO_HOME, ~/.cargo/registry/src).
	Dir string `toml:"dir"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Server struct {
	RateLimitEnabled  bool `toml:"rate_limit_enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Port         int    `toml:"port"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	return &cfg, nil
}

// Default returns a usable config when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "target"}
	}
	if cfg.Server.RequestsPerMinute == 0 {
		cfg.Server.RequestsPerMinute = 120
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 20
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "masmnav_history.db"
	}
	if cfg.Observ.Port == 0 {
		cfg.Observ.Port = 9090
	}
}
