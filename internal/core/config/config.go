package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFile          = "pathres.toml"
	DefaultCacheCapacity = 4096
)

type Config struct {
	Version       int           `toml:"version"`
	Workspace     Workspace     `toml:"workspace"`
	Exclude       Exclude       `toml:"exclude"`
	Resolve       Resolve       `toml:"resolve"`
	Watch         Watch         `toml:"watch"`
	Crates        Crates        `toml:"crates"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Workspace struct {
	Root string `toml:"root"`
	// Members are the crates of the workspace; an empty list means a single
	// crate rooted at src/lib.rs or src/main.rs.
	Members []Member `toml:"members"`
	// Std loads the built-in standard library crate.
	Std *bool `toml:"std"`
	// Prelude lists module paths whose public items are implicitly in scope.
	Prelude []string `toml:"prelude"`
}

type Member struct {
	Name    string `toml:"name"`
	Root    string `toml:"root"`
	Edition string `toml:"edition"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Resolve struct {
	CacheCapacity int `toml:"cache_capacity"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// ReloadRate caps workspace reloads per second; ReloadBurst is the
	// number of reloads allowed back to back.
	ReloadRate  float64 `toml:"reload_rate"`
	ReloadBurst int     `toml:"reload_burst"`
}

type Crates struct {
	IndexPath string `toml:"index_path"`
}

// History records the outcome of every check run.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	EnableMetrics  bool   `toml:"enable_metrics"`
	MetricsAddress string `toml:"metrics_address"`
	EnableTracing  bool   `toml:"enable_tracing"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
}

// DefaultConfig is the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	normalize(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates a TOML document.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateWorkspace(&cfg); err != nil {
		return nil, err
	}
	if err := validateExclude(&cfg); err != nil {
		return nil, err
	}
	if err := validateResolve(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Workspace.Root) == "" {
		cfg.Workspace.Root = "."
	}
	if cfg.Workspace.Std == nil {
		enabled := true
		cfg.Workspace.Std = &enabled
	}
	if len(cfg.Workspace.Prelude) == 0 && cfg.StdEnabled() {
		cfg.Workspace.Prelude = []string{"std::prelude::v1"}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "target"}
	}
	if cfg.Resolve.CacheCapacity == 0 {
		cfg.Resolve.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.ReloadRate == 0 {
		cfg.Watch.ReloadRate = 2
	}
	if cfg.Watch.ReloadBurst == 0 {
		cfg.Watch.ReloadBurst = 1
	}
	if strings.TrimSpace(cfg.Crates.IndexPath) == "" {
		cfg.Crates.IndexPath = "target/pathres/crates.db"
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "target/pathres/history.db"
	}
	if strings.TrimSpace(cfg.Observability.MetricsAddress) == "" {
		cfg.Observability.MetricsAddress = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "pathres"
	}
}

func normalize(cfg *Config) {
	cfg.Workspace.Root = strings.TrimSpace(cfg.Workspace.Root)
	for i := range cfg.Workspace.Members {
		m := &cfg.Workspace.Members[i]
		m.Name = strings.ReplaceAll(strings.TrimSpace(m.Name), "-", "_")
		m.Root = strings.TrimSpace(m.Root)
		m.Edition = strings.TrimSpace(m.Edition)
		if m.Edition == "" {
			m.Edition = "2021"
		}
	}
	cfg.Exclude.Dirs = trimAll(cfg.Exclude.Dirs)
	cfg.Exclude.Files = trimAll(cfg.Exclude.Files)
	cfg.Workspace.Prelude = trimAll(cfg.Workspace.Prelude)
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StdEnabled reports whether the built-in standard library is loaded.
func (c *Config) StdEnabled() bool {
	return c.Workspace.Std == nil || *c.Workspace.Std
}
