package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var (
	crateNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	editions         = map[string]bool{"2015": true, "2018": true, "2021": true, "2024": true}
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateWorkspace(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Workspace.Members))
	for i, m := range cfg.Workspace.Members {
		ref := fmt.Sprintf("workspace.members[%d]", i)
		if !crateNamePattern.MatchString(m.Name) {
			return fmt.Errorf("%s.name %q is not a valid crate name", ref, m.Name)
		}
		if m.Name == "std" && cfg.StdEnabled() {
			return fmt.Errorf("%s.name %q clashes with the built-in standard library", ref, m.Name)
		}
		if m.Root == "" {
			return fmt.Errorf("%s.root must not be empty", ref)
		}
		if !strings.HasSuffix(m.Root, ".rs") {
			return fmt.Errorf("%s.root must name a .rs file, got %q", ref, m.Root)
		}
		if !editions[m.Edition] {
			return fmt.Errorf("%s.edition must be one of 2015, 2018, 2021, 2024, got %q", ref, m.Edition)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate crate name %q", m.Name)
		}
		seen[m.Name] = true
	}
	for i, p := range cfg.Workspace.Prelude {
		for _, seg := range strings.Split(p, "::") {
			if !crateNamePattern.MatchString(seg) {
				return fmt.Errorf("workspace.prelude[%d] %q is not a module path", i, p)
			}
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("exclude.files[%d] %q: %w", i, pattern, err)
		}
	}
	for i, dir := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(dir, '/'); err != nil {
			return fmt.Errorf("exclude.dirs[%d] %q: %w", i, dir, err)
		}
	}
	return nil
}

func validateResolve(cfg *Config) error {
	if cfg.Resolve.CacheCapacity < 0 {
		return fmt.Errorf("resolve.cache_capacity must be positive, got %d", cfg.Resolve.CacheCapacity)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.ReloadRate <= 0 {
		return fmt.Errorf("watch.reload_rate must be positive, got %v", cfg.Watch.ReloadRate)
	}
	if cfg.Watch.ReloadBurst < 1 {
		return fmt.Errorf("watch.reload_burst must be at least 1, got %d", cfg.Watch.ReloadBurst)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	o := cfg.Observability
	if o.EnableMetrics {
		if _, _, err := net.SplitHostPort(o.MetricsAddress); err != nil {
			return fmt.Errorf("observability.metrics_address %q: %w", o.MetricsAddress, err)
		}
	}
	if o.EnableTracing && strings.TrimSpace(o.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must be set when tracing is enabled")
	}
	return nil
}
