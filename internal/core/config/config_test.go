// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `
[workspace]
root = "./ws"
prelude = ["std::prelude::v1", "app::prelude"]

[[workspace.members]]
name = "my-app"
root = "app/src/lib.rs"

[[workspace.members]]
name = "legacy"
root = "legacy/lib.rs"
edition = "2015"

[exclude]
dirs = [".git", "vendor"]
files = ["**/generated_*.rs"]

[resolve]
cache_capacity = 128

[watch]
debounce = "1s"
reload_rate = 0.5

[observability]
enable_metrics = true
metrics_address = ":9000"
`
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workspace.Root != "./ws" {
		t.Errorf("expected workspace root ./ws, got %q", cfg.Workspace.Root)
	}
	if len(cfg.Workspace.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(cfg.Workspace.Members))
	}
	if got := cfg.Workspace.Members[0]; got.Name != "my_app" || got.Edition != "2021" {
		t.Errorf("member not normalized: %+v", got)
	}
	if got := cfg.Workspace.Members[1].Edition; got != "2015" {
		t.Errorf("expected edition 2015, got %q", got)
	}
	if !cfg.StdEnabled() {
		t.Error("expected std to default to enabled")
	}
	if cfg.Resolve.CacheCapacity != 128 {
		t.Errorf("expected cache capacity 128, got %d", cfg.Resolve.CacheCapacity)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.ReloadRate != 0.5 || cfg.Watch.ReloadBurst != 1 {
		t.Errorf("unexpected reload limits: %+v", cfg.Watch)
	}
	if cfg.Crates.IndexPath != "target/pathres/crates.db" {
		t.Errorf("expected default index path, got %q", cfg.Crates.IndexPath)
	}
	if cfg.History.Enabled || cfg.History.Path != "target/pathres/history.db" {
		t.Errorf("unexpected history defaults %+v", cfg.History)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if len(cfg.Workspace.Prelude) != 1 || cfg.Workspace.Prelude[0] != "std::prelude::v1" {
		t.Errorf("unexpected prelude %v", cfg.Workspace.Prelude)
	}
	if cfg.Resolve.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("expected default capacity, got %d", cfg.Resolve.CacheCapacity)
	}
	if len(cfg.Exclude.Dirs) != 2 {
		t.Errorf("expected default excludes, got %v", cfg.Exclude.Dirs)
	}
}

func TestParse_NoStdDropsDefaultPrelude(t *testing.T) {
	cfg, err := Parse("[workspace]\nstd = false\n")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StdEnabled() {
		t.Error("expected std disabled")
	}
	if len(cfg.Workspace.Prelude) != 0 {
		t.Errorf("expected no prelude, got %v", cfg.Workspace.Prelude)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unsupported version",
			content: "version = 3",
			wantErr: "unsupported config version",
		},
		{
			name:    "bad crate name",
			content: "[[workspace.members]]\nname = \"1bad\"\nroot = \"lib.rs\"",
			wantErr: "not a valid crate name",
		},
		{
			name:    "std clash",
			content: "[[workspace.members]]\nname = \"std\"\nroot = \"lib.rs\"",
			wantErr: "clashes with the built-in",
		},
		{
			name:    "root not rust",
			content: "[[workspace.members]]\nname = \"a\"\nroot = \"lib.go\"",
			wantErr: "must name a .rs file",
		},
		{
			name:    "unknown edition",
			content: "[[workspace.members]]\nname = \"a\"\nroot = \"lib.rs\"\nedition = \"2019\"",
			wantErr: "edition must be one of",
		},
		{
			name:    "duplicate crate",
			content: "[[workspace.members]]\nname = \"a\"\nroot = \"a.rs\"\n[[workspace.members]]\nname = \"a\"\nroot = \"b.rs\"",
			wantErr: "duplicate crate name",
		},
		{
			name:    "prelude path",
			content: "[workspace]\nprelude = [\"std::\"]",
			wantErr: "is not a module path",
		},
		{
			name:    "bad glob",
			content: "[exclude]\nfiles = [\"[a-\"]",
			wantErr: "exclude.files[0]",
		},
		{
			name:    "negative cache",
			content: "[resolve]\ncache_capacity = -1",
			wantErr: "cache_capacity must be positive",
		},
		{
			name:    "negative rate",
			content: "[watch]\nreload_rate = -1.0",
			wantErr: "reload_rate must be positive",
		},
		{
			name:    "metrics address",
			content: "[observability]\nenable_metrics = true\nmetrics_address = \"nope\"",
			wantErr: "metrics_address",
		},
		{
			name:    "tracing endpoint",
			content: "[observability]\nenable_tracing = true",
			wantErr: "otlp_endpoint must be set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PATHRES_RESOLVE_CACHE_CAPACITY", "77")
	t.Setenv("PATHRES_WATCH_DEBOUNCE", "2s")
	t.Setenv("PATHRES_OBSERVABILITY_ENABLE_TRACING", "TRUE")
	t.Setenv("PATHRES_OBSERVABILITY_OTLP_ENDPOINT", "localhost:4317")

	cfg, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Resolve.CacheCapacity != 77 {
		t.Errorf("expected 77, got %d", cfg.Resolve.CacheCapacity)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.Watch.Debounce)
	}
	if !cfg.Observability.EnableTracing || cfg.Observability.OTLPEndpoint != "localhost:4317" {
		t.Errorf("tracing overrides not applied: %+v", cfg.Observability)
	}
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Workspace.Members = []Member{{Name: "a", Root: "crates/a/lib.rs", Edition: "2018"}}

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.Root != filepath.Clean(root) {
		t.Errorf("expected root %q, got %q", root, got.Root)
	}
	if got.IndexPath != filepath.Join(root, "target/pathres/crates.db") {
		t.Errorf("unexpected index path %q", got.IndexPath)
	}
	if got.HistoryPath != filepath.Join(root, "target/pathres/history.db") {
		t.Errorf("unexpected history path %q", got.HistoryPath)
	}
	if len(got.Crates) != 1 || got.Crates[0].Root != filepath.Join(root, "crates/a/lib.rs") {
		t.Errorf("unexpected crates %+v", got.Crates)
	}
}

func TestResolvePaths_ImplicitCrate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "my-crate")
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.rs"), []byte("fn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolvePaths(DefaultConfig(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Crates) != 1 || got.Crates[0].Name != "my_crate" {
		t.Fatalf("unexpected crates %+v", got.Crates)
	}

	if _, err := ResolvePaths(DefaultConfig(), t.TempDir()); err == nil {
		t.Fatal("expected an error without a crate root")
	}
}

func TestDetectConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := DetectConfigFile(nested); got != "" {
		t.Fatalf("expected no config, got %q", got)
	}
	want := filepath.Join(root, "a", DefaultFile)
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DetectConfigFile(nested); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
