package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	Root        string
	IndexPath   string
	HistoryPath string
	// Crates holds the crate root files in member order.
	Crates []ResolvedCrate
}

type ResolvedCrate struct {
	Name    string
	Root    string
	Edition string
}

// ResolvePaths anchors the configured paths at the workspace root. Without
// explicit members the workspace is one crate named after its directory.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}
	root := ResolveRelative(cwd, cfg.Workspace.Root)
	out := ResolvedPaths{
		Root:        root,
		IndexPath:   ResolveRelative(root, cfg.Crates.IndexPath),
		HistoryPath: ResolveRelative(root, cfg.History.Path),
	}
	for _, m := range cfg.Workspace.Members {
		out.Crates = append(out.Crates, ResolvedCrate{Name: m.Name, Root: ResolveRelative(root, m.Root), Edition: m.Edition})
	}
	if len(out.Crates) > 0 {
		return out, nil
	}
	for _, candidate := range []string{"src/lib.rs", "src/main.rs", "lib.rs", "main.rs"} {
		path := filepath.Join(root, candidate)
		if _, err := os.Stat(path); err == nil {
			name := strings.ReplaceAll(filepath.Base(root), "-", "_")
			out.Crates = append(out.Crates, ResolvedCrate{Name: name, Root: path, Edition: "2021"})
			return out, nil
		}
	}
	return ResolvedPaths{}, fmt.Errorf("no crate root found under %q; configure workspace.members", root)
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectConfigFile walks up from start looking for pathres.toml. It returns
// "" when none is found before reaching a directory holding Cargo.toml or
// .git, or the filesystem root.
func DetectConfigFile(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	dir := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}
	for {
		candidate := filepath.Join(dir, DefaultFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		for _, marker := range []string{"Cargo.toml", ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return ""
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
