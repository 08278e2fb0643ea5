// Package util holds small filesystem and runtime helpers shared by the
// command line and the workspace loader.
package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// SlashPath cleans p and converts it to forward slashes. "." becomes "".
func SlashPath(p string) string {
	clean := path.Clean(strings.TrimSpace(strings.ReplaceAll(p, "\\", "/")))
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix reports whether p equals prefix or lies below it.
func HasPathPrefix(p, prefix string) bool {
	p = SlashPath(p)
	prefix = SlashPath(prefix)
	if p == "" || prefix == "" {
		return p == prefix
	}
	if p == prefix || prefix == "/" && strings.HasPrefix(p, "/") {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

// RelSlash returns target relative to root with forward slashes, or target
// itself when it does not lie below root.
func RelSlash(root, target string) string {
	if root == "" || !HasPathPrefix(target, root) {
		return filepath.ToSlash(target)
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}

// HeapAllocMB returns the live heap in MiB.
func HeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024
}
