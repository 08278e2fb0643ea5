package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pathres/internal/shared/util"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "watchertest")
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 1)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond, ExcludeDirs: []string{"exclude_dir"}, ExcludeFiles: []string{"*.generated.rs"}}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = w.Watch([]string{tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	// Create a file
	testFile := filepath.Join(tmpDir, "lib.rs")
	os.WriteFile(testFile, []byte("pub fn main() {}"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Test exclusion
	excludeFile := filepath.Join(tmpDir, "bindings.generated.rs")
	os.WriteFile(excludeFile, []byte("pub struct Generated;"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if filepath.Base(p) == "bindings.generated.rs" {
				t.Error("Excluded file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.rs")
	if err := os.WriteFile(subFile, []byte("pub struct Nested;"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "watcher-rename")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.rs")
	newPath := filepath.Join(tmpDir, "new.rs")
	if err := os.WriteFile(oldPath, []byte("pub struct Old;"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_FileFilters(t *testing.T) {
	w, err := NewWatcher(Options{
		Debounce:     10 * time.Millisecond,
		ExcludeDirs:  []string{"target", "vendor/**"},
		ExcludeFiles: []string{"*.generated.rs"},
		FileNames:    []string{"pathres.toml"},
	}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		path     string
		excluded bool
	}{
		{"src/lib.rs", false},
		{"src/MOD.RS", false},
		{"src/main.go", true},
		{"pathres.toml", false},
		{"Cargo.toml", true},
		{"src/ffi.generated.rs", true},
	}
	for _, tc := range cases {
		if got := w.shouldExcludeFile(tc.path); got != tc.excluded {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", tc.path, got, tc.excluded)
		}
	}
	if !w.shouldExcludeDir("/work/target") {
		t.Error("expected target to be excluded by name")
	}
	if !w.shouldExcludeDir("vendor/serde") {
		t.Error("expected vendor/serde to be excluded by path pattern")
	}
	if w.shouldExcludeDir("src/vendor_utils") {
		t.Error("unexpected exclusion of src/vendor_utils")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(Options{ExcludeDirs: []string{"[unclosed"}}, func([]string) {}); err == nil {
		t.Fatal("expected an error for an invalid glob")
	}
}

func TestWatcher_ThrottledBatchIsDelivered(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{
		Debounce: 20 * time.Millisecond,
		Limiter:  util.NewLimiter(5, 1),
	}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a.rs", "b.rs"} {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte("pub struct "+name[:1]+";"), 0644); err != nil {
			t.Fatal(err)
		}
		select {
		case paths := <-changedFiles:
			if len(paths) != 1 || paths[0] != path {
				t.Fatalf("expected [%s], got %v", path, paths)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}
