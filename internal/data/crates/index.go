// Package crates holds a local copy of a cargo registry index: which crates
// exist, their published versions, yank state and features.
package crates

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Index answers crate lookups against a local registry index.
type Index interface {
	IsReady() bool
	GetCrate(name string) (Crate, bool)
	AllCrateNames() []string
}

// Version is one published release.
type Version struct {
	Version  string
	Yanked   bool
	Features []string
}

// Crate lists versions in publication order.
type Crate struct {
	Name     string
	Versions []Version
}

// LastVersion returns the highest non-yanked version by semver precedence.
// Versions that do not parse as semver are ignored.
func (c Crate) LastVersion() (string, bool) {
	var (
		best *semver.Version
		raw  string
	)
	for _, v := range c.Versions {
		if v.Yanked {
			continue
		}
		sv, err := semver.StrictNewVersion(v.Version)
		if err != nil {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best, raw = sv, v.Version
		}
	}
	return raw, best != nil
}

// Find returns the release with exactly this version string.
func (c Crate) Find(version string) (Version, bool) {
	for _, v := range c.Versions {
		if v.Version == version {
			return v, true
		}
	}
	return Version{}, false
}

// Record is one line of a registry index file.
type Record struct {
	Name      string              `json:"name"`
	Vers      string              `json:"vers"`
	Yanked    bool                `json:"yanked"`
	Features  map[string][]string `json:"features"`
	Features2 map[string][]string `json:"features2,omitempty"`
}

func (r Record) version() Version {
	seen := make(map[string]bool, len(r.Features)+len(r.Features2))
	var names []string
	for _, m := range []map[string][]string{r.Features, r.Features2} {
		for name := range m {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return Version{Version: r.Vers, Yanked: r.Yanked, Features: names}
}

// ReadRecords decodes newline-delimited index records. Blank lines are
// skipped; a malformed line fails the whole read with its line number.
func ReadRecords(r io.Reader, fn func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("index line %d: %w", line, err)
		}
		if rec.Name == "" || rec.Vers == "" {
			return fmt.Errorf("index line %d: missing name or version", line)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	return nil
}

// MemoryIndex is an in-process index, ready as soon as it exists.
type MemoryIndex struct {
	mu     sync.RWMutex
	crates map[string]*Crate
	order  []string
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex(crates ...Crate) *MemoryIndex {
	m := &MemoryIndex{crates: make(map[string]*Crate)}
	for _, c := range crates {
		for _, v := range c.Versions {
			m.add(c.Name, v)
		}
		if len(c.Versions) == 0 {
			m.ensure(c.Name)
		}
	}
	return m
}

// Import adds every record read from r.
func (m *MemoryIndex) Import(r io.Reader) error {
	return ReadRecords(r, func(rec Record) error {
		m.add(rec.Name, rec.version())
		return nil
	})
}

func (m *MemoryIndex) ensure(name string) *Crate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(name)
}

func (m *MemoryIndex) ensureLocked(name string) *Crate {
	c, ok := m.crates[name]
	if !ok {
		c = &Crate{Name: name}
		m.crates[name] = c
		m.order = append(m.order, name)
	}
	return c
}

func (m *MemoryIndex) add(name string, v Version) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.ensureLocked(name)
	for i := range c.Versions {
		if c.Versions[i].Version == v.Version {
			c.Versions[i] = v
			return
		}
	}
	c.Versions = append(c.Versions, v)
}

func (m *MemoryIndex) IsReady() bool { return true }

func (m *MemoryIndex) GetCrate(name string) (Crate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.crates[name]
	if !ok {
		return Crate{}, false
	}
	return Crate{Name: c.Name, Versions: append([]Version(nil), c.Versions...)}, true
}

func (m *MemoryIndex) AllCrateNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]string(nil), m.order...)
	sort.Strings(out)
	return out
}
