package resolver

import (
	"sync"

	"pathres/internal/engine/parser"
)

// InferenceResults supplies resolutions an inference pass has already
// computed for expression paths. They take precedence over the cache.
type InferenceResults interface {
	ResolvedPath(path *parser.Path) ([]Resolved, bool)
}

// InferenceTable is an InferenceResults filled by an inference pass.
type InferenceTable struct {
	mu    sync.RWMutex
	paths map[*parser.Path][]Resolved
}

func NewInferenceTable() *InferenceTable {
	return &InferenceTable{paths: make(map[*parser.Path][]Resolved)}
}

// Record stores the resolution of an expression path.
func (t *InferenceTable) Record(path *parser.Path, results []Resolved) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths[path] = results
}

func (t *InferenceTable) ResolvedPath(path *parser.Path) ([]Resolved, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res, ok := t.paths[path]
	return res, ok
}
