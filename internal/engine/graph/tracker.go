package graph

import (
	"sync"
	"sync/atomic"
)

// Signature is the pair of generations a cached resolution depends on: the
// edit generation of the file holding the reference and the structural
// generation of the whole workspace.
type Signature struct {
	Local  uint64
	Global uint64
}

// Tracker owns the modification generations. Generations only advance
// inside Write; advancing them anywhere else is a programming error and
// panics.
type Tracker struct {
	writeMu sync.Mutex
	writing atomic.Bool

	global atomic.Uint64
	mu     sync.RWMutex
	local  map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{local: make(map[string]uint64)}
}

// Writer is the capability to advance generations. It is valid only for the
// duration of the Write call that produced it.
type Writer struct {
	t *Tracker
}

// Write runs fn as the single write action. Writes are serialized.
func (t *Tracker) Write(fn func(w *Writer)) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.writing.Store(true)
	defer t.writing.Store(false)
	fn(&Writer{t: t})
}

// InWrite reports whether a write action is running.
func (t *Tracker) InWrite() bool {
	return t.writing.Load()
}

func (w *Writer) check() {
	if w == nil || w.t == nil || !w.t.writing.Load() {
		panic("graph: generation modified outside a write action")
	}
}

// TouchFile records an edit confined to one file (a function body, say).
func (w *Writer) TouchFile(path string) {
	w.check()
	w.t.mu.Lock()
	w.t.local[path]++
	w.t.mu.Unlock()
}

// TouchStructure records a change of the item structure, invalidating every
// resolution.
func (w *Writer) TouchStructure() {
	w.check()
	w.t.global.Add(1)
}

// Signature returns the current generations relevant to a reference written
// in file.
func (t *Tracker) Signature(file string) Signature {
	t.mu.RLock()
	local := t.local[file]
	t.mu.RUnlock()
	return Signature{Local: local, Global: t.global.Load()}
}

// Global returns the structural generation.
func (t *Tracker) Global() uint64 {
	return t.global.Load()
}
