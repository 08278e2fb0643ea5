package resolver

import (
	"sync"
	"sync/atomic"
	"testing"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
)

func TestCache_ServesOnlyCurrentSignature(t *testing.T) {
	c := NewCache(8)
	p := parser.PathOf(parser.CtxType, 1, "a", "B")
	calls := 0
	compute := func() []Resolved {
		calls++
		return []Resolved{{BoundElement: BoundElement{Decl: graph.DeclID(calls)}}}
	}

	sig := graph.Signature{Local: 1, Global: 1}
	first := c.GetOrCompute(p, sig, compute)
	second := c.GetOrCompute(p, sig, compute)
	if calls != 1 || first[0].Decl != second[0].Decl {
		t.Fatalf("expected a single computation, got %d", calls)
	}

	for _, stale := range []graph.Signature{{Local: 2, Global: 1}, {Local: 2, Global: 2}} {
		before := calls
		got := c.GetOrCompute(p, stale, compute)
		if calls != before+1 {
			t.Fatalf("signature %+v: stale entry was served", stale)
		}
		if got[0].Decl != graph.DeclID(calls) {
			t.Fatalf("signature %+v: expected fresh result", stale)
		}
	}
}

func TestCache_KeyedByNodeIdentity(t *testing.T) {
	c := NewCache(8)
	sig := graph.Signature{}
	a := parser.PathOf(parser.CtxType, 1, "S")
	b := parser.PathOf(parser.CtxType, 1, "S")
	var calls int
	compute := func() []Resolved { calls++; return nil }
	c.GetOrCompute(a, sig, compute)
	c.GetOrCompute(b, sig, compute)
	if calls != 2 {
		t.Fatalf("textually equal references are distinct keys, got %d computations", calls)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestCache_InvalidateAll(t *testing.T) {
	c := NewCache(8)
	sig := graph.Signature{Local: 3}
	p := parser.PathOf(parser.CtxExpr, 1, "f")
	var calls int
	compute := func() []Resolved { calls++; return nil }
	c.GetOrCompute(p, sig, compute)
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
	c.GetOrCompute(p, sig, compute)
	if calls != 2 {
		t.Fatalf("expected recomputation after invalidation, got %d", calls)
	}
}

func TestCache_BoundedCapacity(t *testing.T) {
	c := NewCache(2)
	for i := 0; i < 5; i++ {
		c.GetOrCompute(parser.PathOf(parser.CtxType, 1, "T"), graph.Signature{}, func() []Resolved { return nil })
	}
	if c.Len() != 2 {
		t.Fatalf("expected capacity 2 to hold, got %d", c.Len())
	}
}

func TestCache_ConcurrentRecompute(t *testing.T) {
	c := NewCache(16)
	p := parser.PathOf(parser.CtxType, 1, "S")
	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(gen uint64) {
			defer wg.Done()
			c.GetOrCompute(p, graph.Signature{Global: gen % 4}, func() []Resolved {
				calls.Add(1)
				return []Resolved{{BoundElement: BoundElement{Decl: 1}}}
			})
		}(uint64(i))
	}
	wg.Wait()
	if calls.Load() == 0 || c.Len() != 1 {
		t.Fatalf("expected one entry after racing writers, got %d entries", c.Len())
	}
}
