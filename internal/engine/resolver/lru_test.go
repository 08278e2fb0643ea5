package resolver

import (
	"sync"
	"testing"
)

func TestLRU_GetPut(t *testing.T) {
	c := newLRU[string, int](3, nil)
	if _, ok := c.get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)
	if c.len() != 3 {
		t.Fatalf("expected len 3, got %d", c.len())
	}
	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if v, ok := c.get(k); !ok || v != want {
			t.Fatalf("key %q: want %d got %d (ok=%v)", k, want, v, ok)
		}
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	evicted := 0
	c := newLRU[string, int](2, func() { evicted++ })
	c.put("a", 1)
	c.put("b", 2)
	c.get("a")
	c.put("c", 3)

	if _, ok := c.get("b"); ok {
		t.Fatal("expected 'b' to be evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Fatal("expected 'a' to still be present")
	}
	if evicted != 1 {
		t.Fatalf("expected one eviction callback, got %d", evicted)
	}
}

func TestLRU_OverwriteKeepsLength(t *testing.T) {
	c := newLRU[string, int](3, nil)
	c.put("a", 1)
	c.put("b", 2)
	c.put("a", 99)
	if c.len() != 2 {
		t.Fatalf("expected len 2 after overwrite, got %d", c.len())
	}
	if v, _ := c.get("a"); v != 99 {
		t.Fatalf("expected last written value 99, got %d", v)
	}
}

func TestLRU_ClearAndCapacity(t *testing.T) {
	c := newLRU[int, int](0, nil)
	c.put(1, 1)
	c.put(2, 2)
	if c.len() != 1 {
		t.Fatalf("non-positive capacity should behave as 1, got len %d", c.len())
	}
	c.clear()
	if c.len() != 0 {
		t.Fatalf("expected empty cache after clear, got %d", c.len())
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	const workers, ops = 20, 100
	c := newLRU[int, int](50, nil)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				key := (id*ops + i) % 80
				c.put(key, key*2)
				c.get(key)
			}
		}(w)
	}
	wg.Wait()
	if c.len() > 50 {
		t.Fatalf("len %d exceeds capacity", c.len())
	}
}
