package bot

import "testing"

func TestSearchCacheHitAndMissResults(t *testing.T) {
	t.Parallel()
	c := newSearchCache(8)

	c.put("hit", searchResult{answer: "a1", ok: true})
	c.put("miss", searchResult{})

	if r, ok := c.get("hit"); !ok || !r.ok || r.answer != "a1" {
		t.Errorf("get(hit) = %+v, %v", r, ok)
	}
	// A cached miss is still a cache hit: ok=true, result says "no answer".
	if r, ok := c.get("miss"); !ok || r.ok {
		t.Errorf("get(miss) = %+v, %v, want cached negative result", r, ok)
	}
	if _, ok := c.get("never seen"); ok {
		t.Errorf("get(never seen) unexpectedly cached")
	}
}

func TestSearchCacheEvictsOldestFirst(t *testing.T) {
	t.Parallel()
	c := newSearchCache(2)
	c.put("one", searchResult{answer: "1", ok: true})
	c.put("two", searchResult{answer: "2", ok: true})
	c.put("three", searchResult{answer: "3", ok: true})

	if got := c.len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
	if _, ok := c.get("one"); ok {
		t.Errorf("oldest entry survived eviction")
	}
	for _, k := range []string{"two", "three"} {
		if _, ok := c.get(k); !ok {
			t.Errorf("entry %q evicted, want kept", k)
		}
	}
}

func TestSearchCacheUpdateDoesNotGrow(t *testing.T) {
	t.Parallel()
	c := newSearchCache(2)
	c.put("k", searchResult{answer: "old", ok: true})
	c.put("k", searchResult{answer: "new", ok: true})
	c.put("other", searchResult{})

	if got := c.len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
	if r, _ := c.get("k"); r.answer != "new" {
		t.Errorf("get(k).answer = %q, want updated value", r.answer)
	}
}

func TestSearchCacheDefaultSize(t *testing.T) {
	t.Parallel()
	c := newSearchCache(0)
	if c.max != defaultSearchCacheMax {
		t.Fatalf("max = %d, want default %d", c.max, defaultSearchCacheMax)
	}
}
