package bot

import "sync"

const defaultSearchCacheMax = 128

// searchCache memoizes free-text lookups. The menu forest never changes at
// runtime, so entries stay valid for the process lifetime; the cache only
// bounds memory, evicting the oldest entry first. Misses are cached too:
// repeated unmatched messages are just as common as matched ones.
type searchCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]searchResult
	order   []string
}

type searchResult struct {
	answer string
	ok     bool
}

func newSearchCache(max int) *searchCache {
	if max <= 0 {
		max = defaultSearchCacheMax
	}
	return &searchCache{max: max, entries: make(map[string]searchResult, max)}
}

func (c *searchCache) get(text string) (searchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[text]
	return r, ok
}

func (c *searchCache) put(text string, r searchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[text]; exists {
		c.entries[text] = r
		return
	}
	for len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[text] = r
	c.order = append(c.order, text)
}

func (c *searchCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
