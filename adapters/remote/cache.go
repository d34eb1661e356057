package remote

import "sync"

// rowIDCache memoizes the mapping from external row position to row
// identifier, filled in page-sized chunks as fetch responses arrive. It is
// advisory, never authoritative: entries go stale when rows are inserted,
// deleted or reordered, so every structural change clears it and a miss
// triggers a corrective page fetch rather than an error.
type rowIDCache struct {
	mu    sync.RWMutex
	byPos map[int]string
	total int // last known row count, -1 when unknown
}

func newRowIDCache() *rowIDCache {
	return &rowIDCache{byPos: make(map[int]string), total: -1}
}

// get returns the cached identifier for a position.
func (c *rowIDCache) get(pos int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byPos[pos]
	return id, ok
}

// putPage records the identifiers of one fetched page.
func (c *rowIDCache) putPage(page, pageSize int, ids []string, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := page * pageSize
	for i, id := range ids {
		c.byPos[start+i] = id
	}
	c.total = total
}

// rowCount returns the last observed total, -1 when never fetched.
func (c *rowIDCache) rowCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// invalidate drops all entries after a structural change.
func (c *rowIDCache) invalidate() {
	c.mu.Lock()
	c.byPos = make(map[int]string)
	c.total = -1
	c.mu.Unlock()
}
