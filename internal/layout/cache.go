package layout

import (
	"sync"

	"vprintf/internal/printf"
)

type cacheKey string

func cacheKeyOf(types []printf.WireType) cacheKey {
	b := make([]byte, len(types))
	for i, t := range types {
		b[i] = byte(t)
	}
	return cacheKey(b)
}

type cache struct {
	mu    sync.Mutex
	byKey map[cacheKey]RecordLayout
}

func newCache() *cache {
	return &cache{byKey: make(map[cacheKey]RecordLayout, 64)}
}

func (c *cache) get(k cacheKey) (RecordLayout, bool) {
	if c == nil {
		return RecordLayout{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.byKey[k]
	if !ok {
		return RecordLayout{}, false
	}
	return l.clone(), true
}

func (c *cache) put(k cacheKey, l RecordLayout) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byKey[k] = l
	c.mu.Unlock()
}

func (c *cache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}
