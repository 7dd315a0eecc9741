package apifetch

import (
	"context"
	"sync"
)

// Cache holds resolved requests of one provider instance.
type Cache struct {
	mu sync.RWMutex

	entries   map[string]Entry
	malformed map[string]any
	// responses indexes raw responses by request identity.
	responses map[string]any

	name   string
	logger ILogger
}

// newCache creates a cache seeded from an apiData prop. Malformed entries are kept
// for snapshots only.
func newCache(data any, name string, logger ILogger) *Cache {
	c := &Cache{
		entries:   make(map[string]Entry),
		malformed: make(map[string]any),
		responses: make(map[string]any),
		name:      name,
		logger:    logger,
	}

	for k, v := range parseApiData(data) {
		e, ok := parseEntry(v)
		if !ok {
			c.malformed[k] = v
			continue
		}

		c.entries[k] = e
		c.responses[e.Request] = e.raw()
	}

	return c
}

// Has checks if a well formed entry exists for the name.
func (c *Cache) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.entries[name]

	return ok
}

// Get returns the cached value for the name.
func (c *Cache) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}

	return e.Value, true
}

// Set saves an entry under the name.
func (c *Cache) Set(name string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = e
	c.responses[e.Request] = e.raw()
	delete(c.malformed, name)
}

// lookup returns the value for the name if it was produced by a request with the identity of d.
// A response cached under another name with the same identity is reused with d's success handler.
func (c *Cache) lookup(ctx context.Context, name string, d Descriptor) (value any, found bool) { //nolint:nonamedreturns,lll // logger
	if c.logger != nil {
		defer func() { c.logger.LogCacheHitRatio(ctx, c.name, found) }()
	}

	identity := d.Identity()

	c.mu.RLock()
	e, ok := c.entries[name]
	raw, rawOK := c.responses[identity]
	c.mu.RUnlock()

	if ok && e.Request == identity {
		return e.Value, true
	}

	if !rawOK {
		return nil, false
	}

	value, err := applySuccess(d, raw)
	if err != nil {
		return nil, false
	}

	c.Set(name, newEntry(d, raw, value))

	return value, true
}

// Snapshot returns the cache content as plain ApiData.
func (c *Cache) Snapshot() ApiData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data := make(ApiData, len(c.entries)+len(c.malformed))
	for k, v := range c.malformed {
		data[k] = v
	}

	for k, e := range c.entries {
		data[k] = e
	}

	return data
}
