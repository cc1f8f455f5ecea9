package enrich

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

// Cache holds derived enrichments keyed by a normalized hash of the
// organization name. It lives for the lifetime of one Coordinator and is
// never persisted or evicted.
//
// Concurrency contract: the map is guarded for safe concurrent access, but
// there is no per-key locking. Two workers enriching the same organization
// in one batch may both miss and both do the full work; both compute the
// same result and the last write wins, so the race wastes effort without
// corrupting data.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*model.Enrichment
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*model.Enrichment)}
}

// Key derives the cache key for an organization name: unicode-normalized,
// lowercased, whitespace-collapsed, then hashed.
func Key(orgName string) string {
	name := norm.NFKC.String(strings.ToLower(strings.TrimSpace(orgName)))
	name = strings.Join(strings.Fields(name), " ")
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached enrichment for a key.
func (c *Cache) Get(key string) (*model.Enrichment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores an enrichment, replacing any existing entry.
func (c *Cache) Put(key string, e *model.Enrichment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Len returns the number of cached organizations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
