// Package cache implements the Lemma Cache (spec C4) and the PageUrlCache
// (spec §3) — bounded, idle-TTL-evicting caches that coalesce DB lookups
// and provide the soft, TTL-based re-allowance layer on top of the
// VisitedSet. Both are backed by
// github.com/hashicorp/golang-lru/v2/expirable, a bounded LRU whose
// entries expire a fixed TTL after they were last added; both caches
// re-add an entry on every hit, so the TTL runs from the last access.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// LemmaHandle is a mutable, in-memory view of a Lemma row. The cache is
// not write-through: callers mutate Frequency and are responsible for
// persisting it later (see internal/indexwriter), per spec §4.4.
type LemmaHandle struct {
	mu sync.Mutex

	ID        int64 // 0 means not yet persisted
	SiteID    int64
	Text      string
	Frequency int64
}

// AddFrequency atomically adds delta to the handle's frequency, clamped
// at zero (used by internal/indexwriter to add a page's occurrence count).
func (h *LemmaHandle) AddFrequency(delta int64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Frequency += delta
	if h.Frequency < 0 {
		h.Frequency = 0
	}
	return h.Frequency
}

// Snapshot returns a copy of the handle's current field values.
func (h *LemmaHandle) Snapshot() LemmaHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return LemmaHandle{ID: h.ID, SiteID: h.SiteID, Text: h.Text, Frequency: h.Frequency}
}

// SetID records the persisted row ID once a fabricated handle has been
// saved for the first time.
func (h *LemmaHandle) SetID(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ID = id
}

// LemmaLookup is the subset of the Page Store the cache needs to resolve
// a miss: find an existing persisted Lemma row.
type LemmaLookup interface {
	FindLemma(siteID int64, text string) (id int64, frequency int64, found bool, err error)
}

type lemmaKey struct {
	SiteID int64
	Text   string
}

// LemmaCache is the bounded LRU+TTL cache keyed by (site, lemma text).
type LemmaCache struct {
	cache *lru.LRU[lemmaKey, *LemmaHandle]
	store LemmaLookup
}

// LemmaCacheOptions configures a LemmaCache.
type LemmaCacheOptions struct {
	MaxEntries int
	IdleTTL    time.Duration
}

// NewLemmaCache builds a LemmaCache backed by store for miss resolution.
func NewLemmaCache(store LemmaLookup, opts LemmaCacheOptions) *LemmaCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10000
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &LemmaCache{
		cache: lru.NewLRU[lemmaKey, *LemmaHandle](opts.MaxEntries, nil, opts.IdleTTL),
		store: store,
	}
}

// GetOrCreate returns the cached handle for (siteID, text), consulting
// the Page Store on miss and fabricating a fresh frequency=0 handle if
// no row exists yet. Callers add the first page's occurrence count on
// top via AddFrequency, so a fabricated handle must start at zero or
// every new lemma's frequency would be off by one.
func (c *LemmaCache) GetOrCreate(siteID int64, text string) (*LemmaHandle, error) {
	key := lemmaKey{SiteID: siteID, Text: text}
	if handle, ok := c.cache.Get(key); ok {
		// Re-adding restarts the entry's TTL (idle expiry).
		c.cache.Add(key, handle)
		return handle, nil
	}

	handle := &LemmaHandle{SiteID: siteID, Text: text, Frequency: 0}
	if c.store != nil {
		id, freq, found, err := c.store.FindLemma(siteID, text)
		if err != nil {
			return nil, err
		}
		if found {
			handle.ID = id
			handle.Frequency = freq
		}
	}
	c.cache.Add(key, handle)
	return handle, nil
}

// Clear empties the cache; called by the coordinator when a run
// completes (spec §4.9).
func (c *LemmaCache) Clear() {
	c.cache.Purge()
}

// PageURLCache is the soft, TTL-based per-run cache of URLs already
// processed within the current crawl, layered on top of the hard
// VisitedSet (spec §4.7, "Process page"). Once an entry's TTL has
// elapsed, its URL is no longer treated as processed. The single-page
// re-indexer does not consult this cache.
type PageURLCache struct {
	cache *lru.LRU[string, struct{}]
}

// PageURLCacheOptions configures a PageURLCache.
type PageURLCacheOptions struct {
	MaxEntries int
	IdleTTL    time.Duration
}

// NewPageURLCache builds a PageURLCache.
func NewPageURLCache(opts PageURLCacheOptions) *PageURLCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 600
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &PageURLCache{
		cache: lru.NewLRU[string, struct{}](opts.MaxEntries, nil, opts.IdleTTL),
	}
}

// Contains reports whether url is present (and not yet TTL-expired).
func (c *PageURLCache) Contains(url string) bool {
	_, ok := c.cache.Get(url)
	if ok {
		// Re-adding restarts the entry's TTL (idle expiry).
		c.cache.Add(url, struct{}{})
	}
	return ok
}

// Mark records url as processed.
func (c *PageURLCache) Mark(url string) {
	c.cache.Add(url, struct{}{})
}

// Clear empties the cache.
func (c *PageURLCache) Clear() {
	c.cache.Purge()
}
