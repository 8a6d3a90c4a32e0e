// Package store implements the Page Store (spec C6): transactional
// persistence of sites, pages, lemmas, and indices, realized over MySQL
// via github.com/jmoiron/sqlx and github.com/go-sql-driver/mysql, with an
// in-memory double (memory_store.go) used by the rest of this module's
// test suites.
package store

import (
	"context"
	"time"
)

// Status is a Site's lifecycle state (spec §3).
type Status string

const (
	StatusIndexing Status = "INDEXING"
	StatusIndexed  Status = "INDEXED"
	StatusFailed   Status = "FAILED"
)

// Site mirrors the `site` table (spec §6).
type Site struct {
	ID         int64
	URL        string
	Name       string
	Status     Status
	StatusTime time.Time
	LastError  *string
}

// Page mirrors the `page` table. Path is the canonical, site-relative
// path (spec invariant 4).
type Page struct {
	ID      int64
	SiteID  int64
	Path    string
	Code    int
	Content string
}

// LemmaRecord mirrors the `lemma` table.
type LemmaRecord struct {
	ID        int64
	SiteID    int64
	Text      string
	Frequency int64
}

// IndexRecord mirrors the `indexx` table. Rank is the per-page
// occurrence count of the lemma (spec glossary).
type IndexRecord struct {
	ID      int64
	PageID  int64
	LemmaID int64
	Rank    float64
}

// Store is the Page Store contract (spec §4.6).
type Store interface {
	// ResetAll truncates indexx, lemma, page, and site in that order
	// (spec §4.6). Called once per run by the Coordinator (spec §4.8
	// Open Question, resolved as policy (b)).
	ResetAll(ctx context.Context) error

	CreateSite(ctx context.Context, url, name string) (Site, error)
	FindSiteByURL(ctx context.Context, url string) (Site, bool, error)
	FindSiteByHost(ctx context.Context, host string) (Site, bool, error)
	UpdateSiteStatus(ctx context.Context, siteID int64, status Status, lastError *string) error
	// ListSites returns every configured site, for the HTTP status route.
	ListSites(ctx context.Context) ([]Site, error)

	FindPage(ctx context.Context, siteID int64, path string) (Page, bool, error)
	// SavePage persists page. If page.ID is zero it inserts, re-reading
	// and reusing an existing row on a (site_id, path) unique-constraint
	// race rather than failing (spec §4.7 "Page creation" tie-break).
	// On return page.ID is always populated.
	SavePage(ctx context.Context, page *Page) error

	// FindLemma satisfies cache.LemmaLookup directly.
	FindLemma(siteID int64, text string) (id int64, frequency int64, found bool, err error)
	SaveLemmasBatch(ctx context.Context, lemmas []*LemmaRecord) error
	SaveIndicesBatch(ctx context.Context, indices []IndexRecord) error

	// DeleteIndicesForPage removes every index row for pageID and
	// returns the rows that were deleted, for the re-indexer's frequency
	// adjustment step (spec §4.10).
	DeleteIndicesForPage(ctx context.Context, pageID int64) ([]IndexRecord, error)
	// AdjustLemmaFrequencies applies signed deltas (keyed by lemma ID)
	// to persisted Lemma rows, clamped at zero, and persists the result.
	AdjustLemmaFrequencies(ctx context.Context, deltas map[int64]int64) error
}
