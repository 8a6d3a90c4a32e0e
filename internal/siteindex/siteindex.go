// Package siteindex implements the Site Indexer (spec C8): the lifecycle
// of one site within a run — mark it INDEXING, crawl it, and finalize its
// status to INDEXED, FAILED (captured error), or FAILED (cancelled).
package siteindex

import (
	"context"
	"sync/atomic"

	"github.com/tariktz/siteindexer/internal/store"
)

// crawler is the subset of internal/crawl.Scheduler a Site Indexer needs.
type crawler interface {
	Crawl(ctx context.Context, site store.Site) error
}

// Indexer drives one site's lifecycle. reset_all is NOT its concern (spec
// §4.8 Open Question, resolved as policy (b)): it is called by the
// Coordinator exactly once per run, before any Indexer starts.
type Indexer struct {
	store   store.Store
	crawler crawler
	stop    *atomic.Bool
}

// New builds an Indexer.
func New(s store.Store, c crawler, stop *atomic.Bool) *Indexer {
	return &Indexer{store: s, crawler: c, stop: stop}
}

// cancelledMessage is the exact last_error text spec §4.8 mandates when a
// site's indexing is cut short by a stop request.
const cancelledMessage = "Indexing interrupted by user"

// IndexSite sets site to INDEXING, invokes the Crawl Scheduler, and
// finalizes the site's status according to the outcome.
func (ix *Indexer) IndexSite(ctx context.Context, site store.Site) error {
	if err := ix.store.UpdateSiteStatus(ctx, site.ID, store.StatusIndexing, nil); err != nil {
		return err
	}

	crawlErr := ix.crawler.Crawl(ctx, site)

	switch {
	case ix.stop.Load():
		msg := cancelledMessage
		return ix.store.UpdateSiteStatus(ctx, site.ID, store.StatusFailed, &msg)
	case crawlErr != nil:
		msg := crawlErr.Error()
		return ix.store.UpdateSiteStatus(ctx, site.ID, store.StatusFailed, &msg)
	default:
		return ix.store.UpdateSiteStatus(ctx, site.ID, store.StatusIndexed, nil)
	}
}
