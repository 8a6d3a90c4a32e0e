package cmd

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tariktz/siteindexer/internal/cache"
	"github.com/tariktz/siteindexer/internal/config"
	"github.com/tariktz/siteindexer/internal/coordinator"
	"github.com/tariktz/siteindexer/internal/crawl"
	"github.com/tariktz/siteindexer/internal/errs"
	"github.com/tariktz/siteindexer/internal/fetch"
	"github.com/tariktz/siteindexer/internal/indexwriter"
	"github.com/tariktz/siteindexer/internal/lemma"
	"github.com/tariktz/siteindexer/internal/logging"
	"github.com/tariktz/siteindexer/internal/reindex"
	"github.com/tariktz/siteindexer/internal/siteindex"
	"github.com/tariktz/siteindexer/internal/store"
)

// stack is the fully wired set of collaborators shared by every
// long-running command (`serve`, `start`, `index-page`).
type stack struct {
	store       *store.MySQLStore
	coordinator *coordinator.Coordinator
	reindexer   *reindex.Reindexer
	logger      zerolog.Logger
}

// buildStack connects to MySQL, runs migrations, and wires every
// internal package into one Coordinator + Reindexer pair.
func buildStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	logger := logging.New(cfg.LogLevel)

	db, err := store.Open(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}

	lemmaCache := cache.NewLemmaCache(db, cache.LemmaCacheOptions{
		MaxEntries: cfg.LemmaCacheMax,
		IdleTTL:    cfg.LemmaCacheIdleTTL,
	})
	pageCache := cache.NewPageURLCache(cache.PageURLCacheOptions{
		MaxEntries: cfg.PageURLCacheMax,
		IdleTTL:    cfg.PageURLCacheIdleTTL,
	})
	sink := errs.NewSink()
	stop := &atomic.Bool{}

	fetcher := fetch.New(fetch.Options{
		UserAgent:        cfg.FetchUserAgent,
		Timeout:          cfg.FetchConnTimeout + cfg.FetchReadTimeout,
		BinaryExtensions: cfg.BinaryExtensions,
	})

	analyzer, err := lemma.New()
	if err != nil {
		return nil, errs.New(errs.AnalyzerInitError, "lemma analyzer init failed", err)
	}

	writer := indexwriter.New(db, lemmaCache, indexwriter.Options{BatchSize: cfg.BatchSize})
	scheduler := crawl.New(fetcher, analyzer, db, writer, pageCache, sink, stop, crawl.Options{Parallelism: cfg.Parallelism})
	indexer := siteindex.New(db, scheduler, stop)
	coord := coordinator.New(db, indexer, lemmaCache, sink, stop, coordinator.Options{
		Parallelism: cfg.Parallelism,
		Logger:      &logger,
	})
	rx := reindex.New(db, fetcher, analyzer, writer)

	return &stack{store: db, coordinator: coord, reindexer: rx, logger: logger}, nil
}

func (s *stack) sitesAsStoreSites(sites []config.Site) []store.Site {
	out := make([]store.Site, len(sites))
	for i, site := range sites {
		out[i] = store.Site{URL: site.URL, Name: site.Name}
	}
	return out
}
