// Package coordinator implements the Indexing Coordinator (spec C9): the
// single entry point that accepts start/stop/index-one-page requests,
// runs all configured sites in parallel bounded by a configured
// parallelism, and reports aggregated errors via the Errors Sink.
package coordinator

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tariktz/siteindexer/internal/cache"
	"github.com/tariktz/siteindexer/internal/errs"
	"github.com/tariktz/siteindexer/internal/logging"
	"github.com/tariktz/siteindexer/internal/store"
)

// siteIndexer is the subset of internal/siteindex.Indexer the coordinator
// drives per site.
type siteIndexer interface {
	IndexSite(ctx context.Context, site store.Site) error
}

// Coordinator owns the single process-wide `running`/`stop_requested`
// pair of flags and dispatches one site-indexing task per configured
// site.
type Coordinator struct {
	store       store.Store
	indexer     siteIndexer
	lemmaCache  *cache.LemmaCache
	sink        *errs.Sink
	parallelism int
	logger      zerolog.Logger

	running *atomic.Bool
	stop    *atomic.Bool
}

// Options configures a Coordinator.
type Options struct {
	// Parallelism bounds how many sites are indexed concurrently
	// (default 8).
	Parallelism int
	// Logger receives a run_id field for the duration of each
	// StartIndexing call and logs the Errors Sink entries the coordinator
	// itself appends, at warn/error level.
	// Left nil, a disabled logger is used.
	Logger *zerolog.Logger
}

// New builds a Coordinator. stop is shared with every Crawl Scheduler
// invocation dispatched through it.
func New(s store.Store, ix siteIndexer, lemmaCache *cache.LemmaCache, sink *errs.Sink, stop *atomic.Bool, opts Options) *Coordinator {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 8
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Coordinator{
		store:       s,
		indexer:     ix,
		lemmaCache:  lemmaCache,
		sink:        sink,
		parallelism: parallelism,
		logger:      logger,
		running:     &atomic.Bool{},
		stop:        stop,
	}
}

// StartIndexing begins a full run over sites and blocks until it
// completes. It rejects with ALREADY_RUNNING if a run is already in
// progress; otherwise it runs C6.reset_all once, then dispatches every
// site in parallel (bounded by configured parallelism), awaits
// completion, and clears per-run state before returning.
func (c *Coordinator) StartIndexing(ctx context.Context, sites []store.Site) error {
	if !c.running.CompareAndSwap(false, true) {
		return errs.New(errs.AlreadyRunning, "an indexing run is already in progress", nil)
	}
	return c.runLocked(ctx, sites)
}

// TryStartIndexing performs the same ALREADY_RUNNING acceptance check as
// StartIndexing, synchronously, but runs the indexing work itself in a
// background goroutine so the caller (the HTTP control server) can reply
// with acceptance before the run finishes, per spec §6's
// `GET /api/startIndexing` contract.
func (c *Coordinator) TryStartIndexing(ctx context.Context, sites []store.Site) error {
	if !c.running.CompareAndSwap(false, true) {
		return errs.New(errs.AlreadyRunning, "an indexing run is already in progress", nil)
	}
	go func() {
		_ = c.runLocked(ctx, sites)
	}()
	return nil
}

// runLocked performs one indexing run. Callers must have already won the
// running CAS; it always clears `running` on return.
func (c *Coordinator) runLocked(ctx context.Context, sites []store.Site) error {
	c.stop.Store(false)
	c.sink.Clear()

	runID := logging.NewRunID()
	runLogger := logging.WithRun(c.logger, runID)
	runLogger.Info().Int("sites", len(sites)).Msg("indexing run started")

	defer func() {
		c.lemmaCache.Clear()
		c.running.Store(false)
	}()

	if err := c.store.ResetAll(ctx); err != nil {
		c.sink.Append(errs.DBError, "", "reset_all", err.Error())
		runLogger.Error().Err(err).Str("operation", "reset_all").Msg("indexing run failed")
		return errs.New(errs.DBError, "reset_all failed", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.parallelism)

	created := make([]store.Site, 0, len(sites))
	for _, site := range sites {
		s, err := c.store.CreateSite(groupCtx, site.URL, site.Name)
		if err != nil {
			c.sink.Append(errs.DBError, site.URL, "create_site", err.Error())
			runLogger.Warn().Err(err).Str("site", site.URL).Str("operation", "create_site").Msg("site setup failed")
			continue
		}
		created = append(created, s)
	}

	for _, site := range created {
		site := site
		group.Go(func() error {
			siteLogger := logging.WithSite(runLogger, site.URL)
			if err := c.indexer.IndexSite(groupCtx, site); err != nil {
				c.sink.Append(errs.DBError, site.URL, "index_site", err.Error())
				siteLogger.Warn().Err(err).Str("operation", "index_site").Msg("site indexing failed")
			} else {
				siteLogger.Info().Msg("site indexing finished")
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		c.sink.Append(errs.PoolTerminationForced, "", "start_indexing", err.Error())
		runLogger.Error().Err(err).Str("operation", "start_indexing").Msg("indexing pool did not terminate cleanly")
		return errs.New(errs.PoolTerminationForced, "indexing pool could not terminate cleanly", err)
	}
	runLogger.Info().Msg("indexing run finished")
	return nil
}

// StopIndexing requests cooperative cancellation of the in-progress run.
// It rejects with NOT_RUNNING if no run is active.
func (c *Coordinator) StopIndexing() error {
	if !c.running.Load() {
		return errs.New(errs.NotRunning, "no indexing run is in progress", nil)
	}
	c.stop.Store(true)
	return nil
}

// Running reports whether a run is currently in progress.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Errors returns a snapshot of the run's Errors Sink.
func (c *Coordinator) Errors() []errs.Entry {
	return c.sink.Snapshot()
}
