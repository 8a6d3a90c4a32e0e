// Package crawl implements the Crawl Scheduler (spec C7): bounded-parallel
// traversal of one site's internal link graph, from seed fetch through
// page persistence, lemma extraction, and link discovery, observing a
// shared cancellation flag at every checkpoint spec §5 names.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"github.com/tariktz/siteindexer/internal/cache"
	"github.com/tariktz/siteindexer/internal/errs"
	"github.com/tariktz/siteindexer/internal/fetch"
	"github.com/tariktz/siteindexer/internal/indexwriter"
	"github.com/tariktz/siteindexer/internal/lemma"
	"github.com/tariktz/siteindexer/internal/normalize"
	"github.com/tariktz/siteindexer/internal/store"
	"github.com/tariktz/siteindexer/internal/visited"
)

// Scheduler crawls one site at a time; it is shared across sites and
// holds no per-site state, so it is safe to invoke concurrently for
// different sites from the Indexing Coordinator.
type Scheduler struct {
	fetcher     *fetch.Fetcher
	analyzer    *lemma.Analyzer
	store       store.Store
	writer      *indexwriter.Writer
	pageCache   *cache.PageURLCache
	sink        *errs.Sink
	parallelism int
	stop        *atomic.Bool
}

// Options configures a Scheduler.
type Options struct {
	// Parallelism bounds concurrent page tasks per site (default 8).
	Parallelism int
}

// New builds a Scheduler. stop is the process-wide cooperative
// cancellation flag shared with the Indexing Coordinator.
func New(f *fetch.Fetcher, a *lemma.Analyzer, s store.Store, w *indexwriter.Writer, pageCache *cache.PageURLCache, sink *errs.Sink, stop *atomic.Bool, opts Options) *Scheduler {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 8
	}
	return &Scheduler{
		fetcher:     f,
		analyzer:    a,
		store:       s,
		writer:      w,
		pageCache:   pageCache,
		sink:        sink,
		parallelism: parallelism,
		stop:        stop,
	}
}

// Crawl runs the full traversal of site starting at its seed URL (site.URL)
// and blocks until every task belonging to the site has drained. It
// returns an error only when the seed URL has no host or the seed itself
// could not be fetched;
// per-page failures are recorded in the Errors Sink and otherwise
// swallowed, per spec §4.7/§7.
func (s *Scheduler) Crawl(ctx context.Context, site store.Site) error {
	seedHost, err := normalize.Host(site.URL)
	if err != nil || seedHost == "" {
		return errs.New(errs.MalformedURL, "seed url has no host", err)
	}

	seedResult, err := s.fetcher.Fetch(site.URL)
	if err != nil {
		s.sink.Append(errs.IOError, site.URL, "fetch_seed", err.Error())
		return fmt.Errorf("fetch seed: %w", err)
	}

	v := visited.New()
	v.Claim(site.URL)

	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup

	var submit func(rawURL string, pre *fetch.Result)
	submit = func(rawURL string, pre *fetch.Result) {
		if s.stop.Load() {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			s.processPage(ctx, site, seedHost, v, rawURL, pre, submit)
		}()
	}

	submit(site.URL, &seedResult)
	wg.Wait()
	return nil
}

// processPage implements the spec §4.7 "Process page" algorithm.
func (s *Scheduler) processPage(ctx context.Context, site store.Site, seedHost string, v *visited.Set, rawURL string, pre *fetch.Result, submit func(string, *fetch.Result)) {
	if s.stop.Load() {
		return
	}

	norm := normalize.Normalize(rawURL)
	if norm.Malformed {
		return
	}
	canonicalURL := norm.URL

	if s.pageCache.Contains(canonicalURL) {
		return
	}
	s.pageCache.Mark(canonicalURL)

	parsed, err := url.Parse(canonicalURL)
	if err != nil || !s.fetcher.SupportsScheme(parsed.Scheme) || s.fetcher.IsBinaryURL(canonicalURL) {
		return
	}

	var result fetch.Result
	if pre != nil {
		result = *pre
	} else {
		if s.stop.Load() {
			return
		}
		result, err = s.fetcher.Fetch(canonicalURL)
		if err != nil {
			s.sink.Append(errs.IOError, canonicalURL, "fetch_page", err.Error())
			return
		}
	}

	if s.stop.Load() {
		return
	}

	page, err := s.getOrCreatePage(ctx, site.ID, canonicalURL, result)
	if err != nil {
		s.sink.Append(errs.DBError, canonicalURL, "save_page", err.Error())
		return
	}

	lemmas := s.analyzer.AnalyzeDocument(result.Document)
	if err := s.writer.SaveLemmasAndIndices(ctx, site.ID, page.ID, lemmas); err != nil {
		s.sink.Append(errs.DBError, canonicalURL, "save_lemmas_and_indices", err.Error())
		return
	}

	if s.stop.Load() {
		return
	}

	for _, link := range extractLinks(result.Document) {
		childNorm := normalize.Normalize(link)
		if childNorm.Malformed {
			continue
		}
		childURL, err := url.Parse(childNorm.URL)
		if err != nil || !s.fetcher.SupportsScheme(childURL.Scheme) || s.fetcher.IsBinaryURL(childNorm.URL) {
			continue
		}
		if s.stop.Load() {
			return
		}
		if !v.Claim(childNorm.URL) {
			continue
		}
		if !normalize.Internal(seedHost, childURL.Hostname()) {
			continue
		}
		submit(childNorm.URL, nil)
	}
}

// getOrCreatePage implements spec §4.7 "Page creation": reuse an existing
// row without overwriting its content, otherwise persist a new one.
func (s *Scheduler) getOrCreatePage(ctx context.Context, siteID int64, canonicalURL string, result fetch.Result) (store.Page, error) {
	path, err := normalize.Path(canonicalURL)
	if err != nil {
		return store.Page{}, err
	}

	existing, found, err := s.store.FindPage(ctx, siteID, path)
	if err != nil {
		return store.Page{}, err
	}
	if found {
		return existing, nil
	}

	page := store.Page{SiteID: siteID, Path: path, Code: result.StatusCode, Content: string(result.Body)}
	if err := s.store.SavePage(ctx, &page); err != nil {
		return store.Page{}, err
	}
	return page, nil
}

func extractLinks(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		absolute, err := resolveAbsolute(doc, href)
		if err != nil || absolute == "" {
			return
		}
		links = append(links, absolute)
	})
	return links
}

func resolveAbsolute(doc *goquery.Document, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if doc.Url == nil {
		if ref.IsAbs() {
			return ref.String(), nil
		}
		return "", fmt.Errorf("relative link %q with no base URL", href)
	}
	return doc.Url.ResolveReference(ref).String(), nil
}
