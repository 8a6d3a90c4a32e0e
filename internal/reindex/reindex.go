// Package reindex implements the Single-page Re-indexer (spec C10):
// re-indexing one URL on demand, adjusting the lemma frequencies left
// behind by whatever that page previously contributed.
package reindex

import (
	"context"

	"github.com/tariktz/siteindexer/internal/errs"
	"github.com/tariktz/siteindexer/internal/fetch"
	"github.com/tariktz/siteindexer/internal/indexwriter"
	"github.com/tariktz/siteindexer/internal/lemma"
	"github.com/tariktz/siteindexer/internal/normalize"
	"github.com/tariktz/siteindexer/internal/store"
)

// Reindexer re-indexes a single URL against whichever configured site it
// belongs to.
type Reindexer struct {
	store    store.Store
	fetcher  *fetch.Fetcher
	analyzer *lemma.Analyzer
	writer   *indexwriter.Writer
}

// New builds a Reindexer.
func New(s store.Store, f *fetch.Fetcher, a *lemma.Analyzer, w *indexwriter.Writer) *Reindexer {
	return &Reindexer{store: s, fetcher: f, analyzer: a, writer: w}
}

// IndexPage implements spec §4.10's index_page algorithm.
func (r *Reindexer) IndexPage(ctx context.Context, rawURL string) error {
	norm := normalize.Normalize(rawURL)
	if norm.Malformed {
		return errs.New(errs.MalformedURL, rawURL, nil)
	}
	canonicalURL := norm.URL

	host, err := normalize.Host(canonicalURL)
	if err != nil || host == "" {
		return errs.New(errs.MalformedURL, rawURL, err)
	}

	site, found, err := r.store.FindSiteByHost(ctx, host)
	if err != nil {
		return errs.New(errs.DBError, canonicalURL, err)
	}
	if !found {
		return errs.New(errs.OutOfScope, canonicalURL, nil)
	}

	result, err := r.fetcher.Fetch(canonicalURL)
	if err != nil {
		return errs.New(errs.IOError, canonicalURL, err)
	}

	path, err := normalize.Path(canonicalURL)
	if err != nil {
		return errs.New(errs.MalformedURL, rawURL, err)
	}

	existing, pageFound, err := r.store.FindPage(ctx, site.ID, path)
	if err != nil {
		return errs.New(errs.DBError, canonicalURL, err)
	}

	var page store.Page
	if pageFound {
		deleted, err := r.store.DeleteIndicesForPage(ctx, existing.ID)
		if err != nil {
			return errs.New(errs.DBError, canonicalURL, err)
		}
		deltas := make(map[int64]int64, len(deleted))
		for _, ix := range deleted {
			deltas[ix.LemmaID] -= int64(ix.Rank)
		}
		if err := r.store.AdjustLemmaFrequencies(ctx, deltas); err != nil {
			return errs.New(errs.DBError, canonicalURL, err)
		}

		page = existing
		page.Code = result.StatusCode
		page.Content = string(result.Body)
		if err := r.store.SavePage(ctx, &page); err != nil {
			return errs.New(errs.DBError, canonicalURL, err)
		}
	} else {
		page = store.Page{SiteID: site.ID, Path: path, Code: result.StatusCode, Content: string(result.Body)}
		if err := r.store.SavePage(ctx, &page); err != nil {
			return errs.New(errs.DBError, canonicalURL, err)
		}
	}

	lemmas := r.analyzer.AnalyzeDocument(result.Document)
	if err := r.writer.SaveLemmasAndIndices(ctx, site.ID, page.ID, lemmas); err != nil {
		return errs.New(errs.DBError, canonicalURL, err)
	}
	return nil
}
