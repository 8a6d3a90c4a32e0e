// Package indexwriter implements the shared lemma/index persistence step
// (spec §4.7 "save_lemmas_and_indices"). It is extracted as its own
// package, depended on by both the crawl scheduler and the single-page
// re-indexer, so that neither of those two needs to call into the other
// (spec §8's noted module cycle is eliminated by this inversion).
package indexwriter

import (
	"context"
	"fmt"
	"sync"

	"github.com/tariktz/siteindexer/internal/cache"
	"github.com/tariktz/siteindexer/internal/store"
)

// Writer serializes lemma-frequency accumulation per site and batches the
// resulting lemma/index writes to the Page Store.
type Writer struct {
	store     store.Store
	cache     *cache.LemmaCache
	batchSize int

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// Options configures a Writer.
type Options struct {
	// BatchSize flushes lemma/index writes every N accumulated entries
	// (spec §6 `indexing-settings.batchSize`, default 5000).
	BatchSize int
}

// New builds a Writer over store, coalescing lemma lookups through
// lemmaCache.
func New(s store.Store, lemmaCache *cache.LemmaCache, opts Options) *Writer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5000
	}
	return &Writer{
		store:     s,
		cache:     lemmaCache,
		batchSize: opts.BatchSize,
		locks:     make(map[int64]*sync.Mutex),
	}
}

func (w *Writer) siteLock(siteID int64) *sync.Mutex {
	w.locksMu.Lock()
	defer w.locksMu.Unlock()
	l, ok := w.locks[siteID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[siteID] = l
	}
	return l
}

// SaveLemmasAndIndices upserts the lemma frequency accumulation and
// appends one index row per (page, lemma) pair found on the page. It
// holds a per-site mutex for the whole call: across the Lemma Cache
// lookups (which query the Page Store on a miss) and the batched
// lemma/index writes (spec §4.7, §5 concurrency notes).
func (w *Writer) SaveLemmasAndIndices(ctx context.Context, siteID, pageID int64, lemmaCounts map[string]int) error {
	lock := w.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	handles := make([]*cache.LemmaHandle, 0, len(lemmaCounts))
	counts := make([]int, 0, len(lemmaCounts))

	flush := func() error {
		if len(handles) == 0 {
			return nil
		}
		records := make([]*store.LemmaRecord, len(handles))
		for i, h := range handles {
			snap := h.Snapshot()
			records[i] = &store.LemmaRecord{ID: snap.ID, SiteID: snap.SiteID, Text: snap.Text, Frequency: snap.Frequency}
		}
		if err := w.store.SaveLemmasBatch(ctx, records); err != nil {
			return fmt.Errorf("save_lemmas_batch: %w", err)
		}
		indices := make([]store.IndexRecord, len(handles))
		for i, h := range handles {
			h.SetID(records[i].ID)
			indices[i] = store.IndexRecord{PageID: pageID, LemmaID: records[i].ID, Rank: float64(counts[i])}
		}
		if err := w.store.SaveIndicesBatch(ctx, indices); err != nil {
			return fmt.Errorf("save_indices_batch: %w", err)
		}
		handles = handles[:0]
		counts = counts[:0]
		return nil
	}

	for text, count := range lemmaCounts {
		handle, err := w.cache.GetOrCreate(siteID, text)
		if err != nil {
			return fmt.Errorf("lemma_cache get_or_create %q: %w", text, err)
		}
		handle.AddFrequency(int64(count))
		handles = append(handles, handle)
		counts = append(counts, count)

		if len(handles) >= w.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
