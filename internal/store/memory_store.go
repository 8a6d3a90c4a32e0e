package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tariktz/siteindexer/internal/normalize"
)

// MemoryStore is an in-process Store double used by the rest of this
// module's test suites in place of a real MySQL instance.
type MemoryStore struct {
	mu sync.Mutex

	nextSiteID  int64
	nextPageID  int64
	nextLemmaID int64
	nextIndexID int64

	sites   map[int64]Site
	pages   map[int64]Page
	lemmas  map[int64]LemmaRecord
	indices map[int64]IndexRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sites:   make(map[int64]Site),
		pages:   make(map[int64]Page),
		lemmas:  make(map[int64]LemmaRecord),
		indices: make(map[int64]IndexRecord),
	}
}

func (m *MemoryStore) ResetAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites = make(map[int64]Site)
	m.pages = make(map[int64]Page)
	m.lemmas = make(map[int64]LemmaRecord)
	m.indices = make(map[int64]IndexRecord)
	return nil
}

func (m *MemoryStore) CreateSite(_ context.Context, url, name string) (Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSiteID++
	s := Site{ID: m.nextSiteID, URL: url, Name: name, Status: StatusIndexing}
	m.sites[s.ID] = s
	return s, nil
}

func (m *MemoryStore) FindSiteByURL(_ context.Context, url string) (Site, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sites {
		if s.URL == url {
			return s, true, nil
		}
	}
	return Site{}, false, nil
}

func (m *MemoryStore) FindSiteByHost(_ context.Context, host string) (Site, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sites {
		if h, err := normalize.Host(s.URL); err == nil && h == host {
			return s, true, nil
		}
	}
	return Site{}, false, nil
}

func (m *MemoryStore) ListSites(_ context.Context) ([]Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sites := make([]Site, 0, len(m.sites))
	for _, s := range m.sites {
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	return sites, nil
}

func (m *MemoryStore) UpdateSiteStatus(_ context.Context, siteID int64, status Status, lastError *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[siteID]
	if !ok {
		return nil
	}
	s.Status = status
	s.LastError = lastError
	m.sites[siteID] = s
	return nil
}

func (m *MemoryStore) FindPage(_ context.Context, siteID int64, path string) (Page, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages {
		if p.SiteID == siteID && p.Path == path {
			return p, true, nil
		}
	}
	return Page{}, false, nil
}

func (m *MemoryStore) SavePage(_ context.Context, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page.ID != 0 {
		m.pages[page.ID] = *page
		return nil
	}
	for _, p := range m.pages {
		if p.SiteID == page.SiteID && p.Path == page.Path {
			page.ID = p.ID
			return nil
		}
	}
	m.nextPageID++
	page.ID = m.nextPageID
	m.pages[page.ID] = *page
	return nil
}

func (m *MemoryStore) FindLemma(siteID int64, text string) (int64, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lemmas {
		if l.SiteID == siteID && l.Text == text {
			return l.ID, l.Frequency, true, nil
		}
	}
	return 0, 0, false, nil
}

func (m *MemoryStore) SaveLemmasBatch(_ context.Context, lemmas []*LemmaRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lemmas {
		if l.ID == 0 {
			m.nextLemmaID++
			l.ID = m.nextLemmaID
		}
		m.lemmas[l.ID] = *l
	}
	return nil
}

func (m *MemoryStore) SaveIndicesBatch(_ context.Context, indices []IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ix := range indices {
		m.nextIndexID++
		ix.ID = m.nextIndexID
		m.indices[ix.ID] = ix
	}
	return nil
}

func (m *MemoryStore) DeleteIndicesForPage(_ context.Context, pageID int64) ([]IndexRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []IndexRecord
	for id, ix := range m.indices {
		if ix.PageID == pageID {
			deleted = append(deleted, ix)
			delete(m.indices, id)
		}
	}
	return deleted, nil
}

func (m *MemoryStore) AdjustLemmaFrequencies(_ context.Context, deltas map[int64]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for lemmaID, delta := range deltas {
		l, ok := m.lemmas[lemmaID]
		if !ok {
			continue
		}
		l.Frequency += delta
		if l.Frequency < 0 {
			l.Frequency = 0
		}
		m.lemmas[lemmaID] = l
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
