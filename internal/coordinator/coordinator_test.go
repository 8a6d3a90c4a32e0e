package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/tariktz/siteindexer/internal/cache"
	"github.com/tariktz/siteindexer/internal/errs"
	"github.com/tariktz/siteindexer/internal/store"
)

type fakeIndexer struct {
	err func(site store.Site) error
}

func (f fakeIndexer) IndexSite(_ context.Context, site store.Site) error {
	if f.err == nil {
		return nil
	}
	return f.err(site)
}

func newCoordinator(t *testing.T, ix siteIndexer) (*Coordinator, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	lc := cache.NewLemmaCache(s, cache.LemmaCacheOptions{})
	sink := errs.NewSink()
	stop := &atomic.Bool{}
	return New(s, ix, lc, sink, stop, Options{Parallelism: 4}), s
}

func TestStartIndexing_CreatesSitesAndIndexesAll(t *testing.T) {
	c, s := newCoordinator(t, fakeIndexer{})
	sites := []store.Site{{URL: "https://a.test/", Name: "A"}, {URL: "https://b.test/", Name: "B"}}

	if err := c.StartIndexing(context.Background(), sites); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}
	for _, want := range sites {
		if _, found, _ := s.FindSiteByURL(context.Background(), want.URL); !found {
			t.Errorf("expected site %q to have been created", want.URL)
		}
	}
	if c.Running() {
		t.Error("coordinator should no longer be running after StartIndexing returns")
	}
}

func TestStartIndexing_RejectsWhileRunning(t *testing.T) {
	c, _ := newCoordinator(t, fakeIndexer{})
	c.running.Store(true)

	err := c.StartIndexing(context.Background(), nil)
	var kindErr *errs.KindError
	if !errors.As(err, &kindErr) || kindErr.Kind != errs.AlreadyRunning {
		t.Fatalf("got %v, want ALREADY_RUNNING", err)
	}
}

func TestStopIndexing_RejectsWhenNotRunning(t *testing.T) {
	c, _ := newCoordinator(t, fakeIndexer{})
	err := c.StopIndexing()
	var kindErr *errs.KindError
	if !errors.As(err, &kindErr) || kindErr.Kind != errs.NotRunning {
		t.Fatalf("got %v, want NOT_RUNNING", err)
	}
}

func TestStopIndexing_SetsStopFlagWhileRunning(t *testing.T) {
	c, _ := newCoordinator(t, fakeIndexer{})
	c.running.Store(true)
	if err := c.StopIndexing(); err != nil {
		t.Fatalf("StopIndexing: %v", err)
	}
	if !c.stop.Load() {
		t.Error("expected stop flag to be set")
	}
}

func TestStartIndexing_RecordsPerSiteErrorsInSink(t *testing.T) {
	ix := fakeIndexer{err: func(site store.Site) error {
		if site.URL == "https://bad.test/" {
			return errors.New("boom")
		}
		return nil
	}}
	c, _ := newCoordinator(t, ix)
	sites := []store.Site{{URL: "https://bad.test/", Name: "Bad"}, {URL: "https://good.test/", Name: "Good"}}

	if err := c.StartIndexing(context.Background(), sites); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}

	entries := c.Errors()
	found := false
	for _, e := range entries {
		if e.URL == "https://bad.test/" {
			found = true
		}
	}
	if !found {
		t.Error("expected an Errors Sink entry for the failing site")
	}
}
