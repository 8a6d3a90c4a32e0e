package cache

import (
	"testing"
	"time"
)

type fakeLookup struct {
	id   int64
	freq int64
	ok   bool
	err  error
}

func (f fakeLookup) FindLemma(siteID int64, text string) (int64, int64, bool, error) {
	return f.id, f.freq, f.ok, f.err
}

func TestLemmaCache_MissFabricatesNew(t *testing.T) {
	c := NewLemmaCache(fakeLookup{ok: false}, LemmaCacheOptions{})
	h, err := c.GetOrCreate(1, "cat")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if h.Frequency != 0 {
		t.Errorf("Frequency = %d, want 0 for fabricated handle", h.Frequency)
	}
}

func TestLemmaCache_MissLoadsExisting(t *testing.T) {
	c := NewLemmaCache(fakeLookup{ok: true, id: 42, freq: 7}, LemmaCacheOptions{})
	h, err := c.GetOrCreate(1, "dog")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if h.ID != 42 || h.Frequency != 7 {
		t.Errorf("got ID=%d Frequency=%d, want ID=42 Frequency=7", h.ID, h.Frequency)
	}
}

func TestLemmaCache_HitReturnsSameHandle(t *testing.T) {
	c := NewLemmaCache(fakeLookup{ok: false}, LemmaCacheOptions{})
	h1, _ := c.GetOrCreate(1, "cat")
	h1.AddFrequency(5)
	h2, _ := c.GetOrCreate(1, "cat")
	if h1 != h2 {
		t.Fatal("expected the same handle instance on cache hit")
	}
	if h2.Snapshot().Frequency != 5 {
		t.Errorf("Frequency = %d, want 5", h2.Snapshot().Frequency)
	}
}

func TestLemmaCache_SiteScoped(t *testing.T) {
	c := NewLemmaCache(fakeLookup{ok: false}, LemmaCacheOptions{})
	h1, _ := c.GetOrCreate(1, "cat")
	h2, _ := c.GetOrCreate(2, "cat")
	if h1 == h2 {
		t.Fatal("handles for different sites must not be shared")
	}
}

func TestLemmaHandle_AddFrequencyClampsAtZero(t *testing.T) {
	h := &LemmaHandle{Frequency: 3}
	got := h.AddFrequency(-10)
	if got != 0 {
		t.Errorf("AddFrequency clamp = %d, want 0", got)
	}
}

func TestPageURLCache_ContainsAndTTL(t *testing.T) {
	c := NewPageURLCache(PageURLCacheOptions{MaxEntries: 10, IdleTTL: 30 * time.Millisecond})
	if c.Contains("https://example.com/") {
		t.Fatal("should not contain an unmarked URL")
	}
	c.Mark("https://example.com/")
	if !c.Contains("https://example.com/") {
		t.Fatal("should contain a marked URL")
	}
	time.Sleep(60 * time.Millisecond)
	if c.Contains("https://example.com/") {
		t.Fatal("entry should have expired after idle TTL")
	}
}

func TestPageURLCache_Clear(t *testing.T) {
	c := NewPageURLCache(PageURLCacheOptions{})
	c.Mark("https://example.com/")
	c.Clear()
	if c.Contains("https://example.com/") {
		t.Fatal("cache should be empty after Clear")
	}
}
