package store

import (
	"context"
	"testing"
)

func TestCreateSiteAndFindByURL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	site, err := s.CreateSite(ctx, "https://example.test/", "Example")
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if site.Status != StatusIndexing {
		t.Errorf("new site status = %q, want INDEXING", site.Status)
	}

	found, ok, err := s.FindSiteByURL(ctx, "https://example.test/")
	if err != nil || !ok {
		t.Fatalf("FindSiteByURL: found=%v err=%v", ok, err)
	}
	if found.ID != site.ID {
		t.Errorf("found.ID = %d, want %d", found.ID, site.ID)
	}
}

func TestListSites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, _ := s.CreateSite(ctx, "https://a.test/", "A")
	b, _ := s.CreateSite(ctx, "https://b.test/", "B")

	sites, err := s.ListSites(ctx)
	if err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	if len(sites) != 2 || sites[0].ID != a.ID || sites[1].ID != b.ID {
		t.Fatalf("ListSites = %+v, want [%v %v] in order", sites, a.ID, b.ID)
	}
}

func TestFindSiteByHost(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.CreateSite(ctx, "https://example.test/path", "Example")

	found, ok, err := s.FindSiteByHost(ctx, "example.test")
	if err != nil || !ok {
		t.Fatalf("FindSiteByHost: found=%v err=%v", ok, err)
	}
	if found.Name != "Example" {
		t.Errorf("found.Name = %q, want Example", found.Name)
	}

	if _, ok, _ := s.FindSiteByHost(ctx, "other.test"); ok {
		t.Error("expected no match for other.test")
	}
}

func TestUpdateSiteStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	site, _ := s.CreateSite(ctx, "https://example.test/", "Example")

	msg := "Indexing interrupted by user"
	if err := s.UpdateSiteStatus(ctx, site.ID, StatusFailed, &msg); err != nil {
		t.Fatalf("UpdateSiteStatus: %v", err)
	}
	found, _, _ := s.FindSiteByURL(ctx, "https://example.test/")
	if found.Status != StatusFailed || found.LastError == nil || *found.LastError != msg {
		t.Errorf("got status=%q lastError=%v, want FAILED/%q", found.Status, found.LastError, msg)
	}
}

func TestSavePage_InsertThenReuse(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	site, _ := s.CreateSite(ctx, "https://example.test/", "Example")

	p1 := &Page{SiteID: site.ID, Path: "/a", Code: 200, Content: "<html>1</html>"}
	if err := s.SavePage(ctx, p1); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if p1.ID == 0 {
		t.Fatal("expected non-zero page ID after insert")
	}

	p2 := &Page{SiteID: site.ID, Path: "/a", Code: 200, Content: "<html>2</html>"}
	if err := s.SavePage(ctx, p2); err != nil {
		t.Fatalf("SavePage (race winner reuse): %v", err)
	}
	if p2.ID != p1.ID {
		t.Errorf("second save on same (site, path) got a new ID %d, want reuse of %d", p2.ID, p1.ID)
	}

	found, ok, err := s.FindPage(ctx, site.ID, "/a")
	if err != nil || !ok {
		t.Fatalf("FindPage: found=%v err=%v", ok, err)
	}
	if found.Content != "<html>1</html>" {
		t.Errorf("content was overwritten on reuse: got %q", found.Content)
	}
}

func TestLemmaLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if id, freq, found, err := s.FindLemma(1, "cat"); err != nil || found || id != 0 || freq != 0 {
		t.Fatalf("expected no lemma yet, got id=%d freq=%d found=%v err=%v", id, freq, found, err)
	}

	l := &LemmaRecord{SiteID: 1, Text: "cat", Frequency: 3}
	if err := s.SaveLemmasBatch(ctx, []*LemmaRecord{l}); err != nil {
		t.Fatalf("SaveLemmasBatch: %v", err)
	}
	if l.ID == 0 {
		t.Fatal("expected non-zero lemma ID after insert")
	}

	id, freq, found, err := s.FindLemma(1, "cat")
	if err != nil || !found || id != l.ID || freq != 3 {
		t.Fatalf("got id=%d freq=%d found=%v err=%v, want id=%d freq=3 found=true", id, freq, found, err, l.ID)
	}
}

func TestDeleteIndicesForPageAndAdjustFrequencies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	lemma := &LemmaRecord{SiteID: 1, Text: "dog", Frequency: 5}
	s.SaveLemmasBatch(ctx, []*LemmaRecord{lemma})
	s.SaveIndicesBatch(ctx, []IndexRecord{{PageID: 10, LemmaID: lemma.ID, Rank: 5}})

	deleted, err := s.DeleteIndicesForPage(ctx, 10)
	if err != nil {
		t.Fatalf("DeleteIndicesForPage: %v", err)
	}
	if len(deleted) != 1 || deleted[0].LemmaID != lemma.ID {
		t.Fatalf("unexpected deleted set: %+v", deleted)
	}

	deltas := map[int64]int64{}
	for _, ix := range deleted {
		deltas[ix.LemmaID] -= int64(ix.Rank)
	}
	if err := s.AdjustLemmaFrequencies(ctx, deltas); err != nil {
		t.Fatalf("AdjustLemmaFrequencies: %v", err)
	}

	_, freq, _, _ := s.FindLemma(1, "dog")
	if freq != 0 {
		t.Errorf("frequency after full removal = %d, want 0", freq)
	}
}

func TestAdjustLemmaFrequencies_ClampsAtZero(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	lemma := &LemmaRecord{SiteID: 1, Text: "fox", Frequency: 2}
	s.SaveLemmasBatch(ctx, []*LemmaRecord{lemma})

	if err := s.AdjustLemmaFrequencies(ctx, map[int64]int64{lemma.ID: -100}); err != nil {
		t.Fatalf("AdjustLemmaFrequencies: %v", err)
	}
	_, freq, _, _ := s.FindLemma(1, "fox")
	if freq != 0 {
		t.Errorf("frequency = %d, want clamped to 0", freq)
	}
}

func TestResetAll(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.CreateSite(ctx, "https://example.test/", "Example")
	s.SaveLemmasBatch(ctx, []*LemmaRecord{{SiteID: 1, Text: "x", Frequency: 1}})

	if err := s.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if _, ok, _ := s.FindSiteByURL(ctx, "https://example.test/"); ok {
		t.Error("site survived ResetAll")
	}
	if _, _, found, _ := s.FindLemma(1, "x"); found {
		t.Error("lemma survived ResetAll")
	}
}
