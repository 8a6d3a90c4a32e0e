package fetch

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetch_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="/about">About</a></body></html>`))
	}))
	defer ts.Close()

	f := New(Options{Timeout: 5 * time.Second})
	res, err := f.Fetch(ts.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if res.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", res.StatusCode)
	}
	if res.Document == nil {
		t.Fatal("expected a parsed document")
	}
	if res.Document.Find("a").Length() != 1 {
		t.Errorf("expected 1 link in document")
	}
}

func TestFetch_404(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	f := New(Options{Timeout: 5 * time.Second})
	res, err := f.Fetch(ts.URL)
	if err != nil {
		t.Fatalf("Fetch should not error on HTTP-level 404: %v", err)
	}
	if res.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", res.StatusCode)
	}
}

func TestFetch_Unreachable(t *testing.T) {
	f := New(Options{Timeout: 2 * time.Second})
	_, err := f.Fetch("http://127.0.0.1:1")
	if err == nil {
		t.Fatal("expected an error for an unreachable host")
	}
}

func TestIsBinaryURL(t *testing.T) {
	f := New(Options{})
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/doc.pdf", true},
		{"https://example.com/image.JPG", true},
		{"https://example.com/page", false},
		{"https://example.com/file.pdf?x=1", true},
		{"https://example.com/", false},
	}
	for _, tt := range tests {
		if got := f.IsBinaryURL(tt.url); got != tt.want {
			t.Errorf("IsBinaryURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestSupportsScheme(t *testing.T) {
	f := New(Options{})
	if !f.SupportsScheme("http") || !f.SupportsScheme("HTTPS") {
		t.Error("http/https should be supported")
	}
	for _, s := range []string{"mailto", "ftp", "file", "javascript"} {
		if f.SupportsScheme(s) {
			t.Errorf("scheme %q should not be supported", s)
		}
	}
}
