// Package fetch implements the Fetcher contract (spec C2): given a URL,
// retrieve its status code, final URL (after redirects), and parsed HTML
// document. It is the only package in this module that talks to the
// network, built on top of the teacher's HTTP engine of choice,
// github.com/gocolly/colly/v2, configured here for single-shot synchronous
// requests rather than colly's own asynchronous crawl queue — concurrency
// and link traversal are the Crawl Scheduler's responsibility (see
// internal/crawl), not the Fetcher's.
package fetch

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/tariktz/siteindexer/internal/errs"
)

// defaultBinaryExtensions is the default file-type filter: URLs whose
// path ends with one of these extensions are skipped without a request.
var defaultBinaryExtensions = []string{
	".pdf", ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".svg", ".webp",
	".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv",
	".mp3", ".wav", ".aac", ".flac", ".ogg",
	".zip", ".rar", ".7z", ".tar", ".gz",
	".exe", ".dmg", ".iso", ".apk",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf",
}

// Result is the outcome of a successful fetch.
type Result struct {
	StatusCode int
	FinalURL   string
	Document   *goquery.Document
	Body       []byte
}

// Fetcher performs single-URL HTTP fetches. It is safe for concurrent use;
// each call builds its own collector with request-scoped callbacks.
type Fetcher struct {
	userAgent        string
	timeout          time.Duration
	binaryExtensions map[string]struct{}
	allowedSchemes   map[string]struct{}
}

// Options configures a Fetcher.
type Options struct {
	UserAgent        string
	Timeout          time.Duration
	BinaryExtensions []string // nil means use the built-in default list
}

// New builds a Fetcher from Options, applying defaults for zero values.
func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "SiteIndexer-Bot/1.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	exts := opts.BinaryExtensions
	if exts == nil {
		exts = defaultBinaryExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = struct{}{}
	}
	return &Fetcher{
		userAgent:        opts.UserAgent,
		timeout:          opts.Timeout,
		binaryExtensions: set,
		allowedSchemes:   map[string]struct{}{"http": {}, "https": {}},
	}
}

// IsBinaryURL reports whether rawURL's path ends in a known binary/media
// extension and should be skipped without fetching.
func (f *Fetcher) IsBinaryURL(rawURL string) bool {
	ext := strings.ToLower(path.Ext(strippedQuery(rawURL)))
	if ext == "" {
		return false
	}
	_, ok := f.binaryExtensions[ext]
	return ok
}

func strippedQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// SupportsScheme reports whether scheme is one the Fetcher will request
// (http/https only — mailto/ftp/file/javascript are pre-filtered here so
// callers never attempt to fetch them).
func (f *Fetcher) SupportsScheme(scheme string) bool {
	_, ok := f.allowedSchemes[strings.ToLower(scheme)]
	return ok
}

// Fetch retrieves url and returns its status, final URL, and parsed
// document. It returns an error wrapping ErrIO on network/DNS/TLS
// failure.
func (f *Fetcher) Fetch(url string) (Result, error) {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.SetRequestTimeout(f.timeout)

	var result Result
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.FinalURL = r.Request.URL.String()
		result.Body = r.Body
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(r.Body)))
		if err == nil {
			doc.Url = r.Request.URL
			result.Document = doc
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
			if r.Request != nil && r.Request.URL != nil {
				result.FinalURL = r.Request.URL.String()
			}
			return
		}
		fetchErr = fmt.Errorf("%w: %s: %v", errs.ErrIO, url, err)
	})

	// colly also reports HTTP error statuses through Visit; OnError has
	// already recorded those in result, so only transport failures fail.
	if err := c.Visit(url); err != nil && result.StatusCode == 0 {
		return Result{}, fmt.Errorf("%w: %s: %v", errs.ErrIO, url, err)
	}
	c.Wait()

	if fetchErr != nil {
		return Result{}, fetchErr
	}
	return result, nil
}
