// Package api implements the HTTP control surface (spec §6, spec A4):
// start/stop a full indexing run, index one page on demand, and read a
// snapshot of per-site status and recent errors, built on
// github.com/labstack/echo/v4.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tariktz/siteindexer/internal/config"
	"github.com/tariktz/siteindexer/internal/errs"
	"github.com/tariktz/siteindexer/internal/store"
)

// coordinator is the subset of internal/coordinator.Coordinator the
// server drives.
type coordinator interface {
	TryStartIndexing(ctx context.Context, sites []store.Site) error
	StopIndexing() error
	Errors() []errs.Entry
}

// reindexer is the subset of internal/reindex.Reindexer the server
// drives for on-demand single-page indexing.
type reindexer interface {
	IndexPage(ctx context.Context, rawURL string) error
}

// siteLister reads back configured sites for the status route.
type siteLister interface {
	ListSites(ctx context.Context) ([]store.Site, error)
}

// Server wires the three control routes plus the status route onto an
// echo.Echo instance.
type Server struct {
	echo        *echo.Echo
	coordinator coordinator
	reindexer   reindexer
	store       siteLister
	sites       []config.Site
}

// New builds a Server. sites is the configured seed list passed to every
// StartIndexing call triggered over HTTP.
func New(c coordinator, r reindexer, s siteLister, sites []config.Site) *Server {
	srv := &Server{echo: echo.New(), coordinator: c, reindexer: r, store: s, sites: sites}
	srv.echo.HideBanner = true
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.echo.GET("/api/startIndexing", s.handleStartIndexing)
	s.echo.GET("/api/stopIndexing", s.handleStopIndexing)
	s.echo.POST("/api/indexPage", s.handleIndexPage)
	s.echo.GET("/api/indexing", s.handleIndexingStatus)
}

// Start blocks serving on addr until ctx is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		_ = s.echo.Shutdown(context.Background())
	}()
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type response struct {
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

func okResponse(c echo.Context) error {
	return c.JSON(http.StatusOK, response{Result: true})
}

func errResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, response{Result: false, Error: message})
}

// handleStartIndexing accepts or rejects synchronously (the coordinator's
// running-flag CAS) and runs the indexing work itself in the background,
// per spec §4.9: the HTTP request only needs to observe acceptance.
func (s *Server) handleStartIndexing(c echo.Context) error {
	sites := make([]store.Site, len(s.sites))
	for i, site := range s.sites {
		sites[i] = store.Site{URL: site.URL, Name: site.Name}
	}

	runCtx := context.WithoutCancel(c.Request().Context())
	err := s.coordinator.TryStartIndexing(runCtx, sites)
	if err == nil {
		return okResponse(c)
	}

	var kindErr *errs.KindError
	if errors.As(err, &kindErr) && kindErr.Kind == errs.AlreadyRunning {
		return errResponse(c, "Indexing is already running")
	}
	return errResponse(c, err.Error())
}

func (s *Server) handleStopIndexing(c echo.Context) error {
	if err := s.coordinator.StopIndexing(); err != nil {
		var kindErr *errs.KindError
		if errors.As(err, &kindErr) && kindErr.Kind == errs.NotRunning {
			return errResponse(c, "Indexing is not running")
		}
		return errResponse(c, err.Error())
	}
	return okResponse(c)
}

func (s *Server) handleIndexPage(c echo.Context) error {
	rawURL := c.QueryParam("url")
	err := s.reindexer.IndexPage(c.Request().Context(), rawURL)
	if err == nil {
		return okResponse(c)
	}

	var kindErr *errs.KindError
	if errors.As(err, &kindErr) {
		switch kindErr.Kind {
		case errs.MalformedURL:
			return errResponse(c, "Invalid URL")
		case errs.OutOfScope:
			return errResponse(c, "URL is outside configured sites")
		}
	}
	return errResponse(c, err.Error())
}

type siteStatus struct {
	Site       string  `json:"site"`
	Status     string  `json:"status"`
	StatusTime string  `json:"status_time"`
	LastError  *string `json:"last_error,omitempty"`
}

type indexingStatusResponse struct {
	Sites  []siteStatus `json:"sites"`
	Errors []errs.Entry `json:"errors"`
}

func (s *Server) handleIndexingStatus(c echo.Context) error {
	sites, err := s.store.ListSites(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response{Result: false, Error: err.Error()})
	}

	out := indexingStatusResponse{Sites: make([]siteStatus, len(sites))}
	for i, site := range sites {
		out.Sites[i] = siteStatus{
			Site:       site.URL,
			Status:     string(site.Status),
			StatusTime: site.StatusTime.Format("2006-01-02T15:04:05Z07:00"),
			LastError:  site.LastError,
		}
	}
	out.Errors = s.coordinator.Errors()

	return c.JSON(http.StatusOK, out)
}
