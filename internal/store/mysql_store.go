package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/tariktz/siteindexer/internal/normalize"
)

// MySQLStore is the Page Store's production backend, built on
// github.com/jmoiron/sqlx over github.com/go-sql-driver/mysql.
type MySQLStore struct {
	db *sqlx.DB
}

// Open connects to dsn and verifies reachability with a ping.
func Open(ctx context.Context, dsn string) (*MySQLStore, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the raw *sql.DB, needed by goose for running migrations.
func (s *MySQLStore) DB() *sql.DB {
	return s.db.DB
}

type siteRow struct {
	ID         int64          `db:"id"`
	URL        string         `db:"url"`
	Name       string         `db:"name"`
	Status     string         `db:"status"`
	StatusTime time.Time      `db:"status_time"`
	LastError  sql.NullString `db:"last_error"`
}

func (r siteRow) toSite() Site {
	s := Site{ID: r.ID, URL: r.URL, Name: r.Name, Status: Status(r.Status), StatusTime: r.StatusTime}
	if r.LastError.Valid {
		s.LastError = &r.LastError.String
	}
	return s
}

func (s *MySQLStore) ResetAll(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM indexx",
		"DELETE FROM lemma",
		"DELETE FROM page",
		"DELETE FROM site",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset_all %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

func (s *MySQLStore) CreateSite(ctx context.Context, url, name string) (Site, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO site (url, name, status, status_time) VALUES (?, ?, ?, NOW())`,
		url, name, StatusIndexing)
	if err != nil {
		return Site{}, fmt.Errorf("create_site: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Site{}, err
	}
	return Site{ID: id, URL: url, Name: name, Status: StatusIndexing, StatusTime: time.Now()}, nil
}

func (s *MySQLStore) FindSiteByURL(ctx context.Context, url string) (Site, bool, error) {
	var row siteRow
	err := s.db.GetContext(ctx, &row, `SELECT id, url, name, status, status_time, last_error FROM site WHERE url = ?`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return Site{}, false, nil
	}
	if err != nil {
		return Site{}, false, fmt.Errorf("find_site_by_url: %w", err)
	}
	return row.toSite(), true, nil
}

func (s *MySQLStore) FindSiteByHost(ctx context.Context, host string) (Site, bool, error) {
	var rows []siteRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, url, name, status, status_time, last_error FROM site`); err != nil {
		return Site{}, false, fmt.Errorf("find_site_by_host: %w", err)
	}
	for _, r := range rows {
		if h, err := normalize.Host(r.URL); err == nil && h == host {
			return r.toSite(), true, nil
		}
	}
	return Site{}, false, nil
}

func (s *MySQLStore) ListSites(ctx context.Context) ([]Site, error) {
	var rows []siteRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, url, name, status, status_time, last_error FROM site ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list_sites: %w", err)
	}
	sites := make([]Site, len(rows))
	for i, r := range rows {
		sites[i] = r.toSite()
	}
	return sites, nil
}

func (s *MySQLStore) UpdateSiteStatus(ctx context.Context, siteID int64, status Status, lastError *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE site SET status = ?, status_time = NOW(), last_error = ? WHERE id = ?`,
		status, lastError, siteID)
	if err != nil {
		return fmt.Errorf("update_site_status: %w", err)
	}
	return nil
}

type pageRow struct {
	ID      int64  `db:"id"`
	SiteID  int64  `db:"site_id"`
	Path    string `db:"path"`
	Code    int    `db:"code"`
	Content string `db:"content"`
}

func (s *MySQLStore) FindPage(ctx context.Context, siteID int64, path string) (Page, bool, error) {
	var row pageRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, site_id, path, code, content FROM page WHERE site_id = ? AND path = ?`, siteID, path)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, fmt.Errorf("find_page: %w", err)
	}
	return Page{ID: row.ID, SiteID: row.SiteID, Path: row.Path, Code: row.Code, Content: row.Content}, true, nil
}

// SavePage implements the spec's page-creation tie-break: on a duplicate
// (site_id, path) row it reloads and reuses the winner rather than
// failing the caller.
func (s *MySQLStore) SavePage(ctx context.Context, page *Page) error {
	if page.ID != 0 {
		_, err := s.db.ExecContext(ctx,
			`UPDATE page SET code = ?, content = ? WHERE id = ?`, page.Code, page.Content, page.ID)
		if err != nil {
			return fmt.Errorf("save_page update: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO page (site_id, path, code, content) VALUES (?, ?, ?, ?)`,
		page.SiteID, page.Path, page.Code, page.Content)
	if err != nil {
		existing, found, ferr := s.FindPage(ctx, page.SiteID, page.Path)
		if ferr == nil && found {
			page.ID = existing.ID
			return nil
		}
		return fmt.Errorf("save_page insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	page.ID = id
	return nil
}

type lemmaRow struct {
	ID        int64  `db:"id"`
	SiteID    int64  `db:"site_id"`
	Text      string `db:"lemma"`
	Frequency int64  `db:"frequency"`
}

// FindLemma satisfies cache.LemmaLookup.
func (s *MySQLStore) FindLemma(siteID int64, text string) (int64, int64, bool, error) {
	var row lemmaRow
	err := s.db.Get(&row, `SELECT id, site_id, lemma, frequency FROM lemma WHERE site_id = ? AND lemma = ?`, siteID, text)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("find_lemma: %w", err)
	}
	return row.ID, row.Frequency, true, nil
}

func (s *MySQLStore) SaveLemmasBatch(ctx context.Context, lemmas []*LemmaRecord) error {
	if len(lemmas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, l := range lemmas {
		if l.ID == 0 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO lemma (site_id, lemma, frequency) VALUES (?, ?, ?)`, l.SiteID, l.Text, l.Frequency)
			if err != nil {
				return fmt.Errorf("save_lemmas_batch insert %q: %w", l.Text, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			l.ID = id
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE lemma SET frequency = ? WHERE id = ?`, l.Frequency, l.ID); err != nil {
			return fmt.Errorf("save_lemmas_batch update %q: %w", l.Text, err)
		}
	}
	return tx.Commit()
}

func (s *MySQLStore) SaveIndicesBatch(ctx context.Context, indices []IndexRecord) error {
	if len(indices) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, ix := range indices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO indexx (page_id, lemma_id, rankk) VALUES (?, ?, ?)`, ix.PageID, ix.LemmaID, ix.Rank); err != nil {
			return fmt.Errorf("save_indices_batch: %w", err)
		}
	}
	return tx.Commit()
}

func (s *MySQLStore) DeleteIndicesForPage(ctx context.Context, pageID int64) ([]IndexRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var rows []struct {
		ID      int64   `db:"id"`
		PageID  int64   `db:"page_id"`
		LemmaID int64   `db:"lemma_id"`
		Rank    float64 `db:"rankk"`
	}
	if err := tx.SelectContext(ctx, &rows, `SELECT id, page_id, lemma_id, rankk FROM indexx WHERE page_id = ?`, pageID); err != nil {
		return nil, fmt.Errorf("delete_indices_for_page select: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexx WHERE page_id = ?`, pageID); err != nil {
		return nil, fmt.Errorf("delete_indices_for_page delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	out := make([]IndexRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, IndexRecord{ID: r.ID, PageID: r.PageID, LemmaID: r.LemmaID, Rank: r.Rank})
	}
	return out, nil
}

func (s *MySQLStore) AdjustLemmaFrequencies(ctx context.Context, deltas map[int64]int64) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for lemmaID, delta := range deltas {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lemma SET frequency = GREATEST(0, frequency + ?) WHERE id = ?`, delta, lemmaID); err != nil {
			return fmt.Errorf("adjust_lemma_frequencies: %w", err)
		}
	}
	return tx.Commit()
}
