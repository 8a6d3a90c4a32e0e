// Package config loads process configuration from the environment (plus a
// local .env file if present), grounded on the pack's telegram-digest-bot
// config loader.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Site is one configured seed, as listed under the `sites` knob in §6.
type Site struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Config holds every knob enumerated in spec.md §6 plus the connection
// and process settings a complete deployment needs.
type Config struct {
	DBDSN    string `env:"DB_DSN,required,notEmpty"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Parallelism int `env:"INDEXING_PARALLELISM" envDefault:"8"`
	BatchSize   int `env:"INDEXING_BATCH_SIZE" envDefault:"5000"`

	PageURLCacheMax     int           `env:"PAGE_URL_CACHE_MAX" envDefault:"600"`
	PageURLCacheIdleTTL time.Duration `env:"PAGE_URL_CACHE_IDLE_TTL" envDefault:"10m"`
	LemmaCacheMax       int           `env:"LEMMA_CACHE_MAX" envDefault:"10000"`
	LemmaCacheIdleTTL   time.Duration `env:"LEMMA_CACHE_IDLE_TTL" envDefault:"10m"`

	FetchUserAgent   string        `env:"FETCH_USER_AGENT" envDefault:"siteindexer/1.0"`
	FetchConnTimeout time.Duration `env:"FETCH_CONNECT_TIMEOUT" envDefault:"10s"`
	FetchReadTimeout time.Duration `env:"FETCH_READ_TIMEOUT" envDefault:"30s"`

	// BinaryExtensions overrides the default file-type filter list when
	// non-empty (comma-separated, each including the leading dot).
	BinaryExtensions []string `env:"BINARY_EXTENSIONS" envSeparator:","`

	// Sites is the configured seed list. There is no single idiomatic env
	// encoding for a list of structs, so it is populated from repeated
	// `SITE_<n>_URL`/`SITE_<n>_NAME` pairs by Load; CLI commands may
	// instead supply it directly from flags/args.
	Sites []Site
}

// maxConfiguredSites bounds how many SITE_<n>_URL/SITE_<n>_NAME pairs Load
// scans for.
const maxConfiguredSites = 64

// Load reads configuration from the environment, pre-loading a local .env
// file when present (ignored if missing).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg.Sites = loadSitesFromEnv()

	return cfg, nil
}

func loadSitesFromEnv() []Site {
	var sites []Site
	for i := 0; i < maxConfiguredSites; i++ {
		u, ok := os.LookupEnv(fmt.Sprintf("SITE_%d_URL", i))
		if !ok || u == "" {
			continue
		}
		name := os.Getenv(fmt.Sprintf("SITE_%d_NAME", i))
		sites = append(sites, Site{URL: u, Name: name})
	}
	return sites
}
