package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tariktz/siteindexer/internal/config"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "start [name=url ...]",
		Short: "Run one full indexing pass over the configured (or given) sites and block until it finishes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if sites, err := parseSiteArgs(args); err != nil {
				return err
			} else if len(sites) > 0 {
				cfg.Sites = sites
			}
			return runStart(cfg)
		},
	})
}

// parseSiteArgs accepts `name=url` positional arguments as a one-shot
// override of the configured site list.
func parseSiteArgs(args []string) ([]config.Site, error) {
	sites := make([]config.Site, 0, len(args))
	for _, arg := range args {
		name, url, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid site argument %q, want name=url", arg)
		}
		sites = append(sites, config.Site{Name: name, URL: url})
	}
	return sites, nil
}

func runStart(cfg *config.Config) error {
	ctx := context.Background()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.store.Close()

	sites := st.sitesAsStoreSites(cfg.Sites)
	fmt.Printf("Indexing %d site(s)...\n", len(sites))

	if err := st.coordinator.StartIndexing(ctx, sites); err != nil {
		return err
	}

	entries := st.coordinator.Errors()
	fmt.Println("Indexing run finished")
	fmt.Printf("  Errors recorded: %d\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  [%s] %s (%s): %s\n", e.Kind, e.URL, e.Operation, e.Message)
	}
	return nil
}
