package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tariktz/siteindexer/internal/config"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "index-page <url>",
		Short: "Re-index a single URL against whichever configured site it belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runIndexPage(cfg, args[0])
		},
	})
}

func runIndexPage(cfg *config.Config, rawURL string) error {
	ctx := context.Background()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.store.Close()

	if err := st.reindexer.IndexPage(ctx, rawURL); err != nil {
		return err
	}
	fmt.Printf("Indexed %s\n", rawURL)
	return nil
}
