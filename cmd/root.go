// Package cmd implements the CLI commands for siteindexer.
package cmd

import "github.com/spf13/cobra"

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "siteindexer",
	Short:         "siteindexer — multi-site crawler and inverted-index builder",
	SilenceErrors: true,
	SilenceUsage:  true,
	Long: `siteindexer crawls a configured list of sites, extracts
linguistic lemmas from every reachable internal page, and persists a
site/page/lemma/index model for a separate search component to query.

Homepage: https://github.com/tariktz/siteindexer`,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version of siteindexer",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("siteindexer", Version)
		},
	})
}

// Execute runs the root command. It is the single entry point called by main.
func Execute() error {
	return rootCmd.Execute()
}
