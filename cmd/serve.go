package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tariktz/siteindexer/internal/api"
	"github.com/tariktz/siteindexer/internal/config"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run database migrations and start the HTTP control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	})
}

func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.store.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		st.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	server := api.New(st.coordinator, st.reindexer, st.store, cfg.Sites)
	st.logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP control server")
	return server.Start(ctx, cfg.HTTPAddr)
}
