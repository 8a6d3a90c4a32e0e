package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tariktz/siteindexer/internal/config"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Ask a running `serve` process to stop its in-progress indexing run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runStop(cfg.HTTPAddr)
		},
	})
}

func runStop(addr string) error {
	host := addr
	if strings.HasPrefix(addr, ":") {
		host = "localhost" + addr
	}
	url := "http://" + host + "/api/stopIndexing"

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("calling stopIndexing: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Result bool   `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding stopIndexing response: %w", err)
	}

	if !body.Result {
		return fmt.Errorf("stopIndexing rejected: %s", body.Error)
	}
	fmt.Println("Stop requested")
	return nil
}
