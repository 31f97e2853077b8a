package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldstone-group/tradeintel/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent search runs",
	Long:  "Prints the most recent search run audit records as JSON, newest first. Cancelled or interrupted searches show status \"failed\".",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.RecentSearchRuns(ctx, runsLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 0, "number of runs to list (default 20)")
	rootCmd.AddCommand(runsCmd)
}
