package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/export"
	"github.com/fieldstone-group/tradeintel/internal/model"
)

var (
	searchRadius     int
	searchTrades     []string
	searchMaxResults int
	searchNoEnrich   bool
	searchOutput     string
)

var searchCmd = &cobra.Command{
	Use:   "search <location>",
	Short: "Run a one-shot business search",
	Long:  "Discovers trade businesses around the given UK postcode or address, enriches them, and prints the result as JSON. Use --output to write an XLSX workbook instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.SearchRequest{
			Location:   args[0],
			Radius:     searchRadius,
			Trades:     searchTrades,
			MaxResults: searchMaxResults,
		}
		if searchNoEnrich {
			enrich := false
			req.Enrich = &enrich
		}

		resp, err := env.Service.Search(ctx, req)
		if err != nil {
			return err
		}

		if searchOutput != "" {
			if err := export.WriteXLSX(searchOutput, resp.Businesses); err != nil {
				return err
			}
			zap.L().Info("export written",
				zap.String("path", searchOutput),
				zap.Int("businesses", resp.TotalFound))
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchRadius, "radius", 0, "search radius in meters (default 20000)")
	searchCmd.Flags().StringSliceVar(&searchTrades, "trades", nil, "trade categories to search (default carpenter,builder,electrician,plumber)")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "cap on returned businesses (default 50)")
	searchCmd.Flags().BoolVar(&searchNoEnrich, "no-enrich", false, "skip Companies House enrichment")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "write results to an XLSX file instead of stdout")
	rootCmd.AddCommand(searchCmd)
}
