package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/geocode"
)

var postcodesCmd = &cobra.Command{
	Use:   "postcodes",
	Short: "Manage the offline postcode table",
}

var postcodesImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import an ONS postcode CSV into the offline table",
	Long:  "Loads postcode centroids from an ONS Postcode Directory CSV. The column layout is detected from the header row; rows without usable coordinates are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()

		table, err := geocode.OpenPostcodeTable(cfg.Postcodes.Path)
		if err != nil {
			return err
		}
		defer table.Close()

		n, err := table.ImportCSV(ctx, f)
		if err != nil {
			return err
		}

		total, err := table.Count(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("postcode import complete",
			zap.Int("imported", n),
			zap.Int("total", total),
			zap.String("path", cfg.Postcodes.Path))
		return nil
	},
}

var postcodesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the size of the offline postcode table",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := geocode.OpenPostcodeTable(cfg.Postcodes.Path)
		if err != nil {
			return err
		}
		defer table.Close()

		total, err := table.Count(cmd.Context())
		if err != nil {
			return err
		}

		zap.L().Info("postcode table",
			zap.Int("postcodes", total),
			zap.String("path", cfg.Postcodes.Path))
		return nil
	},
}

func init() {
	postcodesCmd.AddCommand(postcodesImportCmd)
	postcodesCmd.AddCommand(postcodesStatusCmd)
	rootCmd.AddCommand(postcodesCmd)
}
