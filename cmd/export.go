package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/export"
	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/internal/store"
)

var (
	exportLat      float64
	exportLng      float64
	exportRadius   float64
	exportIndustry string
	exportVerified bool
	exportLimit    int
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached businesses around a point to XLSX",
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

		radius := exportRadius
		if radius <= 0 {
			radius = model.DefaultRadiusMeters
		}

		records, err := st.NearbyBusinesses(ctx, store.NearbyQuery{
			Lat:          exportLat,
			Lng:          exportLng,
			RadiusMeters: radius,
			Industry:     exportIndustry,
			VerifiedOnly: exportVerified,
			Limit:        exportLimit,
		})
		if err != nil {
			return err
		}

		if err := export.WriteXLSX(exportOut, records); err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", exportOut),
			zap.Int("businesses", len(records)))
		return nil
	},
}

func init() {
	exportCmd.Flags().Float64Var(&exportLat, "lat", 0, "center latitude")
	exportCmd.Flags().Float64Var(&exportLng, "lng", 0, "center longitude")
	exportCmd.Flags().Float64Var(&exportRadius, "radius", 0, "radius in meters (default 20000)")
	exportCmd.Flags().StringVar(&exportIndustry, "industry", "", "filter by primary industry")
	exportCmd.Flags().BoolVar(&exportVerified, "verified", false, "only registry-verified businesses")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "cap on exported rows (default 100)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "businesses.xlsx", "output file path")
	_ = exportCmd.MarkFlagRequired("lat")
	_ = exportCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(exportCmd)
}
