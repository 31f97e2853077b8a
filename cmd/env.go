package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/discovery"
	"github.com/fieldstone-group/tradeintel/internal/geocode"
	"github.com/fieldstone-group/tradeintel/internal/pipeline"
	"github.com/fieldstone-group/tradeintel/internal/registry"
	"github.com/fieldstone-group/tradeintel/internal/store"
	"github.com/fieldstone-group/tradeintel/internal/trades"
	"github.com/fieldstone-group/tradeintel/pkg/companieshouse"
	"github.com/fieldstone-group/tradeintel/pkg/places"
)

// pipelineEnv holds the initialized clients, store, and pipeline needed by
// the serve and search commands.
type pipelineEnv struct {
	Store     store.Store
	Postcodes *geocode.PostcodeTable
	Service   *pipeline.Service
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Postcodes != nil {
		_ = pe.Postcodes.Close()
	}
	if pe.Store != nil {
		pe.Store.Close()
	}
}

// initPipeline sets up the store, API clients, and resolver, and builds the
// pipeline Service. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("places", "registry", "store"); err != nil {
		return nil, err
	}

	st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Offline postcode table is optional; address geocoding still works
	// through the provider when it is absent.
	var postcodes *geocode.PostcodeTable
	pt, err := geocode.OpenPostcodeTable(cfg.Postcodes.Path)
	if err != nil {
		zap.L().Warn("postcode table unavailable, postcode lookups will fail",
			zap.String("path", cfg.Postcodes.Path), zap.Error(err))
	} else {
		postcodes = pt
	}

	placesClient := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))
	registryClient := companieshouse.NewClient(cfg.Registry.Key, companieshouse.WithBaseURL(cfg.Registry.BaseURL))

	mapper := trades.NewMapper()
	if cfg.Trades.OverridesPath != "" {
		mapper, err = trades.NewMapperWithOverrides(cfg.Trades.OverridesPath)
		if err != nil {
			if postcodes != nil {
				_ = postcodes.Close()
			}
			st.Close()
			return nil, err
		}
	}

	svc := pipeline.New(
		geocode.NewResolver(postcodes, placesClient, cfg.Search.Country),
		mapper,
		discovery.NewEnumerator(placesClient),
		registry.NewMatcher(registryClient, cfg.Registry.SimilarityThreshold, cfg.Registry.MaxCandidates),
		registryClient,
		st,
	)

	return &pipelineEnv{Store: st, Postcodes: postcodes, Service: svc}, nil
}
