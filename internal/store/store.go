package store

import (
	"context"

	"github.com/fieldstone-group/tradeintel/internal/model"
)

// NearbyQuery filters the cached-business lookup.
type NearbyQuery struct {
	Lat          float64
	Lng          float64
	RadiusMeters float64
	Industry     string
	VerifiedOnly bool
	Limit        int
}

// Store persists discovered businesses and search run audit records.
type Store interface {
	Migrate(ctx context.Context) error
	UpsertBusiness(ctx context.Context, rec *model.BusinessRecord) error
	NearbyBusinesses(ctx context.Context, q NearbyQuery) ([]model.BusinessRecord, error)
	CreateSearchRun(ctx context.Context, location string, params model.SearchRequest) (string, error)
	CompleteSearchRun(ctx context.Context, id string, status model.RunStatus, totalFound int) error
	RecentSearchRuns(ctx context.Context, limit int) ([]model.SearchRun, error)
	Close()
}
