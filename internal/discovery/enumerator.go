// Package discovery lists candidate businesses from the places provider,
// walking Nearby Search pagination and deduplicating across an entire
// multi-category search.
package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/pkg/places"
)

// pageTokenDelay is the provider-mandated minimum wait before a freshly
// issued next_page_token becomes valid.
const pageTokenDelay = 2 * time.Second

// Query parameterizes one category's enumeration.
type Query struct {
	Coords    model.Coordinates
	Radius    int
	PlaceType string
	Keyword   string
	Trade     string
}

// Enumerator lists place candidates for one search category at a time.
type Enumerator struct {
	places    places.Client
	pageDelay time.Duration
}

// NewEnumerator creates an Enumerator over the given provider client.
func NewEnumerator(client places.Client) *Enumerator {
	return &Enumerator{places: client, pageDelay: pageTokenDelay}
}

// Enumerate walks Nearby Search results for q, emitting a PlaceCandidate for
// every provider id not already in seen, which it mutates; dedup is global
// across the whole search, not per category. Pagination continues while the
// provider returns a token and underCap reports the caller still wants more.
//
// Failures never propagate: an initial-call failure means this category
// contributes nothing, a pagination failure ends this category's run, and a
// details failure skips that single candidate. Each is logged and swallowed
// so the remaining categories keep going.
func (e *Enumerator) Enumerate(ctx context.Context, q Query, seen map[string]struct{}, underCap func() bool, emit func(model.PlaceCandidate)) {
	log := zap.L().With(zap.String("trade", q.Trade))

	resp, err := e.places.NearbySearch(ctx, places.NearbyRequest{
		Lat:     q.Coords.Lat,
		Lng:     q.Coords.Lng,
		Radius:  q.Radius,
		Type:    q.PlaceType,
		Keyword: q.Keyword,
	})
	if err != nil {
		log.Warn("nearby search failed, skipping category", zap.Error(err))
		return
	}

	e.processPage(ctx, log, resp.Results, seen, emit)

	for resp.NextPageToken != "" && underCap() {
		if !e.waitForToken(ctx) {
			return
		}

		resp, err = e.places.NearbySearch(ctx, places.NearbyRequest{PageToken: resp.NextPageToken})
		if err != nil {
			log.Warn("pagination failed, ending category", zap.Error(err))
			return
		}
		e.processPage(ctx, log, resp.Results, seen, emit)
	}
}

// waitForToken sleeps out the provider's page-token delay; false means the
// context ended first.
func (e *Enumerator) waitForToken(ctx context.Context) bool {
	timer := time.NewTimer(e.pageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Enumerator) processPage(ctx context.Context, log *zap.Logger, results []places.NearbyResult, seen map[string]struct{}, emit func(model.PlaceCandidate)) {
	for _, result := range results {
		if _, dup := seen[result.PlaceID]; dup {
			continue
		}
		seen[result.PlaceID] = struct{}{}

		details, err := e.places.Details(ctx, result.PlaceID)
		if err != nil {
			log.Warn("place details failed, skipping candidate",
				zap.String("place_id", result.PlaceID),
				zap.Error(err),
			)
			continue
		}

		emit(buildCandidate(result, details))
	}
}

// buildCandidate merges a search hit with its details fetch. Coordinates come
// from the search result; contact fields come from details.
func buildCandidate(result places.NearbyResult, details *places.PlaceDetails) model.PlaceCandidate {
	name := details.Name
	if name == "" {
		name = result.Name
	}
	rating := details.Rating
	if rating == nil {
		rating = result.Rating
	}
	ratingCount := details.UserRatingsTotal
	if ratingCount == nil {
		ratingCount = result.UserRatingsTotal
	}

	return model.PlaceCandidate{
		ProviderID:  result.PlaceID,
		Name:        name,
		Address:     details.FormattedAddress,
		Website:     details.Website,
		Phone:       details.Phone,
		Rating:      rating,
		RatingCount: ratingCount,
		Location: model.Coordinates{
			Lat: result.Geometry.Location.Lat,
			Lng: result.Geometry.Location.Lng,
		},
	}
}
