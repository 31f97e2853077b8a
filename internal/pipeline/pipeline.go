// Package pipeline orchestrates a full business search: resolve the location,
// enumerate provider listings per trade category, enrich against the company
// register, and persist the merged records.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/discovery"
	"github.com/fieldstone-group/tradeintel/internal/geocode"
	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/internal/store"
	"github.com/fieldstone-group/tradeintel/internal/trades"
	"github.com/fieldstone-group/tradeintel/pkg/companieshouse"
)

// sourceLabel is recorded on every persisted business.
const sourceLabel = "Google Places API"

// LocationResolver turns free-text locations into coordinates.
type LocationResolver interface {
	Resolve(ctx context.Context, location string) (model.Coordinates, error)
}

// Enumerator walks provider listings for one category query.
type Enumerator interface {
	Enumerate(ctx context.Context, q discovery.Query, seen map[string]struct{}, underCap func() bool, emit func(model.PlaceCandidate))
}

// Enricher attaches registry data to a business, or nil when no match.
type Enricher interface {
	Enrich(ctx context.Context, businessName, postcode string) *model.RegistryMatch
}

// Service wires the search pipeline together.
type Service struct {
	resolver LocationResolver
	mapper   *trades.Mapper
	enum     Enumerator
	enricher Enricher
	registry companieshouse.Client
	store    store.Store
	now      func() time.Time
}

// New creates a Service over the given collaborators.
func New(resolver LocationResolver, mapper *trades.Mapper, enum Enumerator, enricher Enricher, registry companieshouse.Client, st store.Store) *Service {
	return &Service{
		resolver: resolver,
		mapper:   mapper,
		enum:     enum,
		enricher: enricher,
		registry: registry,
		store:    st,
		now:      time.Now,
	}
}

// Search runs the full pipeline for one request. The only fatal failure is an
// unresolvable location; provider, registry, and storage trouble degrade the
// result instead of failing it.
func (s *Service) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	req.ApplyDefaults()
	log := zap.L().With(zap.String("location", req.Location))

	coords, err := s.resolver.Resolve(ctx, req.Location)
	if err != nil {
		return nil, err
	}

	runID, err := s.store.CreateSearchRun(ctx, req.Location, req)
	if err != nil {
		// Audit trouble never blocks the search itself.
		log.Warn("create search run failed", zap.Error(err))
		runID = ""
	}

	type found struct {
		candidate model.PlaceCandidate
		mapping   trades.Mapping
	}
	var (
		seen       = make(map[string]struct{})
		candidates []found
	)
	underCap := func() bool { return len(candidates) < req.MaxResults }

	for _, trade := range req.Trades {
		if !underCap() {
			break
		}
		mapping := s.mapper.Lookup(trade)
		s.enum.Enumerate(ctx, discovery.Query{
			Coords:    coords,
			Radius:    req.Radius,
			PlaceType: mapping.PlaceType,
			Keyword:   mapping.Keyword,
			Trade:     trade,
		}, seen, underCap, func(c model.PlaceCandidate) {
			candidates = append(candidates, found{candidate: c, mapping: mapping})
		})
	}

	if len(candidates) > req.MaxResults {
		candidates = candidates[:req.MaxResults]
	}

	records := make([]model.BusinessRecord, 0, len(candidates))
	for _, f := range candidates {
		rec := s.buildRecord(ctx, f.candidate, f.mapping, *req.Enrich)
		if err := s.store.UpsertBusiness(ctx, &rec); err != nil {
			log.Warn("upsert business failed",
				zap.String("place_id", rec.PlaceID), zap.Error(err))
		}
		records = append(records, rec)
	}

	if runID != "" {
		status := model.RunStatusComplete
		if ctx.Err() != nil {
			// A cancelled search still returns what it gathered, but the
			// audit row records that it did not run to completion.
			status = model.RunStatusFailed
		}
		if err := s.store.CompleteSearchRun(context.WithoutCancel(ctx), runID, status, len(records)); err != nil {
			log.Warn("complete search run failed", zap.Error(err))
		}
	}

	return &model.SearchResponse{
		Success:        true,
		TotalFound:     len(records),
		Businesses:     records,
		SearchLocation: coords,
		SearchParams:   req,
	}, nil
}

// buildRecord merges a provider candidate with optional registry enrichment.
func (s *Service) buildRecord(ctx context.Context, c model.PlaceCandidate, mapping trades.Mapping, enrich bool) model.BusinessRecord {
	rec := model.BusinessRecord{
		PlaceID:         c.ProviderID,
		CompanyName:     c.Name,
		PrimaryIndustry: mapping.Industry,
		FullAddress:     c.Address,
		SourceURL:       sourceLabel,
		DateOfScraping:  s.now().UTC().Format("2006-01-02"),
		Rating:          c.Rating,
		TotalRatings:    c.RatingCount,
		Location:        model.NewGeoPoint(c.Location),
		Verification:    model.VerificationUnverified,
		LastUpdated:     s.now().UTC(),
	}
	if pc := geocode.ExtractPostcode(c.Address); pc != "" {
		rec.Postcode = &pc
	}
	if c.Website != "" {
		rec.WebsiteURL = &c.Website
	}
	if c.Phone != "" {
		rec.PhoneNumber = &c.Phone
	}

	if enrich && s.enricher != nil {
		postcode := ""
		if rec.Postcode != nil {
			postcode = *rec.Postcode
		}
		if match := s.enricher.Enrich(ctx, c.Name, postcode); match != nil {
			rec.RegistryMatch = match
			if match.Status == "active" {
				rec.Verification = model.VerificationVerified
			} else {
				rec.Verification = model.VerificationInactive
			}
		}
	}
	return rec
}

// Nearby returns cached businesses around a point, nearest first.
func (s *Service) Nearby(ctx context.Context, q store.NearbyQuery) ([]model.BusinessRecord, error) {
	return s.store.NearbyBusinesses(ctx, q)
}

// CompanyDetail pairs a registry profile with its reduced officer list.
type CompanyDetail struct {
	Profile  companieshouse.Profile `json:"company"`
	Officers []model.Officer        `json:"officers"`
}

// Company looks up one company by its registration number. Officer trouble
// degrades to an empty list; a missing profile surfaces as ErrNotFound.
func (s *Service) Company(ctx context.Context, companyNumber string) (*CompanyDetail, error) {
	if s.registry == nil {
		return nil, eris.New("pipeline: registry client not configured")
	}
	profile, err := s.registry.Profile(ctx, companyNumber)
	if err != nil {
		return nil, err
	}
	detail := &CompanyDetail{Profile: *profile, Officers: []model.Officer{}}
	officers, err := s.registry.Officers(ctx, companyNumber)
	if err != nil {
		zap.L().Warn("officer lookup failed",
			zap.String("company_number", companyNumber), zap.Error(err))
		return detail, nil
	}
	for _, o := range officers.Items {
		detail.Officers = append(detail.Officers, model.Officer{
			Name:        o.Name,
			Role:        o.OfficerRole,
			AppointedOn: o.AppointedOn,
		})
	}
	return detail, nil
}

// SearchCompanies proxies a raw register search.
func (s *Service) SearchCompanies(ctx context.Context, query string, itemsPerPage int) (*companieshouse.SearchResponse, error) {
	if s.registry == nil {
		return nil, eris.New("pipeline: registry client not configured")
	}
	return s.registry.SearchCompanies(ctx, query, itemsPerPage)
}
