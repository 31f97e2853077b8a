// Package registry fuzzy-matches business names against the Companies House
// register and attaches verification data to search candidates.
package registry

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/pkg/companieshouse"
)

const (
	// defaultThreshold is the minimum score a candidate must exceed.
	defaultThreshold = 0.40
	// defaultMaxCandidates caps the register search page.
	defaultMaxCandidates = 10
	// postcodeBonus is added when the business postcode appears in the
	// candidate's registered postcode, on top of the word-set score. The
	// sum is not clamped, so scores above 1.0 are possible.
	postcodeBonus = 0.30
	// maxOfficers bounds the officer list attached to a match.
	maxOfficers = 5
)

// Matcher enriches businesses with registry data.
type Matcher struct {
	client        companieshouse.Client
	threshold     float64
	maxCandidates int
}

// NewMatcher creates a Matcher. Non-positive threshold or candidate cap fall
// back to the defaults.
func NewMatcher(client companieshouse.Client, threshold float64, maxCandidates int) *Matcher {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	return &Matcher{client: client, threshold: threshold, maxCandidates: maxCandidates}
}

// Enrich finds the register entry best matching the business name, scoring
// candidates by word-set similarity with a postcode bonus, and returns the
// winner's profile with up to five officers. Enrichment is always optional:
// every failure is logged and yields nil rather than an error, so a registry
// outage never fails the surrounding search.
func (m *Matcher) Enrich(ctx context.Context, businessName, postcode string) *model.RegistryMatch {
	log := zap.L().With(zap.String("business", businessName))

	search, err := m.client.SearchCompanies(ctx, businessName, m.maxCandidates)
	if err != nil {
		log.Warn("registry search failed", zap.Error(err))
		return nil
	}
	if len(search.Items) == 0 {
		return nil
	}

	best, bestScore := m.pickBest(businessName, postcode, search.Items)
	if best == nil {
		log.Debug("no registry candidate above threshold", zap.Float64("best_score", bestScore))
		return nil
	}

	profile, officers := m.fetchProfile(ctx, log, best.CompanyNumber)
	if profile == nil {
		return nil
	}

	return &model.RegistryMatch{
		CompanyNumber:     profile.CompanyNumber,
		OfficialName:      profile.CompanyName,
		Status:            profile.CompanyStatus,
		RegisteredAddress: profile.RegisteredOfficeAddress.OneLine(),
		SICCodes:          profile.SICCodes,
		Officers:          officers,
		IncorporatedOn:    profile.DateOfCreation,
		MatchScore:        bestScore,
	}
}

// pickBest scores every candidate and returns the highest scorer if it clears
// the threshold, else nil. The returned score is reported either way.
func (m *Matcher) pickBest(businessName, postcode string, items []companieshouse.SearchItem) (*companieshouse.SearchItem, float64) {
	var best *companieshouse.SearchItem
	bestScore := 0.0

	for i := range items {
		item := &items[i]
		score := Similarity(businessName, item.Title)
		if postcode != "" && postcodeMatches(postcode, item.Address.PostalCode) {
			score += postcodeBonus
		}
		if score > bestScore {
			best, bestScore = item, score
		}
	}

	if bestScore <= m.threshold {
		return nil, bestScore
	}
	return best, bestScore
}

// postcodeMatches reports whether the business postcode is a substring of the
// candidate's registered postcode, ignoring case and spacing.
func postcodeMatches(business, registered string) bool {
	b := strings.ToUpper(strings.ReplaceAll(business, " ", ""))
	r := strings.ToUpper(strings.ReplaceAll(registered, " ", ""))
	return b != "" && r != "" && strings.Contains(r, b)
}

// fetchProfile retrieves the profile and officer list concurrently. A profile
// failure voids the match; an officers failure degrades to an empty list.
func (m *Matcher) fetchProfile(ctx context.Context, log *zap.Logger, companyNumber string) (*companieshouse.Profile, []model.Officer) {
	var (
		profile  *companieshouse.Profile
		officers []model.Officer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := m.client.Profile(gctx, companyNumber)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		ol, err := m.client.Officers(gctx, companyNumber)
		if err != nil {
			log.Warn("registry officers fetch failed", zap.String("company_number", companyNumber), zap.Error(err))
			return nil
		}
		officers = reduceOfficers(ol.Items)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn("registry profile fetch failed", zap.String("company_number", companyNumber), zap.Error(err))
		return nil, nil
	}
	return profile, officers
}

func reduceOfficers(items []companieshouse.Officer) []model.Officer {
	if len(items) > maxOfficers {
		items = items[:maxOfficers]
	}
	out := make([]model.Officer, 0, len(items))
	for _, o := range items {
		out = append(out, model.Officer{
			Name:        o.Name,
			Role:        o.OfficerRole,
			AppointedOn: o.AppointedOn,
		})
	}
	return out
}
