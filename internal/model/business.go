package model

import (
	"time"
)

// VerificationStatus reflects the outcome of registry enrichment for a business.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationInactive   VerificationStatus = "inactive"
)

// DefaultTrades are the categories searched when a request names none.
var DefaultTrades = []string{"carpenter", "builder", "electrician", "plumber"}

const (
	// DefaultRadiusMeters is roughly a 12.4 mile catchment.
	DefaultRadiusMeters = 20000
	DefaultMaxResults   = 50
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies in geographic range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// SearchRequest is an inbound business search.
type SearchRequest struct {
	Location   string   `json:"location"`
	Radius     int      `json:"radius"`
	Trades     []string `json:"business_types"`
	MaxResults int      `json:"max_results"`
	Enrich     *bool    `json:"enrich,omitempty"`
}

// ApplyDefaults fills zero-valued fields with the documented defaults.
func (r *SearchRequest) ApplyDefaults() {
	if r.Radius <= 0 {
		r.Radius = DefaultRadiusMeters
	}
	if len(r.Trades) == 0 {
		r.Trades = append([]string(nil), DefaultTrades...)
	}
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.Enrich == nil {
		enrich := true
		r.Enrich = &enrich
	}
}

// PlaceCandidate is a raw provider listing before enrichment and merging.
// Identity is ProviderID; candidates are never mutated after creation.
type PlaceCandidate struct {
	ProviderID  string      `json:"provider_id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Website     string      `json:"website,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Rating      *float64    `json:"rating,omitempty"`
	RatingCount *int        `json:"rating_count,omitempty"`
	Location    Coordinates `json:"location"`
}

// Officer is a company officer reduced to the fields we surface.
type Officer struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	AppointedOn string `json:"appointed_on,omitempty"`
}

// RegistryMatch is the registry profile attached to a business when a search
// candidate clears the similarity threshold.
type RegistryMatch struct {
	CompanyNumber     string    `json:"company_number"`
	OfficialName      string    `json:"official_name"`
	Status            string    `json:"status"`
	RegisteredAddress string    `json:"registered_address,omitempty"`
	SICCodes          []string  `json:"sic_codes,omitempty"`
	Officers          []Officer `json:"officers,omitempty"`
	IncorporatedOn    string    `json:"incorporated_on,omitempty"`
	MatchScore        float64   `json:"match_score"`
}

// GeoPoint is a GeoJSON point, coordinates ordered [lng, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from coordinates.
func NewGeoPoint(c Coordinates) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{c.Lng, c.Lat}}
}

// BusinessRecord is the canonical, persisted representation of a business.
// PlaceID is globally unique in storage and acts as the upsert key.
type BusinessRecord struct {
	PlaceID          string             `json:"place_id"`
	CompanyName      string             `json:"company_name"`
	TradespersonName *string            `json:"tradesperson_name"`
	PrimaryIndustry  string             `json:"primary_industry"`
	FullAddress      string             `json:"full_address"`
	Postcode         *string            `json:"postcode"`
	WebsiteURL       *string            `json:"website_url"`
	PhoneNumber      *string            `json:"phone_number"`
	// EmailAddress is always nil: the places provider never supplies one.
	EmailAddress   *string            `json:"email_address"`
	SourceURL      string             `json:"source_url"`
	DateOfScraping string             `json:"date_of_scraping"`
	Rating         *float64           `json:"rating"`
	TotalRatings   *int               `json:"total_ratings"`
	Location       GeoPoint           `json:"location"`
	RegistryMatch  *RegistryMatch     `json:"registry_match,omitempty"`
	Verification   VerificationStatus `json:"verification_status"`
	LastUpdated    time.Time          `json:"last_updated"`
}

// SearchResponse is the aggregated result of one pipeline search.
type SearchResponse struct {
	Success        bool             `json:"success"`
	TotalFound     int              `json:"total_found"`
	Businesses     []BusinessRecord `json:"businesses"`
	SearchLocation Coordinates      `json:"search_location"`
	SearchParams   SearchRequest    `json:"search_params"`
}

// RunStatus tracks a recorded search run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// SearchRun is the audit record written around each pipeline search.
type SearchRun struct {
	ID          string        `json:"id"`
	Location    string        `json:"location"`
	Params      SearchRequest `json:"params"`
	Status      RunStatus     `json:"status"`
	TotalFound  int           `json:"total_found"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}
