// Package geocode resolves free-text UK locations to coordinates, preferring
// the offline postcode table and falling back to the places provider's
// geocoding endpoint for full addresses.
package geocode

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/pkg/places"
)

// ErrInvalidLocation marks user input that cannot be resolved to coordinates.
var ErrInvalidLocation = eris.New("geocode: location could not be resolved")

// Resolver turns a location string into coordinates.
type Resolver struct {
	postcodes *PostcodeTable
	places    places.Client
	country   string
}

// NewResolver builds a Resolver. country is appended to free-text addresses
// to scope provider geocoding ("UK").
func NewResolver(postcodes *PostcodeTable, placesClient places.Client, country string) *Resolver {
	return &Resolver{postcodes: postcodes, places: placesClient, country: country}
}

// looksLikePostcode reports whether the input, with whitespace removed, is
// alphanumeric and at most 8 characters, the cheap classification that routes
// input to the offline table instead of a network call.
func looksLikePostcode(location string) bool {
	stripped := strings.Join(strings.Fields(location), "")
	if stripped == "" || len(stripped) > 8 {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Resolve converts a postcode or address to coordinates. Unresolvable input
// yields ErrInvalidLocation; a provider transport failure is returned as-is.
func (r *Resolver) Resolve(ctx context.Context, location string) (model.Coordinates, error) {
	if strings.TrimSpace(location) == "" {
		return model.Coordinates{}, eris.Wrap(ErrInvalidLocation, "empty location")
	}

	if looksLikePostcode(location) {
		if r.postcodes == nil {
			return model.Coordinates{}, eris.Wrapf(ErrInvalidLocation, "no postcode table for %q", location)
		}
		coords, ok, err := r.postcodes.Lookup(ctx, location)
		if err != nil {
			return model.Coordinates{}, err
		}
		if !ok {
			return model.Coordinates{}, eris.Wrapf(ErrInvalidLocation, "unknown postcode %q", location)
		}
		return coords, nil
	}

	address := location
	if r.country != "" {
		address = location + ", " + r.country
	}
	resp, err := r.places.Geocode(ctx, address, "gb")
	if err != nil {
		return model.Coordinates{}, eris.Wrap(err, "geocode: provider")
	}
	if len(resp.Results) == 0 {
		return model.Coordinates{}, eris.Wrapf(ErrInvalidLocation, "no geocoding results for %q", location)
	}

	loc := resp.Results[0].Geometry.Location
	return model.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}
