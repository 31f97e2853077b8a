package places

// LatLng is a point as returned by the provider.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps a result's location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// GeocodeResponse is the provider's geocoding response.
type GeocodeResponse struct {
	Results      []GeocodeResult `json:"results"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// GeocodeResult is one geocoding hit.
type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
}

// NearbyResponse is a page of Nearby Search results. A non-empty
// NextPageToken becomes valid on the provider side after a short delay.
type NearbyResponse struct {
	Results       []NearbyResult `json:"results"`
	NextPageToken string         `json:"next_page_token,omitempty"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// NearbyResult is one Nearby Search listing.
type NearbyResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Types            []string `json:"types,omitempty"`
	Geometry         Geometry `json:"geometry"`
}

// PlaceDetails is the detailed record for a single place.
type PlaceDetails struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Phone            string   `json:"formatted_phone_number,omitempty"`
	Website          string   `json:"website,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	Geometry         Geometry `json:"geometry"`
}

type detailsResponse struct {
	Result       PlaceDetails `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}
