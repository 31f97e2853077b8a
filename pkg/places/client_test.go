package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/geocode/json", r.URL.Path)
		assert.Equal(t, "10 Downing Street, London, UK", r.URL.Query().Get("address"))
		assert.Equal(t, "gb", r.URL.Query().Get("region"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GeocodeResponse{
			Status: "OK",
			Results: []GeocodeResult{{
				FormattedAddress: "10 Downing St, London SW1A 2AA, UK",
				Geometry:         Geometry{Location: LatLng{Lat: 51.5034, Lng: -0.1276}},
			}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Geocode(context.Background(), "10 Downing Street, London, UK", "gb")

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 51.5034, resp.Results[0].Geometry.Location.Lat, 0.001)
	assert.InDelta(t, -0.1276, resp.Results[0].Geometry.Location.Lng, 0.001)
}

func TestGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GeocodeResponse{Status: "ZERO_RESULTS"})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Geocode(context.Background(), "Nowheresville", "gb")

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestGeocode_DeniedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GeocodeResponse{
			Status:       "REQUEST_DENIED",
			ErrorMessage: "The provided API key is invalid.",
		})
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.Geocode(context.Background(), "London", "gb")

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestNearbySearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "plumber", q.Get("type"))
		assert.Equal(t, "plumber plumbing services", q.Get("keyword"))
		assert.Equal(t, "5000", q.Get("radius"))
		assert.Contains(t, q.Get("location"), "51.50")
		assert.Empty(t, q.Get("pagetoken"))

		rating := 4.7
		count := 31
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NearbyResponse{
			Status: "OK",
			Results: []NearbyResult{{
				PlaceID:          "ChIJ-plumb1",
				Name:             "Westminster Plumbing Ltd",
				Vicinity:         "12 Horseferry Road, London",
				Rating:           &rating,
				UserRatingsTotal: &count,
				Geometry:         Geometry{Location: LatLng{Lat: 51.49, Lng: -0.13}},
			}},
			NextPageToken: "tok-2",
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbyRequest{
		Lat: 51.5007, Lng: -0.1416, Radius: 5000,
		Type: "plumber", Keyword: "plumber plumbing services",
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ChIJ-plumb1", resp.Results[0].PlaceID)
	assert.Equal(t, "tok-2", resp.NextPageToken)
}

func TestNearbySearch_PageTokenOmitsSearchParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "tok-2", q.Get("pagetoken"))
		assert.Empty(t, q.Get("location"))
		assert.Empty(t, q.Get("keyword"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NearbyResponse{
			Status:  "OK",
			Results: []NearbyResult{{PlaceID: "ChIJ-page2"}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbyRequest{PageToken: "tok-2"})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ChIJ-page2", resp.Results[0].PlaceID)
	assert.Empty(t, resp.NextPageToken)
}

func TestNearbySearch_InvalidRequestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NearbyResponse{Status: "INVALID_REQUEST"})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbyRequest{PageToken: "stale"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/details/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ChIJ-plumb1", q.Get("place_id"))
		assert.Contains(t, q.Get("fields"), "formatted_phone_number")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(detailsResponse{
			Status: "OK",
			Result: PlaceDetails{
				Name:             "Westminster Plumbing Ltd",
				FormattedAddress: "12 Horseferry Rd, London SW1P 2EE, UK",
				Phone:            "020 7946 0123",
				Website:          "https://westminsterplumbing.co.uk",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	details, err := client.Details(context.Background(), "ChIJ-plumb1")

	require.NoError(t, err)
	assert.Equal(t, "Westminster Plumbing Ltd", details.Name)
	assert.Equal(t, "12 Horseferry Rd, London SW1P 2EE, UK", details.FormattedAddress)
	assert.Equal(t, "020 7946 0123", details.Phone)
}

func TestDetails_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream sad")) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	details, err := client.Details(context.Background(), "ChIJ-any")

	assert.Error(t, err)
	assert.Nil(t, details)
	assert.Contains(t, err.Error(), "503")
}

func TestDetails_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		// Simulate a slow response so the context cancels first.
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	details, err := client.Details(ctx, "ChIJ-any")

	assert.Error(t, err)
	assert.Nil(t, details)
}
