// Package places is a client for the Google Maps Web Service APIs used by the
// search pipeline: geocoding, Nearby Search with page-token pagination, and
// Place Details.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// detailsFields is the field mask requested from Place Details.
const detailsFields = "name,formatted_address,formatted_phone_number,website,rating,user_ratings_total,geometry"

// Client performs places provider API operations.
type Client interface {
	Geocode(ctx context.Context, address, region string) (*GeocodeResponse, error)
	NearbySearch(ctx context.Context, req NearbyRequest) (*NearbyResponse, error)
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
}

// NearbyRequest parameterizes a Nearby Search call. When PageToken is set the
// provider ignores every other field and returns the next page of the
// original search.
type NearbyRequest struct {
	Lat       float64
	Lng       float64
	Radius    int
	Type      string
	Keyword   string
	PageToken string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Geocode(ctx context.Context, address, region string) (*GeocodeResponse, error) {
	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}
	if region != "" {
		params.Set("region", region)
	}

	var resp GeocodeResponse
	if err := c.get(ctx, "/geocode/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("geocode", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbyRequest) (*NearbyResponse, error) {
	params := url.Values{"key": {c.apiKey}}
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	} else {
		params.Set("location", fmt.Sprintf("%f,%f", req.Lat, req.Lng))
		params.Set("radius", fmt.Sprintf("%d", req.Radius))
		if req.Type != "" {
			params.Set("type", req.Type)
		}
		if req.Keyword != "" {
			params.Set("keyword", req.Keyword)
		}
	}

	var resp NearbyResponse
	if err := c.get(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("nearby search", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailsFields},
		"key":      {c.apiKey},
	}

	var resp detailsResponse
	if err := c.get(ctx, "/place/details/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("details", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}

// checkStatus converts the provider's in-body status field into an error.
// ZERO_RESULTS is a valid empty response, not a failure.
func checkStatus(op, status, errorMessage string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	default:
		if errorMessage != "" {
			return eris.Errorf("places: %s returned %s: %s", op, status, errorMessage)
		}
		return eris.Errorf("places: %s returned %s", op, status)
	}
}
