// Package companieshouse is a client for the Companies House public data API,
// used to verify trade businesses against the UK company register.
package companieshouse

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

const defaultBaseURL = "https://api.company-information.service.gov.uk"

// ErrNotFound is returned when a company number has no profile.
var ErrNotFound = eris.New("companieshouse: not found")

// Client performs Companies House API operations.
type Client interface {
	SearchCompanies(ctx context.Context, query string, itemsPerPage int) (*SearchResponse, error)
	Profile(ctx context.Context, companyNumber string) (*Profile, error)
	Officers(ctx context.Context, companyNumber string) (*OfficerList, error)
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

// NewClient creates a Companies House API client. The API key is sent as the
// basic-auth username with an empty password, per the Companies House scheme.
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

func (c *httpClient) SearchCompanies(ctx context.Context, query string, itemsPerPage int) (*SearchResponse, error) {
	params := url.Values{"q": {query}}
	if itemsPerPage > 0 {
		params.Set("items_per_page", fmt.Sprintf("%d", itemsPerPage))
	}

	var resp SearchResponse
	if err := c.get(ctx, "/search/companies?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) Profile(ctx context.Context, companyNumber string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/company/"+url.PathEscape(companyNumber), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *httpClient) Officers(ctx context.Context, companyNumber string) (*OfficerList, error) {
	var ol OfficerList
	if err := c.get(ctx, "/company/"+url.PathEscape(companyNumber)+"/officers", &ol); err != nil {
		return nil, err
	}
	return &ol, nil
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "companieshouse: create request")
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "companieshouse: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "companieshouse: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("companieshouse: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "companieshouse: unmarshal response")
	}
	return nil
}
