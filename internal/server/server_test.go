package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstone-group/tradeintel/internal/geocode"
	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/internal/pipeline"
	"github.com/fieldstone-group/tradeintel/internal/store"
	"github.com/fieldstone-group/tradeintel/pkg/companieshouse"
)

type fakeService struct {
	searchResp  *model.SearchResponse
	searchErr   error
	searchReq   model.SearchRequest
	nearby      []model.BusinessRecord
	nearbyQuery store.NearbyQuery
	company     *pipeline.CompanyDetail
	companyErr  error
	chSearch    *companieshouse.SearchResponse
	chSearchErr error
}

func (f *fakeService) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	f.searchReq = req
	return f.searchResp, f.searchErr
}

func (f *fakeService) Nearby(ctx context.Context, q store.NearbyQuery) ([]model.BusinessRecord, error) {
	f.nearbyQuery = q
	return f.nearby, nil
}

func (f *fakeService) Company(ctx context.Context, companyNumber string) (*pipeline.CompanyDetail, error) {
	return f.company, f.companyErr
}

func (f *fakeService) SearchCompanies(ctx context.Context, query string, itemsPerPage int) (*companieshouse.SearchResponse, error) {
	return f.chSearch, f.chSearchErr
}

func doRequest(t *testing.T, svc Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	Handler(svc).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeService{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearchBusinesses(t *testing.T) {
	t.Parallel()

	svc := &fakeService{searchResp: &model.SearchResponse{
		Success:    true,
		TotalFound: 1,
		Businesses: []model.BusinessRecord{{PlaceID: "p1", CompanyName: "Aire Valley Plumbing"}},
	}}
	rec := doRequest(t, svc, http.MethodPost, "/api/search-businesses",
		`{"location":"Leeds","business_types":["plumber"],"radius":5000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Leeds", svc.searchReq.Location)
	assert.Equal(t, []string{"plumber"}, svc.searchReq.Trades)

	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalFound)
}

func TestSearchBusinessesBadBody(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeService{}, http.MethodPost, "/api/search-businesses", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchBusinessesMissingLocation(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeService{}, http.MethodPost, "/api/search-businesses", `{"radius":5000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchBusinessesInvalidLocation(t *testing.T) {
	t.Parallel()

	svc := &fakeService{searchErr: geocode.ErrInvalidLocation}
	rec := doRequest(t, svc, http.MethodPost, "/api/search-businesses", `{"location":"???"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "location could not be resolved")
}

func TestSearchBusinessesProviderFailure(t *testing.T) {
	t.Parallel()

	svc := &fakeService{searchErr: eris.New("places: geocode: REQUEST_DENIED")}
	rec := doRequest(t, svc, http.MethodPost, "/api/search-businesses", `{"location":"Leeds"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCachedBusinesses(t *testing.T) {
	t.Parallel()

	svc := &fakeService{nearby: []model.BusinessRecord{{PlaceID: "p1"}}}
	rec := doRequest(t, svc, http.MethodGet,
		"/api/cached-businesses?lat=53.8&lng=-1.55&radius=2000&business_type=Plumbers&verified_only=true&limit=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 53.8, svc.nearbyQuery.Lat)
	assert.Equal(t, -1.55, svc.nearbyQuery.Lng)
	assert.Equal(t, 2000.0, svc.nearbyQuery.RadiusMeters)
	assert.Equal(t, "Plumbers", svc.nearbyQuery.Industry)
	assert.True(t, svc.nearbyQuery.VerifiedOnly)
	assert.Equal(t, 10, svc.nearbyQuery.Limit)

	var body struct {
		Success    bool                   `json:"success"`
		TotalFound int                    `json:"total_found"`
		Businesses []model.BusinessRecord `json:"businesses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.TotalFound)
	require.Len(t, body.Businesses, 1)
}

func TestCachedBusinessesDefaultsRadius(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	rec := doRequest(t, svc, http.MethodGet, "/api/cached-businesses?lat=53.8&lng=-1.55", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(model.DefaultRadiusMeters), svc.nearbyQuery.RadiusMeters)
}

func TestCachedBusinessesValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		target string
	}{
		{"missing coords", "/api/cached-businesses"},
		{"bad lat", "/api/cached-businesses?lat=abc&lng=0"},
		{"out of range", "/api/cached-businesses?lat=91&lng=0"},
		{"negative radius", "/api/cached-businesses?lat=0&lng=0&radius=-5"},
		{"bad limit", "/api/cached-businesses?lat=0&lng=0&limit=zero"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := doRequest(t, &fakeService{}, http.MethodGet, tc.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCompany(t *testing.T) {
	t.Parallel()

	svc := &fakeService{company: &pipeline.CompanyDetail{
		Profile:  companieshouse.Profile{CompanyNumber: "01234567", CompanyStatus: "active"},
		Officers: []model.Officer{{Name: "SMITH, Jane", Role: "director"}},
	}}
	rec := doRequest(t, svc, http.MethodGet, "/api/company/01234567", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success  bool                   `json:"success"`
		Company  companieshouse.Profile `json:"company"`
		Officers []model.Officer        `json:"officers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "01234567", body.Company.CompanyNumber)
	require.Len(t, body.Officers, 1)
	assert.Equal(t, "director", body.Officers[0].Role)
}

func TestCompanyNotFound(t *testing.T) {
	t.Parallel()

	svc := &fakeService{companyErr: companieshouse.ErrNotFound}
	rec := doRequest(t, svc, http.MethodGet, "/api/company/99999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchCompanies(t *testing.T) {
	t.Parallel()

	svc := &fakeService{chSearch: &companieshouse.SearchResponse{
		TotalResults: 1,
		Items:        []companieshouse.SearchItem{{Title: "ACME LIMITED", CompanyNumber: "01234567"}},
	}}
	rec := doRequest(t, svc, http.MethodGet, "/api/search/companies?query=acme", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success    bool                        `json:"success"`
		TotalFound int                         `json:"total_found"`
		Companies  []companieshouse.SearchItem `json:"companies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.TotalFound)
	require.Len(t, body.Companies, 1)
	assert.Equal(t, "ACME LIMITED", body.Companies[0].Title)
}

func TestSearchCompaniesMissingQuery(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeService{}, http.MethodGet, "/api/search/companies", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchCompaniesBadPageSize(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeService{}, http.MethodGet, "/api/search/companies?query=acme&items_per_page=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
