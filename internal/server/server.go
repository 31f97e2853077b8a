// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fieldstone-group/tradeintel/internal/geocode"
	"github.com/fieldstone-group/tradeintel/internal/model"
	"github.com/fieldstone-group/tradeintel/internal/pipeline"
	"github.com/fieldstone-group/tradeintel/internal/store"
	"github.com/fieldstone-group/tradeintel/pkg/companieshouse"
)

// searchTimeout bounds one full pipeline search, pagination delays included.
const searchTimeout = 5 * time.Minute

// Service is the pipeline surface the handlers depend on.
type Service interface {
	Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error)
	Nearby(ctx context.Context, q store.NearbyQuery) ([]model.BusinessRecord, error)
	Company(ctx context.Context, companyNumber string) (*pipeline.CompanyDetail, error)
	SearchCompanies(ctx context.Context, query string, itemsPerPage int) (*companieshouse.SearchResponse, error)
}

// Handler builds the API router over the given service.
func Handler(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	h := &handlers{svc: svc}
	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/search-businesses", h.searchBusinesses)
		r.Get("/cached-businesses", h.cachedBusinesses)
		r.Get("/company/{companyNumber}", h.company)
		r.Get("/search/companies", h.searchCompanies)
	})
	return r
}

type handlers struct {
	svc Service
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) searchBusinesses(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	resp, err := h.svc.Search(ctx, req)
	if err != nil {
		if eris.Is(err, geocode.ErrInvalidLocation) {
			writeError(w, http.StatusBadRequest, "location could not be resolved")
			return
		}
		zap.L().Error("search failed", zap.String("location", req.Location), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) cachedBusinesses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if !(model.Coordinates{Lat: lat, Lng: lng}).Valid() {
		writeError(w, http.StatusBadRequest, "lat and lng out of range")
		return
	}

	radius := float64(model.DefaultRadiusMeters)
	if raw := q.Get("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive number")
			return
		}
		radius = r
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.svc.Nearby(r.Context(), store.NearbyQuery{
		Lat:          lat,
		Lng:          lng,
		RadiusMeters: radius,
		Industry:     q.Get("business_type"),
		VerifiedOnly: q.Get("verified_only") == "true",
		Limit:        limit,
	})
	if err != nil {
		zap.L().Error("cached lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"total_found": len(records),
		"businesses":  records,
	})
}

func (h *handlers) company(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "companyNumber")
	detail, err := h.svc.Company(r.Context(), number)
	if err != nil {
		if eris.Is(err, companieshouse.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		zap.L().Error("company lookup failed", zap.String("company_number", number), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"company":  detail.Profile,
		"officers": detail.Officers,
	})
}

func (h *handlers) searchCompanies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	itemsPerPage := 20
	if raw := r.URL.Query().Get("items_per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "items_per_page must be between 1 and 100")
			return
		}
		itemsPerPage = n
	}

	resp, err := h.svc.SearchCompanies(r.Context(), query, itemsPerPage)
	if err != nil {
		zap.L().Error("company search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"total_found": resp.TotalResults,
		"companies":   resp.Items,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
