package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saviobatista/eco-flight/internal/emissions"
	"github.com/saviobatista/eco-flight/internal/service"
	"github.com/saviobatista/eco-flight/internal/stats"
	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

// maxSearchBody bounds the search request body
const maxSearchBody = 10 << 20

// Estimator is the estimation surface served over HTTP
type Estimator interface {
	Search(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error)
	Distance(origin, destination string) (float64, bool)
	Factor(code string) (float64, types.FactorSource)
	Detailed(code string) types.DetailedEstimate
	Health() service.Health
	Stats() stats.Snapshot
}

// DistanceResponse is the reply of the distance endpoint
type DistanceResponse struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DistanceNM  int    `json:"distanceNM"`
	Resolved    bool   `json:"resolved"`
}

// FactorResponse is the reply of the factor endpoint
type FactorResponse struct {
	AircraftCode        string             `json:"aircraftCode"`
	EmissionFactorPerNM float64            `json:"emissionFactorPerNM"`
	Source              types.FactorSource `json:"source"`
}

// Handler contains the HTTP handlers
type Handler struct {
	estimator Estimator
	logger    *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(estimator Estimator, log *logger.Logger) *Handler {
	return &Handler{
		estimator: estimator,
		logger:    log.Named("api-handler"),
	}
}

// Root confirms the API is up
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Eco Flight Finder API is running"})
}

// Search ranks the candidate flights of a route by estimated emissions
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Origin == "" || req.Destination == "" {
		h.writeError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}

	resp, err := h.estimator.Search(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		h.logger.WithRequestID(middleware.GetReqID(r.Context())).Warn("Search failed",
			logger.String("origin", req.Origin),
			logger.String("destination", req.Destination),
			logger.Error(err),
		)
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Distance returns the great-circle distance between two airports
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimSpace(r.URL.Query().Get("from"))
	destination := strings.TrimSpace(r.URL.Query().Get("to"))
	if origin == "" || destination == "" {
		h.writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	d, ok := h.estimator.Distance(origin, destination)
	h.writeJSON(w, http.StatusOK, DistanceResponse{
		Origin:      origin,
		Destination: destination,
		DistanceNM:  emissions.Round(d),
		Resolved:    ok,
	})
}

// Factor returns the emission factor resolved for an aircraft code
func (h *Handler) Factor(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	factor, source := h.estimator.Factor(code)
	h.writeJSON(w, http.StatusOK, FactorResponse{
		AircraftCode:        code,
		EmissionFactorPerNM: factor,
		Source:              source,
	})
}

// Detailed returns the fuel-burn based estimate for an aircraft code
func (h *Handler) Detailed(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.estimator.Detailed(chi.URLParam(r, "code")))
}

// GetHealth reports the loaded dataset sizes
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.estimator.Health())
}

// GetStats returns the estimation counters
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.estimator.Stats())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
