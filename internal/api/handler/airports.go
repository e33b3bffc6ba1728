package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/api/models"
	"github.com/flightscope/flightscope/internal/api/response"
	"github.com/flightscope/flightscope/internal/flights"
)

// AirportService resolves airports. *flights.Service satisfies it.
type AirportService interface {
	ResolveAirport(ctx context.Context, query string) (flights.Airport, error)
	NearbyAirport(ctx context.Context, lat, lng float64) (flights.Airport, error)
}

// AirportHandler handles airport lookup endpoints.
type AirportHandler struct {
	service AirportService
	logger  zerolog.Logger
}

// NewAirportHandler creates a new AirportHandler.
func NewAirportHandler(service AirportService, logger zerolog.Logger) *AirportHandler {
	return &AirportHandler{service: service, logger: logger}
}

// Search handles GET /v1/airports:search?query= - best-match airport.
func (h *AirportHandler) Search(w http.ResponseWriter, r *http.Request) {
	airport, err := h.service.ResolveAirport(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, airport)
}

// Nearby handles GET /v1/airports:nearby?lat=&lng= - the airport nearest to a point.
func (h *AirportHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var errs []models.FieldError
	lat, ok := parseCoordinate(q.Get("lat"), "lat", &errs)
	lng, ok2 := parseCoordinate(q.Get("lng"), "lng", &errs)
	if !ok || !ok2 {
		response.BadRequest(w, r, "invalid coordinates", errs)
		return
	}

	airport, err := h.service.NearbyAirport(r.Context(), lat, lng)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, airport)
}

func parseCoordinate(raw, field string, errs *[]models.FieldError) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*errs = append(*errs, models.FieldError{Field: field, Message: field + " is required", Code: "REQUIRED"})
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, models.FieldError{Field: field, Message: field + " must be a number", Code: "INVALID"})
		return 0, false
	}
	return v, true
}
