package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/api/models"
	"github.com/flightscope/flightscope/internal/api/response"
	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/geo"
)

// FlightService searches flights and fetches itinerary details.
// *flights.Service satisfies it.
type FlightService interface {
	Search(ctx context.Context, req flights.SearchRequest) (*flights.SearchResult, error)
	Details(ctx context.Context, it flights.Itinerary, params flights.SearchParams) (json.RawMessage, error)
}

// FlightHandler handles flight search and itinerary endpoints. It keeps no
// per-client state: itinerary lists travel in request and response bodies.
type FlightHandler struct {
	service FlightService
	table   *geo.Table
	logger  zerolog.Logger
}

// NewFlightHandler creates a new FlightHandler. A nil table yields geometry
// without markers or polylines.
func NewFlightHandler(service FlightService, table *geo.Table, logger zerolog.Logger) *FlightHandler {
	return &FlightHandler{service: service, table: table, logger: logger}
}

// Search handles POST /v1/flights:search.
func (h *FlightHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req flights.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.Search(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SearchResponse{
		Origin:      result.Origin,
		Destination: result.Destination,
		Itineraries: result.Itineraries,
		View:        flights.View(result.Itineraries, result.Criteria, 1),
		Geometry:    geo.Build(result.Itineraries, h.table, geo.StyleList),
	})
}

// View handles POST /v1/itineraries:view. Page 0 is read as page 1.
func (h *FlightHandler) View(w http.ResponseWriter, r *http.Request) {
	var req models.ViewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid view request", errs)
		return
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	response.JSON(w, r, http.StatusOK, flights.View(req.Itineraries, req.Criteria, page))
}

// Geometry handles POST /v1/itineraries:geometry.
func (h *FlightHandler) Geometry(w http.ResponseWriter, r *http.Request) {
	var req models.GeometryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid geometry request", errs)
		return
	}
	response.JSON(w, r, http.StatusOK, geo.ForSelection(req.Itineraries, req.SelectedID, h.table))
}

// Details handles POST /v1/itineraries:details.
func (h *FlightHandler) Details(w http.ResponseWriter, r *http.Request) {
	var req models.DetailsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid details request", errs)
		return
	}

	details, err := h.service.Details(r.Context(), req.Itinerary, req.Params())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.DetailsResponse{
		ItineraryID: string(req.Itinerary.ID),
		Details:     details,
	})
}
