package models

import (
	"encoding/json"

	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/geo"
)

// MaxItineraries bounds the client-held itinerary lists accepted in request bodies.
const MaxItineraries = 500

// SearchResponse is the body of POST /v1/flights:search.
// Itineraries is the full unfiltered result; clients send it back to the
// view and geometry endpoints.
type SearchResponse struct {
	Origin      flights.Airport     `json:"origin"`
	Destination flights.Airport     `json:"destination"`
	Itineraries []flights.Itinerary `json:"itineraries"`
	View        flights.ViewResult  `json:"view"`
	Geometry    geo.Geometry        `json:"geometry"`
}

// ViewRequest is the body of POST /v1/itineraries:view.
type ViewRequest struct {
	Itineraries []flights.Itinerary `json:"itineraries"`
	Criteria    flights.Criteria    `json:"criteria"`
	Page        int                 `json:"page,omitempty"`
}

// Validate returns the invalid fields of the request.
func (r ViewRequest) Validate() []FieldError {
	var errs []FieldError
	errs = append(errs, validateItineraries(r.Itineraries)...)

	c := r.Criteria
	if _, ok := flights.ParseSortOption(string(c.SortBy)); !ok {
		errs = append(errs, FieldError{Field: "criteria.sortBy", Message: "unknown sort option", Code: "INVALID"})
	}
	if c.Limit < 0 {
		errs = append(errs, FieldError{Field: "criteria.limit", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	if c.MaxDuration != nil && *c.MaxDuration <= 0 {
		errs = append(errs, FieldError{Field: "criteria.maxDuration", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	if c.MaxPrice != nil && *c.MaxPrice <= 0 {
		errs = append(errs, FieldError{Field: "criteria.maxPrice", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	if r.Page < 0 {
		errs = append(errs, FieldError{Field: "page", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// GeometryRequest is the body of POST /v1/itineraries:geometry.
type GeometryRequest struct {
	Itineraries []flights.Itinerary `json:"itineraries"`
	SelectedID  string              `json:"selectedId,omitempty"`
}

// Validate returns the invalid fields of the request.
func (r GeometryRequest) Validate() []FieldError {
	return validateItineraries(r.Itineraries)
}

// DetailsRequest is the body of POST /v1/itineraries:details.
type DetailsRequest struct {
	Itinerary  flights.Itinerary `json:"itinerary"`
	Adults     int               `json:"adults,omitempty"`
	CabinClass string            `json:"cabinClass,omitempty"`
	Currency   string            `json:"currency,omitempty"`
}

// Validate returns the invalid fields of the request.
func (r DetailsRequest) Validate() []FieldError {
	var errs []FieldError
	if len(r.Itinerary.Legs) == 0 {
		errs = append(errs, FieldError{Field: "itinerary.legs", Message: "at least one leg is required", Code: "REQUIRED"})
	}
	switch r.CabinClass {
	case "", flights.CabinEconomy, flights.CabinPremiumEconomy, flights.CabinBusiness, flights.CabinFirst:
	default:
		errs = append(errs, FieldError{Field: "cabinClass", Message: "unknown cabin class", Code: "INVALID"})
	}
	if r.Adults < 0 {
		errs = append(errs, FieldError{Field: "adults", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// Params returns the provider parameters for the details call.
func (r DetailsRequest) Params() flights.SearchParams {
	return flights.SearchRequest{
		Adults:     r.Adults,
		CabinClass: r.CabinClass,
		Currency:   r.Currency,
	}.Params()
}

// DetailsResponse is the body of POST /v1/itineraries:details.
// Details is the provider's payload, passed through unchanged.
type DetailsResponse struct {
	ItineraryID string          `json:"itineraryId"`
	Details     json.RawMessage `json:"details"`
}

func validateItineraries(items []flights.Itinerary) []FieldError {
	if len(items) > MaxItineraries {
		return []FieldError{{Field: "itineraries", Message: "too many itineraries", Code: "OUT_OF_RANGE"}}
	}
	return nil
}
