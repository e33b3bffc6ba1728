package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/flightscope/flightscope/internal/flights"

// DateLayout is the calendar date format accepted for travel dates.
const DateLayout = "2006-01-02"

// Cabin classes accepted by the upstream search.
const (
	CabinEconomy        = "economy"
	CabinPremiumEconomy = "premium_economy"
	CabinBusiness       = "business"
	CabinFirst          = "first"
)

// Upstream defaults applied when a field is left empty.
const (
	DefaultCabinClass = CabinEconomy
	DefaultAdults     = 1
	DefaultCurrency   = "USD"
	DefaultLocale     = "en-US"
	maxPassengers     = 9
)

// SearchParams is the parameter bag sent to the flight search endpoint.
// Pointer and empty string fields are omitted from the upstream request when unset.
type SearchParams struct {
	Date        string
	ReturnDate  string
	CabinClass  string
	Adults      int
	Childrens   int
	Infants     int
	SortBy      SortOption
	Limit       int
	CarriersIDs string
	Currency    string
	MaxStops    *int
	MaxDuration *float64
	MaxPrice    *float64
	Airlines    string
}

// SearchRequest is a user-entered flight search.
type SearchRequest struct {
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	Date        string     `json:"date"`
	ReturnDate  string     `json:"returnDate,omitempty"`
	CabinClass  string     `json:"cabinClass,omitempty"`
	Adults      int        `json:"adults,omitempty"`
	Children    int        `json:"children,omitempty"`
	Infants     int        `json:"infants,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	SortBy      SortOption `json:"sortBy,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	MaxStops    *int       `json:"maxStops,omitempty"`
	MaxDuration *float64   `json:"maxDuration,omitempty"`
	MaxPrice    *float64   `json:"maxPrice,omitempty"`
	Airlines    string     `json:"airlines,omitempty"`
	CarriersIDs string     `json:"carriersIds,omitempty"`
}

// Criteria returns the client-side pipeline criteria carried by the request.
func (r SearchRequest) Criteria() Criteria {
	return Criteria{
		MaxDuration: r.MaxDuration,
		MaxPrice:    r.MaxPrice,
		Airlines:    r.Airlines,
		SortBy:      r.SortBy,
		Limit:       r.Limit,
	}
}

// Params returns the upstream parameter bag with defaults applied.
func (r SearchRequest) Params() SearchParams {
	p := SearchParams{
		Date:        strings.TrimSpace(r.Date),
		ReturnDate:  strings.TrimSpace(r.ReturnDate),
		CabinClass:  r.CabinClass,
		Adults:      r.Adults,
		Childrens:   r.Children,
		Infants:     r.Infants,
		SortBy:      r.SortBy,
		Limit:       r.Limit,
		CarriersIDs: r.CarriersIDs,
		Currency:    strings.ToUpper(strings.TrimSpace(r.Currency)),
		MaxStops:    r.MaxStops,
		MaxDuration: r.MaxDuration,
		MaxPrice:    r.MaxPrice,
		Airlines:    r.Airlines,
	}
	if p.CabinClass == "" {
		p.CabinClass = DefaultCabinClass
	}
	if p.Adults == 0 {
		p.Adults = DefaultAdults
	}
	if p.SortBy == "" {
		p.SortBy = SortBest
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return p
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports missing or malformed search input.
// It is returned before any upstream request is made.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid search input"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "invalid search input: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

// Validate checks the request and returns a *ValidationError listing every problem.
func (r SearchRequest) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(r.Origin) == "" {
		verr.add("origin", "origin is required")
	}
	if strings.TrimSpace(r.Destination) == "" {
		verr.add("destination", "destination is required")
	}

	var depart time.Time
	if date := strings.TrimSpace(r.Date); date == "" {
		verr.add("date", "departure date is required")
	} else if d, err := time.Parse(DateLayout, date); err != nil {
		verr.add("date", "departure date must be YYYY-MM-DD")
	} else {
		depart = d
	}

	if ret := strings.TrimSpace(r.ReturnDate); ret != "" {
		d, err := time.Parse(DateLayout, ret)
		switch {
		case err != nil:
			verr.add("returnDate", "return date must be YYYY-MM-DD")
		case !depart.IsZero() && d.Before(depart):
			verr.add("returnDate", "return date must not be before the departure date")
		}
	}

	switch r.CabinClass {
	case "", CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		verr.add("cabinClass", "cabin class must be one of economy, premium_economy, business, first")
	}

	if r.Adults < 0 || r.Adults > maxPassengers {
		verr.add("adults", fmt.Sprintf("adults must be between 0 and %d", maxPassengers))
	}
	if r.Children < 0 || r.Children > maxPassengers {
		verr.add("children", fmt.Sprintf("children must be between 0 and %d", maxPassengers))
	}
	if r.Infants < 0 || r.Infants > maxPassengers {
		verr.add("infants", fmt.Sprintf("infants must be between 0 and %d", maxPassengers))
	}

	if _, ok := ParseSortOption(string(r.SortBy)); !ok {
		verr.add("sortBy", "unknown sort option")
	}
	if r.Limit < 0 {
		verr.add("limit", "limit must not be negative")
	}
	if r.MaxStops != nil && *r.MaxStops < 0 {
		verr.add("maxStops", "max stops must not be negative")
	}
	if r.MaxDuration != nil && *r.MaxDuration <= 0 {
		verr.add("maxDuration", "max duration must be positive")
	}
	if r.MaxPrice != nil && *r.MaxPrice <= 0 {
		verr.add("maxPrice", "max price must be positive")
	}

	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}

// SearchResult is the outcome of a completed search.
type SearchResult struct {
	Origin      Airport      `json:"origin"`
	Destination Airport      `json:"destination"`
	Itineraries []Itinerary  `json:"itineraries"`
	Params      SearchParams `json:"-"`
	Criteria    Criteria     `json:"criteria"`
}

// MetricsRecorder records timings of upstream provider calls.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// ServiceConfig holds configuration for the search service.
type ServiceConfig struct {
	// Provider is the upstream travel-data API.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider call timings (optional).
	Metrics MetricsRecorder
}

// Service orchestrates airport resolution, flight search and normalization.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  MetricsRecorder
}

// NewService creates a new search service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Search validates the request, resolves both airports, runs the upstream
// search and normalizes the payload. Zero itineraries is not an error.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "flights.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("flights.origin_query", req.Origin),
		attribute.String("flights.destination_query", req.Destination),
		attribute.String("flights.date", req.Date),
	)

	origin, err := s.resolve(ctx, req.Origin, ErrOriginNotFound)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	destination, err := s.resolve(ctx, req.Destination, ErrDestinationNotFound)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	params := req.Params()
	start := time.Now()
	raw, err := s.provider.SearchFlights(ctx, origin, destination, params)
	s.record("search_flights", start, err)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("origin", origin.Code()).
			Str("destination", destination.Code()).
			Msg("flight search failed")
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("search flights: %w", err)
	}

	itineraries := Normalize(raw)
	span.SetAttributes(
		attribute.String("flights.payload_shape", string(MatchShape(raw))),
		attribute.Int("flights.itineraries", len(itineraries)),
	)

	s.logger.Info().
		Str("origin", origin.Code()).
		Str("destination", destination.Code()).
		Str("date", params.Date).
		Int("itineraries", len(itineraries)).
		Msg("flight search completed")

	return &SearchResult{
		Origin:      origin,
		Destination: destination,
		Itineraries: itineraries,
		Params:      params,
		Criteria:    req.Criteria(),
	}, nil
}

// ResolveAirport returns the best-match airport for a free-text query.
func (s *Service) ResolveAirport(ctx context.Context, query string) (Airport, error) {
	if strings.TrimSpace(query) == "" {
		verr := &ValidationError{}
		verr.add("query", "query is required")
		return Airport{}, verr
	}
	return s.resolve(ctx, query, ErrAirportNotFound)
}

// NearbyAirport returns the airport nearest to the given coordinates.
func (s *Service) NearbyAirport(ctx context.Context, lat, lng float64) (Airport, error) {
	verr := &ValidationError{}
	if lat < -90 || lat > 90 {
		verr.add("lat", "latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		verr.add("lng", "longitude must be between -180 and 180")
	}
	if len(verr.Errors) > 0 {
		return Airport{}, verr
	}

	start := time.Now()
	airports, err := s.provider.NearbyAirports(ctx, lat, lng)
	s.record("nearby_airports", start, err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("nearby airport lookup failed")
		return Airport{}, fmt.Errorf("nearby airports: %w", err)
	}
	if len(airports) == 0 {
		return Airport{}, ErrNoNearbyAirport
	}
	return airports[0], nil
}

// Details fetches booking options for one itinerary from providers that
// implement DetailsProvider. The provider's payload is returned unchanged.
func (s *Service) Details(ctx context.Context, it Itinerary, params SearchParams) (json.RawMessage, error) {
	dp, ok := s.provider.(DetailsProvider)
	if !ok {
		return nil, ErrDetailsUnsupported
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "flights.Details")
	defer span.End()
	span.SetAttributes(attribute.String("flights.itinerary_id", string(it.ID)))

	start := time.Now()
	raw, err := dp.FlightDetails(ctx, it, params)
	s.record("flight_details", start, err)
	if err != nil {
		s.logger.Warn().Err(err).Str("itinerary_id", string(it.ID)).Msg("flight details failed")
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("flight details: %w", err)
	}
	if !json.Valid(raw) {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(raw), nil
}

// resolve returns the first suggestion for query or notFound when there is none.
func (s *Service) resolve(ctx context.Context, query string, notFound error) (Airport, error) {
	query = strings.TrimSpace(query)

	start := time.Now()
	airports, err := s.provider.SearchAirport(ctx, query)
	s.record("search_airport", start, err)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("airport search failed")
		return Airport{}, fmt.Errorf("search airport %q: %w", query, err)
	}
	if len(airports) == 0 {
		s.logger.Debug().Str("query", query).Msg("no airport matched query")
		return Airport{}, notFound
	}
	return airports[0], nil
}

func (s *Service) record(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRequest(s.provider.Name(), operation, time.Since(start), err)
}

// IsUserError reports whether err stems from the caller's input rather than the provider.
func IsUserError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrOriginNotFound) ||
		errors.Is(err, ErrDestinationNotFound) ||
		errors.Is(err, ErrAirportNotFound) ||
		errors.Is(err, ErrNoNearbyAirport)
}
