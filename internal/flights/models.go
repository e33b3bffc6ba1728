// Package flights provides itinerary normalization, the filter/sort/paginate
// pipeline and flight search orchestration over an upstream travel-data provider.
package flights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Sentinel errors for flight search operations.
var (
	// ErrProviderUnavailable indicates the upstream provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("flight provider unavailable")
	// ErrRateLimitExceeded indicates the upstream API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidRequest indicates the upstream provider rejected the request parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrOriginNotFound indicates no airport matched the origin query.
	ErrOriginNotFound = errors.New("no airport found for origin")
	// ErrDestinationNotFound indicates no airport matched the destination query.
	ErrDestinationNotFound = errors.New("no airport found for destination")
	// ErrAirportNotFound indicates no airport matched a free-text query.
	ErrAirportNotFound = errors.New("no airport found")
	// ErrNoNearbyAirport indicates the nearby-airport lookup returned nothing.
	ErrNoNearbyAirport = errors.New("no nearby airports found")
	// ErrDetailsUnsupported indicates the provider cannot fetch itinerary details.
	ErrDetailsUnsupported = errors.New("itinerary details not supported by provider")
)

// Provider defines the upstream travel-data API used by the search service.
type Provider interface {
	// SearchAirport returns airport suggestions for a free-text query, best match first.
	SearchAirport(ctx context.Context, query string) ([]Airport, error)
	// NearbyAirports returns airports close to the given coordinates, nearest first.
	NearbyAirports(ctx context.Context, lat, lng float64) ([]Airport, error)
	// SearchFlights returns the raw flight search payload for the Normalizer.
	SearchFlights(ctx context.Context, origin, destination Airport, params SearchParams) ([]byte, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// DetailsProvider is implemented by providers that can price a single
// itinerary with its booking options.
type DetailsProvider interface {
	FlightDetails(ctx context.Context, it Itinerary, params SearchParams) ([]byte, error)
}

// Itinerary is one priced, bookable combination of outbound and optional return legs.
type Itinerary struct {
	ID             FlexString  `json:"id"`
	Price          Price       `json:"price"`
	Legs           []Leg       `json:"legs"`
	FarePolicy     *FarePolicy `json:"farePolicy,omitempty"`
	IsSelfTransfer bool        `json:"isSelfTransfer,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Score          float64     `json:"score,omitempty"`
}

// Price holds the canonical numeric price and its display form.
// Formatted is display-only and is never parsed.
type Price struct {
	Raw       float64 `json:"raw"`
	Formatted string  `json:"formatted"`
}

// FarePolicy describes change and cancellation terms of a fare.
type FarePolicy struct {
	IsChangeAllowed       bool `json:"isChangeAllowed"`
	IsPartiallyChangeable bool `json:"isPartiallyChangeable"`
	IsCancellationAllowed bool `json:"isCancellationAllowed"`
	IsPartiallyRefundable bool `json:"isPartiallyRefundable"`
}

// Leg is one directional trip between an origin and a destination, possibly multi-stop.
type Leg struct {
	ID                string    `json:"id"`
	Origin            Airport   `json:"origin"`
	Destination       Airport   `json:"destination"`
	Departure         Timestamp `json:"departure"`
	Arrival           Timestamp `json:"arrival"`
	DurationInMinutes int       `json:"durationInMinutes"`
	StopCount         int       `json:"stopCount"`
	TimeDeltaInDays   int       `json:"timeDeltaInDays"`
	Segments          []Segment `json:"segments"`
	Carriers          *Carriers `json:"carriers,omitempty"`
}

// Carriers lists the airlines marketing a leg.
type Carriers struct {
	Marketing []Carrier `json:"marketing,omitempty"`
}

// Segment is one single-carrier, single-aircraft flight within a leg.
type Segment struct {
	ID                string    `json:"id"`
	Origin            Airport   `json:"origin"`
	Destination       Airport   `json:"destination"`
	Departure         Timestamp `json:"departure"`
	Arrival           Timestamp `json:"arrival"`
	DurationInMinutes int       `json:"durationInMinutes"`
	FlightNumber      string    `json:"flightNumber"`
	MarketingCarrier  *Carrier  `json:"marketingCarrier,omitempty"`
}

// Carrier identifies an airline.
type Carrier struct {
	Name        string     `json:"name"`
	AlternateID FlexString `json:"alternateId"`
	LogoURL     string     `json:"logoUrl,omitempty"`
}

// FlexString decodes either a JSON string or a JSON number into its text form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// Airport is the normalized airport shape consumed by the pipeline and geometry builder.
type Airport struct {
	Name        string `json:"name"`
	DisplayCode string `json:"displayCode"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	SkyID       string `json:"skyId,omitempty"`
	EntityID    string `json:"entityId,omitempty"`
}

// Code returns the display code normalized for coordinate lookups.
func (a Airport) Code() string {
	return strings.ToUpper(strings.TrimSpace(a.DisplayCode))
}

// Label returns the "Name (CODE)" form used on cards and map markers.
func (a Airport) Label() string {
	return a.Name + " (" + a.DisplayCode + ")"
}

// TotalDuration returns the sum of all leg durations in minutes.
func (it Itinerary) TotalDuration() int {
	total := 0
	for _, leg := range it.Legs {
		total += leg.DurationInMinutes
	}
	return total
}

// FirstLeg returns the outbound leg, if any.
func (it Itinerary) FirstLeg() (Leg, bool) {
	if len(it.Legs) == 0 {
		return Leg{}, false
	}
	return it.Legs[0], true
}

// Timestamp is an upstream date-time. The provider sends local times without a zone.
type Timestamp time.Time

// timestampLayouts are tried in order when decoding.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}
	layout := timestampLayouts[0]
	if _, offset := time.Time(t).Zone(); offset != 0 {
		layout = time.RFC3339
	}
	return []byte(`"` + time.Time(t).Format(layout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
// Values in an unknown layout decode to the zero time rather than failing.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(parsed)
			return nil
		}
	}
	*t = Timestamp{}
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Error provides detailed error information from the flight provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient.
// Search calls are not retried; callers may surface this as a hint to the user.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
