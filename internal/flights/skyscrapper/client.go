// Package skyscrapper provides a client for the Sky Scrapper flight data API on RapidAPI.
package skyscrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "sky-scrapper"

	// DefaultBaseURL is the Sky Scrapper API base URL.
	DefaultBaseURL = "https://sky-scrapper.p.rapidapi.com"

	// DefaultHost is the RapidAPI host header value.
	DefaultHost = "sky-scrapper.p.rapidapi.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 16 << 20
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Sky Scrapper client.
type ClientConfig struct {
	// APIKey is the RapidAPI key (required).
	APIKey string

	// Host is the x-rapidapi-host header (optional, defaults to DefaultHost).
	Host string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Locale is sent with airport lookups (optional, defaults to en-US).
	Locale string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, a resilient client with no retries is created.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// RequestsPerSecond caps outbound calls to stay inside the RapidAPI plan
	// quota. Zero disables the limiter.
	RequestsPerSecond float64

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Sky Scrapper API client.
type Client struct {
	apiKey     string
	host       string
	baseURL    string
	locale     string
	httpClient HTTPDoer
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new Sky Scrapper client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	locale := cfg.Locale
	if locale == "" {
		locale = flights.DefaultLocale
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = 0
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		host:       host,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		locale:     locale,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Locales lists the locales supported by the API.
func (c *Client) Locales(ctx context.Context) ([]Locale, error) {
	body, err := c.get(ctx, "/api/v1/getLocale", nil)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if err := envelopeError(root); err != nil {
		return nil, err
	}

	var locales []Locale
	for _, entry := range root.Get("data").Array() {
		id := entry.Get("id").String()
		if id == "" {
			continue
		}
		locales = append(locales, Locale{ID: id, Text: entry.Get("text").String()})
	}
	return locales, nil
}

// SearchAirport returns airport and city suggestions for a free-text query.
func (c *Client) SearchAirport(ctx context.Context, query string) ([]flights.Airport, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("locale", c.locale)

	body, err := c.get(ctx, "/api/v1/flights/searchAirport", params)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if err := envelopeError(root); err != nil {
		return nil, err
	}

	airports := toAirports(root.Get("data"))
	c.logger.Debug().
		Str("query", query).
		Int("suggestions", len(airports)).
		Msg("airport search completed")
	return airports, nil
}

// NearbyAirports returns the airports near a position, nearest first.
func (c *Client) NearbyAirports(ctx context.Context, lat, lng float64) ([]flights.Airport, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("locale", c.locale)

	body, err := c.get(ctx, "/api/v1/flights/getNearByAirports", params)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if err := envelopeError(root); err != nil {
		return nil, err
	}
	return toAirports(root.Get("data.nearby")), nil
}

// SearchFlights runs a complete flight search and returns the raw payload.
// A string-encoded JSON body is unwrapped once.
func (c *Client) SearchFlights(ctx context.Context, origin, destination flights.Airport, p flights.SearchParams) ([]byte, error) {
	body, err := c.get(ctx, "/api/v2/flights/searchFlightsComplete", searchQuery(origin, destination, p))
	if err != nil {
		return nil, err
	}

	if root := gjson.ParseBytes(body); root.Type == gjson.String {
		body = []byte(root.Str)
	}
	return body, nil
}

// FlightDetails fetches pricing options and booking agents for an itinerary.
// The raw "data" object of the response is returned.
func (c *Client) FlightDetails(ctx context.Context, it flights.Itinerary, p flights.SearchParams) ([]byte, error) {
	legs := make([]DetailLeg, 0, len(it.Legs))
	for _, leg := range it.Legs {
		legs = append(legs, DetailLeg{
			Origin:      leg.Origin.DisplayCode,
			Destination: leg.Destination.DisplayCode,
			Date:        leg.Departure.Time().Format(flights.DateLayout),
		})
	}
	if len(legs) == 0 {
		return nil, &flights.Error{
			Provider: ProviderName,
			Code:     "NO_LEGS",
			Message:  "itinerary has no legs",
			Err:      flights.ErrInvalidRequest,
		}
	}

	encoded, err := json.Marshal(legs)
	if err != nil {
		return nil, fmt.Errorf("encoding legs: %w", err)
	}

	params := url.Values{}
	params.Set("legs", string(encoded))
	params.Set("adults", strconv.Itoa(max(p.Adults, flights.DefaultAdults)))
	params.Set("cabinClass", firstNonEmpty(p.CabinClass, flights.DefaultCabinClass))
	params.Set("currency", firstNonEmpty(p.Currency, flights.DefaultCurrency))
	params.Set("locale", c.locale)

	body, err := c.get(ctx, "/api/v1/flights/getFlightDetails", params)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if err := envelopeError(root); err != nil {
		return nil, err
	}
	return []byte(root.Get("data").Raw), nil
}

// searchQuery builds the searchFlightsComplete query string. Unset optional
// parameters are omitted.
func searchQuery(origin, destination flights.Airport, p flights.SearchParams) url.Values {
	q := url.Values{}
	q.Set("originSkyId", origin.SkyID)
	q.Set("destinationSkyId", destination.SkyID)
	q.Set("originEntityId", origin.EntityID)
	q.Set("destinationEntityId", destination.EntityID)
	q.Set("date", p.Date)
	if p.ReturnDate != "" {
		q.Set("returnDate", p.ReturnDate)
	}
	q.Set("cabinClass", firstNonEmpty(p.CabinClass, flights.DefaultCabinClass))
	q.Set("adults", strconv.Itoa(max(p.Adults, flights.DefaultAdults)))
	q.Set("childrens", strconv.Itoa(p.Childrens))
	q.Set("infants", strconv.Itoa(p.Infants))
	q.Set("sortBy", firstNonEmpty(string(p.SortBy), string(flights.SortBest)))
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.CarriersIDs != "" {
		q.Set("carriersIds", p.CarriersIDs)
	}
	q.Set("currency", firstNonEmpty(p.Currency, flights.DefaultCurrency))
	if p.MaxStops != nil {
		q.Set("maxStops", strconv.Itoa(*p.MaxStops))
	}
	if p.MaxDuration != nil {
		q.Set("maxDuration", strconv.FormatFloat(*p.MaxDuration, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
	}
	if p.Airlines != "" {
		q.Set("airlines", p.Airlines)
	}
	return q
}

// get performs a GET request and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("Accept", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &flights.Error{
				Provider: ProviderName,
				Code:     "RATE_LIMIT",
				Message:  "outbound request budget exhausted",
				Err:      fmt.Errorf("%w: %w", flights.ErrRateLimitExceeded, err),
			}
		}
	}

	c.logger.Debug().Str("path", path).Msg("requesting sky scrapper")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &flights.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach flight provider",
			Err:      fmt.Errorf("%w: %w", flights.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// handleErrorResponse maps Sky Scrapper and RapidAPI error responses to domain errors.
func handleErrorResponse(statusCode int, body []byte) error {
	message := gjson.GetBytes(body, "message").String()

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &flights.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  firstNonEmpty(message, "API rate limit exceeded, please try again later"),
			Err:      flights.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &flights.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check the RapidAPI key",
			Err:      flights.ErrProviderUnavailable,
		}
	case statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound || statusCode == http.StatusUnprocessableEntity:
		return &flights.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  firstNonEmpty(message, fmt.Sprintf("flight provider rejected the request (status %d)", statusCode)),
			Err:      flights.ErrInvalidRequest,
		}
	case statusCode >= 500:
		return &flights.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "flight provider is temporarily unavailable",
			Err:      flights.ErrProviderUnavailable,
		}
	default:
		return &flights.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  firstNonEmpty(message, fmt.Sprintf("flight provider returned status %d", statusCode)),
			Err:      flights.ErrProviderUnavailable,
		}
	}
}

// envelopeError reports a {"status": false, "message": ...} body as an error.
func envelopeError(root gjson.Result) error {
	status := root.Get("status")
	if status.Exists() && status.Type == gjson.False {
		return &flights.Error{
			Provider: ProviderName,
			Code:     "API_ERROR",
			Message:  firstNonEmpty(root.Get("message").String(), "flight provider reported an error"),
			Err:      flights.ErrInvalidRequest,
		}
	}
	return nil
}
