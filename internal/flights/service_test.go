package flights_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightscope/flightscope/internal/flights"
)

// mockProvider is a test provider that returns configurable data.
type mockProvider struct {
	airports   map[string][]flights.Airport
	nearby     []flights.Airport
	payload    string
	airportErr error
	searchErr  error

	mu          sync.Mutex
	queries     []string
	searchCalls int
	lastParams  flights.SearchParams
}

func (m *mockProvider) SearchAirport(_ context.Context, query string) ([]flights.Airport, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.airportErr != nil {
		return nil, m.airportErr
	}
	return m.airports[query], nil
}

func (m *mockProvider) NearbyAirports(_ context.Context, _, _ float64) ([]flights.Airport, error) {
	if m.airportErr != nil {
		return nil, m.airportErr
	}
	return m.nearby, nil
}

func (m *mockProvider) SearchFlights(_ context.Context, _, _ flights.Airport, params flights.SearchParams) ([]byte, error) {
	m.mu.Lock()
	m.searchCalls++
	m.lastParams = params
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return []byte(m.payload), nil
}

func (m *mockProvider) Name() string { return "mock" }

type recordedCall struct {
	provider  string
	operation string
	failed    bool
}

type mockMetrics struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (m *mockMetrics) RecordRequest(provider, operation string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedCall{provider: provider, operation: operation, failed: err != nil})
}

var (
	london  = flights.Airport{Name: "London Heathrow", DisplayCode: "LHR", SkyID: "LHR", EntityID: "95565050"}
	newYork = flights.Airport{Name: "New York John F. Kennedy", DisplayCode: "JFK", SkyID: "JFK", EntityID: "95565058"}
)

func newTestService(p *mockProvider, m flights.MetricsRecorder) *flights.Service {
	return flights.NewService(flights.ServiceConfig{
		Provider: p,
		Logger:   zerolog.New(io.Discard),
		Metrics:  m,
	})
}

func validRequest() flights.SearchRequest {
	return flights.SearchRequest{
		Origin:      "london",
		Destination: "new york",
		Date:        "2024-10-14",
	}
}

func TestService_Search(t *testing.T) {
	provider := &mockProvider{
		airports: map[string][]flights.Airport{
			"london":   {london, {Name: "London Gatwick", DisplayCode: "LGW"}},
			"new york": {newYork},
		},
		payload: `{"status": true, "data": {"itineraries": [{"id": "a", "price": {"raw": 300}}, {"id": "b", "price": {"raw": 200}}]}}`,
	}
	metrics := &mockMetrics{}
	svc := newTestService(provider, metrics)

	req := validRequest()
	req.SortBy = flights.SortPriceHigh
	req.MaxPrice = ptr(250.0)

	result, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, london, result.Origin)
	assert.Equal(t, newYork, result.Destination)
	assert.Equal(t, []string{"a", "b"}, ids(result.Itineraries))
	assert.Equal(t, flights.SortPriceHigh, result.Criteria.SortBy)
	require.NotNil(t, result.Criteria.MaxPrice)
	assert.Equal(t, 250.0, *result.Criteria.MaxPrice)

	assert.Equal(t, []string{"london", "new york"}, provider.queries)
	assert.Equal(t, "economy", provider.lastParams.CabinClass)
	assert.Equal(t, 1, provider.lastParams.Adults)
	assert.Equal(t, "USD", provider.lastParams.Currency)
	assert.Equal(t, "2024-10-14", provider.lastParams.Date)

	require.Len(t, metrics.calls, 3)
	assert.Equal(t, recordedCall{provider: "mock", operation: "search_airport"}, metrics.calls[0])
	assert.Equal(t, recordedCall{provider: "mock", operation: "search_flights"}, metrics.calls[2])
}

func TestService_Search_EmptyResultIsNotAnError(t *testing.T) {
	provider := &mockProvider{
		airports: map[string][]flights.Airport{"london": {london}, "new york": {newYork}},
		payload:  `{"status": true, "data": {"itineraries": []}}`,
	}
	svc := newTestService(provider, nil)

	result, err := svc.Search(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, result.Itineraries)
	assert.Empty(t, result.Itineraries)
}

func TestService_Search_Validation(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider, nil)

	tests := []struct {
		name   string
		mutate func(*flights.SearchRequest)
		fields []string
	}{
		{
			name: "all required missing",
			mutate: func(r *flights.SearchRequest) {
				*r = flights.SearchRequest{}
			},
			fields: []string{"origin", "destination", "date"},
		},
		{
			name:   "blank origin",
			mutate: func(r *flights.SearchRequest) { r.Origin = "   " },
			fields: []string{"origin"},
		},
		{
			name:   "bad date",
			mutate: func(r *flights.SearchRequest) { r.Date = "14/10/2024" },
			fields: []string{"date"},
		},
		{
			name:   "return before departure",
			mutate: func(r *flights.SearchRequest) { r.ReturnDate = "2024-10-01" },
			fields: []string{"returnDate"},
		},
		{
			name:   "unknown cabin",
			mutate: func(r *flights.SearchRequest) { r.CabinClass = "cargo" },
			fields: []string{"cabinClass"},
		},
		{
			name: "passenger counts",
			mutate: func(r *flights.SearchRequest) {
				r.Adults = -1
				r.Children = 10
				r.Infants = -2
			},
			fields: []string{"adults", "children", "infants"},
		},
		{
			name:   "unknown sort",
			mutate: func(r *flights.SearchRequest) { r.SortBy = "cheapest" },
			fields: []string{"sortBy"},
		},
		{
			name: "non positive filters",
			mutate: func(r *flights.SearchRequest) {
				r.MaxPrice = ptr(0.0)
				r.MaxDuration = ptr(-1.0)
				r.MaxStops = ptr(-1)
				r.Limit = -5
			},
			fields: []string{"limit", "maxStops", "maxDuration", "maxPrice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Search(context.Background(), req)
			require.Error(t, err)

			var verr *flights.ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, len(verr.Errors))
			for i, fe := range verr.Errors {
				got[i] = fe.Field
			}
			assert.Equal(t, tt.fields, got)
			assert.True(t, flights.IsUserError(err))
		})
	}

	assert.Empty(t, provider.queries, "no upstream request on invalid input")
	assert.Zero(t, provider.searchCalls)
}

func TestService_Search_AirportNotFound(t *testing.T) {
	provider := &mockProvider{airports: map[string][]flights.Airport{"london": {london}}}
	svc := newTestService(provider, nil)

	_, err := svc.Search(context.Background(), validRequest())
	assert.ErrorIs(t, err, flights.ErrDestinationNotFound)

	req := validRequest()
	req.Origin = "atlantis"
	_, err = svc.Search(context.Background(), req)
	assert.ErrorIs(t, err, flights.ErrOriginNotFound)
	assert.True(t, flights.IsUserError(err))
	assert.Zero(t, provider.searchCalls)
}

func TestService_Search_ProviderError(t *testing.T) {
	upstream := &flights.Error{Provider: "mock", Code: "UNAVAILABLE", Message: "service unavailable", Err: flights.ErrProviderUnavailable}
	provider := &mockProvider{
		airports:  map[string][]flights.Airport{"london": {london}, "new york": {newYork}},
		searchErr: upstream,
	}
	metrics := &mockMetrics{}
	svc := newTestService(provider, metrics)

	_, err := svc.Search(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, flights.ErrProviderUnavailable)
	assert.False(t, flights.IsUserError(err))

	var perr *flights.Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.IsRetryable())

	require.Len(t, metrics.calls, 3)
	assert.True(t, metrics.calls[2].failed)
}

func TestService_ResolveAirport(t *testing.T) {
	provider := &mockProvider{airports: map[string][]flights.Airport{"jfk": {newYork}}}
	svc := newTestService(provider, nil)

	got, err := svc.ResolveAirport(context.Background(), " jfk ")
	require.NoError(t, err)
	assert.Equal(t, newYork, got)

	_, err = svc.ResolveAirport(context.Background(), "nowhere")
	assert.ErrorIs(t, err, flights.ErrAirportNotFound)

	_, err = svc.ResolveAirport(context.Background(), "")
	var verr *flights.ValidationError
	assert.ErrorAs(t, err, &verr)

	provider.airportErr = errors.New("connection refused")
	_, err = svc.ResolveAirport(context.Background(), "jfk")
	require.Error(t, err)
	assert.False(t, flights.IsUserError(err))
}

func TestService_NearbyAirport(t *testing.T) {
	provider := &mockProvider{nearby: []flights.Airport{london, newYork}}
	svc := newTestService(provider, nil)

	got, err := svc.NearbyAirport(context.Background(), 51.47, -0.45)
	require.NoError(t, err)
	assert.Equal(t, london, got)

	_, err = svc.NearbyAirport(context.Background(), 91, 0)
	var verr *flights.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "lat", verr.Errors[0].Field)

	provider.nearby = nil
	_, err = svc.NearbyAirport(context.Background(), 0, 0)
	assert.ErrorIs(t, err, flights.ErrNoNearbyAirport)
}

func TestSearchRequest_Params(t *testing.T) {
	req := flights.SearchRequest{
		Date:       "2024-10-14",
		ReturnDate: "2024-10-20",
		CabinClass: flights.CabinBusiness,
		Adults:     2,
		Children:   1,
		Currency:   "eur",
		MaxStops:   ptr(1),
	}
	p := req.Params()
	assert.Equal(t, flights.CabinBusiness, p.CabinClass)
	assert.Equal(t, 2, p.Adults)
	assert.Equal(t, 1, p.Childrens)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, flights.SortBest, p.SortBy)
	require.NotNil(t, p.MaxStops)
	assert.Equal(t, 1, *p.MaxStops)
}

type detailsProvider struct {
	mockProvider
	details string
	got     flights.Itinerary
}

func (d *detailsProvider) FlightDetails(_ context.Context, it flights.Itinerary, _ flights.SearchParams) ([]byte, error) {
	d.got = it
	return []byte(d.details), nil
}

func TestService_Details(t *testing.T) {
	t.Run("unsupported provider", func(t *testing.T) {
		svc := newTestService(&mockProvider{}, nil)

		_, err := svc.Details(context.Background(), flights.Itinerary{ID: "a"}, flights.SearchParams{})
		assert.ErrorIs(t, err, flights.ErrDetailsUnsupported)
	})

	t.Run("returns provider payload", func(t *testing.T) {
		p := &detailsProvider{details: `{"itinerary":{"pricingOptions":[]}}`}
		svc := flights.NewService(flights.ServiceConfig{Provider: p, Logger: zerolog.New(io.Discard)})

		raw, err := svc.Details(context.Background(), flights.Itinerary{ID: "abc"}, flights.SearchParams{})
		require.NoError(t, err)
		assert.JSONEq(t, p.details, string(raw))
		assert.Equal(t, flights.FlexString("abc"), p.got.ID)
	})
}
