package skyscrapper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightscope/flightscope/internal/flights"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		APIKey:     "mock-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	body, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err, "failed to load test fixture")
	return body
}

func TestClient_SearchAirport(t *testing.T) {
	body := fixture(t, "search_airport.json")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/flights/searchAirport", r.URL.Path)
		assert.Equal(t, "mock-key", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, DefaultHost, r.Header.Get("x-rapidapi-host"))
		assert.Equal(t, "london", r.URL.Query().Get("query"))
		assert.Equal(t, "en-US", r.URL.Query().Get("locale"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})

	airports, err := client.SearchAirport(context.Background(), "london")
	require.NoError(t, err)
	require.Len(t, airports, 2, "entries without ids are skipped")

	assert.Equal(t, flights.Airport{
		Name:        "London",
		DisplayCode: "LOND",
		City:        "London",
		Country:     "United Kingdom",
		SkyID:       "LOND",
		EntityID:    "27544008",
	}, airports[0])
	assert.Equal(t, "LHR", airports[1].SkyID)
	assert.Equal(t, "95565050", airports[1].EntityID)
	assert.Equal(t, "London Heathrow", airports[1].Name)
}

func TestClient_SearchAirport_StatusFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"message":"query is too short"}`))
	})

	_, err := client.SearchAirport(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, flights.ErrInvalidRequest)

	var ferr *flights.Error
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "query is too short", ferr.Message)
}

func TestClient_NearbyAirports(t *testing.T) {
	body := fixture(t, "nearby_airports.json")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/flights/getNearByAirports", r.URL.Path)
		assert.Equal(t, "40.7128", r.URL.Query().Get("lat"))
		assert.Equal(t, "-74.006", r.URL.Query().Get("lng"))
		_, _ = w.Write(body)
	})

	airports, err := client.NearbyAirports(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)
	require.Len(t, airports, 2)
	assert.Equal(t, "JFK", airports[0].DisplayCode)
	assert.Equal(t, "New York", airports[0].City)
	assert.Equal(t, "EWR", airports[1].DisplayCode)
}

func TestClient_SearchFlights_Query(t *testing.T) {
	origin := flights.Airport{SkyID: "LOND", EntityID: "27544008"}
	destination := flights.Airport{SkyID: "NYCA", EntityID: "27537542"}
	stops := 1
	maxPrice := 850.0

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/flights/searchFlightsComplete", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "LOND", q.Get("originSkyId"))
		assert.Equal(t, "NYCA", q.Get("destinationSkyId"))
		assert.Equal(t, "27544008", q.Get("originEntityId"))
		assert.Equal(t, "27537542", q.Get("destinationEntityId"))
		assert.Equal(t, "2026-11-02", q.Get("date"))
		assert.Equal(t, "economy", q.Get("cabinClass"))
		assert.Equal(t, "1", q.Get("adults"))
		assert.Equal(t, "0", q.Get("childrens"))
		assert.Equal(t, "0", q.Get("infants"))
		assert.Equal(t, "best", q.Get("sortBy"))
		assert.Equal(t, "USD", q.Get("currency"))
		assert.Equal(t, "1", q.Get("maxStops"))
		assert.Equal(t, "850", q.Get("maxPrice"))

		for _, absent := range []string{"returnDate", "limit", "carriersIds", "maxDuration", "airlines"} {
			assert.False(t, q.Has(absent), "%s should be omitted", absent)
		}

		_, _ = w.Write([]byte(`{"status":true,"data":{"itineraries":[]}}`))
	})

	raw, err := client.SearchFlights(context.Background(), origin, destination, flights.SearchParams{
		Date:     "2026-11-02",
		MaxStops: &stops,
		MaxPrice: &maxPrice,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":true,"data":{"itineraries":[]}}`, string(raw))
}

func TestClient_SearchFlights_StringEncodedBody(t *testing.T) {
	inner := `{"data":{"itineraries":[{"id":"1","price":{"raw":10}}]}}`
	encoded, err := json.Marshal(inner)
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(encoded)
	})

	raw, err := client.SearchFlights(context.Background(), flights.Airport{}, flights.Airport{}, flights.SearchParams{Date: "2026-11-02"})
	require.NoError(t, err)
	assert.JSONEq(t, inner, string(raw))
	assert.Len(t, flights.Normalize(raw), 1)
}

func TestClient_FlightDetails(t *testing.T) {
	depart := flights.Timestamp(time.Date(2026, 11, 2, 8, 30, 0, 0, time.UTC))
	it := flights.Itinerary{
		ID: "13554-2611020830",
		Legs: []flights.Leg{{
			Origin:      flights.Airport{DisplayCode: "LHR"},
			Destination: flights.Airport{DisplayCode: "JFK"},
			Departure:   depart,
		}},
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/flights/getFlightDetails", r.URL.Path)

		var legs []DetailLeg
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("legs")), &legs))
		assert.Equal(t, []DetailLeg{{Origin: "LHR", Destination: "JFK", Date: "2026-11-02"}}, legs)
		assert.Equal(t, "2", r.URL.Query().Get("adults"))
		assert.Equal(t, "business", r.URL.Query().Get("cabinClass"))

		_, _ = w.Write([]byte(`{"status":true,"data":{"itinerary":{"pricingOptions":[{"totalPrice":512}]}}}`))
	})

	raw, err := client.FlightDetails(context.Background(), it, flights.SearchParams{Adults: 2, CabinClass: flights.CabinBusiness})
	require.NoError(t, err)
	assert.JSONEq(t, `{"itinerary":{"pricingOptions":[{"totalPrice":512}]}}`, string(raw))
}

func TestClient_FlightDetails_NoLegs(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.FlightDetails(context.Background(), flights.Itinerary{ID: "x"}, flights.SearchParams{})
	assert.ErrorIs(t, err, flights.ErrInvalidRequest)
}

func TestClient_Locales(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/getLocale", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"data":[{"id":"en-US","text":"English (United States)"},{"text":"missing id"},{"id":"nl-NL","text":"Nederlands"}]}`))
	})

	locales, err := client.Locales(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Locale{
		{ID: "en-US", Text: "English (United States)"},
		{ID: "nl-NL", Text: "Nederlands"},
	}, locales)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantCode string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"message":"You have exceeded the rate limit per second for your plan"}`, flights.ErrRateLimitExceeded, "RATE_LIMIT"},
		{"forbidden", http.StatusForbidden, `{"message":"You are not subscribed to this API."}`, flights.ErrProviderUnavailable, "FORBIDDEN"},
		{"bad request", http.StatusBadRequest, `{"message":"date is invalid"}`, flights.ErrInvalidRequest, "BAD_REQUEST"},
		{"not found", http.StatusNotFound, ``, flights.ErrInvalidRequest, "BAD_REQUEST"},
		{"server error", http.StatusBadGateway, `upstream down`, flights.ErrProviderUnavailable, "SERVER_502"},
		{"unexpected status", http.StatusTeapot, ``, flights.ErrProviderUnavailable, "HTTP_418"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.SearchAirport(context.Background(), "london")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var ferr *flights.Error
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, tt.wantCode, ferr.Code)
			assert.Equal(t, ProviderName, ferr.Provider)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	_, err := client.SearchAirport(context.Background(), "london")
	assert.ErrorIs(t, err, flights.ErrProviderUnavailable)
}

func TestClient_RateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:            "mock-key",
		BaseURL:           server.URL,
		HTTPClient:        server.Client(),
		RequestsPerSecond: 0.001,
		Logger:            zerolog.Nop(),
	})

	_, err := client.Locales(context.Background())
	require.NoError(t, err, "the first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Locales(ctx)
	assert.ErrorIs(t, err, flights.ErrRateLimitExceeded)
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "sky-scrapper", NewClient(ClientConfig{Logger: zerolog.Nop()}).Name())
}
