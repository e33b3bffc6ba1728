package flights_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightscope/flightscope/internal/flights"
)

const twoItineraries = `[
	{"id": "a", "price": {"raw": 120.5, "formatted": "$121"}, "legs": []},
	{"id": "b", "price": {"raw": 99, "formatted": "$99"}, "legs": []}
]`

func TestNormalize_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		shape   flights.Shape
		wantIDs []string
	}{
		{
			name:    "bare array",
			raw:     twoItineraries,
			shape:   flights.ShapeArray,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "itineraries field",
			raw:     `{"itineraries": ` + twoItineraries + `}`,
			shape:   flights.ShapeItineraries,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "data array",
			raw:     `{"status": true, "data": ` + twoItineraries + `}`,
			shape:   flights.ShapeDataArray,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "data.itineraries",
			raw:     `{"status": true, "data": {"context": {"status": "complete"}, "itineraries": ` + twoItineraries + `}}`,
			shape:   flights.ShapeDataItineraries,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "data object with id",
			raw:     `{"data": {"id": "single", "price": {"raw": 10}}}`,
			shape:   flights.ShapeDataObject,
			wantIDs: []string{"single"},
		},
		{
			name:    "object with id",
			raw:     `{"id": "root", "price": {"raw": 10}}`,
			shape:   flights.ShapeObject,
			wantIDs: []string{"root"},
		},
		{
			name:    "numeric id",
			raw:     `{"id": 42}`,
			shape:   flights.ShapeObject,
			wantIDs: []string{"42"},
		},
		{
			name:    "number",
			raw:     `42`,
			shape:   flights.ShapeUnknown,
			wantIDs: []string{},
		},
		{
			name:    "object without known fields",
			raw:     `{"status": false, "message": "quota"}`,
			shape:   flights.ShapeUnknown,
			wantIDs: []string{},
		},
		{
			name:    "empty id is not an itinerary",
			raw:     `{"id": ""}`,
			shape:   flights.ShapeUnknown,
			wantIDs: []string{},
		},
		{
			name:    "invalid json",
			raw:     `{"data": [`,
			shape:   flights.ShapeUnknown,
			wantIDs: []string{},
		},
		{
			name:    "empty body",
			raw:     ``,
			shape:   flights.ShapeUnknown,
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shape, flights.MatchShape([]byte(tt.raw)))

			got := flights.Normalize([]byte(tt.raw))
			require.NotNil(t, got)
			ids := make([]string, 0, len(got))
			for _, it := range got {
				ids = append(ids, string(it.ID))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestNormalize_Precedence(t *testing.T) {
	// itineraries wins over data when both are arrays.
	raw := `{"itineraries": [{"id": "top"}], "data": [{"id": "nested"}]}`
	got := flights.Normalize([]byte(raw))
	require.Len(t, got, 1)
	assert.Equal(t, flights.FlexString("top"), got[0].ID)

	// data.id wins over a root id.
	raw = `{"id": "root", "data": {"id": "inner"}}`
	got = flights.Normalize([]byte(raw))
	require.Len(t, got, 1)
	assert.Equal(t, flights.FlexString("inner"), got[0].ID)

	// A data object without an id falls through to the root id.
	raw = `{"id": "x", "data": {"foo": 1}}`
	assert.Equal(t, flights.ShapeObject, flights.MatchShape([]byte(raw)))
	got = flights.Normalize([]byte(raw))
	require.Len(t, got, 1)
	assert.Equal(t, flights.FlexString("x"), got[0].ID)
}

func TestNormalize_SkipsNonObjects(t *testing.T) {
	raw := `[{"id": "a"}, 7, "text", null, {"id": "b"}]`
	got := flights.Normalize([]byte(raw))
	require.Len(t, got, 2)
	assert.Equal(t, flights.FlexString("a"), got[0].ID)
	assert.Equal(t, flights.FlexString("b"), got[1].ID)
}

func TestNormalize_DoubleEncoded(t *testing.T) {
	raw := `"{\"data\":{\"itineraries\":[{\"id\":\"x\"}]}}"`
	assert.Equal(t, flights.ShapeDataItineraries, flights.MatchShape([]byte(raw)))
	got := flights.Normalize([]byte(raw))
	require.Len(t, got, 1)
	assert.Equal(t, flights.FlexString("x"), got[0].ID)
}

func TestNormalize_DecodesItinerary(t *testing.T) {
	raw := `{"data": {"itineraries": [{
		"id": "13542-2410141000--32090-0-12712-2410141240",
		"price": {"raw": 254.97, "formatted": "$255"},
		"farePolicy": {"isChangeAllowed": true, "isPartiallyChangeable": false, "isCancellationAllowed": false, "isPartiallyRefundable": false},
		"legs": [{
			"id": "13542-2410141000--32090-0-12712-2410141240",
			"origin": {"id": "LGW", "name": "London Gatwick", "displayCode": "LGW"},
			"destination": {"id": "JFK", "name": "New York John F. Kennedy", "displayCode": "JFK"},
			"durationInMinutes": 520,
			"stopCount": 0,
			"departure": "2024-10-14T10:00:00",
			"arrival": "2024-10-14T12:40:00",
			"timeDeltaInDays": 0,
			"carriers": {"marketing": [{"id": -32090, "name": "Norse Atlantic Airways (UK)", "alternateId": "Z0"}]},
			"segments": [{
				"id": "13542-12712-2410141000-2410141240--32090",
				"origin": {"flightPlaceId": "LGW", "name": "London Gatwick", "displayCode": "LGW"},
				"destination": {"flightPlaceId": "JFK", "name": "New York John F. Kennedy", "displayCode": "JFK"},
				"departure": "2024-10-14T10:00:00",
				"arrival": "2024-10-14T12:40:00",
				"durationInMinutes": 520,
				"flightNumber": "701",
				"marketingCarrier": {"id": -32090, "name": "Norse Atlantic Airways (UK)", "alternateId": "Z0"}
			}]
		}],
		"isSelfTransfer": false,
		"tags": ["cheapest", "shortest"],
		"score": 0.999
	}]}}`

	got := flights.Normalize([]byte(raw))
	require.Len(t, got, 1)

	it := got[0]
	assert.Equal(t, 254.97, it.Price.Raw)
	assert.Equal(t, "$255", it.Price.Formatted)
	require.NotNil(t, it.FarePolicy)
	assert.True(t, it.FarePolicy.IsChangeAllowed)
	assert.Equal(t, []string{"cheapest", "shortest"}, it.Tags)

	require.Len(t, it.Legs, 1)
	leg := it.Legs[0]
	assert.Equal(t, "LGW", leg.Origin.Code())
	assert.Equal(t, "London Gatwick (LGW)", leg.Origin.Label())
	assert.Equal(t, 520, leg.DurationInMinutes)
	assert.Equal(t, 10, leg.Departure.Time().Hour())
	assert.Equal(t, 40, leg.Arrival.Time().Minute())

	require.Len(t, leg.Segments, 1)
	seg := leg.Segments[0]
	assert.Equal(t, "701", seg.FlightNumber)
	require.NotNil(t, seg.MarketingCarrier)
	assert.Equal(t, flights.FlexString("Z0"), seg.MarketingCarrier.AlternateID)
}

func TestTimestamp_Tolerant(t *testing.T) {
	raw := `[{"id": "a", "legs": [{"departure": "not a date", "arrival": null}]}]`
	got := flights.Normalize([]byte(raw))
	require.Len(t, got, 1)
	require.Len(t, got[0].Legs, 1)
	assert.True(t, got[0].Legs[0].Departure.IsZero())
	assert.True(t, got[0].Legs[0].Arrival.IsZero())
}
