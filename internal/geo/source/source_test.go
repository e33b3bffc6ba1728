package source_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightscope/flightscope/internal/geo"
	"github.com/flightscope/flightscope/internal/geo/source"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

const airportsDocument = `[
	{"name": "Heathrow", "iata_code": "lhr", "_geoloc": {"lat": 51.4775, "lng": -0.461389}},
	{"name": "John F Kennedy Intl", "iata_code": "JFK", "_geoloc": {"lat": "40.639751", "lng": "-73.778925"}},
	{"name": "No code", "iata_code": "", "_geoloc": {"lat": 1, "lng": 1}},
	{"name": "No location", "iata_code": "XXA"},
	{"name": "Bad number", "iata_code": "XXB", "_geoloc": {"lat": "north", "lng": 2}},
	{"name": "Null lng", "iata_code": "XXC", "_geoloc": {"lat": 3, "lng": null}},
	"not an object"
]`

func TestParseDocument(t *testing.T) {
	table, err := source.ParseDocument([]byte(airportsDocument))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	pos, ok := table.Lookup("LHR")
	require.True(t, ok)
	assert.Equal(t, geo.Position{Lat: 51.4775, Lng: -0.461389}, pos)

	pos, ok = table.Lookup("jfk")
	require.True(t, ok)
	assert.InDelta(t, 40.639751, pos.Lat, 1e-9)
	assert.InDelta(t, -73.778925, pos.Lng, 1e-9)

	for _, code := range []string{"XXA", "XXB", "XXC"} {
		_, ok := table.Lookup(code)
		assert.False(t, ok, code)
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	for _, doc := range []string{``, `{"iata_code": "LHR"}`, `[{"iata_code"`} {
		_, err := source.ParseDocument([]byte(doc))
		assert.ErrorIs(t, err, source.ErrInvalidDocument, doc)
	}
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.json")
	require.NoError(t, os.WriteFile(path, []byte(airportsDocument), 0o600))

	table, err := source.JSONFile{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = source.JSONFile{Path: filepath.Join(t.TempDir(), "missing.json")}.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJSONURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/airports.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, airportsDocument)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.DefaultClientConfig("airport-coordinates"))

	table, err := source.NewJSONURL(server.URL+"/airports.json", client).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = source.NewJSONURL(server.URL+"/other.json", client).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	table, err = source.NewJSONURL(server.URL+"/airports.json", nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := source.OpenSQLite(ctx, filepath.Join(t.TempDir(), "coordinates.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Seed(ctx, map[string]geo.Position{
		"LHR": {Lat: 51.4775, Lng: -0.461389},
		"JFK": {Lat: 40.639751, Lng: -73.778925},
	}))
	// Seeding again updates in place.
	require.NoError(t, db.Seed(ctx, map[string]geo.Position{"LHR": {Lat: 51.47, Lng: -0.45}}))

	table, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	pos, ok := table.Lookup("lhr")
	require.True(t, ok)
	assert.Equal(t, geo.Position{Lat: 51.47, Lng: -0.45}, pos)

	require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*geo.Table, error) {
	return nil, errors.New("boom")
}

func TestLoadOrEmpty(t *testing.T) {
	logger := zerolog.New(io.Discard)

	table := source.LoadOrEmpty(context.Background(), failingSource{}, logger)
	require.NotNil(t, table)
	assert.Zero(t, table.Len())

	table = source.LoadOrEmpty(context.Background(), nil, logger)
	require.NotNil(t, table)
	assert.Zero(t, table.Len())
}
