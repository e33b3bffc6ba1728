// Package source loads the airport coordinate table from a JSON document
// (file or URL), PostgreSQL or SQLite.
package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/flightscope/flightscope/internal/geo"
)

// ErrInvalidDocument is returned when a coordinate document is not a JSON array.
var ErrInvalidDocument = errors.New("coordinate document must be a JSON array")

// Source produces a coordinate table.
type Source interface {
	Load(ctx context.Context) (*geo.Table, error)
}

// LoadOrEmpty loads from src and falls back to an empty table on error.
// A missing table only degrades map geometry, so the failure is logged, not returned.
func LoadOrEmpty(ctx context.Context, src Source, logger zerolog.Logger) *geo.Table {
	if src == nil {
		logger.Warn().Msg("no airport coordinate source configured")
		return geo.NewTable(nil)
	}
	table, err := src.Load(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load airport coordinates, map geometry disabled")
		return geo.NewTable(nil)
	}
	logger.Info().Int("airports", table.Len()).Msg("airport coordinates loaded")
	return table
}

// ParseDocument parses an array of {"iata_code": "...", "_geoloc": {"lat": .., "lng": ..}}
// entries. Coordinates may be numbers or numeric strings. Entries without a code,
// without a location or with unparsable coordinates are skipped.
func ParseDocument(data []byte) (*geo.Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDocument
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrInvalidDocument
	}

	entries := make(map[string]geo.Position)
	root.ForEach(func(_, entry gjson.Result) bool {
		code := strings.TrimSpace(entry.Get("iata_code").String())
		loc := entry.Get("_geoloc")
		if code == "" || !loc.IsObject() {
			return true
		}
		lat, okLat := coordinate(loc.Get("lat"))
		lng, okLng := coordinate(loc.Get("lng"))
		if !okLat || !okLng {
			return true
		}
		entries[code] = geo.Position{Lat: lat, Lng: lng}
		return true
	})
	return geo.NewTable(entries), nil
}

func coordinate(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func wrapLoad(kind string, err error) error {
	return fmt.Errorf("load %s coordinates: %w", kind, err)
}
