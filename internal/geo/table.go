// Package geo resolves airport codes to coordinates and derives map geometry
// (markers and per-leg polylines) for itineraries.
package geo

import "strings"

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Table maps uppercase IATA codes to positions. A Table is read-only after
// construction and safe for concurrent use. A nil *Table resolves nothing.
type Table struct {
	byCode map[string]Position
}

// NewTable builds a table from code → position entries.
// Codes are trimmed and upper-cased; blank codes are dropped.
func NewTable(entries map[string]Position) *Table {
	t := &Table{byCode: make(map[string]Position, len(entries))}
	for code, pos := range entries {
		code = normalizeCode(code)
		if code == "" {
			continue
		}
		t.byCode[code] = pos
	}
	return t
}

// Lookup returns the position for an airport code, matched case-insensitively.
func (t *Table) Lookup(code string) (Position, bool) {
	if t == nil {
		return Position{}, false
	}
	pos, ok := t.byCode[normalizeCode(code)]
	return pos, ok
}

// Len returns the number of codes in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCode)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
