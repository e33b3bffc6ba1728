package geo

import (
	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/pkg/polyline"
)

// Style selects how geometry is drawn.
type Style string

const (
	// StyleList draws every itinerary of a result list with neutral styling.
	StyleList Style = "list"
	// StyleSelected highlights a single selected itinerary.
	StyleSelected Style = "selected"
)

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 3

// FallbackCenter is used when no marker could be resolved.
var FallbackCenter = Position{Lat: 20, Lng: 0}

// Marker is a labelled airport pin.
type Marker struct {
	Position Position `json:"position"`
	Label    string   `json:"label"`
}

// Polyline is the resolved route of one leg.
type Polyline struct {
	ItineraryID  string     `json:"itineraryId"`
	LegID        string     `json:"legId,omitempty"`
	Path         []Position `json:"path"`
	Encoded      string     `json:"encoded"`
	LengthMeters float64    `json:"lengthMeters"`
}

// Bounds is the box enclosing all markers.
type Bounds struct {
	SouthWest Position `json:"southWest"`
	NorthEast Position `json:"northEast"`
}

// Geometry is everything a map needs to draw a set of itineraries.
type Geometry struct {
	Style         Style      `json:"style"`
	Markers       []Marker   `json:"markers"`
	Polylines     []Polyline `json:"polylines"`
	Center        Position   `json:"center"`
	Zoom          int        `json:"zoom"`
	Bounds        *Bounds    `json:"bounds,omitempty"`
	PolylineColor string     `json:"polylineColor"`
	MarkerIcon    string     `json:"markerIcon"`
}

// ForSelection builds highlighted geometry for the itinerary with selectedID
// when it is present in all, otherwise neutral geometry for the whole list.
func ForSelection(all []flights.Itinerary, selectedID string, table *Table) Geometry {
	if it, ok := flights.FindByID(all, selectedID); ok {
		return Build([]flights.Itinerary{it}, table, StyleSelected)
	}
	return Build(all, table, StyleList)
}

// Build derives markers and per-leg polylines. Codes missing from table are
// skipped; a leg with fewer than two resolved points has no polyline.
func Build(itineraries []flights.Itinerary, table *Table, style Style) Geometry {
	b := &builder{table: table, index: make(map[Position]int)}

	for _, it := range itineraries {
		for _, leg := range it.Legs {
			path := b.legPath(leg)
			if len(path) < 2 {
				continue
			}
			b.polylines = append(b.polylines, newPolyline(string(it.ID), leg.ID, path))
		}
	}

	g := Geometry{
		Style:     style,
		Markers:   b.markers,
		Polylines: b.polylines,
		Center:    FallbackCenter,
		Zoom:      DefaultZoom,
	}
	if g.Markers == nil {
		g.Markers = []Marker{}
	}
	if g.Polylines == nil {
		g.Polylines = []Polyline{}
	}

	if len(g.Markers) > 0 {
		g.Center = g.Markers[0].Position
		pts := make([]polyline.Point, len(g.Markers))
		for i, m := range g.Markers {
			pts[i] = toPoint(m.Position)
		}
		if sw, ne, ok := polyline.Bounds(pts); ok {
			g.Bounds = &Bounds{SouthWest: fromPoint(sw), NorthEast: fromPoint(ne)}
		}
	}

	switch style {
	case StyleSelected:
		g.PolylineColor = "red"
		g.MarkerIcon = "selected"
	default:
		g.PolylineColor = "blue"
		g.MarkerIcon = "default"
	}
	return g
}

type builder struct {
	table     *Table
	markers   []Marker
	index     map[Position]int
	polylines []Polyline
}

// legPath walks a leg's segments, or its own endpoints when it has none.
func (b *builder) legPath(leg flights.Leg) []Position {
	var path []Position

	if len(leg.Segments) == 0 {
		from, okFrom := b.table.Lookup(leg.Origin.Code())
		to, okTo := b.table.Lookup(leg.Destination.Code())
		if !okFrom || !okTo {
			return nil
		}
		b.mark(from, leg.Origin)
		b.mark(to, leg.Destination)
		return append(path, from, to)
	}

	for _, seg := range leg.Segments {
		if len(path) == 0 {
			if pos, ok := b.table.Lookup(seg.Origin.Code()); ok {
				path = append(path, pos)
				b.mark(pos, seg.Origin)
			}
		}
		if pos, ok := b.table.Lookup(seg.Destination.Code()); ok {
			path = append(path, pos)
			b.mark(pos, seg.Destination)
		}
	}
	return path
}

// mark adds a marker, collapsing markers at the same position.
// The first position keeps its place; the latest label wins.
func (b *builder) mark(pos Position, airport flights.Airport) {
	label := airport.Name + " (" + airport.Code() + ")"
	if i, ok := b.index[pos]; ok {
		b.markers[i].Label = label
		return
	}
	b.index[pos] = len(b.markers)
	b.markers = append(b.markers, Marker{Position: pos, Label: label})
}

func newPolyline(itineraryID, legID string, path []Position) Polyline {
	pts := make([]polyline.Point, len(path))
	for i, p := range path {
		pts[i] = toPoint(p)
	}
	return Polyline{
		ItineraryID:  itineraryID,
		LegID:        legID,
		Path:         path,
		Encoded:      polyline.Encode(pts),
		LengthMeters: polyline.Length(pts),
	}
}

func toPoint(p Position) polyline.Point   { return polyline.Point{Lat: p.Lat, Lng: p.Lng} }
func fromPoint(p polyline.Point) Position { return Position{Lat: p.Lat, Lng: p.Lng} }
