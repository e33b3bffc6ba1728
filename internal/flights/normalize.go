package flights

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Shape names the envelope layout a raw payload was recognized as.
type Shape string

// Recognized payload shapes, in matching priority order.
const (
	ShapeArray           Shape = "array"
	ShapeItineraries     Shape = "itineraries"
	ShapeDataArray       Shape = "data"
	ShapeDataItineraries Shape = "data.itineraries"
	ShapeDataObject      Shape = "data.id"
	ShapeObject          Shape = "id"
	ShapeUnknown         Shape = "unknown"
)

// shapeMatcher extracts the itinerary elements from one envelope layout.
// match reports whether the layout applies; extract returns the raw elements.
type shapeMatcher struct {
	shape   Shape
	match   func(root gjson.Result) bool
	extract func(root gjson.Result) []gjson.Result
}

// shapeMatchers are evaluated in order; the first match wins.
var shapeMatchers = []shapeMatcher{
	{
		shape:   ShapeArray,
		match:   func(root gjson.Result) bool { return root.IsArray() },
		extract: func(root gjson.Result) []gjson.Result { return root.Array() },
	},
	{
		shape:   ShapeItineraries,
		match:   func(root gjson.Result) bool { return root.Get("itineraries").IsArray() },
		extract: func(root gjson.Result) []gjson.Result { return root.Get("itineraries").Array() },
	},
	{
		shape:   ShapeDataArray,
		match:   func(root gjson.Result) bool { return root.Get("data").IsArray() },
		extract: func(root gjson.Result) []gjson.Result { return root.Get("data").Array() },
	},
	{
		shape:   ShapeDataItineraries,
		match:   func(root gjson.Result) bool { return root.Get("data.itineraries").IsArray() },
		extract: func(root gjson.Result) []gjson.Result { return root.Get("data.itineraries").Array() },
	},
	{
		shape: ShapeDataObject,
		match: func(root gjson.Result) bool {
			return root.Get("data").IsObject() && truthy(root.Get("data.id"))
		},
		extract: func(root gjson.Result) []gjson.Result { return []gjson.Result{root.Get("data")} },
	},
	{
		shape:   ShapeObject,
		match:   func(root gjson.Result) bool { return root.IsObject() && truthy(root.Get("id")) },
		extract: func(root gjson.Result) []gjson.Result { return []gjson.Result{root} },
	},
}

// MatchShape reports which envelope layout raw is recognized as.
func MatchShape(raw []byte) Shape {
	root, ok := parseRoot(raw)
	if !ok {
		return ShapeUnknown
	}
	for _, m := range shapeMatchers {
		if m.match(root) {
			return m.shape
		}
	}
	return ShapeUnknown
}

// Normalize extracts the canonical itinerary sequence from a raw provider payload.
// Unrecognized payloads yield an empty, non-nil slice. Elements that are not
// itinerary objects are skipped. Normalize never fails.
func Normalize(raw []byte) []Itinerary {
	root, ok := parseRoot(raw)
	if !ok {
		return []Itinerary{}
	}

	for _, m := range shapeMatchers {
		if !m.match(root) {
			continue
		}
		elements := m.extract(root)
		itineraries := make([]Itinerary, 0, len(elements))
		for _, el := range elements {
			if !el.IsObject() {
				continue
			}
			var it Itinerary
			if err := json.Unmarshal([]byte(el.Raw), &it); err != nil {
				continue
			}
			itineraries = append(itineraries, it)
		}
		return itineraries
	}

	return []Itinerary{}
}

// parseRoot parses raw as JSON, unwrapping one level of string encoding.
func parseRoot(raw []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(raw)
	if root.Type == gjson.String && gjson.Valid(root.Str) {
		inner := gjson.Parse(root.Str)
		if inner.IsObject() || inner.IsArray() {
			root = inner
		}
	}
	return root, true
}

// truthy mirrors loose truthiness for identifier fields: present, non-empty and non-zero.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		return true
	default:
		return false
	}
}
