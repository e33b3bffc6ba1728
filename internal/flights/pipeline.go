package flights

import (
	"cmp"
	"slices"
	"strings"
)

// SortOption selects the ordering stage of the pipeline.
type SortOption string

// Sort options accepted by the pipeline and the upstream search endpoint.
const (
	SortBest                SortOption = "best"
	SortPriceHigh           SortOption = "price_high"
	SortFastest             SortOption = "fastest"
	SortOutboundTakeOffTime SortOption = "outbound_take_off_time"
	SortOutboundLandingTime SortOption = "outbound_landing_time"
	SortReturnTakeOffTime   SortOption = "return_take_off_time"
	SortReturnLandingTime   SortOption = "return_landing_time"
)

// SortOptionInfo pairs a sort option with its display label.
type SortOptionInfo struct {
	Value SortOption `json:"value"`
	Label string     `json:"label"`
}

var sortOptions = []SortOptionInfo{
	{Value: SortBest, Label: "Best"},
	{Value: SortPriceHigh, Label: "Cheapest"},
	{Value: SortFastest, Label: "Fastest"},
	{Value: SortOutboundTakeOffTime, Label: "Outbound Take Off Time"},
	{Value: SortOutboundLandingTime, Label: "Outbound Landing Time"},
	{Value: SortReturnTakeOffTime, Label: "Return Take Off Time"},
	{Value: SortReturnLandingTime, Label: "Return Landing Time"},
}

// SortOptions returns every supported sort option with its label, in menu order.
func SortOptions() []SortOptionInfo {
	return slices.Clone(sortOptions)
}

// ParseSortOption validates a wire name. An empty string parses as SortBest.
func ParseSortOption(s string) (SortOption, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortBest, true
	}
	for _, o := range sortOptions {
		if string(o.Value) == s {
			return o.Value, true
		}
	}
	return "", false
}

// Criteria holds the user-selected filter and ordering inputs for one view.
// A nil pointer or zero value means the criterion is absent.
type Criteria struct {
	MaxDuration *float64   `json:"maxDuration,omitempty"` // hours
	MaxPrice    *float64   `json:"maxPrice,omitempty"`
	Airlines    string     `json:"airlines,omitempty"`
	SortBy      SortOption `json:"sortBy,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}

// Apply runs the filter, sort and limit stages and returns a new slice.
// The input slice and its elements are never modified.
func Apply(itineraries []Itinerary, c Criteria) []Itinerary {
	out := make([]Itinerary, 0, len(itineraries))
	needles := AirlineNeedles(c.Airlines)

	for _, it := range itineraries {
		if c.MaxDuration != nil && !WithinDuration(it, *c.MaxDuration) {
			continue
		}
		if c.MaxPrice != nil && it.Price.Raw > *c.MaxPrice {
			continue
		}
		if len(needles) > 0 && !MatchesAirline(it, needles) {
			continue
		}
		out = append(out, it)
	}

	sortItineraries(out, c.SortBy)

	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out
}

// WithinDuration reports whether every leg lasts at most maxHours.
func WithinDuration(it Itinerary, maxHours float64) bool {
	limit := maxHours * 60
	for _, leg := range it.Legs {
		if float64(leg.DurationInMinutes) > limit {
			return false
		}
	}
	return true
}

// AirlineNeedles splits a comma-separated airline filter into lowercase search terms.
func AirlineNeedles(airlines string) []string {
	var needles []string
	for _, part := range strings.Split(airlines, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			needles = append(needles, part)
		}
	}
	return needles
}

// MatchesAirline reports whether any segment's marketing carrier name or
// alternate id contains one of the needles.
func MatchesAirline(it Itinerary, needles []string) bool {
	for _, leg := range it.Legs {
		for _, seg := range leg.Segments {
			if seg.MarketingCarrier == nil {
				continue
			}
			name := strings.ToLower(seg.MarketingCarrier.Name)
			alt := strings.ToLower(string(seg.MarketingCarrier.AlternateID))
			for _, n := range needles {
				if strings.Contains(name, n) || strings.Contains(alt, n) {
					return true
				}
			}
		}
	}
	return false
}

// sortKey extracts an ordering key; ok is false when the itinerary lacks it.
type sortKey func(it Itinerary) (key float64, ok bool)

func sortItineraries(items []Itinerary, by SortOption) {
	var key sortKey
	switch by {
	case SortPriceHigh:
		key = func(it Itinerary) (float64, bool) { return it.Price.Raw, true }
	case SortFastest:
		key = func(it Itinerary) (float64, bool) { return float64(it.TotalDuration()), true }
	case SortOutboundTakeOffTime:
		key = legTimeKey(0, func(l Leg) Timestamp { return l.Departure })
	case SortOutboundLandingTime:
		key = legTimeKey(0, func(l Leg) Timestamp { return l.Arrival })
	case SortReturnTakeOffTime, SortReturnLandingTime:
		if !allHaveReturn(items) {
			return
		}
		if by == SortReturnTakeOffTime {
			key = legTimeKey(1, func(l Leg) Timestamp { return l.Departure })
		} else {
			key = legTimeKey(1, func(l Leg) Timestamp { return l.Arrival })
		}
	default:
		return
	}

	slices.SortStableFunc(items, func(a, b Itinerary) int {
		ka, okA := key(a)
		kb, okB := key(b)
		switch {
		case okA && okB:
			return cmp.Compare(ka, kb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

func legTimeKey(idx int, pick func(Leg) Timestamp) sortKey {
	return func(it Itinerary) (float64, bool) {
		if len(it.Legs) <= idx {
			return 0, false
		}
		ts := pick(it.Legs[idx])
		if ts.IsZero() {
			return 0, false
		}
		return float64(ts.Time().Unix()), true
	}
}

func allHaveReturn(items []Itinerary) bool {
	for _, it := range items {
		if len(it.Legs) < 2 {
			return false
		}
	}
	return true
}
