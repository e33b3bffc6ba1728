package flights

import "strings"

// OtherAirports labels itineraries whose outbound origin name is unknown.
const OtherAirports = "Other Airports"

// Group is a run of itineraries departing from the same origin.
type Group struct {
	Origin      string      `json:"origin"`
	Itineraries []Itinerary `json:"itineraries"`
}

// GroupByOrigin partitions itineraries by the trimmed name of the first leg's
// origin. Names compare case-insensitively and the first spelling seen labels
// the group. Groups keep first-seen order; members keep input order.
func GroupByOrigin(itineraries []Itinerary) []Group {
	groups := []Group{}
	index := make(map[string]int)

	for _, it := range itineraries {
		label := OtherAirports
		if leg, ok := it.FirstLeg(); ok {
			if name := strings.TrimSpace(leg.Origin.Name); name != "" {
				label = name
			}
		}
		key := strings.ToLower(label)
		if i, ok := index[key]; ok {
			groups[i].Itineraries = append(groups[i].Itineraries, it)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Origin: label, Itineraries: []Itinerary{it}})
	}
	return groups
}
