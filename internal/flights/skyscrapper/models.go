package skyscrapper

import (
	"github.com/tidwall/gjson"

	"github.com/flightscope/flightscope/internal/flights"
)

// Locale is one entry of the getLocale endpoint.
type Locale struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DetailLeg identifies one leg for the flight details endpoint.
type DetailLeg struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

// toAirport maps an autocomplete/nearby entry to the normalized airport shape.
// Entries carry skyId/entityId both at the top level and under
// navigation.relevantFlightParams; the top level wins when present.
func toAirport(r gjson.Result) flights.Airport {
	params := r.Get("navigation.relevantFlightParams")

	a := flights.Airport{
		Name:     r.Get("presentation.title").String(),
		Country:  r.Get("presentation.subtitle").String(),
		City:     r.Get("navigation.relevantHotelParams.localizedName").String(),
		SkyID:    firstNonEmpty(r.Get("skyId").String(), params.Get("skyId").String()),
		EntityID: firstNonEmpty(r.Get("entityId").String(), params.Get("entityId").String(), r.Get("navigation.entityId").String()),
	}
	if a.Name == "" {
		a.Name = firstNonEmpty(params.Get("localizedName").String(), r.Get("navigation.localizedName").String())
	}
	a.DisplayCode = a.SkyID
	return a
}

func toAirports(list gjson.Result) []flights.Airport {
	airports := make([]flights.Airport, 0, len(list.Array()))
	for _, entry := range list.Array() {
		if !entry.IsObject() {
			continue
		}
		a := toAirport(entry)
		if a.SkyID == "" || a.EntityID == "" {
			continue
		}
		airports = append(airports, a)
	}
	return airports
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
