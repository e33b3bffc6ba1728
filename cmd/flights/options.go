package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/geo"
)

type options struct {
	from, to    string
	date, ret   string
	cabin       string
	currency    string
	airlines    string
	sortBy      string
	adults      int
	children    int
	infants     int
	limit       int
	page        int
	maxDuration float64
	maxPrice    float64
	selectID    string
	expand      bool
	verbose     bool
	near        *geo.Position
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	var o options
	nearLat, nearLng := math.NaN(), math.NaN()

	fs := flag.NewFlagSet("flights", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: flights -from ORIGIN -to DESTINATION -date YYYY-MM-DD [options]")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.from, "from", "", "origin airport or city")
	fs.StringVar(&o.to, "to", "", "destination airport or city")
	fs.StringVar(&o.date, "date", "", "departure date (YYYY-MM-DD)")
	fs.StringVar(&o.ret, "return", "", "return date (YYYY-MM-DD)")
	fs.StringVar(&o.cabin, "cabin", flights.DefaultCabinClass, "cabin class: economy, premium_economy, business, first")
	fs.IntVar(&o.adults, "adults", flights.DefaultAdults, "adult passengers")
	fs.IntVar(&o.children, "children", 0, "child passengers")
	fs.IntVar(&o.infants, "infants", 0, "infant passengers")
	fs.StringVar(&o.currency, "currency", flights.DefaultCurrency, "price currency")
	fs.StringVar(&o.sortBy, "sort", string(flights.SortBest), "sort order")
	fs.IntVar(&o.limit, "limit", 0, "keep at most this many itineraries (0 keeps all)")
	fs.Float64Var(&o.maxDuration, "max-duration", 0, "maximum outbound duration in hours")
	fs.Float64Var(&o.maxPrice, "max-price", 0, "maximum price")
	fs.StringVar(&o.airlines, "airlines", "", "comma-separated airline names")
	fs.IntVar(&o.page, "page", 1, "result page")
	fs.StringVar(&o.selectID, "select", "", "itinerary id to expand and highlight")
	fs.Float64Var(&nearLat, "near-lat", nearLat, "latitude used to pick the origin when -from is empty")
	fs.Float64Var(&nearLng, "near-lng", nearLng, "longitude used to pick the origin when -from is empty")
	fs.BoolVar(&o.expand, "expand", false, "show fare policy and segments for every card")
	fs.BoolVar(&o.verbose, "v", false, "log provider calls to stderr")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var problems []string
	if _, ok := flights.ParseSortOption(o.sortBy); !ok {
		problems = append(problems, fmt.Sprintf("unknown sort option %q", o.sortBy))
	}
	if o.page < 1 {
		problems = append(problems, "-page must be at least 1")
	}
	if o.limit < 0 || o.maxDuration < 0 || o.maxPrice < 0 {
		problems = append(problems, "-limit, -max-duration and -max-price must not be negative")
	}
	switch latSet, lngSet := !math.IsNaN(nearLat), !math.IsNaN(nearLng); {
	case latSet && lngSet:
		o.near = &geo.Position{Lat: nearLat, Lng: nearLng}
	case latSet || lngSet:
		problems = append(problems, "-near-lat and -near-lng must be given together")
	}
	if len(problems) > 0 {
		err := fmt.Errorf("invalid options: %s", strings.Join(problems, "; "))
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return options{}, err
	}
	return o, nil
}

func (o options) request() flights.SearchRequest {
	req := flights.SearchRequest{
		Origin:      strings.TrimSpace(o.from),
		Destination: strings.TrimSpace(o.to),
		Date:        o.date,
		ReturnDate:  o.ret,
		CabinClass:  o.cabin,
		Adults:      o.adults,
		Children:    o.children,
		Infants:     o.infants,
		Currency:    o.currency,
		SortBy:      flights.SortOption(o.sortBy),
		Limit:       o.limit,
		Airlines:    o.airlines,
	}
	if o.maxDuration > 0 {
		req.MaxDuration = &o.maxDuration
	}
	if o.maxPrice > 0 {
		req.MaxPrice = &o.maxPrice
	}
	return req
}
