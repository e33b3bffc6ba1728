// Package main provides the flightscope terminal client. One run is one
// search session: search, then filter, sort, page and select locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/config"
	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/flights/skyscrapper"
	"github.com/flightscope/flightscope/internal/geo"
	"github.com/flightscope/flightscope/internal/geo/source"
	"github.com/flightscope/flightscope/internal/provider/resilience"
	"github.com/flightscope/flightscope/internal/render"
)

// Version is set at compile time via ldflags.
var Version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// fetchFailure is all the user sees of a provider or transport error.
const fetchFailure = "Failed to fetch flights. Please try again."

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).
		Level(level).
		With().
		Timestamp().
		Str("service", "flightscope-cli").
		Str("version", Version).
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := resilience.NewRegistry()
	client := skyscrapper.NewClient(skyscrapper.ClientConfig{
		APIKey:            cfg.SkyScrapper.APIKey,
		Host:              cfg.SkyScrapper.Host,
		BaseURL:           cfg.SkyScrapper.BaseURL,
		Locale:            cfg.SkyScrapper.Locale,
		Timeout:           cfg.SkyScrapper.Timeout,
		Registry:          registry,
		RequestsPerSecond: cfg.SkyScrapper.RequestsPerSecond,
		Logger:            log,
	})
	service := flights.NewService(flights.ServiceConfig{Provider: client, Logger: log})

	src, release, err := source.Open(ctx, cfg.Coordinates, source.Deps{
		Database: cfg.Database,
		Registry: registry,
		Logger:   log,
	})
	if err != nil {
		log.Warn().Err(err).Msg("coordinate source unavailable")
	}
	defer release()
	table := source.LoadOrEmpty(ctx, src, log)

	if err := execute(ctx, opts, service, table, stdout); err != nil {
		if flights.IsUserError(err) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		log.Debug().Err(err).Msg("search failed")
		fmt.Fprintln(stderr, fetchFailure)
		return exitFailure
	}
	return exitOK
}

// searcher is the part of *flights.Service the client drives.
type searcher interface {
	Search(ctx context.Context, req flights.SearchRequest) (*flights.SearchResult, error)
	NearbyAirport(ctx context.Context, lat, lng float64) (flights.Airport, error)
}

// execute runs one search session and writes the selected page to out.
func execute(ctx context.Context, opts options, svc searcher, table *geo.Table, out io.Writer) error {
	req := opts.request()

	if req.Origin == "" && opts.near != nil {
		airport, err := svc.NearbyAirport(ctx, opts.near.Lat, opts.near.Lng)
		if err != nil {
			return err
		}
		req.Origin = airport.Code()
		if req.Origin == "" {
			req.Origin = airport.Name
		}
		fmt.Fprintf(out, "Departing from %s\n", airport.Name)
	}

	result, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	session := flights.NewSession(result).WithPage(opts.page)
	if opts.selectID != "" {
		session = session.Select(opts.selectID)
		if session.SelectedID() == "" {
			fmt.Fprintf(out, "No itinerary with id %q in the results.\n", opts.selectID)
		}
	}

	fmt.Fprintf(out, "%s -> %s on %s\n\n", result.Origin.Name, result.Destination.Name, result.Params.Date)

	params := result.Params
	return render.List(out, session.View(), render.ListOptions{
		SelectedID: session.SelectedID(),
		Expanded:   opts.expand,
		Search:     &params,
		Distances:  routeLengths(session.Itineraries(), table),
	})
}

// routeLengths sums polyline lengths per itinerary. Itineraries with no
// coordinates on the table are left out.
func routeLengths(itineraries []flights.Itinerary, table *geo.Table) map[string]float64 {
	lengths := make(map[string]float64)
	for _, line := range geo.Build(itineraries, table, geo.StyleList).Polylines {
		lengths[line.ItineraryID] += line.LengthMeters
	}
	return lengths
}
