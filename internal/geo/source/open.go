package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/config"
	"github.com/flightscope/flightscope/internal/database"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

// Deps carries what the network and database backed sources need.
type Deps struct {
	Database database.Config
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// Open builds the source selected by cfg.Source. The returned release func
// closes any database handle and is never nil. SourceNone yields a nil Source,
// which LoadOrEmpty treats as an empty table.
func Open(ctx context.Context, cfg config.CoordinatesConfig, deps Deps) (Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case config.SourceNone, "":
		return nil, noop, nil

	case config.SourceFile:
		return JSONFile{Path: cfg.Path}, noop, nil

	case config.SourceURL:
		cc := resilience.DefaultClientConfig("airport-coordinates")
		cc.MaxRetries = uint64(max(cfg.MaxRetries, 0))
		cc.Registry = deps.Registry
		cc.Logger = deps.Logger
		return NewJSONURL(cfg.URL, resilience.NewClient(cc)), noop, nil

	case config.SourcePostgres:
		pool, err := database.Connect(ctx, deps.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres coordinate source: %w", err)
		}
		return NewPostgres(pool), pool.Close, nil

	case config.SourceSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite coordinate source: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown coordinate source %q", cfg.Source)
}
