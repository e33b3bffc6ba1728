package source

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flightscope/flightscope/internal/geo"
)

// Postgres reads the airport_coordinates table through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL coordinate source.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Load implements Source.
func (s *Postgres) Load(ctx context.Context) (*geo.Table, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT iata_code, lat, lng
		FROM airport_coordinates
		WHERE iata_code <> ''
	`)
	if err != nil {
		return nil, wrapLoad("postgres", err)
	}
	defer rows.Close()

	entries := make(map[string]geo.Position)
	for rows.Next() {
		var code string
		var pos geo.Position
		if err := rows.Scan(&code, &pos.Lat, &pos.Lng); err != nil {
			return nil, wrapLoad("postgres", err)
		}
		entries[code] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, wrapLoad("postgres", err)
	}

	return geo.NewTable(entries), nil
}
