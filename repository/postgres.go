package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you/busroutes/models"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS routes (
		number     TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL DEFAULT '',
		end_time   TEXT NOT NULL DEFAULT '',
		frequency  TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS route_stops (
		route_number  TEXT NOT NULL REFERENCES routes(number) ON DELETE CASCADE,
		stop_sequence INTEGER NOT NULL,
		stop_name     TEXT NOT NULL,
		PRIMARY KEY (route_number, stop_sequence)
	);
	CREATE INDEX IF NOT EXISTS idx_routes_sort_order ON routes(sort_order);
	CREATE INDEX IF NOT EXISTS idx_route_stops_name ON route_stops(stop_name);
`

// RouteRepository handles route catalog storage in PostgreSQL
type RouteRepository struct {
	pool *pgxpool.Pool
}

func NewRouteRepository(databaseURL string) (*RouteRepository, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &RouteRepository{pool: pool}, nil
}

func (r *RouteRepository) Close() {
	r.pool.Close()
}

// EnsureSchema creates the catalog tables if they don't exist
func (r *RouteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const postgresRoutesQuery = `
	SELECT
		r.number,
		r.name,
		r.start_time,
		r.end_time,
		r.frequency,
		COALESCE(
			array_agg(s.stop_name ORDER BY s.stop_sequence) FILTER (WHERE s.stop_name IS NOT NULL),
			'{}'
		)
	FROM routes r
	LEFT JOIN route_stops s ON s.route_number = r.number
`

func (r *RouteRepository) AllRoutes(ctx context.Context) ([]models.Route, error) {
	query := postgresRoutesQuery + `
		GROUP BY r.number
		ORDER BY r.sort_order, r.number
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := []models.Route{}
	for rows.Next() {
		var rt models.Route
		if err := rows.Scan(&rt.Number, &rt.Name, &rt.StartTime, &rt.EndTime, &rt.Frequency, &rt.Stops); err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		routes = append(routes, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rows: %w", err)
	}

	return routes, nil
}

func (r *RouteRepository) GetRouteByNumber(ctx context.Context, number string) (*models.Route, error) {
	if number == "" {
		return nil, errors.New("route number cannot be empty")
	}

	query := postgresRoutesQuery + `
		WHERE r.number = $1
		GROUP BY r.number
	`

	var rt models.Route
	err := r.pool.QueryRow(ctx, query, number).Scan(&rt.Number, &rt.Name, &rt.StartTime, &rt.EndTime, &rt.Frequency, &rt.Stops)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, number)
		}
		return nil, fmt.Errorf("failed to query route: %w", err)
	}

	return &rt, nil
}

func (r *RouteRepository) CountRoutes(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM routes").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return n, nil
}

// UpsertRoutes validates and writes routes in one transaction, with the
// same ordering rules as the SQLite writer.
func (r *RouteRepository) UpsertRoutes(ctx context.Context, routes []models.Route) error {
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return fmt.Errorf("invalid route at index %d: %w", i, err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var next int
	if err := tx.QueryRow(ctx, "SELECT COALESCE(MAX(sort_order), -1) + 1 FROM routes").Scan(&next); err != nil {
		return fmt.Errorf("failed to read catalog order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rt := range routes {
		batch.Queue(`
			INSERT INTO routes (number, name, start_time, end_time, frequency, sort_order, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (number) DO UPDATE SET
				name = EXCLUDED.name,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				frequency = EXCLUDED.frequency,
				updated_at = EXCLUDED.updated_at
		`, rt.Number, rt.Name, rt.StartTime, rt.EndTime, rt.Frequency, next)
		next++

		batch.Queue("DELETE FROM route_stops WHERE route_number = $1", rt.Number)
		for seq, stop := range rt.Stops {
			batch.Queue("INSERT INTO route_stops (route_number, stop_sequence, stop_name) VALUES ($1, $2, $3)",
				rt.Number, seq, stop)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write routes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit routes: %w", err)
	}
	return nil
}

// DeleteRoute removes a route and its stops
func (r *RouteRepository) DeleteRoute(ctx context.Context, number string) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM routes WHERE number = $1", number)
	if err != nil {
		return false, fmt.Errorf("failed to delete route %s: %w", number, err)
	}
	return tag.RowsAffected() > 0, nil
}
