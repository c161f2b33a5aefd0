package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/you/busroutes/internal/db"
	"github.com/you/busroutes/models"

	_ "modernc.org/sqlite"
)

// ErrRouteNotFound is returned when a route number is not in the catalog.
var ErrRouteNotFound = errors.New("route not found")

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	conn, err := sql.Open("sqlite", db.DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: conn}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the catalog tables if they don't exist, so the API
// can start against an empty database file.
func (s *SQLiteDB) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, db.SchemaSQL()); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// SQLiteRouteRepository reads the route catalog from SQLite
type SQLiteRouteRepository struct {
	db *sql.DB
}

// NewSQLiteRouteRepository creates a new SQLiteRouteRepository
func NewSQLiteRouteRepository(db *sql.DB) *SQLiteRouteRepository {
	return &SQLiteRouteRepository{db: db}
}

const sqliteRoutesQuery = `
	SELECT
		r.number,
		r.name,
		r.start_time,
		r.end_time,
		r.frequency,
		s.stop_name
	FROM routes r
	LEFT JOIN route_stops s ON s.route_number = r.number
	%s
	ORDER BY r.sort_order, r.number, s.stop_sequence
`

// AllRoutes returns every route in catalog order
func (r *SQLiteRouteRepository) AllRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(sqliteRoutesQuery, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	return scanRouteRows(rows)
}

// GetRouteByNumber returns a single route by its number
func (r *SQLiteRouteRepository) GetRouteByNumber(ctx context.Context, number string) (*models.Route, error) {
	if number == "" {
		return nil, errors.New("route number cannot be empty")
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(sqliteRoutesQuery, "WHERE r.number = ?"), number)
	if err != nil {
		return nil, fmt.Errorf("failed to query route: %w", err)
	}
	defer rows.Close()

	routes, err := scanRouteRows(rows)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, number)
	}
	return &routes[0], nil
}

// CountRoutes returns the number of routes in the catalog
func (r *SQLiteRouteRepository) CountRoutes(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routes").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return n, nil
}

// scanRouteRows folds one-row-per-stop results back into routes. Rows must
// be grouped by route and ordered by stop sequence.
func scanRouteRows(rows *sql.Rows) ([]models.Route, error) {
	routes := []models.Route{}
	for rows.Next() {
		var rt models.Route
		var stop sql.NullString
		if err := rows.Scan(&rt.Number, &rt.Name, &rt.StartTime, &rt.EndTime, &rt.Frequency, &stop); err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}

		if n := len(routes); n == 0 || routes[n-1].Number != rt.Number {
			routes = append(routes, rt)
		}
		if stop.Valid {
			last := &routes[len(routes)-1]
			last.Stops = append(last.Stops, stop.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rows: %w", err)
	}

	return routes, nil
}
