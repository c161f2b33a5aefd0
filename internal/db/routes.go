package db

import (
	"context"
	"fmt"

	"github.com/you/busroutes/models"
)

// UpsertRoutes validates and writes routes in one transaction. A route that
// already exists keeps its catalog position and has its stops replaced; new
// routes are appended to the end of the catalog in the order given.
func (db *DB) UpsertRoutes(ctx context.Context, routes []models.Route) error {
	for i := range routes {
		if err := routes[i].Validate(); err != nil {
			return fmt.Errorf("invalid route at index %d: %w", i, err)
		}
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(sort_order), -1) + 1 FROM routes").Scan(&next); err != nil {
		return fmt.Errorf("failed to read catalog order: %w", err)
	}

	routeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routes (number, name, start_time, end_time, frequency, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (number) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			frequency = excluded.frequency,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare route upsert: %w", err)
	}
	defer routeStmt.Close()

	deleteStopsStmt, err := tx.PrepareContext(ctx, "DELETE FROM route_stops WHERE route_number = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare stop delete: %w", err)
	}
	defer deleteStopsStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO route_stops (route_number, stop_sequence, stop_name) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	for _, r := range routes {
		if _, err := routeStmt.ExecContext(ctx, r.Number, r.Name, r.StartTime, r.EndTime, r.Frequency, next); err != nil {
			return fmt.Errorf("failed to upsert route %s: %w", r.Number, err)
		}
		next++

		if _, err := deleteStopsStmt.ExecContext(ctx, r.Number); err != nil {
			return fmt.Errorf("failed to clear stops of route %s: %w", r.Number, err)
		}
		for seq, stop := range r.Stops {
			if _, err := stopStmt.ExecContext(ctx, r.Number, seq, stop); err != nil {
				return fmt.Errorf("failed to insert stop %d of route %s: %w", seq, r.Number, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit routes: %w", err)
	}

	db.logger.Info("routes upserted", "count", len(routes))
	return nil
}

// DeleteRoute removes a route and its stops. It reports whether a route
// was deleted.
func (db *DB) DeleteRoute(ctx context.Context, number string) (bool, error) {
	db.LockWrite()
	defer db.UnlockWrite()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM routes WHERE number = ?", number)
	if err != nil {
		return false, fmt.Errorf("failed to delete route %s: %w", number, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read deleted rows: %w", err)
	}
	return n > 0, nil
}
