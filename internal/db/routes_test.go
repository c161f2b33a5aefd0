package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/busroutes/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Connect(filepath.Join(t.TempDir(), "routes.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureSchema(context.Background()))
	return db
}

func catalogOrder(t *testing.T, db *DB) []string {
	t.Helper()
	rows, err := db.Conn().Query("SELECT number FROM routes ORDER BY sort_order")
	require.NoError(t, err)
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		numbers = append(numbers, n)
	}
	require.NoError(t, rows.Err())
	return numbers
}

func stopsOf(t *testing.T, db *DB, number string) []string {
	t.Helper()
	rows, err := db.Conn().Query(
		"SELECT stop_name FROM route_stops WHERE route_number = ? ORDER BY stop_sequence", number)
	require.NoError(t, err)
	defer rows.Close()

	var stops []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		stops = append(stops, s)
	}
	require.NoError(t, rows.Err())
	return stops
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.EnsureSchema(context.Background()))
}

func TestUpsertRoutes_AppendsInOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoutes(ctx, []models.Route{
		{Number: "B", Stops: []string{"X", "Y"}},
		{Number: "A", Stops: []string{"Y", "Z"}},
	}))
	require.NoError(t, db.UpsertRoutes(ctx, []models.Route{
		{Number: "C", Stops: []string{"Z", "W"}},
	}))

	assert.Equal(t, []string{"B", "A", "C"}, catalogOrder(t, db))
}

func TestUpsertRoutes_ExistingRouteKeepsPosition(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoutes(ctx, []models.Route{
		{Number: "1", Stops: []string{"A", "B", "C"}},
		{Number: "2", Stops: []string{"C", "D"}},
	}))
	require.NoError(t, db.UpsertRoutes(ctx, []models.Route{
		{Number: "1", Name: "renamed", Stops: []string{"A", "C"}},
	}))

	assert.Equal(t, []string{"1", "2"}, catalogOrder(t, db))
	assert.Equal(t, []string{"A", "C"}, stopsOf(t, db, "1"))

	var name string
	require.NoError(t, db.Conn().QueryRow("SELECT name FROM routes WHERE number = '1'").Scan(&name))
	assert.Equal(t, "renamed", name)
}

func TestUpsertRoutes_InvalidRouteWritesNothing(t *testing.T) {
	db := openTestDB(t)

	err := db.UpsertRoutes(context.Background(), []models.Route{
		{Number: "1", Stops: []string{"A", "B"}},
		{Number: "2", Stops: []string{"A"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
	assert.Empty(t, catalogOrder(t, db))
}

func TestDeleteRoute(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoutes(ctx, []models.Route{
		{Number: "1", Stops: []string{"A", "B"}},
	}))

	deleted, err := db.DeleteRoute(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, stopsOf(t, db, "1"), "stops should cascade")

	deleted, err = db.DeleteRoute(ctx, "1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
