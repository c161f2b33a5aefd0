package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/you/busroutes/internal/db"
	"github.com/you/busroutes/models"
	"github.com/you/busroutes/repository"
)

// catalogStore is the read/write surface routectl needs from a backend
type catalogStore interface {
	UpsertRoutes(ctx context.Context, routes []models.Route) error
	DeleteRoute(ctx context.Context, number string) (bool, error)
	AllRoutes(ctx context.Context) ([]models.Route, error)
	GetRouteByNumber(ctx context.Context, number string) (*models.Route, error)
	Close() error
}

// sqliteStore writes through internal/db and reads through the repository
// over the same connection.
type sqliteStore struct {
	*db.DB
	*repository.SQLiteRouteRepository
}

type postgresStore struct {
	*repository.RouteRepository
}

func (p postgresStore) Close() error {
	p.RouteRepository.Close()
	return nil
}

func openStore(ctx context.Context, sqlitePath, databaseURL string, logger *slog.Logger) (catalogStore, error) {
	if databaseURL != "" {
		repo, err := repository.NewRouteRepository(databaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return postgresStore{repo}, nil
	}

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	database, err := db.Connect(sqlitePath, logger)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return sqliteStore{
		DB:                    database,
		SQLiteRouteRepository: repository.NewSQLiteRouteRepository(database.Conn()),
	}, nil
}
