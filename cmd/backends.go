package cmd

import (
	"context"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/postgres"
	"github.com/kozaktomas/facegate/internal/database/sqlstore"
)

func init() {
	database.RegisterDriver(database.DriverPostgres, postgres.Open)
	database.RegisterDriver(database.DriverSQLite, sqlstore.Open)
	database.RegisterDriver(database.DriverMySQL, sqlstore.Open)
}

// openStore connects to the configured backend and applies its schema.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	return database.Open(ctx, &cfg.Database)
}
