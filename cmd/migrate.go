package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Connect to the configured database and apply any pending schema changes.
PostgreSQL uses versioned migrations; SQLite and MySQL apply an idempotent schema.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// migrationLister is implemented by backends with versioned migrations
type migrationLister interface {
	MigrationsApplied(ctx context.Context) ([]string, error)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, _, cleanup, err := loadRuntime()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	fmt.Printf("Schema is up to date (%s)\n", store.Driver())

	if lister, ok := store.(migrationLister); ok {
		versions, err := lister.MigrationsApplied(ctx)
		if err != nil {
			return fmt.Errorf("failed to list migrations: %w", err)
		}
		for _, v := range versions {
			fmt.Printf("  applied: %s\n", v)
		}
	}
	return nil
}
