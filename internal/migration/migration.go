package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations brings the schema up to date. A no-change result is not an
// error.
func RunMigrations(ctx context.Context, databaseURI string, logger *zap.SugaredLogger) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("can't load embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, databaseURI)
	if err != nil {
		return fmt.Errorf("can't initialize migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Infow("Schema up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Infow("Migrations applied")
	return ctx.Err()
}
