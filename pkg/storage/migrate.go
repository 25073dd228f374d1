package storage

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// runMigrations applies all up migrations embedded in the binary.
func runMigrations(dsn string, logger *slog.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("db.migrate.close", slog.Any("source_err", srcErr), slog.Any("db_err", dbErr))
		}
	}()

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)

	switch {
	case upErr == nil:
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info("db.migrate", slog.Uint64("from_ver", uint64(fromVer)), slog.Uint64("to_ver", uint64(fromVer)), slog.Duration("duration", took))
		return nil
	default:
		logger.Error("db.migrate", slog.String("err", upErr.Error()), slog.Duration("duration", took))
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	logger.Info("db.migrate", slog.Uint64("from_ver", uint64(fromVer)), slog.Uint64("to_ver", uint64(toVer)), slog.Duration("duration", took))
	return nil
}
