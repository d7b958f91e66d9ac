package sqlstore

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationFiles embed.FS

// RunMigrations applies the embedded migrations for the DB's dialect.
// The handle stays open afterwards.
func RunMigrations(db *DB) error {
	src, err := iofs.New(migrationFiles, "migrations/"+string(db.Dialect))
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	defer src.Close()

	var driver database.Driver
	switch db.Dialect {
	case DialectSQLite:
		driver, err = migratesqlite.WithInstance(db.SQL, &migratesqlite.Config{})
	case DialectMySQL:
		driver, err = migratemysql.WithInstance(db.SQL, &migratemysql.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %q", db.Dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	// Closing the migrate instance would close db.SQL, so it is left to the caller.
	m, err := migrate.NewWithInstance("iofs", src, string(db.Dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Str("backend", string(db.Dialect)).Msg("Database migration: no changes")
			return nil
		}
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	version, _, _ := m.Version()
	log.Info().Str("backend", string(db.Dialect)).Uint("version", version).Msg("Database migration: success")
	return nil
}
