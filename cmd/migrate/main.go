package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jinxlo/api-dashboard/internal/config"
	"github.com/jinxlo/api-dashboard/internal/logging"
	"github.com/jinxlo/api-dashboard/internal/repository/postgres"
	"github.com/jinxlo/api-dashboard/internal/repository/sqlstore"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	closer, err := logging.Setup(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if !cfg.Database.Configured() {
		log.Fatal().Msg("DATABASE_URL is not set; the file store needs no migrations")
	}

	if sqlstore.Supports(cfg.Database.URL) {
		db, err := sqlstore.Open(context.Background(), cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := sqlstore.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		return
	}

	if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
