// Command seed creates or refreshes the demo account in the configured credential store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jinxlo/api-dashboard/internal/config"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/logging"
	"github.com/jinxlo/api-dashboard/internal/repository/filestore"
	"github.com/jinxlo/api-dashboard/internal/repository/postgres"
	"github.com/jinxlo/api-dashboard/internal/repository/sqlstore"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users, done, err := openUsers(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer done()

	u := cfg.Demo.User
	hash := u.PasswordHash
	if hash == "" {
		if u.Password == "" {
			log.Fatal().Msg("DEMO_USER_PASSWORD or DEMO_USER_PASSWORD_HASH is required")
		}
		if hash, err = security.HashPassword(u.Password); err != nil {
			log.Fatal().Err(err).Msg("Failed to hash demo password")
		}
	}

	if err := seed(ctx, users, u, hash); err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}
}

// seed inserts the account, or resets the name and password when the email is taken
func seed(ctx context.Context, users domain.UserRepository, u config.DemoUserConfig, hash string) error {
	existing, err := users.FindByEmail(ctx, u.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		user := &domain.User{
			ID:              u.ID,
			Email:           u.Email,
			NormalizedEmail: domain.NormalizeEmail(u.Email),
			Name:            u.Name,
			PasswordHash:    hash,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		log.Info().Str("email", u.Email).Str("user_id", user.ID).Msg("Demo account created")
		return nil

	case err != nil:
		return err
	}

	if _, err := users.UpdateProfile(ctx, existing.ID, u.Name, existing.Email); err != nil {
		return err
	}
	if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
		return err
	}
	log.Info().Str("email", u.Email).Str("user_id", existing.ID).Msg("Demo account updated")
	return nil
}

func openUsers(ctx context.Context, cfg *config.Config) (domain.UserRepository, func(), error) {
	switch {
	case cfg.Database.Configured() && sqlstore.Supports(cfg.Database.URL):
		db, err := sqlstore.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlstore.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlstore.NewUserRepository(db), func() { db.Close() }, nil

	case cfg.Database.Configured():
		if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), db.Close, nil

	default:
		dir, err := filestore.ResolveDir(filestore.Candidates(cfg.Demo.DataDir))
		if err != nil {
			return nil, nil, err
		}
		store, err := filestore.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("dir", dir).Msg("Seeding the local file store")
		return filestore.NewUserRepository(store), func() {}, nil
	}
}
