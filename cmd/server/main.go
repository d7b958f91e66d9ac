package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jinxlo/api-dashboard/internal/api"
	"github.com/jinxlo/api-dashboard/internal/api/handler"
	customMiddleware "github.com/jinxlo/api-dashboard/internal/api/middleware"
	"github.com/jinxlo/api-dashboard/internal/config"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/gateway"
	"github.com/jinxlo/api-dashboard/internal/llm"
	"github.com/jinxlo/api-dashboard/internal/llm/gemini"
	"github.com/jinxlo/api-dashboard/internal/llm/openai"
	"github.com/jinxlo/api-dashboard/internal/logging"
	"github.com/jinxlo/api-dashboard/internal/repository/filestore"
	"github.com/jinxlo/api-dashboard/internal/repository/postgres"
	"github.com/jinxlo/api-dashboard/internal/repository/redis"
	"github.com/jinxlo/api-dashboard/internal/repository/sqlstore"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/jinxlo/api-dashboard/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		File:         cfg.Logging.File,
		MaxAge:       cfg.Logging.MaxAge,
		RotationTime: cfg.Logging.RotationTime,
		Production:   cfg.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Auth.SecretDerived {
		log.Warn().Msg("SESSION_SECRET is not set; using a derived signing secret")
	}

	log.Info().Str("addr", cfg.Server.Addr()).Str("env", cfg.Env).Msg("Starting Atlas console server")

	ctx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	ready := map[string]handler.Pinger{}

	var encryptor *security.Encryptor
	if cfg.Security.EncryptionKey != "" {
		encryptor, err = security.NewEncryptorFromBase64(cfg.Security.EncryptionKey)
	} else {
		encryptor, err = security.NewEncryptorFromSecret(cfg.Auth.SessionSecret)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize key encryption")
	}

	users, keys, err := openStores(ctx, cfg, encryptor, ready, &closers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credential store")
	}

	if cfg.Gateway.AdminURL != "" {
		client, err := gateway.NewClient(cfg.Gateway, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Kong Admin API client")
		}
		keys = gateway.NewKeyStore(client)
		ready["gateway"] = client
		log.Info().Str("admin_url", cfg.Gateway.AdminURL).Msg("API keys are managed by the Kong gateway")
	}

	deps := api.Deps{Ready: ready}

	var recorder service.Recorder
	if cfg.Metrics.Enabled {
		deps.Metrics = customMiddleware.NewMetrics()
		recorder = deps.Metrics
	}

	var revoker service.Revoker
	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		closers = append(closers, client)
		ready["redis"] = client

		revocations := redis.NewRevocationList(client)
		revoker = revocations
		deps.Revocations = revocations

		rl := cfg.Security.RateLimit
		deps.APILimiter = redis.NewRateLimiter(client, "api", rl.RequestsPerMinute, rl.Burst)
		deps.SignInLimiter = redis.NewRateLimiter(client, "signin", rl.SignInPerMinute, 0)
	} else {
		log.Warn().Msg("Redis is not configured; rate limiting and session revocation are disabled")
	}

	var demo *security.DemoAccount
	if cfg.Demo.Enabled {
		u := cfg.Demo.User
		demo, err = security.NewDemoAccount(security.DemoAccountConfig{
			ID:           u.ID,
			Email:        u.Email,
			Name:         u.Name,
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid demo account")
		}
		if demo.Plaintext() {
			log.Warn().Str("email", u.Email).Msg("Demo account uses a plaintext password; set DEMO_USER_PASSWORD_HASH")
		} else {
			log.Info().Str("email", u.Email).Msg("Demo account enabled")
		}
	}

	deps.Sessions = security.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.Auth.Issuer)
	validator := security.NewValidator()

	deps.Auth = service.NewAuthService(users, deps.Sessions, validator, service.AuthOptions{
		Demo:              demo,
		AllowRegistration: cfg.Database.Configured() || cfg.Demo.AllowRegistration,
		Revoker:           revoker,
		Recorder:          recorder,
	})
	deps.Keys = service.NewKeyService(keys, recorder)
	deps.Playground = service.NewPlaygroundService(newLLMRouter(cfg), validator)

	oauthCfg := security.OAuthConfig{
		Provider:     cfg.OAuth.Provider,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		UserInfoURL:  cfg.OAuth.UserInfoURL,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       cfg.OAuth.Scopes,
	}
	if oauthCfg.Enabled() {
		deps.OAuth, err = security.NewOAuthProvider(oauthCfg, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid OAuth configuration")
		}
		log.Info().Str("provider", deps.OAuth.Name()).Msg("External sign-in enabled")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// openStores picks the credential and key backend: a configured database URL
// selects Postgres or a database/sql engine, otherwise the local file store.
func openStores(
	ctx context.Context,
	cfg *config.Config,
	encryptor *security.Encryptor,
	ready map[string]handler.Pinger,
	closers *[]io.Closer,
) (domain.UserRepository, domain.KeyRepository, error) {
	switch {
	case cfg.Database.Configured() && sqlstore.Supports(cfg.Database.URL):
		db, err := sqlstore.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, db)
		ready["database"] = db

		if cfg.Database.AutoMigrate {
			if err := sqlstore.RunMigrations(db); err != nil {
				return nil, nil, err
			}
		}
		log.Info().Str("dialect", string(db.Dialect)).Msg("Using SQL credential store")
		return sqlstore.NewUserRepository(db), sqlstore.NewAPIKeyRepository(db, encryptor), nil

	case cfg.Database.Configured():
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
				return nil, nil, err
			}
		}

		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, closerFunc(db.Close))
		ready["database"] = db

		log.Info().Msg("Using Postgres credential store")
		return postgres.NewUserRepository(db), postgres.NewAPIKeyRepository(db, encryptor), nil

	default:
		dir, err := filestore.ResolveDir(filestore.Candidates(cfg.Demo.DataDir))
		if err != nil {
			return nil, nil, err
		}
		store, err := filestore.Open(dir)
		if err != nil {
			return nil, nil, err
		}

		log.Warn().Str("dir", dir).Msg("No database configured; using the local file store")
		return filestore.NewUserRepository(store), filestore.NewAPIKeyRepository(store), nil
	}
}

func newLLMRouter(cfg *config.Config) *llm.Router {
	router := llm.NewRouter(cfg.LLM.DefaultProvider)

	if cfg.Gateway.APIURL != "" && cfg.Gateway.PlaygroundKey != "" {
		log.Info().Str("api_url", cfg.Gateway.APIURL).Msg("Registering gateway chat provider")
		router.RegisterProvider(openai.NewProvider(cfg.Gateway.APIURL, cfg.Gateway.PlaygroundKey, "", cfg.LLM.Timeout))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		log.Info().Str("model", cfg.LLM.Gemini.Model).Msg("Registering Gemini provider")
		router.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	}

	if len(router.ListProviders()) == 0 {
		log.Warn().Msg("No chat provider configured; the playground is disabled")
	}
	return router
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
