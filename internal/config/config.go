package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Demo     DemoConfig     `mapstructure:"demo"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// IsProduction reports whether the process runs with production safeguards
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`

	// honor X-Forwarded-For and X-Real-IP; only safe behind a proxy that overwrites them
	TrustProxy bool `mapstructure:"trust_proxy"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// Configured reports whether a relational backend should be used
func (c DatabaseConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != ""
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	Issuer        string        `mapstructure:"issuer"`

	// SecretDerived is set when no explicit secret was configured
	SecretDerived bool `mapstructure:"-"`
}

type DemoConfig struct {
	Enabled           bool           `mapstructure:"enabled"`
	AllowRegistration bool           `mapstructure:"allow_registration"`
	DataDir           string         `mapstructure:"data_dir"`
	User              DemoUserConfig `mapstructure:"user"`
}

type DemoUserConfig struct {
	ID           string `mapstructure:"id"`
	Email        string `mapstructure:"email"`
	Name         string `mapstructure:"name"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

type GatewayConfig struct {
	AdminURL          string        `mapstructure:"admin_url"`
	APIURL            string        `mapstructure:"api_url"`
	PlaygroundKey     string        `mapstructure:"playground_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ConsumerCacheSize int           `mapstructure:"consumer_cache_size"`
}

type OAuthConfig struct {
	Provider     string   `mapstructure:"provider"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	UserInfoURL  string   `mapstructure:"userinfo_url"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}

type LLMConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type SecurityConfig struct {
	EncryptionKey string          `mapstructure:"encryption_key"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
	SignInPerMinute   int `mapstructure:"signin_per_minute"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	secret, derived := ResolveSessionSecret(cfg.Auth.SessionSecret, os.Getenv)
	cfg.Auth.SessionSecret = secret
	cfg.Auth.SecretDerived = derived

	return &cfg, nil
}

// Validate rejects combinations that are unsafe or cannot run
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	if c.Auth.CookieName == "" {
		return errors.New("auth.cookie_name is required")
	}

	if c.IsProduction() {
		if c.Auth.SecretDerived {
			return errors.New("an explicit session secret (SESSION_SECRET) is required in production")
		}
		if c.Database.Configured() && c.Security.EncryptionKey == "" {
			return errors.New("an explicit API_KEY_ENCRYPTION_KEY is required in production when a database is configured")
		}
		if c.Demo.Enabled && c.Demo.User.PasswordHash == "" {
			return errors.New("demo mode in production requires DEMO_USER_PASSWORD_HASH; plaintext demo passwords are refused")
		}
	}

	if c.Demo.Enabled && c.Demo.User.PasswordHash == "" && c.Demo.User.Password == "" {
		return errors.New("demo mode requires DEMO_USER_PASSWORD_HASH or DEMO_USER_PASSWORD")
	}

	switch c.LLM.DefaultProvider {
	case "", "gateway", "gemini":
	default:
		return fmt.Errorf("unsupported llm.default_provider %q", c.LLM.DefaultProvider)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.trust_proxy", false)

	// Database
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.auto_migrate", true)

	// Redis
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.session_ttl", "720h") // 30 days
	v.SetDefault("auth.cookie_name", "atlas_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.issuer", "atlas-console")

	// Demo
	v.SetDefault("demo.enabled", false)
	v.SetDefault("demo.allow_registration", false)
	v.SetDefault("demo.user.id", "demo-user")
	v.SetDefault("demo.user.email", "demo@atlas.ai")
	v.SetDefault("demo.user.name", "Atlas Demo")
	v.SetDefault("demo.user.password", "AtlasDemo!2025")

	// Gateway
	v.SetDefault("gateway.timeout", "10s")
	v.SetDefault("gateway.consumer_cache_size", 1024)

	// LLM
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 120)
	v.SetDefault("security.rate_limit.burst", 20)
	v.SetDefault("security.rate_limit.signin_per_minute", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("env", "ENV", "APP_ENV")

	// Server
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.trust_proxy", "TRUST_PROXY")

	// Database, first non-empty wins
	v.BindEnv("database.url", "DATABASE_URL", "POSTGRES_PRISMA_URL", "POSTGRES_URL", "SUPABASE_PRISMA_URL", "SUPABASE_DB_URL")

	// Redis
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.session_secret", "SESSION_SECRET", "AUTH_SECRET", "NEXTAUTH_SECRET", "JWT_SECRET")
	v.BindEnv("auth.cookie_secure", "COOKIE_SECURE")

	// Demo
	v.BindEnv("demo.enabled", "DEMO_MODE")
	v.BindEnv("demo.allow_registration", "DEMO_ALLOW_REGISTRATION")
	v.BindEnv("demo.data_dir", "DEMO_DATA_DIR")
	v.BindEnv("demo.user.id", "DEMO_USER_ID")
	v.BindEnv("demo.user.email", "DEMO_USER_EMAIL")
	v.BindEnv("demo.user.name", "DEMO_USER_NAME")
	v.BindEnv("demo.user.password", "DEMO_USER_PASSWORD")
	v.BindEnv("demo.user.password_hash", "DEMO_USER_PASSWORD_HASH")

	// Gateway
	v.BindEnv("gateway.admin_url", "KONG_ADMIN_API_URL", "KONG_ADMIN_URL")
	v.BindEnv("gateway.api_url", "KONG_API_URL", "KONG_PROXY_URL")
	v.BindEnv("gateway.playground_key", "KONG_PLAYGROUND_KEY", "PLAYGROUND_API_KEY")

	// OAuth
	v.BindEnv("oauth.provider", "OAUTH_PROVIDER")
	v.BindEnv("oauth.client_id", "OAUTH_CLIENT_ID")
	v.BindEnv("oauth.client_secret", "OAUTH_CLIENT_SECRET")
	v.BindEnv("oauth.auth_url", "OAUTH_AUTH_URL")
	v.BindEnv("oauth.token_url", "OAUTH_TOKEN_URL")
	v.BindEnv("oauth.userinfo_url", "OAUTH_USERINFO_URL")
	v.BindEnv("oauth.redirect_url", "OAUTH_REDIRECT_URL")

	// LLM
	v.BindEnv("llm.default_provider", "LLM_PROVIDER")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.gemini.model", "GEMINI_MODEL")

	// Security
	v.BindEnv("security.encryption_key", "API_KEY_ENCRYPTION_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
	v.BindEnv("logging.file", "LOG_FILE")
}
