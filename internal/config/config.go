// Package config loads the ledger's layered configuration: defaults, then
// an optional YAML file, then environment variables, in that priority
// order (environment wins).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration tree.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Log       LogConfig       `mapstructure:"log"`
}

// AppConfig describes the running binary.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	BuildTime   string `mapstructure:"build_time"`
	GitCommit   string `mapstructure:"git_commit"`
}

// IsDevelopment reports whether the environment is development.
func (c *AppConfig) IsDevelopment() bool { return c.Environment == "development" }

// IsProduction reports whether the environment is production.
func (c *AppConfig) IsProduction() bool { return c.Environment == "production" }

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the host:port the server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the Postgres connection pool backing the
// LedgerStore.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN builds a libpq-style connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig configures the fast-path spend-ceiling limiter's backing
// store.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig configures the outbox drainer's broker connection.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	DrainBatch    int           `mapstructure:"drain_batch"`
	DrainInterval time.Duration `mapstructure:"drain_interval"`
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	ServiceName     string        `mapstructure:"service_name"`
	ExportTimeout   time.Duration `mapstructure:"export_timeout"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	InsecureChannel bool          `mapstructure:"insecure_channel"`
}

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	TokenExpiry    time.Duration `mapstructure:"token_expiry"`
	EnableMockAuth bool          `mapstructure:"enable_mock_auth"` // development only
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	ExposedHeaders   []string      `mapstructure:"exposed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// APIKeySeed is one operator-provisioned caller identity, loaded once at
// startup. Real deployments would source these from a secrets manager or
// an admin table; for now the seed table lives in config like every other
// ambient setting.
type APIKeySeed struct {
	ID              string        `mapstructure:"id"`
	WalletID        string        `mapstructure:"wallet_id"`
	Scopes          []string      `mapstructure:"scopes"`
	Ceiling         string        `mapstructure:"ceiling"`          // decimal string, "" = uncapped
	CeilingCurrency string        `mapstructure:"ceiling_currency"` // required when Ceiling is set
	Window          time.Duration `mapstructure:"window"`
}

// LedgerConfig configures the ledger engine's own knobs, as distinct from
// the adapters around it.
type LedgerConfig struct {
	MaxAttempts        int           `mapstructure:"max_attempts"`
	SpendCeilingWindow time.Duration `mapstructure:"spend_ceiling_window"`
	DefaultHoldTTL     time.Duration `mapstructure:"default_hold_ttl"`
	DefaultIntentTTL   time.Duration `mapstructure:"default_intent_ttl"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"` // 0 disables the background sweeper
	APIKeys            []APIKeySeed  `mapstructure:"api_keys"`
}

// LogConfig configures the slog-based logger.
type LogConfig struct {
	Level     string `mapstructure:"level"`  // debug, info, warn, error
	Format    string `mapstructure:"format"` // json, text
	AddSource bool   `mapstructure:"add_source"`
}

// Load reads configuration from a YAML file in configPath/configName plus
// environment variables, falling back to defaults for anything unset.
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/wallethub")

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from defaults and environment variables
// only, skipping the config-file lookup entirely.
func LoadFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wallethub-ledger")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "wallethub")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.connect_timeout", "5s")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.drain_batch", 100)
	v.SetDefault("nats.drain_interval", "1s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "wallethub-ledger")
	v.SetDefault("telemetry.export_timeout", "10s")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.insecure_channel", true)

	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.jwt_issuer", "wallethub-ledger")
	v.SetDefault("auth.token_expiry", "15m")
	v.SetDefault("auth.enable_mock_auth", true)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Idempotency-Key"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", "12h")

	v.SetDefault("ledger.max_attempts", 3)
	v.SetDefault("ledger.spend_ceiling_window", "24h")
	v.SetDefault("ledger.default_hold_ttl", "15m")
	v.SetDefault("ledger.default_intent_ttl", "24h")
	v.SetDefault("ledger.sweep_interval", "0s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.add_source", false)
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.host", "LEDGER_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "LEDGER_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.user", "LEDGER_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "LEDGER_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.database", "LEDGER_DATABASE_NAME", "DB_NAME")

	_ = v.BindEnv("redis.address", "LEDGER_REDIS_ADDRESS", "REDIS_ADDRESS")
	_ = v.BindEnv("nats.url", "LEDGER_NATS_URL", "NATS_URL")

	_ = v.BindEnv("auth.jwt_secret", "LEDGER_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("server.port", "LEDGER_SERVER_PORT", "PORT")
	_ = v.BindEnv("app.environment", "LEDGER_APP_ENVIRONMENT", "ENVIRONMENT", "ENV")
}

// Validate rejects configurations that would be unsafe or nonsensical to
// run with.
func (c *Config) Validate() error {
	if c.App.IsProduction() {
		if c.Auth.JWTSecret == "change-me-in-production" {
			return fmt.Errorf("JWT secret must be changed in production")
		}
		if c.Auth.EnableMockAuth {
			return fmt.Errorf("mock auth must be disabled in production")
		}
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Ledger.MaxAttempts <= 0 {
		return fmt.Errorf("ledger.max_attempts must be positive")
	}
	return nil
}

// Development returns a configuration suitable for local development,
// bypassing file/env loading entirely.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "wallethub-ledger",
			Version:     "dev",
			Environment: "development",
			Debug:       true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "wallethub",
			SSLMode:         "disable",
			MaxConnections:  10,
			MinConnections:  2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
		},
		Redis: RedisConfig{Address: "localhost:6379"},
		NATS:  NATSConfig{URL: "nats://localhost:4222", DrainBatch: 100, DrainInterval: time.Second},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			OTLPEndpoint:  "localhost:4318",
			ServiceName:   "wallethub-ledger",
			ExportTimeout: 10 * time.Second,
			SampleRatio:   1.0,
		},
		Auth: AuthConfig{
			JWTSecret:      "dev-secret-key",
			JWTIssuer:      "wallethub-ledger-dev",
			TokenExpiry:    15 * time.Minute,
			EnableMockAuth: true,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Ledger: LedgerConfig{
			MaxAttempts:        3,
			SpendCeilingWindow: 24 * time.Hour,
			DefaultHoldTTL:     15 * time.Minute,
			DefaultIntentTTL:   24 * time.Hour,
		},
		Log: LogConfig{Level: "debug", Format: "text"},
	}
}

// Test returns a configuration suitable for automated tests.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Database.Database = "wallethub_test"
	cfg.Log.Level = "error"
	return cfg
}
