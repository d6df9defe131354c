// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :4000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health server (e.g. :4001).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// AllowedOrigins is a comma-separated list of browser origins allowed by CORS.
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// SessionCookieName is the cookie carrying the signed session credential.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	// SessionExpiresIn is the session lifetime (e.g. "168h").
	SessionExpiresIn string `mapstructure:"SESSION_EXPIRES_IN"`
	// SessionUpdateAge is how old a session must be before activity extends it (e.g. "24h").
	SessionUpdateAge string `mapstructure:"SESSION_UPDATE_AGE"`
	// SessionCacheTTL bounds how long a session lookup stays in Redis (e.g. "5m").
	SessionCacheTTL string `mapstructure:"SESSION_CACHE_TTL"`
	// SignInRateLimit is the number of sign-in attempts allowed per IP per minute.
	SignInRateLimit int `mapstructure:"SIGN_IN_RATE_LIMIT"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file used to sign session cookies.
	// When empty the server generates an ephemeral key and cookies do not survive a restart.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim of session cookies.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim of session cookies.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// RedisURL enables the session lookup cache (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// AccessPolicyPath optionally overrides the built-in Rego access policy.
	AccessPolicyPath string `mapstructure:"ACCESS_POLICY_PATH"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on traces, metrics and logs.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Session events (optional). When Kafka brokers are set, the API publishes session lifecycle events.
	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SessionEventsTopic is the Kafka topic for session events.
	SessionEventsTopic string `mapstructure:"SESSION_EVENTS_TOPIC"`

	// Worker-only: Loki URL for the events worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the events worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// SweepInterval is how often the worker deletes expired sessions (e.g. "1h").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":4000")
	v.SetDefault("GRPC_ADDR", ":4001")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("SESSION_COOKIE_NAME", "monoauth.session_token")
	v.SetDefault("SESSION_EXPIRES_IN", "168h") // 7d
	v.SetDefault("SESSION_UPDATE_AGE", "24h")
	v.SetDefault("SESSION_CACHE_TTL", "5m")
	v.SetDefault("SIGN_IN_RATE_LIMIT", 10)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "monoauth-api")
	v.SetDefault("JWT_AUDIENCE", "monoauth-apps")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ACCESS_POLICY_PATH", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "monoauth-api")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SESSION_EVENTS_TOPIC", "monoauth-session-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "monoauth-session-worker")
	v.SetDefault("SWEEP_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.SessionCookieName == "" {
		return nil, errors.New("config: SESSION_COOKIE_NAME must be set")
	}
	if (cfg.JWTPrivateKey == "") != (cfg.JWTPublicKey == "") {
		return nil, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if cfg.Env == "production" && cfg.JWTPrivateKey == "" {
		return nil, errors.New("config: JWT_PRIVATE_KEY must be set when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.SignInRateLimit <= 0 {
		cfg.SignInRateLimit = 10
	}

	return &cfg, nil
}

// SessionTTL parses SessionExpiresIn. Returns 168h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	return parseDuration(c.SessionExpiresIn, 168*time.Hour)
}

// SessionRefreshAge parses SessionUpdateAge. Returns 24h if unset or invalid.
func (c *Config) SessionRefreshAge() time.Duration {
	return parseDuration(c.SessionUpdateAge, 24*time.Hour)
}

// CacheTTL parses SessionCacheTTL. Returns 5m if unset or invalid.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.SessionCacheTTL, 5*time.Minute)
}

// SweepEvery parses SweepInterval. Returns 1h if unset or invalid.
func (c *Config) SweepEvery() time.Duration {
	return parseDuration(c.SweepInterval, time.Hour)
}

// IsProduction reports whether APP_ENV is production. Cookies are marked Secure in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if event publishing is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// AllowedOriginsList returns the CORS origins from the comma-separated config.
func (c *Config) AllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.AllowedOrigins)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
