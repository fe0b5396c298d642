package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevSigningKey is the fallback JWT key for local development only.
const DevSigningKey = "dev-secret-key-change-in-production"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	AdminAPIToken string
	// ShutdownTimeout bounds graceful shutdown of the HTTP server and workers.
	ShutdownTimeout time.Duration

	Auth     AuthConfig
	Lockout  LockoutConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

// AuthConfig controls token issuance and password hashing.
type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration
	BcryptCost    int
}

// LockoutConfig controls the login brute-force lockout.
type LockoutConfig struct {
	AttemptsPerWindow int
	WindowDuration    time.Duration
	HardLockThreshold int
	HardLockDuration  time.Duration
}

// DatabaseConfig is empty URL ⇒ in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is empty URL ⇒ lockout state lives in Postgres or memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is empty Brokers ⇒ audit events are not published to Kafka.
type KafkaConfig struct {
	Brokers     []string
	AuditTopic  string
	Partitions  int32
	Replication int16
}

type LogConfig struct {
	Level  string
	Format string
}

// IsDevelopment reports whether the server runs in the development environment.
func (s Server) IsDevelopment() bool {
	return s.Environment == EnvDevelopment
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:            envOr("MEDGATE_ADDR", ":8080"),
		Environment:     envOr("ENVIRONMENT", EnvDevelopment),
		AdminAPIToken:   os.Getenv("ADMIN_API_TOKEN"),
		ShutdownTimeout: 10 * time.Second,
		Auth: AuthConfig{
			JWTSigningKey: envOr("JWT_SIGNING_KEY", DevSigningKey),
			JWTIssuer:     envOr("JWT_ISSUER", "medgate"),
			JWTAudience:   envOr("JWT_AUDIENCE", "medgate-web"),
			TokenTTL:      24 * time.Hour,
			BcryptCost:    12,
		},
		Lockout: LockoutConfig{
			AttemptsPerWindow: 5,
			WindowDuration:    15 * time.Minute,
			HardLockThreshold: 10,
			HardLockDuration:  15 * time.Minute,
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:  envOr("AUDIT_TOPIC", "medgate.audit"),
			Partitions:  3,
			Replication: 1,
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}

	var errs []error
	cfg.Auth.TokenTTL = parseDuration("TOKEN_TTL", cfg.Auth.TokenTTL, &errs)
	cfg.Auth.BcryptCost = parseInt("BCRYPT_COST", cfg.Auth.BcryptCost, &errs)
	cfg.Lockout.AttemptsPerWindow = parseInt("LOCKOUT_ATTEMPTS_PER_WINDOW", cfg.Lockout.AttemptsPerWindow, &errs)
	cfg.Lockout.WindowDuration = parseDuration("LOCKOUT_WINDOW", cfg.Lockout.WindowDuration, &errs)
	cfg.Lockout.HardLockThreshold = parseInt("LOCKOUT_HARD_LOCK_THRESHOLD", cfg.Lockout.HardLockThreshold, &errs)
	cfg.Lockout.HardLockDuration = parseDuration("LOCKOUT_HARD_LOCK_DURATION", cfg.Lockout.HardLockDuration, &errs)
	cfg.Database.MaxOpenConns = parseInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns, &errs)
	cfg.Database.MaxIdleConns = parseInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns, &errs)
	cfg.Redis.PoolSize = parseInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize, &errs)
	cfg.ShutdownTimeout = parseDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, &errs)
	if len(errs) > 0 {
		return Server{}, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that are unsafe to run.
func (s Server) Validate() error {
	var errs []error
	if s.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if !s.IsDevelopment() && s.Auth.JWTSigningKey == DevSigningKey {
		errs = append(errs, fmt.Errorf("JWT_SIGNING_KEY must be set outside %s", EnvDevelopment))
	}
	if !s.IsDevelopment() && len(s.Auth.JWTSigningKey) < 32 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 32 bytes"))
	}
	if s.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if s.Auth.BcryptCost < 4 || s.Auth.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	if s.Lockout.AttemptsPerWindow <= 0 || s.Lockout.HardLockThreshold <= 0 {
		errs = append(errs, errors.New("lockout thresholds must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func parseDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
