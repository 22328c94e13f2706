package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"issue-tracker"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8000"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	TimeZone              string `env:"APP_TIMEZONE" envDefault:"UTC"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig holds broker values for the kafka notification transport.
type KafkaConfig struct {
	Brokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic    string   `env:"KAFKA_TOPIC" envDefault:"issue-notifications"`
	GroupID  string   `env:"KAFKA_GROUP_ID" envDefault:"issue-tracker-mailer"`
	Username string   `env:"KAFKA_USERNAME"`
	Password string   `env:"KAFKA_PASSWORD"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret     string `env:"JWT_SECRET" envDefault:"dev-secret"`
	TokenTTLHours int    `env:"AUTH_TOKEN_TTL_HOURS" envDefault:"168"`
	BcryptCost    int    `env:"AUTH_BCRYPT_COST" envDefault:"10"`
}

// Notification transports.
const (
	TransportLog   = "log"
	TransportRedis = "redis"
	TransportKafka = "kafka"
)

// NotificationConfig selects where assignment notifications go.
type NotificationConfig struct {
	Transport  string `env:"NOTIFY_TRANSPORT" envDefault:"log"`
	EmailFrom  string `env:"NOTIFY_EMAIL_FROM" envDefault:"noreply@example.com"`
	RedisQueue string `env:"NOTIFY_REDIS_QUEUE" envDefault:"issue-tracker:notifications"`
}

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.App.TimeZone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	switch c.Notification.Transport {
	case TransportLog, TransportRedis, TransportKafka:
	default:
		return fmt.Errorf("invalid NOTIFY_TRANSPORT %q", c.Notification.Transport)
	}
	if c.Notification.Transport == TransportRedis && c.Redis.Addr == "" {
		return fmt.Errorf("NOTIFY_TRANSPORT=redis requires REDIS_ADDR")
	}
	if c.Notification.Transport == TransportKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("NOTIFY_TRANSPORT=kafka requires KAFKA_BROKERS")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// Location returns the zone used for calendar-day boundaries.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued bearer tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}
