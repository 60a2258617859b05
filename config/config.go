// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"dahlia"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Version     string `env:"VERSION" envDefault:"dev"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Database  DatabaseConfig  `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Tracing   TracingConfig   `envPrefix:"OTEL_"`
	Directory DirectoryConfig `envPrefix:"DIRECTORY_"`
	Drafts    DraftsConfig    `envPrefix:"DRAFTS_"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD" envDefault:"postgres"`
	Name            string        `env:"NAME" envDefault:"dahlia"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	MigrationsPath  string        `env:"MIGRATIONS_PATH" envDefault:"db/pg"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// KafkaConfig holds Kafka producer settings
type KafkaConfig struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`
	Brokers      []string      `env:"BROKERS" envDefault:"localhost:9092"`
	Topic        string        `env:"TOPIC" envDefault:"dahlia.collaboration.events"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"100"`
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT" envDefault:"50ms"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	RequiredAcks int           `env:"REQUIRED_ACKS" envDefault:"1"`
	Compression  string        `env:"COMPRESSION" envDefault:"snappy"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Endpoint string `env:"EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	Insecure bool   `env:"EXPORTER_OTLP_INSECURE" envDefault:"true"`
}

// DirectoryConfig holds the influencer and staff directory service addresses
type DirectoryConfig struct {
	InfluencerBaseURL string        `env:"INFLUENCER_BASE_URL" envDefault:"http://localhost:8081"`
	StaffBaseURL      string        `env:"STAFF_BASE_URL" envDefault:"http://localhost:8082"`
	Timeout           time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// DraftsConfig holds draft store settings
type DraftsConfig struct {
	TTL time.Duration `env:"TTL" envDefault:"72h"`
}

// Load parses configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
