// Package config loads festivalcore settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers understood by the persistence layer.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Blob drivers understood by the backup store.
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// Metrics backends served at /metrics.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
)

// ErrInvalidConfig marks settings that parsed but cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full process configuration.
type Config struct {
	HTTPAddr        string        `env:"FESTIVAL_HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"FESTIVAL_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint    string        `env:"FESTIVAL_OTEL_ENDPOINT"`
	ShutdownTimeout time.Duration `env:"FESTIVAL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	SeedFile        string        `env:"FESTIVAL_SEED_FILE"`
	Metrics         string        `env:"FESTIVAL_METRICS" envDefault:"prometheus"`
	// TraceFile receives one JSON line per service span when no OTLP
	// endpoint is configured.
	TraceFile string `env:"FESTIVAL_TRACE_FILE"`

	Storage Storage
	Blob    Blob
}

// Storage selects the entity store.
type Storage struct {
	Driver      string `env:"FESTIVAL_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"FESTIVAL_SQLITE_PATH" envDefault:"festivalcore.db"`
	PostgresDSN string `env:"FESTIVAL_POSTGRES_DSN"`
}

// Blob selects the object store used for backups.
type Blob struct {
	Driver string `env:"FESTIVAL_BLOB_DRIVER" envDefault:"fs"`
	FSRoot string `env:"FESTIVAL_BLOB_FS_ROOT" envDefault:"./blobdata"`
	S3     S3
}

// S3 configures an S3 or MinIO bucket. Empty keys fall back to the default
// AWS credential chain.
type S3 struct {
	Bucket          string `env:"FESTIVAL_BLOB_S3_BUCKET"`
	Region          string `env:"FESTIVAL_BLOB_S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"FESTIVAL_BLOB_S3_ENDPOINT"`
	PathStyle       bool   `env:"FESTIVAL_BLOB_S3_PATH_STYLE"`
	AccessKeyID     string `env:"FESTIVAL_BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"FESTIVAL_BLOB_S3_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"FESTIVAL_BLOB_S3_SESSION_TOKEN"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: FESTIVAL_POSTGRES_DSN is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case BlobFilesystem, BlobMemory:
	case BlobS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("%w: FESTIVAL_BLOB_S3_BUCKET is required for the s3 driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown blob driver %q", ErrInvalidConfig, c.Blob.Driver)
	}
	switch c.Metrics {
	case MetricsPrometheus, MetricsExpvar:
	default:
		return fmt.Errorf("%w: unknown metrics backend %q", ErrInvalidConfig, c.Metrics)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: negative shutdown timeout", ErrInvalidConfig)
	}
	return nil
}
