// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel int      `env:"LOG_LEVEL" envDefault:"0"`
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Database Database `envPrefix:"DATABASE_"`
	JWT      JWT      `envPrefix:"JWT_"`
	Blob     Blob     `envPrefix:"BLOB_"`
	Minio    Minio    `envPrefix:"MINIO_"`
}

// HTTP contains HTTP server parameters. The write timeout is long because
// homomorphic scoring of a large photo library dominates request latency.
type HTTP struct {
	Address      string        `env:"ADDRESS" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
}

// Database contains database connection parameters. An empty DSN selects the
// in-memory store, which is only suitable for development.
type Database struct {
	DSN string `env:"DSN" envDefault:""`
}

// JWT contains token signing parameters.
type JWT struct {
	Secret string        `env:"SECRET" envDefault:"devsecret"`
	TTL    time.Duration `env:"TTL" envDefault:"24h"`
}

// Blob selects the payload storage driver: "memory", "file" or "minio".
type Blob struct {
	Driver string `env:"DRIVER" envDefault:"memory"`
	Dir    string `env:"DIR" envDefault:"./data/blobs"`
}

// Minio contains object storage parameters, used when the blob driver is
// "minio".
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"securesearch-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"securesearch-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"securesearch-images"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
