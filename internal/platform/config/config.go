// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, AMQP, MinIO) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/scholaris/internal/platform/constants"
)

// suffixPattern restricts the institutional suffix appended to reference numbers.
var suffixPattern = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)

// # Configuration Schema

// Config holds all runtime configuration for the Scholaris API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Public key used to verify bearer tokens issued by the identity provider
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Message broker (RabbitMQ). Empty disables the broker sink.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"registry.notifications"`

	// Object Storage (MinIO / S3-compatible). Empty endpoint disables blob release.
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET" envDefault:"submissions"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	// Reference numbers
	ReferenceSuffix   string `env:"REFERENCE_SUFFIX"   envDefault:"CS"`
	ReferenceTimezone string `env:"REFERENCE_TIMEZONE" envDefault:"UTC"`

	// NotifyTimeout bounds each post-commit notification dispatch.
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates
// the values the registry cannot run without.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field and format constraints env tags cannot express.
func (c *Config) Validate() error {
	if !suffixPattern.MatchString(c.ReferenceSuffix) {
		return fmt.Errorf("config: REFERENCE_SUFFIX %q must match %s", c.ReferenceSuffix, suffixPattern)
	}

	if _, err := time.LoadLocation(c.ReferenceTimezone); err != nil {
		return fmt.Errorf("config: REFERENCE_TIMEZONE %q: %w", c.ReferenceTimezone, err)
	}

	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = constants.DefaultNotifyTimeout
	}

	if c.MinIOEndpoint != "" && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		return fmt.Errorf("config: MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	return nil
}

// Location returns the time zone in which reference years are computed.
// Validate guarantees the zone name resolves.
func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.ReferenceTimezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
