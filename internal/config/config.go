// Package config provides configuration structures and validation for the
// ledger core. Settings are environment-based and validated once at startup.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field covers one
// subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	Kafka       KafkaConfig
	Outbox      OutboxConfig
	Idempotency IdempotencyConfig
	Jobs        JobsConfig
}

// ApplicationConfig contains general application configuration.
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// PostgresConfig contains PostgreSQL configuration.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// KafkaConfig contains Kafka configuration for ledger event publishing.
type KafkaConfig struct {
	Brokers           string
	LedgerEventsTopic string
	NumPartitions     int
	ReplicationFactor int
	WriteTimeout      time.Duration
}

// OutboxConfig contains outbox polling configuration.
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// IdempotencyConfig controls key reservation lifetimes.
type IdempotencyConfig struct {
	// TTL is how long a key blocks reuse after its first attempt.
	TTL time.Duration
	// StaleAfter is the window past which an unresolved in_progress record is
	// treated as abandoned and may be reclaimed by a retry.
	StaleAfter time.Duration
}

// JobsConfig contains background job scheduling configuration.
type JobsConfig struct {
	RecurringInterval  time.Duration
	RecurringBatchSize int
	ReaperInterval     time.Duration
	WorkerPoolSize     int
}

// validate checks every configuration value against its minimum requirements.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.LedgerEventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_LEDGER_EVENTS_TOPIC is required")
	}
	if c.Kafka.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "KAFKA_WRITE_TIMEOUT must be greater than 0")
	}

	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.Idempotency.TTL <= 0 {
		validationErrors = append(validationErrors, "IDEMPOTENCY_TTL must be greater than 0")
	}
	if c.Idempotency.StaleAfter <= 0 {
		validationErrors = append(validationErrors, "IDEMPOTENCY_STALE_AFTER must be greater than 0")
	}
	if c.Idempotency.StaleAfter >= c.Idempotency.TTL {
		validationErrors = append(validationErrors, "IDEMPOTENCY_STALE_AFTER must be shorter than IDEMPOTENCY_TTL")
	}

	if c.Jobs.RecurringInterval <= 0 {
		validationErrors = append(validationErrors, "JOBS_RECURRING_INTERVAL must be greater than 0")
	}
	if c.Jobs.RecurringBatchSize <= 0 {
		validationErrors = append(validationErrors, "JOBS_RECURRING_BATCH_SIZE must be greater than 0")
	}
	if c.Jobs.ReaperInterval <= 0 {
		validationErrors = append(validationErrors, "JOBS_REAPER_INTERVAL must be greater than 0")
	}
	if c.Jobs.WorkerPoolSize <= 0 {
		validationErrors = append(validationErrors, "JOBS_WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
