package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Logging
	LogLevel string

	// AMQP (empty URL disables messaging)
	AMQPURL           string
	AMQPExchange      string
	AMQPImportQueue   string
	AMQPEventsRouting string

	// Reconciliation
	ReconcileMaxRetries int

	// Dashboard projection cache
	DashboardCacheSize int
	DashboardCacheTTL  time.Duration

	// Worker
	DriftSweepInterval  time.Duration
	DriftSweepBatchSize int
	ImportJobTimeout    time.Duration

	// CSV ingestion
	CSVMaxRows     int
	CSVInsertChunk int
}

func Load() *Config {
	cfg := &Config{
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPImportQueue:   getEnv("AMQP_IMPORT_QUEUE", "csv_imports"),
		AMQPEventsRouting: getEnv("AMQP_EVENTS_ROUTING_KEY", "ledger.events"),

		ReconcileMaxRetries: getEnvInt("RECONCILE_MAX_RETRIES", 3),

		DashboardCacheSize: getEnvInt("DASHBOARD_CACHE_SIZE", 256),
		DashboardCacheTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),

		DriftSweepInterval:  getEnvDuration("DRIFT_SWEEP_INTERVAL", 15*time.Minute),
		DriftSweepBatchSize: getEnvInt("DRIFT_SWEEP_BATCH_SIZE", 100),
		ImportJobTimeout:    getEnvDuration("IMPORT_JOB_TIMEOUT", 5*time.Minute),

		CSVMaxRows:     getEnvInt("CSV_MAX_ROWS", 50000),
		CSVInsertChunk: getEnvInt("CSV_INSERT_CHUNK", 400),
	}

	return cfg
}

// MessagingEnabled reports whether an AMQP broker is configured.
func (c *Config) MessagingEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if strings.EqualFold(c.LogLevel, level) {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPImportQueue == "" {
			errors = append(errors, "AMQP import queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsRouting == "" {
			errors = append(errors, "AMQP events routing key cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsRouting != "" && c.AMQPEventsRouting == c.AMQPImportQueue {
			errors = append(errors, "AMQP events routing key must differ from the import queue name")
		}
	}

	if c.ReconcileMaxRetries < 0 || c.ReconcileMaxRetries > 20 {
		errors = append(errors, fmt.Sprintf("invalid reconcile max retries %d: must be between 0 and 20", c.ReconcileMaxRetries))
	}

	if c.DashboardCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache size %d: must be at least 1", c.DashboardCacheSize))
	}
	if c.DashboardCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache TTL %v: must be at least 1 second", c.DashboardCacheTTL))
	}

	if c.DriftSweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid drift sweep interval %v: must be at least 1 second", c.DriftSweepInterval))
	} else if c.DriftSweepInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid drift sweep interval %v: must be at most 24 hours", c.DriftSweepInterval))
	}
	if c.DriftSweepBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid drift sweep batch size %d: must be at least 1", c.DriftSweepBatchSize))
	} else if c.DriftSweepBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid drift sweep batch size %d: must be at most 1000", c.DriftSweepBatchSize))
	}
	if c.ImportJobTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid import job timeout %v: must be at least 1 second", c.ImportJobTimeout))
	}

	if c.CSVMaxRows < 1 {
		errors = append(errors, fmt.Sprintf("invalid CSV max rows %d: must be at least 1", c.CSVMaxRows))
	}
	// 10 bound parameters per row, SQLite caps a statement at 32766
	if c.CSVInsertChunk < 1 || c.CSVInsertChunk > 3276 {
		errors = append(errors, fmt.Sprintf("invalid CSV insert chunk %d: must be between 1 and 3276", c.CSVInsertChunk))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
