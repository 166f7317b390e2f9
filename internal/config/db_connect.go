package config

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection configuration
type DBConfig struct {
	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string

	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// MaxConns is the maximum number of connections in the pool
	MaxConns int32

	// MinConns is the minimum number of connections in the pool
	MinConns int32

	// MaxConnLifetime is the maximum lifetime of a connection.
	// Zero means infinite, for deployments behind an external pooler.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum idle time of a connection
	MaxConnIdleTime time.Duration

	// HealthCheckPeriod is the period between health checks
	HealthCheckPeriod time.Duration

	// ConnectTimeout is the timeout for establishing connections
	ConnectTimeout time.Duration

	// MaxRetries is the maximum number of connection attempts
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts.
	// Uses exponential backoff.
	RetryDelay time.Duration
}

// PoolConfigFromSettings builds a DBConfig from the loaded application config
func PoolConfigFromSettings(cfg *Config, logger *slog.Logger) *DBConfig {
	return &DBConfig{
		DatabaseURL:       cfg.Database.URL,
		Logger:            logger,
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
		MaxRetries:        cfg.Database.MaxRetries,
		RetryDelay:        cfg.Database.RetryDelay,
	}
}

// DefaultDBConfig returns a default database configuration.
// Optimized for managed databases with an external connection pooler.
func DefaultDBConfig(databaseURL string) *DBConfig {
	return &DBConfig{
		DatabaseURL:       databaseURL,
		Logger:            nil,
		MaxConns:          10,
		MinConns:          2,
		MaxConnLifetime:   0,
		MaxConnIdleTime:   0,
		HealthCheckPeriod: 1 * time.Minute,
		ConnectTimeout:    10 * time.Second,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
	}
}

// NewPool creates a new database connection pool with the given configuration
func NewPool(config *DBConfig) (*pgxpool.Pool, error) {
	if config == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing database connection pool",
		"max_conns", config.MaxConns,
		"min_conns", config.MinConns,
		"max_conn_lifetime", config.MaxConnLifetime.String(),
		"health_check_period", config.HealthCheckPeriod.String(),
	)

	dbConfig, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	dbConfig.MaxConns = config.MaxConns
	dbConfig.MinConns = config.MinConns
	dbConfig.MaxConnLifetime = config.MaxConnLifetime
	dbConfig.MaxConnIdleTime = config.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = config.HealthCheckPeriod

	if config.ConnectTimeout > 0 {
		dbConfig.ConnConfig.ConnectTimeout = config.ConnectTimeout
	}

	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		logger.Debug("attempting database connection",
			"attempt", attempt,
			"max_retries", config.MaxRetries,
		)

		ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
		pool, err = pgxpool.NewWithConfig(ctx, dbConfig)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("failed to create pool (attempt %d/%d): %w", attempt, config.MaxRetries, err)
			logger.Warn("failed to create database pool",
				"attempt", attempt,
				"max_retries", config.MaxRetries,
				"error", err,
			)

			if attempt < config.MaxRetries {
				delay := calculateBackoff(config.RetryDelay, attempt)
				logger.Info("retrying database connection",
					"delay", delay.String(),
					"next_attempt", attempt+1,
				)
				time.Sleep(delay)
			}
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()

		if err != nil {
			lastErr = fmt.Errorf("failed to ping database (attempt %d/%d): %w", attempt, config.MaxRetries, err)
			logger.Warn("failed to ping database",
				"attempt", attempt,
				"max_retries", config.MaxRetries,
				"error", err,
			)

			pool.Close()
			pool = nil

			if attempt < config.MaxRetries {
				delay := calculateBackoff(config.RetryDelay, attempt)
				logger.Info("retrying database connection",
					"delay", delay.String(),
					"next_attempt", attempt+1,
				)
				time.Sleep(delay)
			}
			continue
		}

		logger.Info("database connection pool established",
			"attempt", attempt,
			"total_conns", pool.Stat().TotalConns(),
			"idle_conns", pool.Stat().IdleConns(),
		)

		return pool, nil
	}

	logger.Error("failed to establish database connection after all retries",
		"max_retries", config.MaxRetries,
		"error", lastErr,
	)

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", config.MaxRetries, lastErr)
}

// calculateBackoff calculates exponential backoff delay
func calculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	multiplier := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(baseDelay) * multiplier)

	// Cap at 30 seconds
	maxDelay := 30 * time.Second
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

// HealthCheck performs a health check on the database connection pool
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	stat := pool.Stat()
	logger.Debug("database health check passed",
		"total_conns", stat.TotalConns(),
		"idle_conns", stat.IdleConns(),
		"acquired_conns", stat.AcquiredConns(),
	)

	return nil
}

// GracefulShutdown gracefully shuts down the database connection pool
func GracefulShutdown(pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	if pool == nil {
		return nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initiating graceful database shutdown", "timeout", timeout.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("database connection pool closed gracefully")
		return nil
	case <-ctx.Done():
		logger.Warn("database shutdown timeout exceeded, forcing close")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
