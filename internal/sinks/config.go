// Package sinks persists the run_id-scoped row shapes (C8): path metrics,
// policy optimizer results, and run metadata, backed by Postgres via
// database/sql + the pgx/v5 stdlib driver.
package sinks

import (
	"errors"
	"time"
)

// ErrInvalidDSN is returned when Config.DSN is empty.
var ErrInvalidDSN = errors.New("sinks: invalid or empty DSN")

// Config holds connection parameters for the persisted sink store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
}

// DefaultConfig returns production-sensible pool and retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}
}

// Validate fills in zero-value fields with defaults and rejects an empty DSN.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return ErrInvalidDSN
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return nil
}
