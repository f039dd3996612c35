package sinks

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrMigrationFailed wraps any non-NoChange failure from the migrate engine.
var ErrMigrationFailed = errors.New("sinks: migration failed")

// Migrate applies every up migration under sourceURL (a "file://" path to a
// directory of golang-migrate-formatted .sql files) against the store's
// connection.
func (s *Store) Migrate(sourceURL string) error {
	driver, err := pgx.WithInstance(s.db, &pgx.Config{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "pgx", driver)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	return nil
}

// schemaSQL is the canonical schema for the three persisted row shapes. No
// migrations/ directory ships with this repository; EnsureSchema applies
// this text directly.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	command          TEXT NOT NULL,
	strategy_id      TEXT NOT NULL,
	mint             TEXT NOT NULL,
	caller_name      TEXT,
	alert_ts_ms      BIGINT NOT NULL,
	started_at       BIGINT NOT NULL,
	grid_fingerprint BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS path_metrics (
	run_id                TEXT NOT NULL REFERENCES runs(run_id),
	call_id               TEXT NOT NULL,
	alert_ts_ms           BIGINT NOT NULL,
	p0                    DOUBLE PRECISION NOT NULL,
	hit_2x                BOOLEAN NOT NULL,
	t_2x_ms               BIGINT,
	hit_3x                BOOLEAN NOT NULL,
	t_3x_ms               BIGINT,
	hit_4x                BOOLEAN NOT NULL,
	t_4x_ms               BIGINT,
	dd_bps                DOUBLE PRECISION NOT NULL,
	dd_to_2x_bps          DOUBLE PRECISION,
	alert_to_activity_ms  BIGINT,
	peak_multiple         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, call_id)
);

CREATE TABLE IF NOT EXISTS policy_results (
	run_id              TEXT NOT NULL REFERENCES runs(run_id),
	canonical_policy_id TEXT NOT NULL,
	evaluated           INT NOT NULL,
	violation_count     INT NOT NULL,
	mean_return_bps     DOUBLE PRECISION NOT NULL,
	median_return_bps   DOUBLE PRECISION NOT NULL,
	stop_out_rate       DOUBLE PRECISION NOT NULL,
	p95_drawdown_bps    DOUBLE PRECISION NOT NULL,
	median_dd_bps       DOUBLE PRECISION NOT NULL,
	mean_tail_capture   DOUBLE PRECISION NOT NULL,
	score               DOUBLE PRECISION NOT NULL,
	is_best_feasible    BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, canonical_policy_id)
);
`

// EnsureSchema applies schemaSQL directly, for test/dev setups that don't
// ship a migrations directory. Production deployments should prefer Migrate
// against a versioned migrations/ directory instead.
func (s *Store) EnsureSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
