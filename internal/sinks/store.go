package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps a pooled Postgres connection used to persist path-metric rows,
// policy-result rows, and run rows.
type Store struct {
	db     *sql.DB
	config Config
}

// Connect opens a pooled connection with retry-and-backoff, grounded on the
// connection pattern used across the rest of this codebase's data layer.
func Connect(ctx context.Context, config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sink config: %w", err)
	}

	var db *sql.DB
	var err error
	delay := config.RetryDelay

	for attempt := 0; attempt <= config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}

		db, err = sql.Open("pgx", config.DSN)
		if err != nil {
			continue
		}
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
		db.SetConnMaxLifetime(config.ConnMaxLifetime)

		if err = db.PingContext(ctx); err != nil {
			db.Close()
			continue
		}
		return &Store{db: db, config: config}, nil
	}

	return nil, fmt.Errorf("failed to connect to sink store after %d attempts: %w", config.RetryAttempts+1, err)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck pings the store with a bounded timeout.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sink store health check failed: %w", err)
	}
	return nil
}

// InsertPathMetrics persists one path_metrics row. Writes are idempotent on
// (run_id, call_id): a re-run of the same run overwrites rather than
// duplicates.
func (s *Store) InsertPathMetrics(ctx context.Context, runID string, row PathMetricsRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO path_metrics (
			run_id, call_id, alert_ts_ms, p0, hit_2x, t_2x_ms, hit_3x, t_3x_ms,
			hit_4x, t_4x_ms, dd_bps, dd_to_2x_bps, alert_to_activity_ms, peak_multiple
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (run_id, call_id) DO UPDATE SET
			p0 = EXCLUDED.p0, hit_2x = EXCLUDED.hit_2x, t_2x_ms = EXCLUDED.t_2x_ms,
			hit_3x = EXCLUDED.hit_3x, t_3x_ms = EXCLUDED.t_3x_ms,
			hit_4x = EXCLUDED.hit_4x, t_4x_ms = EXCLUDED.t_4x_ms,
			dd_bps = EXCLUDED.dd_bps, dd_to_2x_bps = EXCLUDED.dd_to_2x_bps,
			alert_to_activity_ms = EXCLUDED.alert_to_activity_ms,
			peak_multiple = EXCLUDED.peak_multiple
	`, runID, row.CallID, row.AlertTsMs, row.P0, row.Hit2x, row.T2xMs, row.Hit3x, row.T3xMs,
		row.Hit4x, row.T4xMs, row.DDBps, row.DDTo2xBps, row.AlertToActivityMs, row.PeakMultiple)
	return err
}

// InsertPolicyResult persists one policy_results row.
func (s *Store) InsertPolicyResult(ctx context.Context, runID string, row PolicyResultRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_results (
			run_id, canonical_policy_id, evaluated, violation_count,
			mean_return_bps, median_return_bps, stop_out_rate, p95_drawdown_bps,
			median_dd_bps, mean_tail_capture, score, is_best_feasible
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (run_id, canonical_policy_id) DO UPDATE SET
			evaluated = EXCLUDED.evaluated, violation_count = EXCLUDED.violation_count,
			mean_return_bps = EXCLUDED.mean_return_bps, median_return_bps = EXCLUDED.median_return_bps,
			stop_out_rate = EXCLUDED.stop_out_rate, p95_drawdown_bps = EXCLUDED.p95_drawdown_bps,
			median_dd_bps = EXCLUDED.median_dd_bps, mean_tail_capture = EXCLUDED.mean_tail_capture,
			score = EXCLUDED.score, is_best_feasible = EXCLUDED.is_best_feasible
	`, runID, row.CanonicalPolicyID, row.Evaluated, row.ViolationCount,
		row.MeanReturnBps, row.MedianReturnBps, row.StopOutRate, row.P95DrawdownBps,
		row.MedianDDBps, row.MeanTailCapture, row.Score, row.IsBestFeasible)
	return err
}

// InsertRun persists one runs row.
func (s *Store) InsertRun(ctx context.Context, row RunRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, command, strategy_id, mint, caller_name, alert_ts_ms, started_at, grid_fingerprint)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (run_id) DO NOTHING
	`, row.RunID, row.Command, row.StrategyID, row.Mint, row.CallerName, row.AlertTsMs, row.StartedAt, row.GridFingerprint)
	return err
}
