package ports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrExecutionDisabled is returned by ExecutionStub.Execute when a caller
// requests a non-dry-run execution without explicitly enabling it.
var ErrExecutionDisabled = errors.New("ports: real execution is disabled")

// ExecutionRequest describes one proposed order.
type ExecutionRequest struct {
	Token      string
	Side       string // "buy" | "sell"
	AmountUSD  float64
	DryRun     bool
}

// ExecutionResult reports the stub's outcome.
type ExecutionResult struct {
	IdempotencyKey string
	Executed       bool // false when short-circuited as a dry run
	FilledPrice    float64
}

// idempotencyKey derives a stable key from (token, side, amount rounded to
// 3dp), so retried requests for the same logical order collapse to one.
func idempotencyKey(req ExecutionRequest) string {
	rounded := math.Round(req.AmountUSD*1000) / 1000
	return fmt.Sprintf("%s:%s:%.3f", req.Token, req.Side, rounded)
}

// ExecutionPort is the development-only order-submission boundary. Real
// backends live outside this codebase; this stub exists so the rest of the
// system has something to call during development and tests.
type ExecutionPort interface {
	Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error)
}

// ExecutionStub implements ExecutionPort. It refuses every non-dry-run
// request with ErrExecutionDisabled unless Enabled is set, and wraps whatever downstream call a real implementation would make in a
// circuit breaker matching this codebase's resilience conventions.
type ExecutionStub struct {
	// Enabled must be explicitly set true for a non-dry-run request to go
	// through at all.
	Enabled bool
	cb      *gobreaker.CircuitBreaker[ExecutionResult]
}

// NewExecutionStub builds a stub with the default circuit breaker
// (5 consecutive failures trips it, 60s open-state timeout).
func NewExecutionStub(enabled bool) *ExecutionStub {
	settings := gobreaker.Settings[ExecutionResult]{
		Name:        "execution-stub",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[ExecutionStub] circuit %s: %s -> %s", name, from, to)
		},
	}
	return &ExecutionStub{
		Enabled: enabled,
		cb:      gobreaker.NewCircuitBreaker[ExecutionResult](settings),
	}
}

// Execute dry-runs req when req.DryRun is true. Otherwise it returns
// ErrExecutionDisabled unless s.Enabled is true, in which case it runs the
// (stubbed) fill behind the circuit breaker.
func (s *ExecutionStub) Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error) {
	key := idempotencyKey(req)

	if req.DryRun {
		return ExecutionResult{IdempotencyKey: key, Executed: false}, nil
	}
	if !s.Enabled {
		return ExecutionResult{}, ErrExecutionDisabled
	}

	// No real backend is wired up in this codebase; a live implementation
	// would replace the body of this closure with the actual order-submit
	// call, and the breaker above already trips on its failures.
	return s.cb.Execute(func() (ExecutionResult, error) {
		if ctx.Err() != nil {
			return ExecutionResult{}, ctx.Err()
		}
		return ExecutionResult{IdempotencyKey: key, Executed: true}, nil
	})
}
