package obslog

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// SetOutput redirects where event lines are written. Tests use this to
// capture output instead of writing to stdout.
func SetOutput(w io.Writer) {
	logger = log.New(w, "", 0)
}

// Event emits one structured JSON line carrying level, event name,
// whatever RunInfo is attached to ctx, and the supplied fields.
func Event(ctx context.Context, level, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"level": level,
		"event": event,
	}

	info := RunInfoFromContext(ctx)
	if info.RunID != "" {
		payload["run_id"] = info.RunID
	}
	if info.CallID != "" {
		payload["call_id"] = info.CallID
	}
	if info.Mint != "" {
		payload["mint"] = info.Mint
	}
	if info.TaskID != "" {
		payload["task_id"] = info.TaskID
	}

	for k, v := range fields {
		if err, ok := v.(error); ok {
			payload[k] = err.Error()
			continue
		}
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf(`{"level":"error","event":"log_marshal_failed","error":%q}`, err.Error())
		return
	}
	logger.Print(string(raw))
}

// RunStart logs the start of a run with its canonical policy grid size.
func RunStart(ctx context.Context, command string, gridSize int) {
	Event(ctx, "info", "run_start", map[string]any{"command": command, "grid_size": gridSize})
}

// RunEnd logs the end of a run, success or failure.
func RunEnd(ctx context.Context, command string, duration time.Duration, err error) {
	fields := map[string]any{"command": command, "duration_ms": duration.Milliseconds(), "success": err == nil}
	if err != nil {
		fields["error"] = err.Error()
	}
	Event(ctx, "info", "run_end", fields)
}

// PolicyEvaluated logs the outcome of one policy's evaluation.
func PolicyEvaluated(ctx context.Context, canonicalID string, evaluated, violations int, score float64) {
	Event(ctx, "info", "policy_evaluated", map[string]any{
		"canonical_policy_id": canonicalID,
		"evaluated":           evaluated,
		"violations":          violations,
		"score":               score,
	})
}
