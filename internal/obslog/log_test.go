package obslog

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestEventIncludesRunInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	ctx := WithRunInfo(context.Background(), RunInfo{RunID: "run_1", CallID: "call_1"})
	Event(ctx, "info", "test_event", map[string]any{"foo": "bar"})

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected valid JSON line, got error %v: %s", err, buf.String())
	}
	if line["run_id"] != "run_1" || line["call_id"] != "call_1" || line["foo"] != "bar" {
		t.Fatalf("unexpected log line: %+v", line)
	}
}

func TestEventOmitsEmptyRunInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Event(context.Background(), "info", "test_event", nil)
	if strings.Contains(buf.String(), "run_id") {
		t.Fatalf("expected no run_id field when RunInfo is empty: %s", buf.String())
	}
}
