package determinism

import "testing"

func TestRunIDDeterministic(t *testing.T) {
	in := RunIDInputs{Command: "run", StrategyID: "fixed_stop_0.2_1", Mint: "mintA", AlertTsMs: 1000, CallerName: "alice"}
	a := RunID(in)
	b := RunID(in)
	if a != b {
		t.Fatalf("RunID not deterministic: %q != %q", a, b)
	}
}

func TestRunIDDistinguishesFields(t *testing.T) {
	base := RunIDInputs{Command: "run", StrategyID: "s1", Mint: "mintA", AlertTsMs: 1000, CallerName: "alice"}
	variants := []RunIDInputs{
		{Command: "replay", StrategyID: base.StrategyID, Mint: base.Mint, AlertTsMs: base.AlertTsMs, CallerName: base.CallerName},
		{Command: base.Command, StrategyID: "s2", Mint: base.Mint, AlertTsMs: base.AlertTsMs, CallerName: base.CallerName},
		{Command: base.Command, StrategyID: base.StrategyID, Mint: "mintB", AlertTsMs: base.AlertTsMs, CallerName: base.CallerName},
		{Command: base.Command, StrategyID: base.StrategyID, Mint: base.Mint, AlertTsMs: 2000, CallerName: base.CallerName},
		{Command: base.Command, StrategyID: base.StrategyID, Mint: base.Mint, AlertTsMs: base.AlertTsMs, CallerName: "bob"},
	}
	baseID := RunID(base)
	seen := map[string]bool{baseID: true}
	for i, v := range variants {
		id := RunID(v)
		if seen[id] {
			t.Fatalf("variant %d collided with a prior id %q", i, id)
		}
		seen[id] = true
	}
}

func TestNewSourceDeterministic(t *testing.T) {
	r1 := NewSource(42)
	r2 := NewSource(42)
	for i := 0; i < 10; i++ {
		a := r1.Float64()
		b := r2.Float64()
		if a != b {
			t.Fatalf("draw %d diverged: %v != %v", i, a, b)
		}
	}
}

func TestGridFingerprintOrderInvariant(t *testing.T) {
	a := []string{"fixed_stop_0.2_1", "time_stop_3600000_none"}
	b := []string{"time_stop_3600000_none", "fixed_stop_0.2_1"}
	if GridFingerprint(a) != GridFingerprint(b) {
		t.Fatalf("fingerprint should be order-invariant")
	}
}

func TestGridFingerprintDedup(t *testing.T) {
	a := []string{"fixed_stop_0.2_1"}
	b := []string{"fixed_stop_0.2_1", "fixed_stop_0.2_1"}
	if GridFingerprint(a) != GridFingerprint(b) {
		t.Fatalf("fingerprint should dedup repeated ids")
	}
}
