// Package policy implements the tagged-union RiskPolicy model: one struct
// per variant, validated at construction, each able to render a canonical,
// collision-free string ID.
package policy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IntrabarPolicy controls how an executor resolves a candle that triggers
// both an upside and a downside condition in the same bar.
type IntrabarPolicy string

const (
	IntrabarStopFirst    IntrabarPolicy = "STOP_FIRST"
	IntrabarTPFirst      IntrabarPolicy = "TP_FIRST"
	IntrabarHighThenLow  IntrabarPolicy = "HIGH_THEN_LOW"
	IntrabarLowThenHigh  IntrabarPolicy = "LOW_THEN_HIGH"
)

// defaultIntrabar is the conservative default: a stop always wins a tie.
const defaultIntrabar = IntrabarStopFirst

// maxComboDepth bounds Combo nesting to avoid stack pathologies in recursive
// evaluation and ID rendering.
const maxComboDepth = 4

// RiskPolicy is the tagged union. Exactly one of the typed fields is
// non-nil; Kind reports which.
type RiskPolicy struct {
	Kind         Kind
	FixedStop    *FixedStop
	TimeStop     *TimeStop
	TrailingStop *TrailingStop
	Ladder       *Ladder
	WashRebound  *WashRebound
	Combo        *Combo
}

// Kind discriminates the RiskPolicy variant.
type Kind string

const (
	KindFixedStop    Kind = "fixed_stop"
	KindTimeStop     Kind = "time_stop"
	KindTrailingStop Kind = "trailing"
	KindLadder       Kind = "ladder"
	KindWashRebound  Kind = "wash_rebound"
	KindCombo        Kind = "combo"
)

// FixedStop exits at a fixed stop-loss or take-profit percentage from entry.
type FixedStop struct {
	StopPct       float64
	TakeProfitPct *float64
}

// TimeStop exits after a fixed holding duration, optionally also taking
// profit earlier.
type TimeStop struct {
	MaxHoldMs     int64
	TakeProfitPct *float64
}

// TrailingStop arms once price moves ActivationPct in favor of the trade,
// then trails the peak by TrailPct; an optional hard stop is always active.
type TrailingStop struct {
	ActivationPct float64
	TrailPct      float64
	HardStopPct   *float64
}

// LadderLevel is one take-profit rung.
type LadderLevel struct {
	Multiple float64
	Fraction float64
}

// Ladder scales out of a position across ascending multiples of entry price.
type Ladder struct {
	Levels  []LadderLevel
	StopPct *float64
}

// WashRebound is the three-state trail / wash / rebound re-entry policy.
type WashRebound struct {
	TrailPct        float64
	WashPct         float64
	ReboundPct      float64
	MaxReentries    int
	CooldownCandles int
}

// Combo runs every member policy over the same candle tail and keeps
// whichever exits earliest (ties broken by member order).
type Combo struct {
	Policies []RiskPolicy
}

func ptr(f float64) *float64 { return &f }

// NewFixedStop validates and constructs a FixedStop policy.
func NewFixedStop(stopPct float64, takeProfitPct *float64) (RiskPolicy, error) {
	if stopPct < 0 || stopPct > 1 {
		return RiskPolicy{}, fmt.Errorf("policy: fixed_stop stop_pct must be in [0,1], got %v", stopPct)
	}
	if takeProfitPct != nil && *takeProfitPct < 0 {
		return RiskPolicy{}, fmt.Errorf("policy: fixed_stop take_profit_pct must be >= 0, got %v", *takeProfitPct)
	}
	return RiskPolicy{Kind: KindFixedStop, FixedStop: &FixedStop{StopPct: stopPct, TakeProfitPct: takeProfitPct}}, nil
}

// NewTimeStop validates and constructs a TimeStop policy.
func NewTimeStop(maxHoldMs int64, takeProfitPct *float64) (RiskPolicy, error) {
	if maxHoldMs <= 0 {
		return RiskPolicy{}, fmt.Errorf("policy: time_stop max_hold_ms must be > 0, got %d", maxHoldMs)
	}
	if takeProfitPct != nil && *takeProfitPct < 0 {
		return RiskPolicy{}, fmt.Errorf("policy: time_stop take_profit_pct must be >= 0, got %v", *takeProfitPct)
	}
	return RiskPolicy{Kind: KindTimeStop, TimeStop: &TimeStop{MaxHoldMs: maxHoldMs, TakeProfitPct: takeProfitPct}}, nil
}

// NewTrailingStop validates and constructs a TrailingStop policy.
func NewTrailingStop(activationPct, trailPct float64, hardStopPct *float64) (RiskPolicy, error) {
	if activationPct < 0 {
		return RiskPolicy{}, fmt.Errorf("policy: trailing activation_pct must be >= 0, got %v", activationPct)
	}
	if trailPct < 0 || trailPct > 1 {
		return RiskPolicy{}, fmt.Errorf("policy: trailing trail_pct must be in [0,1], got %v", trailPct)
	}
	if hardStopPct != nil && (*hardStopPct < 0 || *hardStopPct > 1) {
		return RiskPolicy{}, fmt.Errorf("policy: trailing hard_stop_pct must be in [0,1], got %v", *hardStopPct)
	}
	return RiskPolicy{Kind: KindTrailingStop, TrailingStop: &TrailingStop{
		ActivationPct: activationPct, TrailPct: trailPct, HardStopPct: hardStopPct,
	}}, nil
}

// NewLadder validates and constructs a Ladder policy. Levels are sorted
// ascending by multiple; the sum of fractions must not exceed 1.
func NewLadder(levels []LadderLevel, stopPct *float64) (RiskPolicy, error) {
	if len(levels) == 0 {
		return RiskPolicy{}, fmt.Errorf("policy: ladder requires at least one level")
	}
	sorted := make([]LadderLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Multiple < sorted[j].Multiple })

	total := 0.0
	for _, lvl := range sorted {
		if lvl.Multiple <= 0 {
			return RiskPolicy{}, fmt.Errorf("policy: ladder level multiple must be > 0, got %v", lvl.Multiple)
		}
		if lvl.Fraction < 0 || lvl.Fraction > 1 {
			return RiskPolicy{}, fmt.Errorf("policy: ladder level fraction must be in [0,1], got %v", lvl.Fraction)
		}
		total += lvl.Fraction
	}
	if total > 1+1e-9 {
		return RiskPolicy{}, fmt.Errorf("policy: ladder fractions sum to %v, must be <= 1", total)
	}
	if stopPct != nil && (*stopPct < 0 || *stopPct > 1) {
		return RiskPolicy{}, fmt.Errorf("policy: ladder stop_pct must be in [0,1], got %v", *stopPct)
	}
	return RiskPolicy{Kind: KindLadder, Ladder: &Ladder{Levels: sorted, StopPct: stopPct}}, nil
}

// NewWashRebound validates and constructs a WashRebound policy.
func NewWashRebound(trailPct, washPct, reboundPct float64, maxReentries, cooldownCandles int) (RiskPolicy, error) {
	for name, v := range map[string]float64{"trail_pct": trailPct, "wash_pct": washPct, "rebound_pct": reboundPct} {
		if v < 0 || v > 1 {
			return RiskPolicy{}, fmt.Errorf("policy: wash_rebound %s must be in [0,1], got %v", name, v)
		}
	}
	if maxReentries < 0 {
		return RiskPolicy{}, fmt.Errorf("policy: wash_rebound max_reentries must be >= 0, got %d", maxReentries)
	}
	if cooldownCandles < 0 {
		return RiskPolicy{}, fmt.Errorf("policy: wash_rebound cooldown_candles must be >= 0, got %d", cooldownCandles)
	}
	return RiskPolicy{Kind: KindWashRebound, WashRebound: &WashRebound{
		TrailPct: trailPct, WashPct: washPct, ReboundPct: reboundPct,
		MaxReentries: maxReentries, CooldownCandles: cooldownCandles,
	}}, nil
}

// NewCombo validates and constructs a Combo policy, bounding recursion depth
// at maxComboDepth.
func NewCombo(members []RiskPolicy) (RiskPolicy, error) {
	if len(members) == 0 {
		return RiskPolicy{}, fmt.Errorf("policy: combo requires at least one member policy")
	}
	if depth := comboDepth(members) + 1; depth > maxComboDepth {
		return RiskPolicy{}, fmt.Errorf("policy: combo nesting depth %d exceeds max %d", depth, maxComboDepth)
	}
	cp := make([]RiskPolicy, len(members))
	copy(cp, members)
	return RiskPolicy{Kind: KindCombo, Combo: &Combo{Policies: cp}}, nil
}

func comboDepth(members []RiskPolicy) int {
	max := 0
	for _, m := range members {
		if m.Kind != KindCombo || m.Combo == nil {
			continue
		}
		d := 1 + comboDepth(m.Combo.Policies)
		if d > max {
			max = d
		}
	}
	return max
}

// CanonicalID renders the deterministic, collision-free string ID used as a
// storage key across the grid.
func (p RiskPolicy) CanonicalID() string {
	switch p.Kind {
	case KindFixedStop:
		return fmt.Sprintf("fixed_stop_%s_%s", fnum(p.FixedStop.StopPct), fopt(p.FixedStop.TakeProfitPct))
	case KindTimeStop:
		return fmt.Sprintf("time_stop_%d_%s", p.TimeStop.MaxHoldMs, fopt(p.TimeStop.TakeProfitPct))
	case KindTrailingStop:
		return fmt.Sprintf("trailing_%s_%s_%s",
			fnum(p.TrailingStop.ActivationPct), fnum(p.TrailingStop.TrailPct), fopt(p.TrailingStop.HardStopPct))
	case KindLadder:
		parts := make([]string, 0, len(p.Ladder.Levels)+1)
		for _, lvl := range p.Ladder.Levels {
			parts = append(parts, fmt.Sprintf("%sx%s", fnum(lvl.Multiple), fnum(lvl.Fraction)))
		}
		return fmt.Sprintf("ladder_%s_%s", strings.Join(parts, "_"), fopt(p.Ladder.StopPct))
	case KindWashRebound:
		return fmt.Sprintf("wash_rebound_%s_%s_%s_%d_%d",
			fnum(p.WashRebound.TrailPct), fnum(p.WashRebound.WashPct), fnum(p.WashRebound.ReboundPct),
			p.WashRebound.MaxReentries, p.WashRebound.CooldownCandles)
	case KindCombo:
		ids := make([]string, len(p.Combo.Policies))
		for i, m := range p.Combo.Policies {
			ids[i] = m.CanonicalID()
		}
		return "combo_" + strings.Join(ids, "+")
	default:
		return "unknown"
	}
}

func fnum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func fopt(f *float64) string {
	if f == nil {
		return "none"
	}
	return fnum(*f)
}

// VariantOrder is the grid-enumeration ordering used by the optimizer:
// FixedStop, TimeStop, TrailingStop, Ladder, WashRebound, Combo.
func VariantOrder(k Kind) int {
	switch k {
	case KindFixedStop:
		return 0
	case KindTimeStop:
		return 1
	case KindTrailingStop:
		return 2
	case KindLadder:
		return 3
	case KindWashRebound:
		return 4
	case KindCombo:
		return 5
	default:
		return 6
	}
}
