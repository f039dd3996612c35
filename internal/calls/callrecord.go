// Package calls defines CallRecord, the externally minted identity of one
// trading call, shared across the truth layer, policy layer, and simulator.
package calls

import "fmt"

// Chain is the closed set of chains a call's mint can live on.
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
	ChainBSC      Chain = "bsc"
)

func (c Chain) Valid() bool {
	switch c {
	case ChainSolana, ChainEthereum, ChainBase, ChainBSC:
		return true
	default:
		return false
	}
}

// CallRecord is externally minted and never mutated by the core. Identity is
// CallID.
type CallRecord struct {
	CallID     string
	CallerName string
	Mint       string
	Chain      Chain
	AlertTsMs  int64
	AlertPrice *float64
}

// Validate checks the structural invariants the core relies on; it does not
// look up the mint or caller against any external source.
func (c CallRecord) Validate() error {
	if c.CallID == "" {
		return fmt.Errorf("calls: call_id must not be empty")
	}
	if c.Mint == "" {
		return fmt.Errorf("calls: mint must not be empty")
	}
	if !c.Chain.Valid() {
		return fmt.Errorf("calls: unsupported chain %q", c.Chain)
	}
	if c.AlertTsMs <= 0 {
		return fmt.Errorf("calls: alert_ts_ms must be > 0, got %d", c.AlertTsMs)
	}
	if c.AlertPrice != nil && *c.AlertPrice <= 0 {
		return fmt.Errorf("calls: alert_price must be > 0 when present, got %v", *c.AlertPrice)
	}
	return nil
}
