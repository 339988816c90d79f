package engine

import "sync/atomic"

// Stats holds the counters of a single search. Every search owns a fresh
// instance, so concurrent searches never share counters.
type Stats struct {
	Nodes       atomic.Uint64
	TTProbes    atomic.Uint64
	TTHits      atomic.Uint64
	TTCutoffs   atomic.Uint64
	BetaCutoffs atomic.Uint64 // Cutoffs at maximizing nodes
	AlphaCuts   atomic.Uint64 // Cutoffs at minimizing nodes
	Researches  atomic.Uint64 // Full-window re-searches after a null-window probe
}

// StatsSnapshot is a plain copy of Stats.
type StatsSnapshot struct {
	Nodes       uint64 `json:"nodes"`
	TTProbes    uint64 `json:"tt_probes"`
	TTHits      uint64 `json:"tt_hits"`
	TTCutoffs   uint64 `json:"tt_cutoffs"`
	BetaCutoffs uint64 `json:"beta_cutoffs"`
	AlphaCuts   uint64 `json:"alpha_cutoffs"`
	Researches  uint64 `json:"researches"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Nodes:       s.Nodes.Load(),
		TTProbes:    s.TTProbes.Load(),
		TTHits:      s.TTHits.Load(),
		TTCutoffs:   s.TTCutoffs.Load(),
		BetaCutoffs: s.BetaCutoffs.Load(),
		AlphaCuts:   s.AlphaCuts.Load(),
		Researches:  s.Researches.Load(),
	}
}

// Cutoffs is the total number of alpha and beta cutoffs.
func (s StatsSnapshot) Cutoffs() uint64 {
	return s.BetaCutoffs + s.AlphaCuts
}

// HitRate returns the percentage of TT probes that matched a stored key.
func (s StatsSnapshot) HitRate() float64 {
	if s.TTProbes == 0 {
		return 0
	}
	return float64(s.TTHits) / float64(s.TTProbes) * 100
}
