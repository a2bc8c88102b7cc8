package engine

import (
	"github.com/cfgforge/cfgforge/enginemetrics"
	"github.com/cfgforge/cfgforge/grammar"
)

// DefaultWorkers is the worker pool size used when Mode.Workers is left at
// zero (W = 8 per §5).
const DefaultWorkers = 8

// Mode is the runtime configuration record described by the design notes:
// the prototype's compile-time flag fusion is replaced by a single record
// dispatched once at Generate's entry, with the hot paths staying
// monomorphic per strategy.
type Mode struct {
	// Derivation tracks derivation traces; otherwise plain strings only.
	Derivation bool
	// Repetition preserves duplicates / accumulates all traces; otherwise
	// results are deduplicated / conservatively merged.
	Repetition bool
	// LowMemory, in traced mode, records only the RHS alternative chosen
	// per step, not the rewrite position.
	LowMemory bool
	// Fast selects the dual-container strategy (C7) instead of a queue-based
	// one.
	Fast bool
	// DerivationFQ, in non-fast traced mode, selects the free-queue
	// strategy (C6) instead of the controlled-queue strategy (C5).
	DerivationFQ bool
	// SingleThreaded disables concurrency, using the deterministic
	// single-threaded twin of whichever strategy would otherwise run.
	SingleThreaded bool
	// Workers is the worker pool size; zero means DefaultWorkers.
	Workers int
	// Start is the start symbol; zero means grammar.DefaultStart ('S').
	Start byte
	// Metrics, if non-nil, receives per-run counters as Generate executes.
	// A nil Metrics costs nothing at every call site.
	Metrics *enginemetrics.Collector
}

func (m Mode) workers() int {
	if m.Workers > 0 {
		return m.Workers
	}
	return DefaultWorkers
}

func (m Mode) start() byte {
	if m.Start == 0 {
		return grammar.DefaultStart
	}
	return m.Start
}
