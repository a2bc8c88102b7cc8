package engine

import (
	"github.com/cfgforge/cfgforge/enginemetrics"
	"github.com/cfgforge/cfgforge/grammar"
)

// Result is the output of Generate. In plain mode (Derivation == false),
// Strings holds the done set: deduplicated in no-repetition mode, possibly
// containing duplicates in repetition mode. In traced mode, Derivations maps
// each produced terminal string to the derivation traces that reach it.
type Result struct {
	Derivation bool
	Strings    []string
	Derivations map[string][]grammar.Trace
}

// StringSet returns the done set as a set, regardless of mode, for
// convenience in tests and the no-repetition/repetition equivalence check
// (testable property 4).
func (r Result) StringSet() map[string]struct{} {
	out := make(map[string]struct{})
	if r.Derivation {
		for s := range r.Derivations {
			out[s] = struct{}{}
		}
		return out
	}
	for _, s := range r.Strings {
		out[s] = struct{}{}
	}
	return out
}

// accumulator is a single merge-aware container shared by every strategy's
// done-collection and layer-buffer logic. It realizes whichever of the four
// result containers described in §4.7 matches the mode: a plain sequence
// (repetition, non-derivation), or a string/trace-list map otherwise
// (deduplicated for non-repetition, union-merged for repetition).
type accumulator struct {
	mode  Mode
	seq   []grammar.SententialForm
	set   map[string]grammar.SententialForm
	order []string
}

func newAccumulator(mode Mode) *accumulator {
	a := &accumulator{mode: mode}
	if mode.Repetition && !mode.Derivation {
		a.seq = make([]grammar.SententialForm, 0)
	} else {
		a.set = make(map[string]grammar.SententialForm)
	}
	return a
}

// add inserts sf, applying the mode's merge policy. For plain repetition
// mode every insertion is kept (duplicates allowed, order preserved). For
// plain no-repetition mode the first arrival wins. For traced conservative
// mode the first arrival's traces win. For traced additive mode every
// arrival's traces are unioned in.
func (a *accumulator) add(sf grammar.SententialForm) {
	if a.seq != nil {
		a.seq = append(a.seq, sf)
		return
	}
	existing, exists := a.set[sf.String]
	if !exists {
		a.set[sf.String] = sf
		a.order = append(a.order, sf.String)
		return
	}
	if !a.mode.Derivation {
		return // plain no-repetition: dedup, keep first
	}
	if a.mode.Repetition {
		existing.Traces = append(existing.Traces, sf.Traces...) // additive merge
		a.set[sf.String] = existing
	}
	// conservative merge: keep the first representative's traces, drop the rest
}

func (a *accumulator) addAll(items []grammar.SententialForm) {
	for _, sf := range items {
		a.add(sf)
	}
}

func (a *accumulator) items() []grammar.SententialForm {
	if a.seq != nil {
		return a.seq
	}
	out := make([]grammar.SententialForm, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.set[k])
	}
	return out
}

func (a *accumulator) len() int {
	if a.seq != nil {
		return len(a.seq)
	}
	return len(a.order)
}

// result converts the accumulator into the public Result shape.
func (a *accumulator) result(mode Mode) Result {
	if !mode.Derivation {
		strs := make([]string, 0, a.len())
		for _, sf := range a.items() {
			strs = append(strs, sf.String)
		}
		return Result{Strings: strs}
	}
	derivations := make(map[string][]grammar.Trace, a.len())
	for _, sf := range a.items() {
		derivations[sf.String] = sf.Traces
	}
	return Result{Derivation: true, Derivations: derivations}
}

// runCollector is the done collector (C3): a dedicated drain loop that
// empties doneQ into acc, applying acc's merge policy, until doneQ reports
// completed. Separating this from the worker pool keeps workers from
// contending on the shared result container.
func runCollector(doneQ *Queue, acc *accumulator, metrics *enginemetrics.Collector) {
	for {
		sf, ok := doneQ.Take()
		if !ok {
			return
		}
		acc.add(sf)
		metrics.IncDoneFormsSeen()
	}
}
