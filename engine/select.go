package engine

import (
	"fmt"

	"github.com/cfgforge/cfgforge/grammar"
)

// Generate is the strategy selector (C8) and the engine's sole external
// entry point. It validates the grammar, short-circuits a non-positive
// depth to an empty result, and otherwise dispatches to one of the three
// BFS strategies per the Mode flags:
//
//	Fast                           -> dual-container (C7)
//	Derivation && DerivationFQ     -> free-queue (C6)
//	otherwise                      -> controlled-queue (C5)
//
// SingleThreaded selects the deterministic reference twin of whichever
// strategy would otherwise run. A panic in any worker goroutine is
// recovered and reported as an aggregated error rather than crashing the
// process; Result is still returned alongside it with whatever progress
// the surviving goroutines made.
func Generate(rules grammar.Rules, depth int, mode Mode) (Result, error) {
	start := mode.start()
	if err := grammar.Validate(rules, start); err != nil {
		mode.Metrics.IncRunFailed()
		return emptyResult(mode), err
	}
	if depth <= 0 {
		return emptyResult(mode), nil
	}
	nonterminals := grammar.Nonterminals(rules)
	mode.Metrics.IncRunStarted()

	if mode.SingleThreaded {
		result, err := generateSingleThreaded(rules, depth, mode, nonterminals, start)
		recordOutcome(mode, err)
		return result, err
	}

	pc := &panicCollector{}
	result := dispatch(rules, depth, mode, nonterminals, start, pc)
	err := pc.err()
	recordOutcome(mode, err)
	return result, err
}

func recordOutcome(mode Mode, err error) {
	if err != nil {
		mode.Metrics.IncRunFailed()
		return
	}
	mode.Metrics.IncRunCompleted()
}

func dispatch(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte, pc *panicCollector) Result {
	switch {
	case mode.Fast:
		return runDual(rules, depth, mode, nonterminals, start, pc)
	case mode.Derivation && mode.DerivationFQ:
		return runFree(rules, depth, mode, nonterminals, start, pc)
	default:
		return runControlled(rules, depth, mode, nonterminals, start, pc)
	}
}

func generateSingleThreaded(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = emptyResult(mode)
			err = fmt.Errorf("engine: panic: %v", r)
		}
	}()
	switch {
	case mode.Fast:
		return runDualSingleThreaded(rules, depth, mode, nonterminals, start), nil
	case mode.Derivation && mode.DerivationFQ:
		return runFreeSingleThreaded(rules, depth, mode, nonterminals, start), nil
	default:
		return runControlledSingleThreaded(rules, depth, mode, nonterminals, start), nil
	}
}

func emptyResult(mode Mode) Result {
	if mode.Derivation {
		return Result{Derivation: true, Derivations: map[string][]grammar.Trace{}}
	}
	return Result{Strings: []string{}}
}
