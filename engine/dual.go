package engine

import (
	"sync"
	"sync/atomic"

	"github.com/cfgforge/cfgforge/grammar"
)

// dualRoundState is the shared state mutated by the main goroutine strictly
// between a doneBarrier.Wait() return and the next startBarrier.Wait()
// call; the barrier's total order gives every subsequent read by a worker a
// happens-before edge from that mutation, so no additional locking is
// needed around frontier/starts/ends themselves.
type dualRoundState struct {
	frontier     []grammar.SententialForm
	starts, ends []int
}

// sliceRanges divides n items across w workers as evenly as possible,
// handling n == 0 and w == 1 without the off-by-one edge cases that raw
// index arithmetic (starts[w-1] = ends[w-2]) runs into at those bounds.
func sliceRanges(n, w int) (starts, ends []int) {
	starts = make([]int, w)
	ends = make([]int, w)
	if w <= 0 {
		return starts, ends
	}
	base, rem := n/w, n%w
	cur := 0
	for i := 0; i < w; i++ {
		starts[i] = cur
		size := base
		if i < rem {
			size++
		}
		cur += size
		ends[i] = cur
	}
	return starts, ends
}

// runDual is the dual-container strategy (C7): the current frontier is
// sliced across workers each round, every worker expands its slice into a
// local accumulator, and the main goroutine merges the per-worker
// accumulators into the next round's frontier using the same merge-policy
// accumulator the done collector uses. Using one shared accumulator type
// for both roles fixes the original's gap where plain no-repetition mode
// was never actually deduplicated in this strategy.
func runDual(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte, pc *panicCollector) Result {
	w := mode.workers()
	mode.Metrics.SetWorkers(w)
	doneAcc := newAccumulator(mode)
	var doneMu sync.Mutex

	state := &dualRoundState{frontier: []grammar.SententialForm{grammar.NewStart(start, mode.Derivation)}}
	workerAcc := make([]*accumulator, w)

	startBarrier := NewBarrier(w + 1)
	doneBarrier := NewBarrier(w + 1)
	var exit atomic.Bool

	var workerWG sync.WaitGroup
	for i := 0; i < w; i++ {
		i := i
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			defer pc.guard(startBarrier, doneBarrier)
			for {
				startBarrier.Wait()
				if exit.Load() {
					return
				}
				s, e := state.starts[i], state.ends[i]
				local := newAccumulator(mode)
				for _, sf := range state.frontier[s:e] {
					done, children := Expand(sf, nonterminals, rules, mode)
					if done {
						doneMu.Lock()
						doneAcc.add(sf)
						doneMu.Unlock()
						continue
					}
					local.addAll(children)
				}
				workerAcc[i] = local
				doneBarrier.Wait()
			}
		}()
	}

	frontier := state.frontier
	for round := 0; round < depth && len(frontier) > 0; round++ {
		starts, ends := sliceRanges(len(frontier), w)
		state.frontier, state.starts, state.ends = frontier, starts, ends

		startBarrier.Wait()
		doneBarrier.Wait()

		merged := newAccumulator(mode)
		for i := 0; i < w; i++ {
			merged.addAll(workerAcc[i].items())
		}
		frontier = merged.items()
		mode.Metrics.IncLayerWalked()
		mode.Metrics.ObserveQueueSize(len(frontier))
	}

	exit.Store(true)
	startBarrier.Wait()
	workerWG.Wait()

	// salvage the final frontier: depth is exhausted, so any remaining
	// form with no nonterminals left is still a valid done form (mirrors
	// the controlled strategy's drain-salvage).
	for _, sf := range frontier {
		if grammar.Done(sf, nonterminals) {
			doneAcc.add(sf)
		}
	}

	return doneAcc.result(mode)
}

// runDualSingleThreaded is the deterministic reference twin of runDual:
// the same per-round expand-and-merge accounting, done in one goroutine
// over the whole frontier instead of a sliced one.
func runDualSingleThreaded(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte) Result {
	doneAcc := newAccumulator(mode)
	frontier := []grammar.SententialForm{grammar.NewStart(start, mode.Derivation)}

	for round := 0; round < depth && len(frontier) > 0; round++ {
		next := newAccumulator(mode)
		for _, sf := range frontier {
			done, children := Expand(sf, nonterminals, rules, mode)
			if done {
				doneAcc.add(sf)
				continue
			}
			next.addAll(children)
		}
		frontier = next.items()
	}

	for _, sf := range frontier {
		if grammar.Done(sf, nonterminals) {
			doneAcc.add(sf)
		}
	}
	return doneAcc.result(mode)
}
