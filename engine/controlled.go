package engine

import (
	"sync"
	"sync/atomic"

	"github.com/cfgforge/cfgforge/grammar"
)

// runControlled is the controlled-queue strategy (C5): layered BFS with
// explicit main-goroutine control of depth, using two barriers and one
// NUL-prefixed sentinel per worker to mark the end of a layer.
func runControlled(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte, pc *panicCollector) Result {
	w := mode.workers()
	mode.Metrics.SetWorkers(w)
	kind := queueKindFor(mode)
	q := newQueue(kind)
	doneQ := newQueue(kind)

	q.Add(grammar.NewStart(start, mode.Derivation))

	goBarrier := NewBarrier(w + 1)
	waitBarrier := NewBarrier(w + 1)
	var exit atomic.Bool

	acc := newAccumulator(mode)
	var collectorWG sync.WaitGroup
	collectorWG.Add(1)
	go func() {
		defer collectorWG.Done()
		defer pc.guard()
		runCollector(doneQ, acc, mode.Metrics)
	}()

	sentinels := make([]grammar.SententialForm, w)
	for i := range sentinels {
		sentinels[i] = newSentinel(i, mode.Derivation)
	}

	var workerWG sync.WaitGroup
	for i := 0; i < w; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			defer pc.guard(goBarrier, waitBarrier)
			workerControlled(q, doneQ, goBarrier, waitBarrier, &exit, nonterminals, rules, mode)
		}()
	}

	q.AddBulk(sentinels)
	waitBarrier.Wait()
	mode.Metrics.IncLayerWalked()
	mode.Metrics.ObserveQueueSize(q.Size())

	remaining := depth - 1
	for ; remaining > 0; remaining-- {
		q.AddBulk(sentinels)
		goBarrier.Wait()
		waitBarrier.Wait()
		mode.Metrics.IncLayerWalked()
		mode.Metrics.ObserveQueueSize(q.Size())
	}

	exit.Store(true)
	goBarrier.Wait()
	q.Complete()

	// drain whatever is left: depth is exhausted, so only already-done
	// forms are salvageable; unresolved forms with nonterminals are
	// dropped (DepthExhausted is informational, not an error, per §7).
	for {
		sf, ok := q.Take()
		if !ok {
			break
		}
		if isSentinel(sf) {
			continue
		}
		if grammar.Done(sf, nonterminals) {
			doneQ.Add(sf)
		}
	}
	doneQ.Complete()

	workerWG.Wait()
	collectorWG.Wait()
	return acc.result(mode)
}

func workerControlled(q, doneQ *Queue, goBarrier, waitBarrier *Barrier, exit *atomic.Bool, nonterminals string, rules grammar.Rules, mode Mode) {
	for {
		sf, ok := q.Take()
		if !ok {
			return
		}
		if isSentinel(sf) {
			waitBarrier.Wait()
			goBarrier.Wait()
			if exit.Load() {
				return
			}
			continue
		}
		done, children := Expand(sf, nonterminals, rules, mode)
		if done {
			doneQ.Add(sf)
			continue
		}
		q.AddBulk(children)
	}
}

// runControlledSingleThreaded is the deterministic reference twin of
// runControlled: same layer protocol, no goroutines, one sentinel value
// marking the end of each depth round.
func runControlledSingleThreaded(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte) Result {
	kind := queueKindFor(mode)
	q := newQueue(kind)
	q.Add(grammar.NewStart(start, mode.Derivation))
	acc := newAccumulator(mode)
	sentinel := newSentinel(0, mode.Derivation)

	for d := depth; d > 0; d-- {
		q.Add(sentinel)
		for {
			sf, ok := q.Take()
			if !ok {
				break
			}
			if isSentinel(sf) {
				break
			}
			done, children := Expand(sf, nonterminals, rules, mode)
			if done {
				acc.add(sf)
				continue
			}
			for _, c := range children {
				q.Add(c)
			}
		}
	}

	for q.Size() > 0 {
		sf, ok := q.Take()
		if !ok {
			break
		}
		if grammar.Done(sf, nonterminals) {
			acc.add(sf)
		}
	}
	return acc.result(mode)
}
