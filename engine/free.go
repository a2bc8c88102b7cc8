package engine

import (
	"sync"
	"sync/atomic"

	"github.com/cfgforge/cfgforge/grammar"
)

// runFree is the free-queue strategy (C6): workers pull and push to a
// single shared queue with no layer barriers, tracking each form's depth
// via its trace length (only meaningful in traced mode, which is why
// Mode.DerivationFQ only applies when Mode.Derivation is set). Termination
// is detected by quiescence: every worker idle with the queue empty.
func runFree(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte, pc *panicCollector) Result {
	w := mode.workers()
	mode.Metrics.SetWorkers(w)
	kind := queueKindFor(mode)
	q := newQueue(kind)
	doneQ := newQueue(kind)

	q.Add(grammar.NewStart(start, mode.Derivation))

	acc := newAccumulator(mode)
	var collectorWG sync.WaitGroup
	collectorWG.Add(1)
	go func() {
		defer collectorWG.Done()
		defer pc.guard()
		runCollector(doneQ, acc, mode.Metrics)
	}()

	var waitCounter int64
	var workerWG sync.WaitGroup
	for i := 0; i < w; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			defer pc.guard()
			workerFree(q, doneQ, nonterminals, rules, mode, depth, &waitCounter, w)
		}()
	}

	workerWG.Wait()
	collectorWG.Wait()
	return acc.result(mode)
}

func formDepth(sf grammar.SententialForm) int {
	if len(sf.Traces) == 0 {
		return 0
	}
	return len(sf.Traces[0])
}

// workerFree implements one free-queue consumer: pop without blocking,
// process, or else register as idle and either detect quiescence (and
// shut both queues down) or block for more work.
func workerFree(q, doneQ *Queue, nonterminals string, rules grammar.Rules, mode Mode, depth int, waitCounter *int64, numWorkers int) {
	for {
		sf, ok := q.TryTake()
		if ok {
			processFree(q, doneQ, nonterminals, rules, mode, depth, sf)
			continue
		}

		quiescent := q.Quiescent(func() bool {
			n := atomic.AddInt64(waitCounter, 1)
			return int(n) == numWorkers
		})
		if quiescent {
			q.Complete()
			doneQ.Complete()
			return
		}

		q.WaitIdle()
		if n := atomic.AddInt64(waitCounter, -1); n < 0 {
			panic(ErrInternalQuiescenceViolation)
		}
		if q.Completed() {
			return
		}
	}
}

func processFree(q, doneQ *Queue, nonterminals string, rules grammar.Rules, mode Mode, depth int, sf grammar.SententialForm) {
	done, children := Expand(sf, nonterminals, rules, mode)
	if done {
		doneQ.Add(sf)
		return
	}
	nextDepth := formDepth(sf) + 1
	if nextDepth >= depth {
		for _, c := range children {
			if grammar.Done(c, nonterminals) {
				doneQ.Add(c)
			}
		}
		return
	}
	q.AddBulk(children)
	mode.Metrics.ObserveQueueSize(q.Size())
}

// runFreeSingleThreaded is the deterministic reference twin of runFree: a
// single goroutine, single queue, same depth accounting by trace length.
func runFreeSingleThreaded(rules grammar.Rules, depth int, mode Mode, nonterminals string, start byte) Result {
	kind := queueKindFor(mode)
	q := newQueue(kind)
	q.Add(grammar.NewStart(start, mode.Derivation))
	acc := newAccumulator(mode)

	for q.Size() > 0 {
		sf, ok := q.TryTake()
		if !ok {
			break
		}
		done, children := Expand(sf, nonterminals, rules, mode)
		if done {
			acc.add(sf)
			continue
		}
		nextDepth := formDepth(sf) + 1
		if nextDepth >= depth {
			for _, c := range children {
				if grammar.Done(c, nonterminals) {
					acc.add(c)
				}
			}
			continue
		}
		for _, c := range children {
			q.Add(c)
		}
	}
	return acc.result(mode)
}
