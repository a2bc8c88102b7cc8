// Package engine implements the parallel breadth-first derivation engine:
// the expansion kernel, the work queue and its membership policies, the
// done collector, the three BFS strategies (controlled-queue, free-queue,
// dual-container) each with a deterministic single-threaded twin, and the
// strategy selector exposed as Generate.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cfgforge/cfgforge/grammar"
	"go.uber.org/multierr"
)

// ErrInvalidGrammar and ErrStartSymbolMissing are re-exported from grammar
// so callers can use errors.Is against the engine package alone.
var (
	ErrInvalidGrammar     = grammar.ErrInvalidGrammar
	ErrStartSymbolMissing = grammar.ErrStartSymbolMissing
)

// ErrInternalQuiescenceViolation indicates a free-queue worker's idle
// counter underflowed (§7) — more workers decremented it than ever
// incremented it, which should be unreachable given Queue.Quiescent's
// lock-held check. workerFree panics with it rather than continuing on
// corrupted bookkeeping; panicCollector recovers the panic and
// multierr.Combine folds it into the error Generate returns, so it never
// takes the process down.
var ErrInternalQuiescenceViolation = errors.New("engine: internal quiescence violation")

// panicCollector lets every worker goroutine in a strategy recover its own
// panics instead of taking the process down; Generate aggregates them with
// multierr.Combine and returns the result as a plain error instead of a
// crash. A goroutine that never panics contributes nothing.
type panicCollector struct {
	mu   sync.Mutex
	errs []error
}

// guard recovers a panic in the calling goroutine and records it. Any
// barriers passed in are broken so a goroutine waiting on one of them
// (which this panicking goroutine will now never reach) doesn't block
// forever on a round that can no longer complete.
func (p *panicCollector) guard(barriers ...*Barrier) {
	if r := recover(); r != nil {
		p.mu.Lock()
		if err, ok := r.(error); ok {
			p.errs = append(p.errs, fmt.Errorf("engine: worker panic: %w", err))
		} else {
			p.errs = append(p.errs, fmt.Errorf("engine: worker panic: %v", r))
		}
		p.mu.Unlock()
		for _, b := range barriers {
			b.Break()
		}
	}
}

func (p *panicCollector) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return multierr.Combine(p.errs...)
}
