package engine

import (
	"container/list"
	"sync"

	"github.com/cfgforge/cfgforge/grammar"
)

// membership selects one of the four queue membership/merge policies from
// the component design: plain-append, set-dedup, conservative-merge, and
// additive-merge.
type membership int

const (
	membershipPlain membership = iota
	membershipSet
	membershipConservative
	membershipAdditive
)

// Queue is a blocking multi-producer/multi-consumer work queue parametrized
// by a membership policy. It is the realization of the work queue
// abstraction (C4): FIFO per producer, with add/add_bulk/take/size/
// active_consumers/complete_adding/is_completed exposed as methods.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	items      *list.List
	index      map[string]*list.Element // nil for membershipPlain
	membership membership

	closed          bool
	activeConsumers int
}

func newQueue(kind membership) *Queue {
	q := &Queue{
		items:      list.New(),
		membership: kind,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	if kind != membershipPlain {
		q.index = make(map[string]*list.Element)
	}
	return q
}

// queueKindFor picks the membership policy matching the mode's derivation
// and repetition flags, per the selection table in §4.7.
func queueKindFor(mode Mode) membership {
	switch {
	case mode.Derivation && mode.Repetition:
		return membershipAdditive
	case mode.Derivation && !mode.Repetition:
		return membershipConservative
	case !mode.Derivation && mode.Repetition:
		return membershipPlain
	default:
		return membershipSet
	}
}

// Add enqueues sf, applying the queue's membership policy. It returns false
// if the queue has already been closed via Complete.
func (q *Queue) Add(sf grammar.SententialForm) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.addLocked(sf)
}

// AddBulk enqueues every item in sfs under a single lock acquisition, so a
// burst from one producer preserves its relative order and is indivisible
// with respect to other producers. It returns the number of items processed
// (0 if the queue was already closed).
func (q *Queue) AddBulk(sfs []grammar.SententialForm) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	for _, sf := range sfs {
		q.addLocked(sf)
	}
	return len(sfs)
}

func (q *Queue) addLocked(sf grammar.SententialForm) bool {
	if q.closed {
		return false
	}
	switch q.membership {
	case membershipPlain:
		q.items.PushBack(sf)
	case membershipSet:
		if _, exists := q.index[sf.String]; exists {
			return true
		}
		e := q.items.PushBack(sf)
		q.index[sf.String] = e
	case membershipConservative:
		if _, exists := q.index[sf.String]; exists {
			// the already-enqueued representative keeps its traces.
			return true
		}
		e := q.items.PushBack(sf)
		q.index[sf.String] = e
	case membershipAdditive:
		if e, exists := q.index[sf.String]; exists {
			existing := e.Value.(grammar.SententialForm)
			if formDepth(existing) == formDepth(sf) {
				existing.Traces = append(existing.Traces, sf.Traces...)
				e.Value = existing
				return true
			}
			// a same-string form from another layer stays a separate item,
			// so its traces are expanded in their own round.
			q.items.PushBack(sf)
		} else {
			e := q.items.PushBack(sf)
			q.index[sf.String] = e
		}
	}
	q.notEmpty.Signal()
	return true
}

// Take blocks until an item is available or the queue is completed (closed
// and drained), in which case it returns ok == false.
func (q *Queue) Take() (grammar.SententialForm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.closed {
		q.activeConsumers++
		q.notEmpty.Wait()
		q.activeConsumers--
	}
	if q.items.Len() == 0 {
		return grammar.SententialForm{}, false
	}
	e := q.items.Front()
	q.items.Remove(e)
	sf := e.Value.(grammar.SententialForm)
	if q.index != nil {
		delete(q.index, sf.String)
	}
	return sf, true
}

// TryTake pops an item without blocking. ok is false if the queue is
// currently empty, whether or not it has been completed.
func (q *Queue) TryTake() (grammar.SententialForm, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return grammar.SententialForm{}, false
	}
	e := q.items.Front()
	q.items.Remove(e)
	sf := e.Value.(grammar.SententialForm)
	if q.index != nil {
		delete(q.index, sf.String)
	}
	return sf, true
}

// WaitIdle blocks until the queue gains an item or is completed. It is not
// counted as an active consumer: the free-queue strategy uses this instead
// of Take because it tracks its idle workers with its own counter rather
// than relying on Take's close-on-drain semantics.
func (q *Queue) WaitIdle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() > 0 || q.closed {
		return
	}
	q.notEmpty.Wait()
}

// Size returns the number of items currently enqueued.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// ActiveConsumers returns the number of goroutines currently blocked in Take.
func (q *Queue) ActiveConsumers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.activeConsumers
}

// Complete latches the closed state: subsequent Add/AddBulk calls fail, and
// Take drains remaining items before returning ok == false.
func (q *Queue) Complete() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
}

// Completed reports whether the queue is closed and empty.
func (q *Queue) Completed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && q.items.Len() == 0
}

// Quiescent evaluates fn while holding the queue's internal lock and
// reports true only if fn returns true, the queue is empty, and no
// goroutine is blocked in Take. fn is always called, so a side effect in it
// (such as the free-queue idle-counter increment) happens exactly once per
// call. This is the design note's option (a) for the C6 quiescence race:
// the three reads (size, active consumers, and whatever fn reads) happen
// inside one critical section, so a concurrent Add cannot slip between them.
func (q *Queue) Quiescent(fn func() bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	idle := fn()
	return idle && q.items.Len() == 0 && q.activeConsumers == 0
}
