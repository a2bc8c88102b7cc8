// Package enginemetrics provides per-run metrics collection for a single
// engine.Generate call. The Collector accumulates counters during a run; it
// is a leaf package with no internal dependencies, mirroring the teacher's
// metrics.Collector.
package enginemetrics

import "sync"

// Snapshot is an immutable point-in-time view of a run's metrics. Safe to
// read concurrently after creation.
type Snapshot struct {
	RunsStarted   int64
	RunsCompleted int64
	RunsFailed    int64

	FormsExpanded   int64
	LayersWalked    int64
	QueueHighWater  int64
	DoneFormsSeen   int64

	Workers  int
	Strategy string
	RunID    string
}

// Collector accumulates metrics during a single engine.Generate call.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe,
// so a Mode with Metrics left nil costs nothing at call sites.
type Collector struct {
	mu sync.Mutex

	runsStarted   int64
	runsCompleted int64
	runsFailed    int64

	formsExpanded  int64
	layersWalked   int64
	queueHighWater int64
	doneFormsSeen  int64

	workers  int
	strategy string
	runID    string
}

// NewCollector creates a Collector labeled with the strategy name and run id
// that will be recorded against it.
func NewCollector(strategy, runID string) *Collector {
	return &Collector{strategy: strategy, runID: runID}
}

// SetWorkers records the worker pool size used for the run.
func (c *Collector) SetWorkers(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.workers = n
	c.mu.Unlock()
}

// IncRunStarted records a run start.
func (c *Collector) IncRunStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsStarted++
	c.mu.Unlock()
}

// IncRunCompleted records a successful run completion.
func (c *Collector) IncRunCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsCompleted++
	c.mu.Unlock()
}

// IncRunFailed records a run that returned an error: a rejected grammar or
// an aggregated worker panic.
func (c *Collector) IncRunFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsFailed++
	c.mu.Unlock()
}

// IncFormsExpanded records one expansion-kernel call (one sentential form
// rewritten into its children, or recognized as done).
func (c *Collector) IncFormsExpanded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.formsExpanded++
	c.mu.Unlock()
}

// IncLayerWalked records one completed BFS depth round, for strategies that
// walk the frontier in discrete layers (controlled-queue, dual-container).
func (c *Collector) IncLayerWalked() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.layersWalked++
	c.mu.Unlock()
}

// ObserveQueueSize records a work-queue size sample, updating the run's
// high-water mark if n exceeds it.
func (c *Collector) ObserveQueueSize(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if int64(n) > c.queueHighWater {
		c.queueHighWater = int64(n)
	}
	c.mu.Unlock()
}

// IncDoneFormsSeen records one sentential form reaching the done collector.
func (c *Collector) IncDoneFormsSeen() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.doneFormsSeen++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of the collected metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		RunsStarted:    c.runsStarted,
		RunsCompleted:  c.runsCompleted,
		RunsFailed:     c.runsFailed,
		FormsExpanded:  c.formsExpanded,
		LayersWalked:   c.layersWalked,
		QueueHighWater: c.queueHighWater,
		DoneFormsSeen:  c.doneFormsSeen,
		Workers:        c.workers,
		Strategy:       c.strategy,
		RunID:          c.runID,
	}
}
