// Package timing measures repeated executions of an operation and reduces
// them to min/max/avg, discarding a number of leading warm-up iterations.
//
// A Queries value is single-threaded: iterations must not overlap.
package timing

import (
	"time"

	"github.com/AngeloSav/qwt-experiments/errutil"
)

// Clock returns a monotonic reading. Only differences between two
// readings are meaningful.
type Clock func() time.Duration

// MonotonicClock reads Go's monotonic clock relative to the moment it was
// created.
func MonotonicClock() Clock {
	origin := time.Now()
	return func() time.Duration { return time.Since(origin) }
}

type Queries struct {
	runs    int
	warmup  int
	clock   Clock
	samples []time.Duration
	next    int
	running bool
	begin   time.Duration
}

// New expects exactly runs+warmup Start/Stop pairs before Get.
func New(runs, warmup int) *Queries {
	return NewWithClock(runs, warmup, MonotonicClock())
}

func NewWithClock(runs, warmup int, clock Clock) *Queries {
	errutil.BugOn(runs < 1, "timing: runs must be >= 1, got %d", runs)
	errutil.BugOn(warmup < 0, "timing: warmup must be >= 0, got %d", warmup)
	errutil.BugOn(clock == nil, "timing: nil clock")
	return &Queries{
		runs:    runs,
		warmup:  warmup,
		clock:   clock,
		samples: make([]time.Duration, runs+warmup),
	}
}

// Start marks the beginning of the next iteration.
func (q *Queries) Start() {
	errutil.BugOn(q.running, "timing: start called twice without stop")
	errutil.BugOn(q.next >= len(q.samples), "timing: more than %d iterations", len(q.samples))
	q.running = true
	q.begin = q.clock()
}

// Stop records the duration since the matching Start.
func (q *Queries) Stop() {
	end := q.clock()
	errutil.BugOn(!q.running, "timing: stop called without start")
	q.samples[q.next] = end - q.begin
	q.next++
	q.running = false
}

// Measure runs fn as one iteration. Stop is deferred so the pair is closed
// even if fn panics.
func (q *Queries) Measure(fn func()) {
	q.Start()
	defer q.Stop()
	fn()
}

// Runs is the number of measured iterations.
func (q *Queries) Runs() int { return q.runs }

// Done reports whether all runs+warmup iterations were recorded.
func (q *Queries) Done() bool {
	return !q.running && q.next == len(q.samples)
}

// Get returns min, max and avg over the last runs iterations.
func (q *Queries) Get() (minD, maxD, avgD time.Duration) {
	errutil.BugOn(!q.Done(), "timing: get after %d of %d iterations", q.next, len(q.samples))

	measured := q.samples[q.warmup:]
	minD, maxD = measured[0], measured[0]
	var sum time.Duration
	for _, d := range measured {
		minD = min(minD, d)
		maxD = max(maxD, d)
		sum += d
	}
	return minD, maxD, sum / time.Duration(len(measured))
}
