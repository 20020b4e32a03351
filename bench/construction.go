package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/AngeloSav/qwt-experiments/sequence"
	"github.com/AngeloSav/qwt-experiments/timing"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

// sinkPosition is the element read back from every built artifact.
const sinkPosition = 123

type ConstructionResult struct {
	Algo  string
	Input string
	N     int
	LogN  int
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
	Runs  int
	// Sink is the anti-elision value for this variant.
	Sink uint64
}

func (r ConstructionResult) String() string {
	return fmt.Sprintf("RESULT algo=%s input=%s n=%d logn=%d min_construction_time_ms=%d max_construction_time_ms=%d avg_construction_time_ms=%d n_runs=%d",
		r.Algo, r.Input, r.N, r.LogN, r.Min.Milliseconds(), r.Max.Milliseconds(), r.Avg.Milliseconds(), r.Runs)
}

func consumeOne(s *Sink, a wavelet.Artifact) {
	if n := a.Len(); n > 0 {
		s.Consume(uint64(a.AccessUnchecked(min(sinkPosition, n-1))))
	}
}

// RunConstruction builds every entry runs times over seq and writes a
// RESULT line plus a "Result:" sink line per entry to out.
func RunConstruction(entries []Entry, seq []uint8, input string, runs int, out io.Writer) []ConstructionResult {
	results := make([]ConstructionResult, 0, len(entries))
	for _, e := range entries {
		r := constructOne(e, seq, timing.New(runs, 0))
		r.Input = input
		fmt.Fprintln(out, r)
		fmt.Fprintf(out, "Result: %d\n", r.Sink)
		results = append(results, r)
	}
	return results
}

func constructOne(e Entry, seq []uint8, t *timing.Queries) ConstructionResult {
	var sink Sink
	for !t.Done() {
		t.Measure(func() {
			consumeOne(&sink, e.Build(seq))
		})
	}
	minD, maxD, avgD := t.Get()
	return ConstructionResult{
		Algo: e.ID,
		N:    len(seq),
		LogN: sequence.LogN(len(seq)),
		Min:  minD,
		Max:  maxD,
		Avg:  avgD,
		Runs: t.Runs(),
		Sink: sink.Value(),
	}
}
