// Package check cross-validates artifacts built over the same sequence.
package check

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

// MismatchError is the first position where two answers disagree.
type MismatchError struct {
	Query  string
	Index  int
	Symbol uint8
	A, B   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch at position %d (symbol %d): %d != %d", e.Query, e.Index, e.Symbol, e.A, e.B)
}

func (e *MismatchError) Unwrap() error { return errutil.ErrConsistency }

type Options struct {
	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

const progressStep = 1 << 16

type progress struct {
	bar     *progressbar.ProgressBar
	pending int64
}

func newProgress(w io.Writer, n int, what string) *progress {
	if w == nil {
		return &progress{}
	}
	return &progress{bar: progressbar.NewOptions64(int64(n),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(what),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
	)}
}

func (p *progress) tick() {
	if p.bar == nil {
		return
	}
	if p.pending++; p.pending == progressStep {
		_ = p.bar.Add64(p.pending)
		p.pending = 0
	}
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add64(p.pending)
	_ = p.bar.Finish()
}

func rankOrMinusOne(a wavelet.Artifact, s uint8, i int) int {
	r, ok := a.Rank(s, i)
	if !ok {
		return -1
	}
	return r
}

// Rank compares a.Rank(seq[i], i) with b.Rank(seq[i], i) for every i and
// returns a *MismatchError at the first disagreement.
func Rank(a, b wavelet.Artifact, seq []uint8, opts Options) error {
	p := newProgress(opts.Progress, len(seq), "rank")
	for i, s := range seq {
		ra, rb := rankOrMinusOne(a, s, i), rankOrMinusOne(b, s, i)
		if ra != rb {
			return &MismatchError{Query: "rank", Index: i, Symbol: s, A: ra, B: rb}
		}
		p.tick()
	}
	p.finish()
	return nil
}

// Access checks that a reproduces seq position by position. A is the
// stored symbol (-1 when out of range) and B the expected one.
func Access(a wavelet.Artifact, seq []uint8, opts Options) error {
	if a.Len() != len(seq) {
		return fmt.Errorf("%w: artifact holds %d symbols, sequence has %d", errutil.ErrConsistency, a.Len(), len(seq))
	}
	p := newProgress(opts.Progress, len(seq), "access")
	for i, s := range seq {
		got, ok := a.Access(i)
		if !ok || got != s {
			e := &MismatchError{Query: "access", Index: i, Symbol: s, A: int(got), B: int(s)}
			if !ok {
				e.A = -1
			}
			return e
		}
		p.tick()
	}
	p.finish()
	return nil
}
