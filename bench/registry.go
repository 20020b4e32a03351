// Package bench times artifact construction and queries and prints the
// RESULT records consumed by the experiment scripts.
package bench

import (
	"fmt"

	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

// Entry is one benchmarked variant. Registry order is report order.
type Entry struct {
	ID    string
	Build func(seq []uint8) wavelet.Artifact
}

func DefaultRegistry() []Entry {
	variants := wavelet.Variants()
	entries := make([]Entry, len(variants))
	for i, v := range variants {
		entries[i] = Entry{ID: v.ID, Build: v.Build}
	}
	return entries
}

// Filter keeps the entries named in ids, in registry order. An empty ids
// keeps everything.
func Filter(entries []Entry, ids []string) ([]Entry, error) {
	if len(ids) == 0 {
		return entries, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Entry
	for _, e := range entries {
		if want[e.ID] {
			out = append(out, e)
			delete(want, e.ID)
		}
	}
	for _, id := range ids {
		if want[id] {
			return nil, fmt.Errorf("%w: unknown variant %q", errutil.ErrArgument, id)
		}
	}
	return out, nil
}
