// Package sequence loads benchmark inputs as byte sequences.
package sequence

import (
	"fmt"
	"io"
	"os"

	"github.com/AngeloSav/qwt-experiments/bits"
	"github.com/AngeloSav/qwt-experiments/errutil"
)

// Load reads the file at path. A positive prefix keeps only the first
// prefix bytes.
func Load(path string, prefix int) ([]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read the input file: %v", errutil.ErrIO, err)
	}
	defer f.Close()

	var r io.Reader = f
	if prefix > 0 {
		r = io.LimitReader(f, int64(prefix))
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errutil.ErrIO, path, err)
	}
	return text, nil
}

// Remap relabels the symbols of text in place to the dense alphabet
// [0, sigma), preserving their order, and returns sigma.
func Remap(text []uint8) int {
	var present [256]bool
	for _, s := range text {
		present[s] = true
	}
	var mapping [256]uint8
	sigma := 0
	for s, ok := range present {
		if ok {
			mapping[s] = uint8(sigma)
			sigma++
		}
	}
	for i, s := range text {
		text[i] = mapping[s]
	}
	return sigma
}

type Statistics struct {
	N     int
	LogN  int
	Sigma int
}

// Stats reports the length, floor(log2(n)) and distinct-symbol count
// of text.
func Stats(text []uint8) Statistics {
	var present [256]bool
	sigma := 0
	for _, s := range text {
		if !present[s] {
			present[s] = true
			sigma++
		}
	}
	return Statistics{N: len(text), LogN: LogN(len(text)), Sigma: sigma}
}

// LogN is floor(log2(n)), or -1 for an empty sequence.
func LogN(n int) int {
	return bits.MostSignificantBit(uint64(n))
}
