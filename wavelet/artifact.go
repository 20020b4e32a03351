// Package wavelet holds the sequence representations compared by the
// benchmarks. Every variant answers positional access and prefix-count
// (rank) queries over a byte sequence and round-trips through bytes.
package wavelet

import (
	"errors"
	"fmt"

	"github.com/AngeloSav/qwt-experiments/bits"
)

// Artifact is an immutable representation of one symbol sequence.
type Artifact interface {
	// Len is the length of the represented sequence.
	Len() int
	// Access returns the symbol at position i, false when i is out of range.
	Access(i int) (uint8, bool)
	// AccessUnchecked is Access without the bounds check. The caller must
	// guarantee 0 <= i < Len(). It exists for the benchmark sink only.
	AccessUnchecked(i int) uint8
	// Rank counts occurrences of symbol in [0, i), false when i > Len().
	Rank(symbol uint8, i int) (int, bool)
	// Select returns the position of the k-th (1-based) occurrence of
	// symbol, false when there is none.
	Select(symbol uint8, k int) (int, bool)
	// SpaceUsage is the heap footprint in bytes.
	SpaceUsage() int
	// MemDetailed breaks SpaceUsage down by component.
	MemDetailed() MemReport
	MarshalBinary() ([]byte, error)
}

// Prefetcher is implemented by artifacts that can warm the memory a Rank
// at position i will touch first.
type Prefetcher interface {
	Prefetch(i int)
}

var (
	errWrongVariant = errors.New("wavelet: encoded artifact belongs to another variant")
	errShape        = errors.New("wavelet: encoded artifact has an inconsistent shape")
)

// Variant names one representation and how to build and decode it.
type Variant struct {
	ID string
	// Suffix is appended to the input filename to form the cache path.
	Suffix string
	Build  func(seq []uint8) Artifact
	Decode func(data []byte) (Artifact, error)
}

var (
	VariantQWT256 = Variant{
		ID:     "QWT256",
		Suffix: ".qwt256",
		Build:  func(seq []uint8) Artifact { return NewQWT(seq, 256) },
		Decode: func(data []byte) (Artifact, error) { return decodeQWTAs(data, 256) },
	}
	VariantQWT512 = Variant{
		ID:     "QWT512",
		Suffix: ".qwt512",
		Build:  func(seq []uint8) Artifact { return NewQWT(seq, 512) },
		Decode: func(data []byte) (Artifact, error) { return decodeQWTAs(data, 512) },
	}
	VariantHQWT256 = Variant{
		ID:     "HQWT256",
		Suffix: ".hqwt256",
		Build:  func(seq []uint8) Artifact { return NewHQWT(seq, 256) },
		Decode: func(data []byte) (Artifact, error) { return decodeHQWTAs(data, 256) },
	}
	VariantHQWT512 = Variant{
		ID:     "HQWT512",
		Suffix: ".hqwt512",
		Build:  func(seq []uint8) Artifact { return NewHQWT(seq, 512) },
		Decode: func(data []byte) (Artifact, error) { return decodeHQWTAs(data, 512) },
	}
	VariantWTWide = Variant{
		ID:     "WTWide",
		Suffix: ".wtw",
		Build:  func(seq []uint8) Artifact { return NewWTWide(seq) },
		Decode: decodeAs(DecodeWTWide),
	}
	VariantWT = Variant{
		ID:     "WT",
		Suffix: ".wt",
		Build:  func(seq []uint8) Artifact { return NewWT(seq) },
		Decode: decodeAs(DecodeWT),
	}
	VariantHWT = Variant{
		ID:     "HWT",
		Suffix: ".hwt",
		Build:  func(seq []uint8) Artifact { return NewHWT(seq) },
		Decode: decodeAs(DecodeHWT),
	}
	VariantPlain = Variant{
		ID:     "Plain",
		Suffix: ".plain",
		Build:  func(seq []uint8) Artifact { return NewPlain(seq) },
		Decode: decodeAs(DecodePlain),
	}
)

// Variants returns every known variant in benchmark order.
func Variants() []Variant {
	return []Variant{
		VariantQWT256, VariantQWT512, VariantHQWT256, VariantHQWT512,
		VariantWTWide, VariantWT, VariantHWT, VariantPlain,
	}
}

func Lookup(id string) (Variant, bool) {
	for _, v := range Variants() {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

func decodeAs[T Artifact](decode func([]byte) (T, error)) func([]byte) (Artifact, error) {
	return func(data []byte) (Artifact, error) {
		a, err := decode(data)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// decode runs fn over data, turning short reads, leftover bytes and
// panics from third-party decoders into errors.
func decode[T any](data []byte, tag string, fn func(r *bits.Reader) T) (out T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			out, err = zero, fmt.Errorf("wavelet: decoding %s: %v", tag, p)
		}
	}()
	r := bits.NewReader(data)
	if got := string(r.Bytes()); r.Err() == nil && got != tag {
		return out, fmt.Errorf("%w: want %s, got %q", errWrongVariant, tag, got)
	}
	out = fn(r)
	if err := r.Close(); err != nil {
		var zero T
		return zero, fmt.Errorf("wavelet: decoding %s: %w", tag, err)
	}
	return out, nil
}

func appendTag(buf []byte, tag string) []byte {
	return bits.AppendBytes(buf, []byte(tag))
}

func maxSymbol(seq []uint8) uint8 {
	var m uint8
	for _, s := range seq {
		m = max(m, s)
	}
	return m
}
