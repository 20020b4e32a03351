package wavelet

import (
	"fmt"

	"github.com/AngeloSav/qwt-experiments/bits"
	"github.com/bits-and-blooms/bitset"
	"github.com/hillbig/rsdic"
)

// bitVector is the rank/select capability a binary level needs.
type bitVector interface {
	Len() int
	Ones() int
	Bit(i int) bool
	Rank1(i int) int
	Rank0(i int) int
	Select1(k int) (int, bool)
	Select0(k int) (int, bool)
	SpaceUsage() int
	appendBinary(buf []byte) ([]byte, error)
}

// vectorKind builds and decodes one bitVector implementation.
type vectorKind struct {
	build func(set *bitset.BitSet) bitVector
	read  func(r *bits.Reader) bitVector
}

var (
	rsdicKind = vectorKind{build: newRSDicVector, read: readRSDicVector}
	wideKind  = vectorKind{build: newWideVector, read: readWideVector}
)

// wideVector adapts bits.RankVector.
type wideVector struct {
	*bits.RankVector
}

func newWideVector(set *bitset.BitSet) bitVector {
	return wideVector{bits.NewRankVector(set)}
}

func (v wideVector) appendBinary(buf []byte) ([]byte, error) {
	return v.AppendBinary(buf), nil
}

func readWideVector(r *bits.Reader) bitVector {
	rv := bits.ReadRankVector(r)
	if rv == nil {
		return nil
	}
	return wideVector{rv}
}

// rsdicVector adapts hillbig/rsdic, whose Select takes a 0-based rank.
type rsdicVector struct {
	rs *rsdic.RSDic
}

func newRSDicVector(set *bitset.BitSet) bitVector {
	rs := rsdic.New()
	n := set.Len()
	for i := uint(0); i < n; i++ {
		rs.PushBack(set.Test(i))
	}
	return rsdicVector{rs: rs}
}

func (v rsdicVector) Len() int       { return int(v.rs.Num()) }
func (v rsdicVector) Ones() int      { return int(v.rs.OneNum()) }
func (v rsdicVector) Bit(i int) bool { return v.rs.Bit(uint64(i)) }

func (v rsdicVector) Rank1(i int) int { return int(v.rs.Rank(uint64(i), true)) }
func (v rsdicVector) Rank0(i int) int { return int(v.rs.Rank(uint64(i), false)) }

func (v rsdicVector) Select1(k int) (int, bool) {
	if k < 1 || k > v.Ones() {
		return 0, false
	}
	return int(v.rs.Select(uint64(k-1), true)), true
}

func (v rsdicVector) Select0(k int) (int, bool) {
	if k < 1 || k > v.Len()-v.Ones() {
		return 0, false
	}
	return int(v.rs.Select(uint64(k-1), false)), true
}

func (v rsdicVector) SpaceUsage() int { return v.rs.AllocSize() }

func (v rsdicVector) appendBinary(buf []byte) ([]byte, error) {
	raw, err := v.rs.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("wavelet: marshal rsdic: %w", err)
	}
	return bits.AppendBytes(buf, raw), nil
}

func readRSDicVector(r *bits.Reader) bitVector {
	raw := r.Bytes()
	if r.Err() != nil {
		return nil
	}
	rs := rsdic.New()
	if err := rs.UnmarshalBinary(raw); err != nil {
		r.Fail(fmt.Errorf("wavelet: unmarshal rsdic: %w", err))
		return nil
	}
	v := rsdicVector{rs: rs}
	if err := v.verify(); err != nil {
		r.Fail(err)
		return nil
	}
	return v
}

// exhaustiveVerifyBits bounds the vectors whose every rank and select
// answer is checked on decode. Longer vectors are checked at each 64-bit
// word boundary and at every verifySelectStride-th occurrence.
const (
	exhaustiveVerifyBits = 1 << 16
	verifySelectStride   = 256
)

// verify cross-checks the counters of a decoded rsdic against its bits.
// rsdic trusts its serialized directories, so a flipped byte can make
// later queries index past its slices. Panics raised here are recovered
// by decode.
func (v rsdicVector) verify() error {
	n, ones := v.rs.Num(), v.rs.OneNum()
	if ones > n {
		return fmt.Errorf("%w: rsdic reports %d ones over %d bits", errShape, ones, n)
	}
	if got, zeros := v.rs.Rank(n, true), v.rs.Rank(n, false); got != ones || zeros != n-ones {
		return fmt.Errorf("%w: rsdic rank at end is %d, want %d", errShape, got, ones)
	}
	step := uint64(64)
	selectStride := uint64(verifySelectStride)
	if n <= exhaustiveVerifyBits {
		step, selectStride = 1, 1
	}
	for pos := uint64(0); pos < n; pos += step {
		end := min(pos+step, n)
		r1, r0 := v.rs.Rank(pos, true), v.rs.Rank(pos, false)
		last := v.rs.Rank(end-1, true)
		if v.rs.Bit(end - 1) {
			last++
		}
		next := v.rs.Rank(end, true)
		if r1+r0 != pos || r1 > next || next-r1 > end-pos || last != next {
			return fmt.Errorf("%w: rsdic rank disagrees with its bits at %d", errShape, pos)
		}
	}
	if err := v.verifySelect(true, ones, selectStride); err != nil {
		return err
	}
	return v.verifySelect(false, n-ones, selectStride)
}

func (v rsdicVector) verifySelect(bit bool, count, stride uint64) error {
	check := func(k uint64) error {
		pos := v.rs.Select(k, bit)
		if pos >= v.rs.Num() || v.rs.Bit(pos) != bit || v.rs.Rank(pos, bit) != k {
			return fmt.Errorf("%w: rsdic select(%d, %t) = %d", errShape, k, bit, pos)
		}
		return nil
	}
	for k := uint64(0); k < count; k += stride {
		if err := check(k); err != nil {
			return err
		}
	}
	if count > 0 {
		return check(count - 1)
	}
	return nil
}

// levelSet returns the bitset of bit (s >> shift) & 1 over seq.
func levelSet(seq []uint8, shift uint) (*bitset.BitSet, int) {
	set := bitset.New(uint(len(seq)))
	zeros := 0
	for i, s := range seq {
		if (s>>shift)&1 == 1 {
			set.Set(uint(i))
		} else {
			zeros++
		}
	}
	return set, zeros
}

// markSet marks the positions of seq for which one reports true.
func markSet(seq []uint8, one func(uint8) bool) (*bitset.BitSet, int) {
	set := bitset.New(uint(len(seq)))
	zeros := 0
	for i, s := range seq {
		if one(s) {
			set.Set(uint(i))
		} else {
			zeros++
		}
	}
	return set, zeros
}
