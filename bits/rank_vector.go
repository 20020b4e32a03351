package bits

import (
	"errors"
	"math/bits"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

const (
	rankBlockWords = 8 // 512 bits per block
	rankBlockBits  = rankBlockWords * 64
)

var errRankVectorSize = errors.New("bits: rank vector word count does not match its length")

// RankVector is an immutable bit vector with constant-time rank and
// logarithmic select. Blocks of 512 bits carry the number of ones that
// precede them.
type RankVector struct {
	words  []uint64
	n      int
	blocks []uint64
}

// NewRankVector takes ownership of set; set.Len() is the vector length.
func NewRankVector(set *bitset.BitSet) *RankVector {
	rv := &RankVector{
		words: set.Words(),
		n:     int(set.Len()),
	}
	rv.buildBlocks()
	return rv
}

func (rv *RankVector) buildBlocks() {
	numWords := (rv.n + 63) / 64
	numBlocks := (numWords + rankBlockWords - 1) / rankBlockWords
	rv.blocks = make([]uint64, numBlocks+1)
	var ones uint64
	for w := 0; w < numWords; w++ {
		if w%rankBlockWords == 0 {
			rv.blocks[w/rankBlockWords] = ones
		}
		ones += uint64(bits.OnesCount64(rv.words[w]))
	}
	rv.blocks[numBlocks] = ones
}

func (rv *RankVector) Len() int { return rv.n }

func (rv *RankVector) Ones() int { return int(rv.blocks[len(rv.blocks)-1]) }

func (rv *RankVector) Zeros() int { return rv.n - rv.Ones() }

// Bit requires 0 <= i < Len().
func (rv *RankVector) Bit(i int) bool {
	return rv.words[i>>6]>>(uint(i)&63)&1 == 1
}

// Rank1 returns the number of ones in [0, i), 0 <= i <= Len().
func (rv *RankVector) Rank1(i int) int {
	block := i / rankBlockBits
	r := rv.blocks[block]
	end := i >> 6
	for w := block * rankBlockWords; w < end; w++ {
		r += uint64(bits.OnesCount64(rv.words[w]))
	}
	if off := uint(i) & 63; off != 0 {
		r += uint64(bits.OnesCount64(rv.words[end] & lowMask(off)))
	}
	return int(r)
}

func (rv *RankVector) Rank0(i int) int {
	return i - rv.Rank1(i)
}

// Select1 returns the position of the k-th one, k is 1-based.
func (rv *RankVector) Select1(k int) (int, bool) {
	if k < 1 || k > rv.Ones() {
		return 0, false
	}
	block := sort.Search(len(rv.blocks), func(j int) bool { return rv.blocks[j] >= uint64(k) }) - 1
	remaining := k - int(rv.blocks[block])
	for w := block * rankBlockWords; ; w++ {
		c := bits.OnesCount64(rv.words[w])
		if c >= remaining {
			return w*64 + selectInWord(rv.words[w], remaining-1), true
		}
		remaining -= c
	}
}

// Select0 returns the position of the k-th zero, k is 1-based.
func (rv *RankVector) Select0(k int) (int, bool) {
	if k < 1 || k > rv.Zeros() {
		return 0, false
	}
	zerosBefore := func(j int) int { return min(j*rankBlockBits, rv.n) - int(rv.blocks[j]) }
	block := sort.Search(len(rv.blocks), func(j int) bool { return zerosBefore(j) >= k }) - 1
	remaining := k - zerosBefore(block)
	for w := block * rankBlockWords; ; w++ {
		inv := ^rv.words[w]
		c := bits.OnesCount64(inv)
		if c >= remaining {
			return w*64 + selectInWord(inv, remaining-1), true
		}
		remaining -= c
	}
}

// SpaceUsage returns the heap bytes held by the vector.
func (rv *RankVector) SpaceUsage() int {
	return 8*len(rv.words) + 8*len(rv.blocks) + 8
}

// The encoding is the length followed by the raw words; block counts are
// rebuilt on decode.
func (rv *RankVector) AppendBinary(buf []byte) []byte {
	buf = AppendUint64(buf, uint64(rv.n))
	return AppendUint64s(buf, rv.words[:(rv.n+63)/64])
}

func ReadRankVector(r *Reader) *RankVector {
	n := r.Int()
	words := r.Uint64s()
	if r.Err() != nil {
		return nil
	}
	if len(words) != (n+63)/64 {
		r.Fail(errRankVectorSize)
		return nil
	}
	if off := uint(n) & 63; off != 0 && words[len(words)-1]&^lowMask(off) != 0 {
		r.Fail(errRankVectorSize)
		return nil
	}
	return NewRankVector(bitset.FromWithLength(uint(n), words))
}
