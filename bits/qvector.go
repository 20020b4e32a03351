package bits

import (
	"errors"
	"math/bits"
	"sort"
)

const (
	symbolsPerWord = 32
	evenBits       = 0x5555555555555555
)

var (
	errQVectorBlock = errors.New("bits: qvector block size must be a positive multiple of 32")
	errQVectorSize  = errors.New("bits: qvector counts do not match its length")
)

// QVector stores symbols in [0, 4) at two bits each. Every block of
// blockSize symbols carries, for each of the four symbols, the number of
// occurrences that precede it.
type QVector struct {
	words     []uint64
	n         int
	blockSize int
	counts    []uint64
}

// NewQVector packs symbols, each of which must be below 4. blockSize must
// be a positive multiple of 32 (256 and 512 are the tuned values).
func NewQVector(symbols []uint8, blockSize int) *QVector {
	if blockSize <= 0 || blockSize%symbolsPerWord != 0 {
		panic(errQVectorBlock)
	}
	q := &QVector{
		words:     make([]uint64, (len(symbols)+symbolsPerWord-1)/symbolsPerWord),
		n:         len(symbols),
		blockSize: blockSize,
	}
	for i, s := range symbols {
		q.words[i/symbolsPerWord] |= uint64(s&3) << (2 * uint(i%symbolsPerWord))
	}
	q.buildCounts()
	return q
}

func (q *QVector) buildCounts() {
	numBlocks := (q.n + q.blockSize - 1) / q.blockSize
	q.counts = make([]uint64, 4*(numBlocks+1))
	wordsPerBlock := q.blockSize / symbolsPerWord
	var running [4]uint64
	for w, word := range q.words {
		if w%wordsPerBlock == 0 {
			copy(q.counts[4*(w/wordsPerBlock):], running[:])
		}
		valid := min(symbolsPerWord, q.n-w*symbolsPerWord)
		for d := uint8(0); d < 4; d++ {
			running[d] += uint64(bits.OnesCount64(matchMask(word, d) & slotMask(valid)))
		}
	}
	copy(q.counts[4*numBlocks:], running[:])
}

// matchMask sets the low bit of every 2-bit slot of w holding d.
func matchMask(w uint64, d uint8) uint64 {
	hi := (w >> 1) & evenBits
	lo := w & evenBits
	if d&2 == 0 {
		hi = ^hi & evenBits
	}
	if d&1 == 0 {
		lo = ^lo & evenBits
	}
	return hi & lo
}

// slotMask covers the first k slots of a word, k in [0, 32].
func slotMask(k int) uint64 {
	if k >= symbolsPerWord {
		return ^uint64(0)
	}
	return lowMask(2 * uint(k))
}

func (q *QVector) Len() int { return q.n }

func (q *QVector) BlockSize() int { return q.blockSize }

// Get requires 0 <= i < Len().
func (q *QVector) Get(i int) uint8 {
	return uint8(q.words[i/symbolsPerWord]>>(2*uint(i%symbolsPerWord))) & 3
}

// Count returns the total number of occurrences of d.
func (q *QVector) Count(d uint8) int {
	return int(q.counts[len(q.counts)-4+int(d&3)])
}

// Rank returns the occurrences of d in [0, i), 0 <= i <= Len().
func (q *QVector) Rank(d uint8, i int) int {
	d &= 3
	block := i / q.blockSize
	r := q.counts[4*block+int(d)]
	end := i / symbolsPerWord
	for w := block * (q.blockSize / symbolsPerWord); w < end; w++ {
		r += uint64(bits.OnesCount64(matchMask(q.words[w], d)))
	}
	if off := i % symbolsPerWord; off != 0 {
		r += uint64(bits.OnesCount64(matchMask(q.words[end], d) & slotMask(off)))
	}
	return int(r)
}

// Select returns the position of the k-th occurrence of d, k is 1-based.
func (q *QVector) Select(d uint8, k int) (int, bool) {
	d &= 3
	if k < 1 || k > q.Count(d) {
		return 0, false
	}
	numEntries := len(q.counts) / 4
	block := sort.Search(numEntries, func(j int) bool { return q.counts[4*j+int(d)] >= uint64(k) }) - 1
	remaining := k - int(q.counts[4*block+int(d)])
	for w := block * (q.blockSize / symbolsPerWord); ; w++ {
		m := matchMask(q.words[w], d)
		if valid := q.n - w*symbolsPerWord; valid < symbolsPerWord {
			m &= slotMask(valid)
		}
		c := bits.OnesCount64(m)
		if c >= remaining {
			return w*symbolsPerWord + selectInWord(m, remaining-1)/2, true
		}
		remaining -= c
	}
}

// prefetched keeps Prefetch loads observable.
var prefetched uint64

// Prefetch touches the block counters that a Rank at position i reads
// first. Go exposes no prefetch instruction, so this is a plain load.
func (q *QVector) Prefetch(i int) {
	if i < 0 || i > q.n {
		return
	}
	prefetched += q.counts[4*(i/q.blockSize)]
}

func (q *QVector) SpaceUsage() int {
	return 8*len(q.words) + 8*len(q.counts) + 16
}

// Block counts are rebuilt on decode.
func (q *QVector) AppendBinary(buf []byte) []byte {
	buf = AppendUint64(buf, uint64(q.n))
	buf = AppendUint64(buf, uint64(q.blockSize))
	return AppendUint64s(buf, q.words)
}

func ReadQVector(r *Reader) *QVector {
	n := r.Int()
	blockSize := r.Int()
	words := r.Uint64s()
	if r.Err() != nil {
		return nil
	}
	if blockSize <= 0 || blockSize%symbolsPerWord != 0 {
		r.Fail(errQVectorBlock)
		return nil
	}
	if len(words) != (n+symbolsPerWord-1)/symbolsPerWord {
		r.Fail(errQVectorSize)
		return nil
	}
	if valid := n % symbolsPerWord; valid != 0 && words[len(words)-1]&^slotMask(valid) != 0 {
		r.Fail(errQVectorSize)
		return nil
	}
	q := &QVector{words: words, n: n, blockSize: blockSize}
	q.buildCounts()
	return q
}
