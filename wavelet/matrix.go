package wavelet

import (
	"github.com/AngeloSav/qwt-experiments/bits"
	"github.com/AngeloSav/qwt-experiments/errutil"
)

const (
	tagWT     = "WT"
	tagWTWide = "WTWide"
	// maxBinaryLevels is the bit width of a byte symbol.
	maxBinaryLevels = 8
)

// Matrix is a binary wavelet matrix: level l stores bit l (from the most
// significant) of every symbol, after the symbols were stably partitioned
// by the bits of all previous levels.
type Matrix struct {
	tag    string
	n      int
	levels int
	zeros  []int
	bvs    []bitVector
}

// NewWT builds a wavelet matrix whose levels are rsdic dictionaries.
func NewWT(seq []uint8) *Matrix { return buildMatrix(tagWT, seq, rsdicKind) }

// NewWTWide builds a wavelet matrix over plain bit vectors with 512-bit
// rank blocks.
func NewWTWide(seq []uint8) *Matrix { return buildMatrix(tagWTWide, seq, wideKind) }

func buildMatrix(tag string, seq []uint8, kind vectorKind) *Matrix {
	levels := bits.BitLength(uint64(maxSymbol(seq)))
	m := &Matrix{
		tag:    tag,
		n:      len(seq),
		levels: levels,
		zeros:  make([]int, levels),
		bvs:    make([]bitVector, levels),
	}

	cur := append([]uint8(nil), seq...)
	next := make([]uint8, len(seq))
	for l := 0; l < levels; l++ {
		shift := uint(levels - 1 - l)
		set, zeros := levelSet(cur, shift)
		m.zeros[l] = zeros
		m.bvs[l] = kind.build(set)

		zi, oi := 0, zeros
		for _, s := range cur {
			if (s>>shift)&1 == 0 {
				next[zi] = s
				zi++
			} else {
				next[oi] = s
				oi++
			}
		}
		errutil.BugOnNotEq(zi, zeros, "matrix zeros end")
		errutil.BugOnNotEq(oi, len(cur), "matrix ones end")
		cur, next = next, cur
	}
	return m
}

func (m *Matrix) Len() int { return m.n }

func (m *Matrix) Access(i int) (uint8, bool) {
	if i < 0 || i >= m.n {
		return 0, false
	}
	return m.AccessUnchecked(i), true
}

func (m *Matrix) AccessUnchecked(i int) uint8 {
	var s uint8
	for l, bv := range m.bvs {
		if bv.Bit(i) {
			s = s<<1 | 1
			i = m.zeros[l] + bv.Rank1(i)
		} else {
			s <<= 1
			i = bv.Rank0(i)
		}
	}
	return s
}

// symbolBit returns bit l (from the most significant) of a symbol.
func (m *Matrix) symbolBit(symbol uint8, l int) bool {
	return (symbol>>uint(m.levels-1-l))&1 == 1
}

// narrow maps the range [b, e) at level l to the range of symbol's
// continuation at level l+1.
func (m *Matrix) narrow(symbol uint8, l, b, e int) (int, int) {
	bv := m.bvs[l]
	if m.symbolBit(symbol, l) {
		return m.zeros[l] + bv.Rank1(b), m.zeros[l] + bv.Rank1(e)
	}
	return bv.Rank0(b), bv.Rank0(e)
}

func (m *Matrix) Rank(symbol uint8, i int) (int, bool) {
	if i < 0 || i > m.n {
		return 0, false
	}
	if symbol>>uint(m.levels) != 0 {
		return 0, true
	}
	b, e := 0, i
	for l := 0; l < m.levels; l++ {
		b, e = m.narrow(symbol, l, b, e)
	}
	return e - b, true
}

func (m *Matrix) Select(symbol uint8, k int) (int, bool) {
	if k < 1 || symbol>>uint(m.levels) != 0 {
		return 0, false
	}
	b, e := 0, m.n
	for l := 0; l < m.levels; l++ {
		b, e = m.narrow(symbol, l, b, e)
	}
	if k > e-b {
		return 0, false
	}
	pos := b + k - 1
	for l := m.levels - 1; l >= 0; l-- {
		if m.symbolBit(symbol, l) {
			pos, _ = m.bvs[l].Select1(pos - m.zeros[l] + 1)
		} else {
			pos, _ = m.bvs[l].Select0(pos + 1)
		}
	}
	return pos, true
}

func (m *Matrix) SpaceUsage() int { return m.MemDetailed().TotalBytes }

// Layout: tag, n, levels, then one encoded bit vector per level. Zero
// counts are derived from the vectors.
func (m *Matrix) MarshalBinary() ([]byte, error) {
	buf := appendTag(nil, m.tag)
	buf = bits.AppendUint64(buf, uint64(m.n))
	buf = bits.AppendUint64(buf, uint64(m.levels))
	var err error
	for _, bv := range m.bvs {
		if buf, err = bv.appendBinary(buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func DecodeWT(data []byte) (*Matrix, error) {
	return decode(data, tagWT, func(r *bits.Reader) *Matrix { return readMatrix(r, tagWT, rsdicKind) })
}

func DecodeWTWide(data []byte) (*Matrix, error) {
	return decode(data, tagWTWide, func(r *bits.Reader) *Matrix { return readMatrix(r, tagWTWide, wideKind) })
}

func readMatrix(r *bits.Reader, tag string, kind vectorKind) *Matrix {
	n := r.Int()
	levels := r.Int()
	if r.Err() != nil {
		return nil
	}
	if levels < 1 || levels > maxBinaryLevels {
		r.Fail(errShape)
		return nil
	}
	m := &Matrix{
		tag:    tag,
		n:      n,
		levels: levels,
		zeros:  make([]int, levels),
		bvs:    make([]bitVector, levels),
	}
	for l := range m.bvs {
		bv := kind.read(r)
		if bv == nil {
			return nil
		}
		if bv.Len() != n {
			r.Fail(errShape)
			return nil
		}
		m.bvs[l] = bv
		m.zeros[l] = n - bv.Ones()
	}
	return m
}
