package wavelet

import (
	"fmt"

	"github.com/AngeloSav/qwt-experiments/bits"
	"github.com/AngeloSav/qwt-experiments/errutil"
)

const maxQuadLevels = 4

// QuadMatrix is a 4-ary wavelet matrix. Level l holds the l-th 2-bit digit
// (from the most significant) of every symbol after stable partitioning
// by the previous digits.
type QuadMatrix struct {
	n         int
	levels    int
	blockSize int
	// starts[l][d] is where digit d's bucket begins at level l+1.
	starts [][4]int
	qvs    []*bits.QVector
}

// NewQWT builds a quad wavelet matrix with the given rank block size in
// symbols.
func NewQWT(seq []uint8, blockSize int) *QuadMatrix {
	levels := (bits.BitLength(uint64(maxSymbol(seq))) + 1) / 2
	m := &QuadMatrix{
		n:         len(seq),
		levels:    levels,
		blockSize: blockSize,
		starts:    make([][4]int, levels),
		qvs:       make([]*bits.QVector, levels),
	}

	cur := append([]uint8(nil), seq...)
	next := make([]uint8, len(seq))
	digits := make([]uint8, len(seq))
	for l := 0; l < levels; l++ {
		shift := uint(2 * (levels - 1 - l))
		for i, s := range cur {
			digits[i] = (s >> shift) & 3
		}
		qv := bits.NewQVector(digits, blockSize)
		m.qvs[l] = qv
		m.starts[l] = bucketStarts(qv)

		offsets := m.starts[l]
		for _, s := range cur {
			d := (s >> shift) & 3
			next[offsets[d]] = s
			offsets[d]++
		}
		errutil.BugOnNotEq(offsets[3], len(cur), "quad matrix bucket end")
		cur, next = next, cur
	}
	return m
}

func bucketStarts(qv *bits.QVector) [4]int {
	var starts [4]int
	for d := 1; d < 4; d++ {
		starts[d] = starts[d-1] + qv.Count(uint8(d-1))
	}
	return starts
}

func (m *QuadMatrix) tag() string { return fmt.Sprintf("QWT%d", m.blockSize) }

func (m *QuadMatrix) Len() int { return m.n }

func (m *QuadMatrix) Access(i int) (uint8, bool) {
	if i < 0 || i >= m.n {
		return 0, false
	}
	return m.AccessUnchecked(i), true
}

func (m *QuadMatrix) AccessUnchecked(i int) uint8 {
	var s uint8
	for l, qv := range m.qvs {
		d := qv.Get(i)
		s = s<<2 | d
		i = m.starts[l][d] + qv.Rank(d, i)
	}
	return s
}

func (m *QuadMatrix) digit(symbol uint8, l int) uint8 {
	return (symbol >> uint(2*(m.levels-1-l))) & 3
}

func (m *QuadMatrix) outOfAlphabet(symbol uint8) bool {
	return symbol>>uint(2*m.levels) != 0
}

func (m *QuadMatrix) narrow(symbol uint8, l, b, e int) (int, int) {
	d := m.digit(symbol, l)
	start := m.starts[l][d]
	return start + m.qvs[l].Rank(d, b), start + m.qvs[l].Rank(d, e)
}

func (m *QuadMatrix) Rank(symbol uint8, i int) (int, bool) {
	if i < 0 || i > m.n {
		return 0, false
	}
	if m.outOfAlphabet(symbol) {
		return 0, true
	}
	b, e := 0, i
	for l := 0; l < m.levels; l++ {
		b, e = m.narrow(symbol, l, b, e)
	}
	return e - b, true
}

func (m *QuadMatrix) Select(symbol uint8, k int) (int, bool) {
	if k < 1 || m.outOfAlphabet(symbol) {
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
		d := m.digit(symbol, l)
		pos, _ = m.qvs[l].Select(d, pos-m.starts[l][d]+1)
	}
	return pos, true
}

// Prefetch touches the first level's block counters for position i.
func (m *QuadMatrix) Prefetch(i int) {
	if m.levels > 0 {
		m.qvs[0].Prefetch(i)
	}
}

func (m *QuadMatrix) SpaceUsage() int { return m.MemDetailed().TotalBytes }

// Layout: tag, n, levels, then one encoded QVector per level.
func (m *QuadMatrix) MarshalBinary() ([]byte, error) {
	buf := appendTag(nil, m.tag())
	buf = bits.AppendUint64(buf, uint64(m.n))
	buf = bits.AppendUint64(buf, uint64(m.levels))
	for _, qv := range m.qvs {
		buf = qv.AppendBinary(buf)
	}
	return buf, nil
}

// DecodeQWT decodes a quad wavelet matrix built with the given block size.
func DecodeQWT(data []byte, blockSize int) (*QuadMatrix, error) {
	tag := fmt.Sprintf("QWT%d", blockSize)
	return decode(data, tag, func(r *bits.Reader) *QuadMatrix { return readQWT(r, blockSize) })
}

func decodeQWTAs(data []byte, blockSize int) (Artifact, error) {
	m, err := DecodeQWT(data, blockSize)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func readQWT(r *bits.Reader, blockSize int) *QuadMatrix {
	n := r.Int()
	levels := r.Int()
	if r.Err() != nil {
		return nil
	}
	if levels < 1 || levels > maxQuadLevels {
		r.Fail(errShape)
		return nil
	}
	m := &QuadMatrix{
		n:         n,
		levels:    levels,
		blockSize: blockSize,
		starts:    make([][4]int, levels),
		qvs:       make([]*bits.QVector, levels),
	}
	for l := range m.qvs {
		qv := bits.ReadQVector(r)
		if qv == nil {
			return nil
		}
		if qv.Len() != n || qv.BlockSize() != blockSize {
			r.Fail(errShape)
			return nil
		}
		m.qvs[l] = qv
		m.starts[l] = bucketStarts(qv)
	}
	return m
}
