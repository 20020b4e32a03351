package wavelet

import (
	"fmt"

	"github.com/AngeloSav/qwt-experiments/bits"
	"github.com/AngeloSav/qwt-experiments/errutil"
)

// maxQuadDepth bounds decoded trees. A 4-ary Huffman tree over 256
// symbols has at most 85 internal nodes on any path.
const maxQuadDepth = 96

type hqwtNode struct {
	qv     *bits.QVector // nil for leaves
	child  [4]*hqwtNode  // nil for digits no symbol maps to
	symbol uint8
}

func (nd *hqwtNode) leaf() bool { return nd.qv == nil }

// quadCode is the digit path from the root to a leaf.
type quadCode struct {
	digits []uint8
	ok     bool
}

// HuffmanQuadTree is a 4-ary wavelet tree shaped by the 4-ary Huffman code
// of the sequence, with one QVector per internal node.
type HuffmanQuadTree struct {
	n         int
	blockSize int
	root      *hqwtNode
	codes     [256]quadCode
}

func NewHQWT(seq []uint8, blockSize int) *HuffmanQuadTree {
	t := &HuffmanQuadTree{n: len(seq), blockSize: blockSize}
	var hist [256]int
	for _, s := range seq {
		hist[s]++
	}
	t.root = huffmanMerge(&hist, 4,
		func(s uint8) *hqwtNode { return &hqwtNode{symbol: s} },
		func(children []*hqwtNode) *hqwtNode {
			nd := &hqwtNode{}
			copy(nd.child[:], children)
			return nd
		})
	if t.root == nil {
		return t
	}
	t.assignCodes(t.root, nil)
	t.fill(t.root, append([]uint8(nil), seq...), 0)
	return t
}

func (t *HuffmanQuadTree) tag() string { return fmt.Sprintf("HQWT%d", t.blockSize) }

func (t *HuffmanQuadTree) assignCodes(nd *hqwtNode, path []uint8) {
	if nd.child == [4]*hqwtNode{} {
		t.codes[nd.symbol] = quadCode{digits: append([]uint8(nil), path...), ok: true}
		return
	}
	for d, c := range nd.child {
		if c != nil {
			t.assignCodes(c, append(path, uint8(d)))
		}
	}
}

// fill builds the QVector of nd from the symbols routed to it. seq is
// consumed.
func (t *HuffmanQuadTree) fill(nd *hqwtNode, seq []uint8, depth int) {
	if nd.child == [4]*hqwtNode{} {
		return
	}
	digits := make([]uint8, len(seq))
	for i, s := range seq {
		digits[i] = t.codes[s].digits[depth]
	}
	nd.qv = bits.NewQVector(digits, t.blockSize)

	var buckets [4][]uint8
	for d := range buckets {
		buckets[d] = make([]uint8, 0, nd.qv.Count(uint8(d)))
	}
	for i, s := range seq {
		buckets[digits[i]] = append(buckets[digits[i]], s)
	}
	for d, c := range nd.child {
		if c == nil {
			errutil.BugOnNotEq(len(buckets[d]), 0, "huffman quad tree empty digit")
			continue
		}
		t.fill(c, buckets[d], depth+1)
	}
}

func (t *HuffmanQuadTree) Len() int { return t.n }

func (t *HuffmanQuadTree) Access(i int) (uint8, bool) {
	if i < 0 || i >= t.n {
		return 0, false
	}
	return t.AccessUnchecked(i), true
}

func (t *HuffmanQuadTree) AccessUnchecked(i int) uint8 {
	nd := t.root
	for !nd.leaf() {
		d := nd.qv.Get(i)
		i = nd.qv.Rank(d, i)
		nd = nd.child[d]
	}
	return nd.symbol
}

// descend maps prefix length i along the code of c and returns the
// length reached at the leaf.
func (t *HuffmanQuadTree) descend(c quadCode, i int, path []*hqwtNode) int {
	nd := t.root
	for depth, d := range c.digits {
		if path != nil {
			path[depth] = nd
		}
		i = nd.qv.Rank(d, i)
		nd = nd.child[d]
	}
	return i
}

func (t *HuffmanQuadTree) Rank(symbol uint8, i int) (int, bool) {
	if i < 0 || i > t.n {
		return 0, false
	}
	c := t.codes[symbol]
	if !c.ok {
		return 0, true
	}
	return t.descend(c, i, nil), true
}

func (t *HuffmanQuadTree) Select(symbol uint8, k int) (int, bool) {
	c := t.codes[symbol]
	if k < 1 || !c.ok {
		return 0, false
	}
	path := make([]*hqwtNode, len(c.digits))
	if k > t.descend(c, t.n, path) {
		return 0, false
	}
	pos := k - 1
	for depth := len(c.digits) - 1; depth >= 0; depth-- {
		pos, _ = path[depth].qv.Select(c.digits[depth], pos+1)
	}
	return pos, true
}

// Prefetch touches the root's block counters for position i.
func (t *HuffmanQuadTree) Prefetch(i int) {
	if t.root != nil && !t.root.leaf() {
		t.root.qv.Prefetch(i)
	}
}

func (t *HuffmanQuadTree) SpaceUsage() int { return t.MemDetailed().TotalBytes }

// Layout: tag, n, then the tree in preorder. Absent digits are written
// as an empty marker, leaves as their marker and symbol, internal nodes
// as their marker and encoded QVector.
func (t *HuffmanQuadTree) MarshalBinary() ([]byte, error) {
	buf := appendTag(nil, t.tag())
	buf = bits.AppendUint64(buf, uint64(t.n))
	var write func(nd *hqwtNode)
	write = func(nd *hqwtNode) {
		switch {
		case nd == nil:
			buf = append(buf, hwtEmpty)
		case nd.leaf():
			buf = append(buf, hwtLeaf, nd.symbol)
		default:
			buf = append(buf, hwtInternal)
			buf = nd.qv.AppendBinary(buf)
			for _, c := range nd.child {
				write(c)
			}
		}
	}
	write(t.root)
	return buf, nil
}

// DecodeHQWT decodes a Huffman quad tree built with the given block size.
func DecodeHQWT(data []byte, blockSize int) (*HuffmanQuadTree, error) {
	tag := fmt.Sprintf("HQWT%d", blockSize)
	return decode(data, tag, func(r *bits.Reader) *HuffmanQuadTree { return readHQWT(r, blockSize) })
}

func decodeHQWTAs(data []byte, blockSize int) (Artifact, error) {
	t, err := DecodeHQWT(data, blockSize)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func readHQWT(r *bits.Reader, blockSize int) *HuffmanQuadTree {
	t := &HuffmanQuadTree{n: r.Int(), blockSize: blockSize}
	if r.Err() != nil {
		return nil
	}
	var seen [256]bool
	// want is the length of the subsequence routed to the node; a digit
	// nobody maps to must be empty.
	var read func(depth, want int) (*hqwtNode, bool)
	read = func(depth, want int) (*hqwtNode, bool) {
		if depth > maxQuadDepth {
			r.Fail(errShape)
			return nil, false
		}
		marker := r.Byte()
		if r.Err() != nil {
			return nil, false
		}
		if (marker == hwtEmpty) != (want == 0) {
			r.Fail(errShape)
			return nil, false
		}
		switch marker {
		case hwtEmpty:
			return nil, true
		case hwtLeaf:
			s := r.Byte()
			if seen[s] {
				r.Fail(errDuplicateLeaf)
				return nil, false
			}
			seen[s] = true
			return &hqwtNode{symbol: s}, true
		case hwtInternal:
			qv := bits.ReadQVector(r)
			if qv == nil {
				return nil, false
			}
			if qv.Len() != want || qv.BlockSize() != blockSize {
				r.Fail(errShape)
				return nil, false
			}
			nd := &hqwtNode{qv: qv}
			for d := range nd.child {
				c, ok := read(depth+1, qv.Count(uint8(d)))
				if !ok {
					return nil, false
				}
				nd.child[d] = c
			}
			return nd, true
		default:
			r.Fail(errShape)
			return nil, false
		}
	}

	root, ok := read(0, t.n)
	if !ok {
		return nil
	}
	t.root = root
	if t.root != nil {
		t.assignCodes(t.root, nil)
	}
	return t
}
