package wavelet

import (
	"container/heap"
	"errors"

	"github.com/AngeloSav/qwt-experiments/bits"
	"github.com/AngeloSav/qwt-experiments/errutil"
)

const (
	tagHWT = "HWT"
	// maxCodeLength bounds Huffman codes so they fit a uint64. Reaching it
	// would need a Fibonacci-skewed input far larger than memory.
	maxCodeLength = 64
)

var errDuplicateLeaf = errors.New("wavelet: huffman tree repeats a symbol")

type hwtNode struct {
	bv     bitVector // nil for leaves
	child  [2]*hwtNode
	symbol uint8
}

func (nd *hwtNode) leaf() bool { return nd.bv == nil }

type code struct {
	bits   uint64
	length int
	ok     bool
}

// bit returns the d-th bit of the code, counted from the root.
func (c code) bit(d int) int {
	return int(c.bits>>uint(c.length-1-d)) & 1
}

// HuffmanTree is a binary wavelet tree shaped by the Huffman code of the
// sequence, with one rsdic dictionary per internal node.
type HuffmanTree struct {
	n     int
	root  *hwtNode
	codes [256]code
}

func NewHWT(seq []uint8) *HuffmanTree {
	t := &HuffmanTree{n: len(seq)}
	var hist [256]int
	for _, s := range seq {
		hist[s]++
	}
	t.root = huffmanShape(&hist)
	if t.root == nil {
		return t
	}
	t.assignCodes(t.root, 0, 0)
	t.fill(t.root, append([]uint8(nil), seq...), 0)
	return t
}

type shapeItem[N any] struct {
	weight int
	order  int
	node   N
}

type shapeQueue[N any] []shapeItem[N]

func (q shapeQueue[N]) Len() int { return len(q) }
func (q shapeQueue[N]) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].order < q[j].order
}
func (q shapeQueue[N]) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *shapeQueue[N]) Push(x any)   { *q = append(*q, x.(shapeItem[N])) }
func (q *shapeQueue[N]) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// huffmanMerge builds an arity-ary Huffman tree over the symbols of hist
// with a positive count. join receives the merged nodes lightest first.
// Zero-weight padding nodes, passed to join as the zero N, make every
// merge full. Ties break on creation order so the shape is deterministic.
// The zero N is returned when hist is empty.
func huffmanMerge[N any](hist *[256]int, arity int, leaf func(s uint8) N, join func(children []N) N) N {
	q := &shapeQueue[N]{}
	order := 0
	for s, w := range hist {
		if w > 0 {
			*q = append(*q, shapeItem[N]{weight: w, order: order, node: leaf(uint8(s))})
			order++
		}
	}
	var zero N
	if q.Len() == 0 {
		return zero
	}
	for q.Len() > 1 && (q.Len()-1)%(arity-1) != 0 {
		*q = append(*q, shapeItem[N]{order: order})
		order++
	}
	heap.Init(q)
	for q.Len() > 1 {
		children := make([]N, arity)
		weight := 0
		for c := range children {
			it := heap.Pop(q).(shapeItem[N])
			children[c] = it.node
			weight += it.weight
		}
		heap.Push(q, shapeItem[N]{weight: weight, order: order, node: join(children)})
		order++
	}
	return (*q)[0].node
}

// huffmanShape returns the binary tree without bit vectors.
func huffmanShape(hist *[256]int) *hwtNode {
	return huffmanMerge(hist, 2,
		func(s uint8) *hwtNode { return &hwtNode{symbol: s} },
		func(children []*hwtNode) *hwtNode { return &hwtNode{child: [2]*hwtNode{children[0], children[1]}} })
}

func (t *HuffmanTree) assignCodes(nd *hwtNode, path uint64, depth int) {
	errutil.BugOn(depth > maxCodeLength, "wavelet: huffman code longer than %d bits", maxCodeLength)
	if nd.child[0] == nil {
		t.codes[nd.symbol] = code{bits: path, length: depth, ok: true}
		return
	}
	t.assignCodes(nd.child[0], path<<1, depth+1)
	t.assignCodes(nd.child[1], path<<1|1, depth+1)
}

// fill builds the bit vector of nd from the symbols routed to it. seq is
// consumed.
func (t *HuffmanTree) fill(nd *hwtNode, seq []uint8, depth int) {
	if nd.child[0] == nil {
		return
	}
	set, zeros := markSet(seq, func(s uint8) bool { return t.codes[s].bit(depth) == 1 })
	nd.bv = rsdicKind.build(set)

	left := make([]uint8, 0, zeros)
	right := make([]uint8, 0, len(seq)-zeros)
	for _, s := range seq {
		if t.codes[s].bit(depth) == 0 {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	t.fill(nd.child[0], left, depth+1)
	t.fill(nd.child[1], right, depth+1)
}

func (t *HuffmanTree) Len() int { return t.n }

func (t *HuffmanTree) Access(i int) (uint8, bool) {
	if i < 0 || i >= t.n {
		return 0, false
	}
	return t.AccessUnchecked(i), true
}

func (t *HuffmanTree) AccessUnchecked(i int) uint8 {
	nd := t.root
	for !nd.leaf() {
		if nd.bv.Bit(i) {
			i = nd.bv.Rank1(i)
			nd = nd.child[1]
		} else {
			i = nd.bv.Rank0(i)
			nd = nd.child[0]
		}
	}
	return nd.symbol
}

// descend follows the code of c from the root, mapping prefix length i
// at every node. It returns the length reached at the leaf.
func (t *HuffmanTree) descend(c code, i int, path []*hwtNode) int {
	nd := t.root
	for d := 0; d < c.length; d++ {
		if path != nil {
			path[d] = nd
		}
		if c.bit(d) == 1 {
			i = nd.bv.Rank1(i)
		} else {
			i = nd.bv.Rank0(i)
		}
		nd = nd.child[c.bit(d)]
	}
	return i
}

func (t *HuffmanTree) Rank(symbol uint8, i int) (int, bool) {
	if i < 0 || i > t.n {
		return 0, false
	}
	c := t.codes[symbol]
	if !c.ok {
		return 0, true
	}
	return t.descend(c, i, nil), true
}

func (t *HuffmanTree) Select(symbol uint8, k int) (int, bool) {
	c := t.codes[symbol]
	if k < 1 || !c.ok {
		return 0, false
	}
	path := make([]*hwtNode, c.length)
	if k > t.descend(c, t.n, path) {
		return 0, false
	}
	pos := k - 1
	for d := c.length - 1; d >= 0; d-- {
		if c.bit(d) == 1 {
			pos, _ = path[d].bv.Select1(pos + 1)
		} else {
			pos, _ = path[d].bv.Select0(pos + 1)
		}
	}
	return pos, true
}

func (t *HuffmanTree) SpaceUsage() int { return t.MemDetailed().TotalBytes }

const (
	hwtEmpty    = 0
	hwtLeaf     = 1
	hwtInternal = 2
)

// Layout: tag, n, then the tree in preorder. A leaf is its marker and
// symbol; an internal node is its marker and encoded bit vector.
func (t *HuffmanTree) MarshalBinary() ([]byte, error) {
	buf := appendTag(nil, tagHWT)
	buf = bits.AppendUint64(buf, uint64(t.n))
	if t.root == nil {
		return append(buf, hwtEmpty), nil
	}
	var err error
	var write func(nd *hwtNode)
	write = func(nd *hwtNode) {
		if err != nil {
			return
		}
		if nd.leaf() {
			buf = append(buf, hwtLeaf, nd.symbol)
			return
		}
		buf = append(buf, hwtInternal)
		if buf, err = nd.bv.appendBinary(buf); err != nil {
			return
		}
		write(nd.child[0])
		write(nd.child[1])
	}
	write(t.root)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func DecodeHWT(data []byte) (*HuffmanTree, error) {
	return decode(data, tagHWT, readHWT)
}

func readHWT(r *bits.Reader) *HuffmanTree {
	t := &HuffmanTree{n: r.Int()}
	if r.Err() != nil {
		return nil
	}
	var seen [256]bool
	// want is the length of the subsequence routed to the node.
	var read func(depth, want int) *hwtNode
	read = func(depth, want int) *hwtNode {
		if depth > maxCodeLength {
			r.Fail(errShape)
			return nil
		}
		switch r.Byte() {
		case hwtLeaf:
			s := r.Byte()
			if seen[s] {
				r.Fail(errDuplicateLeaf)
				return nil
			}
			seen[s] = true
			return &hwtNode{symbol: s}
		case hwtInternal:
			bv := rsdicKind.read(r)
			if bv == nil {
				return nil
			}
			if bv.Len() != want {
				r.Fail(errShape)
				return nil
			}
			nd := &hwtNode{bv: bv}
			if nd.child[0] = read(depth+1, bv.Len()-bv.Ones()); nd.child[0] == nil {
				return nil
			}
			if nd.child[1] = read(depth+1, bv.Ones()); nd.child[1] == nil {
				return nil
			}
			return nd
		default:
			r.Fail(errShape)
			return nil
		}
	}

	if t.n == 0 {
		if r.Byte() != hwtEmpty {
			r.Fail(errShape)
		}
		return t
	}
	if t.root = read(0, t.n); t.root == nil {
		return nil
	}
	t.assignCodes(t.root, 0, 0)
	return t
}
