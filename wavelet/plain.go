package wavelet

import (
	"bytes"
	"sort"

	"github.com/AngeloSav/qwt-experiments/bits"
)

const (
	tagPlain = "Plain"
	// plainBlock is the sampling rate of the cumulative histograms.
	plainBlock = 4096
)

// PlainCounts keeps the sequence verbatim next to a histogram of every
// symbol sampled at the start of each block. It is the reference the
// wavelet variants are checked against.
type PlainCounts struct {
	seq    []uint8
	sigma  int
	counts []uint64
}

func NewPlain(seq []uint8) *PlainCounts {
	p := &PlainCounts{seq: append([]uint8(nil), seq...)}
	if len(seq) > 0 {
		p.sigma = int(maxSymbol(seq)) + 1
	}
	p.buildCounts()
	return p
}

func (p *PlainCounts) buildCounts() {
	numBlocks := (len(p.seq) + plainBlock - 1) / plainBlock
	p.counts = make([]uint64, (numBlocks+1)*p.sigma)
	running := make([]uint64, p.sigma)
	for i, s := range p.seq {
		if i%plainBlock == 0 {
			copy(p.counts[(i/plainBlock)*p.sigma:], running)
		}
		running[s]++
	}
	copy(p.counts[numBlocks*p.sigma:], running)
}

func (p *PlainCounts) count(block int, symbol uint8) int {
	return int(p.counts[block*p.sigma+int(symbol)])
}

func (p *PlainCounts) Len() int { return len(p.seq) }

func (p *PlainCounts) Access(i int) (uint8, bool) {
	if i < 0 || i >= len(p.seq) {
		return 0, false
	}
	return p.seq[i], true
}

func (p *PlainCounts) AccessUnchecked(i int) uint8 { return p.seq[i] }

func (p *PlainCounts) Rank(symbol uint8, i int) (int, bool) {
	if i < 0 || i > len(p.seq) {
		return 0, false
	}
	if int(symbol) >= p.sigma {
		return 0, true
	}
	block := i / plainBlock
	return p.count(block, symbol) + bytes.Count(p.seq[block*plainBlock:i], []byte{symbol}), true
}

func (p *PlainCounts) Select(symbol uint8, k int) (int, bool) {
	if k < 1 || int(symbol) >= p.sigma {
		return 0, false
	}
	numEntries := len(p.counts) / p.sigma
	if k > p.count(numEntries-1, symbol) {
		return 0, false
	}
	block := sort.Search(numEntries, func(j int) bool { return p.count(j, symbol) >= k }) - 1
	remaining := k - p.count(block, symbol)
	pos := block * plainBlock
	for {
		j := bytes.IndexByte(p.seq[pos:], symbol)
		if remaining == 1 {
			return pos + j, true
		}
		remaining--
		pos += j + 1
	}
}

func (p *PlainCounts) SpaceUsage() int { return p.MemDetailed().TotalBytes }

// Layout: tag, sigma, sequence bytes. Histograms are rebuilt on decode.
func (p *PlainCounts) MarshalBinary() ([]byte, error) {
	buf := appendTag(nil, tagPlain)
	buf = bits.AppendUint64(buf, uint64(p.sigma))
	return bits.AppendBytes(buf, p.seq), nil
}

func DecodePlain(data []byte) (*PlainCounts, error) {
	return decode(data, tagPlain, func(r *bits.Reader) *PlainCounts {
		sigma := r.Int()
		seq := r.Bytes()
		if r.Err() != nil {
			return nil
		}
		if sigma > 256 || (len(seq) > 0) != (sigma > 0) {
			r.Fail(errShape)
			return nil
		}
		for _, s := range seq {
			if int(s) >= sigma {
				r.Fail(errShape)
				return nil
			}
		}
		p := &PlainCounts{seq: append([]uint8(nil), seq...), sigma: sigma}
		p.buildCounts()
		return p
	})
}
