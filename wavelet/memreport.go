package wavelet

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// MemReport is a hierarchical breakdown of an artifact's SpaceUsage.
type MemReport struct {
	Name       string
	TotalBytes int
	Children   []MemReport
}

func newMemReport(name string, children ...MemReport) MemReport {
	r := MemReport{Name: name, Children: children}
	for _, c := range children {
		r.TotalBytes += c.TotalBytes
	}
	return r
}

// String formats the report as an indented tree.
func (r MemReport) String() string {
	var sb strings.Builder
	r.buildString(&sb, 0)
	return sb.String()
}

func (r MemReport) buildString(sb *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s- %s: %d bytes (%s)\n", prefix, r.Name, r.TotalBytes, humanize.IBytes(uint64(r.TotalBytes)))
	for _, child := range r.Children {
		child.buildString(sb, indent+1)
	}
}

func (m *Matrix) MemDetailed() MemReport {
	children := []MemReport{{Name: "header", TotalBytes: 8*len(m.zeros) + 24}}
	for l, bv := range m.bvs {
		children = append(children, MemReport{Name: fmt.Sprintf("level %d", l), TotalBytes: bv.SpaceUsage()})
	}
	return newMemReport(m.tag, children...)
}

func (m *QuadMatrix) MemDetailed() MemReport {
	children := []MemReport{{Name: "header", TotalBytes: 32*len(m.starts) + 32}}
	for l, qv := range m.qvs {
		children = append(children, MemReport{Name: fmt.Sprintf("level %d", l), TotalBytes: qv.SpaceUsage()})
	}
	return newMemReport(m.tag(), children...)
}

// MemDetailed groups tree nodes by depth.
func (t *HuffmanTree) MemDetailed() MemReport {
	var depths []int
	var walk func(nd *hwtNode, d int)
	walk = func(nd *hwtNode, d int) {
		if nd == nil {
			return
		}
		if d == len(depths) {
			depths = append(depths, 0)
		}
		depths[d] += 32
		if !nd.leaf() {
			depths[d] += nd.bv.SpaceUsage()
			walk(nd.child[0], d+1)
			walk(nd.child[1], d+1)
		}
	}
	walk(t.root, 0)

	children := []MemReport{{Name: "codes", TotalBytes: 16 + 24*len(t.codes)}}
	for d, bytes := range depths {
		children = append(children, MemReport{Name: fmt.Sprintf("depth %d", d), TotalBytes: bytes})
	}
	return newMemReport(tagHWT, children...)
}

func (p *PlainCounts) MemDetailed() MemReport {
	return newMemReport(tagPlain,
		MemReport{Name: "sequence", TotalBytes: len(p.seq) + 32},
		MemReport{Name: "histograms", TotalBytes: 8 * len(p.counts)},
	)
}

// MemDetailed groups tree nodes by depth.
func (t *HuffmanQuadTree) MemDetailed() MemReport {
	var depths []int
	var walk func(nd *hqwtNode, d int)
	walk = func(nd *hqwtNode, d int) {
		if nd == nil {
			return
		}
		if d == len(depths) {
			depths = append(depths, 0)
		}
		depths[d] += 48
		if !nd.leaf() {
			depths[d] += nd.qv.SpaceUsage()
			for _, c := range nd.child {
				walk(c, d+1)
			}
		}
	}
	walk(t.root, 0)

	codes := 32 + 32*len(t.codes)
	for _, c := range t.codes {
		codes += len(c.digits)
	}
	children := []MemReport{{Name: "codes", TotalBytes: codes}}
	for d, bytes := range depths {
		children = append(children, MemReport{Name: fmt.Sprintf("depth %d", d), TotalBytes: bytes})
	}
	return newMemReport(t.tag(), children...)
}
