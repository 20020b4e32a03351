package wavelet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDetailedAddsUp(t *testing.T) {
	for name, seq := range testSequences() {
		for _, v := range Variants() {
			a := v.Build(seq)
			r := a.MemDetailed()
			require.Equal(t, a.SpaceUsage(), r.TotalBytes, "%s/%s", name, v.ID)
			require.NotEmpty(t, r.Children)

			sum := 0
			for _, c := range r.Children {
				sum += c.TotalBytes
			}
			require.Equal(t, r.TotalBytes, sum, "%s/%s", name, v.ID)
		}
	}
}

func TestMemReportString(t *testing.T) {
	r := NewWT([]uint8("mississippi")).MemDetailed()
	lines := strings.Split(strings.TrimSuffix(r.String(), "\n"), "\n")
	require.Len(t, lines, 1+len(r.Children))
	require.True(t, strings.HasPrefix(lines[0], "- WT: "))
	require.True(t, strings.HasPrefix(lines[1], "  - header: "))
	require.True(t, strings.HasPrefix(lines[2], "  - level 0: "))
}
