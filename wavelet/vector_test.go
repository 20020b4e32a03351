package wavelet

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"

	"github.com/AngeloSav/qwt-experiments/bits"
)

func randomSet(n int, density float32, seed int64) *bitset.BitSet {
	r := rand.New(rand.NewSource(seed))
	set := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		if r.Float32() < density {
			set.Set(uint(i))
		}
	}
	return set
}

var vectorKinds = map[string]vectorKind{"rsdic": rsdicKind, "wide": wideKind}

func TestVectorKindsAgree(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 65, 511, 512, 513, 5000} {
		for _, density := range []float32{0, 0.05, 0.5, 1} {
			set := randomSet(n, density, int64(n))
			rs, wide := rsdicKind.build(set), wideKind.build(set)
			require.Equal(t, rs.Len(), wide.Len())
			require.Equal(t, rs.Ones(), wide.Ones())
			for i := 0; i < n; i++ {
				require.Equal(t, rs.Bit(i), wide.Bit(i))
			}
			for i := 0; i <= n; i++ {
				require.Equal(t, rs.Rank1(i), wide.Rank1(i), "rank1 n=%d i=%d", n, i)
				require.Equal(t, rs.Rank0(i), wide.Rank0(i), "rank0 n=%d i=%d", n, i)
			}
			for k := 0; k <= n+1; k++ {
				p1, ok1 := rs.Select1(k)
				q1, okq1 := wide.Select1(k)
				require.Equal(t, ok1, okq1)
				require.Equal(t, p1, q1, "select1 n=%d k=%d", n, k)
				p0, ok0 := rs.Select0(k)
				q0, okq0 := wide.Select0(k)
				require.Equal(t, ok0, okq0)
				require.Equal(t, p0, q0, "select0 n=%d k=%d", n, k)
			}
		}
	}
}

func TestVectorKindsRoundTrip(t *testing.T) {
	for name, kind := range vectorKinds {
		t.Run(name, func(t *testing.T) {
			v := kind.build(randomSet(3000, 0.3, 1))
			buf, err := v.appendBinary(nil)
			require.NoError(t, err)

			r := bits.NewReader(buf)
			got := kind.read(r)
			require.NoError(t, r.Close())
			require.Equal(t, v.Len(), got.Len())
			for i := 0; i <= v.Len(); i += 7 {
				require.Equal(t, v.Rank1(i), got.Rank1(i))
			}
		})
	}
}

func benchmarkVector(b *testing.B, kind vectorKind, size int, op func(v bitVector, i int)) {
	v := kind.build(randomSet(size, 0.3, 42))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		op(v, i)
	}
}

func BenchmarkVectorRank(b *testing.B) {
	for _, size := range []int{1_000, 100_000, 1_000_000} {
		for name, kind := range vectorKinds {
			b.Run(fmt.Sprintf("%s/%d", name, size), func(b *testing.B) {
				benchmarkVector(b, kind, size, func(v bitVector, i int) { v.Rank1(i % size) })
			})
		}
	}
}

func BenchmarkVectorSelect(b *testing.B) {
	for _, size := range []int{1_000, 100_000, 1_000_000} {
		for name, kind := range vectorKinds {
			b.Run(fmt.Sprintf("%s/%d", name, size), func(b *testing.B) {
				benchmarkVector(b, kind, size, func(v bitVector, i int) { v.Select1(i%v.Ones() + 1) })
			})
		}
	}
}
