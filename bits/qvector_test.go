package bits

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomDigits(r *rand.Rand, n int) []uint8 {
	ds := make([]uint8, n)
	for i := range ds {
		ds[i] = uint8(r.Intn(4))
	}
	return ds
}

func checkQVector(t *testing.T, digits []uint8, q *QVector) {
	t.Helper()
	require.Equal(t, len(digits), q.Len())
	var seen [4]int
	for i, d := range digits {
		require.Equal(t, d, q.Get(i), "Get(%d)", i)
		for s := uint8(0); s < 4; s++ {
			require.Equal(t, seen[s], q.Rank(s, i), "Rank(%d, %d)", s, i)
		}
		seen[d]++
		pos, ok := q.Select(d, seen[d])
		require.True(t, ok)
		require.Equal(t, i, pos, "Select(%d, %d)", d, seen[d])
	}
	for s := uint8(0); s < 4; s++ {
		require.Equal(t, seen[s], q.Rank(s, len(digits)))
		require.Equal(t, seen[s], q.Count(s))
		_, ok := q.Select(s, seen[s]+1)
		require.False(t, ok)
	}
}

func TestQVector(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, blockSize := range []int{32, 256, 512} {
		for _, n := range []int{0, 1, 31, 32, 33, 255, 256, 257, 1000, 3000} {
			digits := randomDigits(r, n)
			checkQVector(t, digits, NewQVector(digits, blockSize))
		}
	}
}

func TestQVectorSkewed(t *testing.T) {
	digits := make([]uint8, 700)
	for i := range digits {
		if i%97 == 0 {
			digits[i] = 3
		}
	}
	checkQVector(t, digits, NewQVector(digits, 256))
}

func TestQVectorRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	digits := randomDigits(r, 1234)
	q := NewQVector(digits, 512)

	reader := NewReader(q.AppendBinary(nil))
	decoded := ReadQVector(reader)
	require.NoError(t, reader.Close())
	require.Equal(t, 512, decoded.BlockSize())
	checkQVector(t, digits, decoded)
}

func TestQVectorBadBlockSize(t *testing.T) {
	require.Panics(t, func() { NewQVector([]uint8{1, 2}, 100) })

	buf := AppendUint64(nil, 2)
	buf = AppendUint64(buf, 100)
	buf = AppendUint64s(buf, []uint64{9})
	reader := NewReader(buf)
	require.Nil(t, ReadQVector(reader))
	require.ErrorIs(t, reader.Close(), errQVectorBlock)
}

func BenchmarkQVector_Rank(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	size := 1_000_000
	for _, blockSize := range []int{256, 512} {
		q := NewQVector(randomDigits(r, size), blockSize)
		b.Run(fmt.Sprintf("BlockSize=%d", blockSize), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				q.Rank(uint8(i&3), i%size)
			}
		})
	}
}
