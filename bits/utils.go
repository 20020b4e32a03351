package bits

import "math/bits"

// MostSignificantBit returns the index of the most significant bit, or -1
// for zero.
func MostSignificantBit(x uint64) int {
	if x == 0 {
		return -1
	}
	return 63 - bits.LeadingZeros64(x)
}

// BitLength returns the number of bits needed to write x, at least 1.
func BitLength(x uint64) int {
	return max(1, MostSignificantBit(x)+1)
}

// selectInWord returns the index of the r-th (0-based) set bit of w.
// w must have more than r set bits.
func selectInWord(w uint64, r int) int {
	for ; r > 0; r-- {
		w &= w - 1
	}
	return bits.TrailingZeros64(w)
}

// lowMask returns a mask of the n lowest bits, n in [0, 64).
func lowMask(n uint) uint64 {
	return (uint64(1) << n) - 1
}
