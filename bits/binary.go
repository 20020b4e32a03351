package bits

import (
	"encoding/binary"
	"errors"
	"math"
)

// All values are LittleEndian. Slices are written as a uint64 length
// followed by the elements.

var (
	errShortData    = errors.New("bits: data too short")
	errTrailingData = errors.New("bits: trailing data after successful deserialization")
	errBadLength    = errors.New("bits: length exceeds remaining data")
)

func AppendUint64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

func AppendUint64s(buf []byte, vs []uint64) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(vs)))
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return buf
}

func AppendBytes(buf []byte, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(b)))
	return append(buf, b...)
}

// Reader decodes what the Append helpers write. The first failure is
// sticky: later reads return zero values and Err reports it.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) Byte() byte {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 1 {
		r.err = errShortData
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *Reader) Uint64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 8 {
		r.err = errShortData
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

// Int reads a uint64 that must fit in a non-negative int.
func (r *Reader) Int() int {
	v := r.Uint64()
	if v > math.MaxInt {
		r.fail(errBadLength)
		return 0
	}
	return int(v)
}

func (r *Reader) Uint64s() []uint64 {
	n := r.Int()
	if r.err != nil {
		return nil
	}
	if n > r.remaining()/8 {
		r.err = errBadLength
		return nil
	}
	vs := make([]uint64, n)
	for i := range vs {
		vs[i] = binary.LittleEndian.Uint64(r.data[r.off:])
		r.off += 8
	}
	return vs
}

// Bytes returns a length-prefixed byte slice. The result aliases the
// underlying data.
func (r *Reader) Bytes() []byte {
	n := r.Int()
	if r.err != nil {
		return nil
	}
	if n > r.remaining() {
		r.err = errBadLength
		return nil
	}
	b := r.data[r.off : r.off+n : r.off+n]
	r.off += n
	return b
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Fail records a validation error found by the caller.
func (r *Reader) Fail(err error) {
	r.fail(err)
}

func (r *Reader) Err() error {
	return r.err
}

// Close returns the first error, or an error if bytes are left over.
func (r *Reader) Close() error {
	if r.err != nil {
		return r.err
	}
	if r.remaining() != 0 {
		return errTrailingData
	}
	return nil
}
