package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"

	"github.com/AngeloSav/qwt-experiments/errutil"
)

// A cache file is laid out as
//
//	magic[4] | uint32 LE header length | CBOR header | payload
//
// The payload is the (possibly compressed) output of the artifact's
// MarshalBinary and is kept outside the CBOR item.
var magic = []byte("QWTC")

const (
	prefixSize    = 8
	maxHeaderSize = 1 << 12
)

type header struct {
	Variant     string      `cbor:"1,keyasint"`
	Compression Compression `cbor:"2,keyasint"`
	RawSize     uint64      `cbor:"3,keyasint"`
	StoredSize  uint64      `cbor:"4,keyasint"`
	// Checksum is the xxh3 of the uncompressed payload. It detects
	// corruption only; it says nothing about which input was indexed.
	Checksum uint64 `cbor:"5,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	errutil.FatalIf(err, "cache: CBOR encoder")
	decMode, err = cbor.DecOptions{MaxArrayElements: 16, MaxMapPairs: 16}.DecMode()
	errutil.FatalIf(err, "cache: CBOR decoder")
}

var (
	errBadMagic    = errors.New("cache: not a cache file")
	errBadHeader   = errors.New("cache: malformed header")
	errBadChecksum = errors.New("cache: payload checksum mismatch")
)

func encodeEnvelope(variant string, payload []byte, c Compression) ([]byte, error) {
	stored, applied, err := compress(payload, c)
	if err != nil {
		return nil, err
	}
	h := header{
		Variant:     variant,
		Compression: applied,
		RawSize:     uint64(len(payload)),
		StoredSize:  uint64(len(stored)),
		Checksum:    xxh3.Hash(payload),
	}
	hdr, err := encMode.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("cache: encoding header: %w", err)
	}
	out := make([]byte, 0, prefixSize+len(hdr)+len(stored))
	out = append(out, magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(hdr)))
	out = append(out, hdr...)
	out = append(out, stored...)
	return out, nil
}

// decodeEnvelope validates data and returns the uncompressed payload.
func decodeEnvelope(data []byte, variant string) ([]byte, header, error) {
	var h header
	if len(data) < prefixSize || !bytes.Equal(data[:len(magic)], magic) {
		return nil, h, errBadMagic
	}
	size := binary.LittleEndian.Uint32(data[len(magic):prefixSize])
	if size > maxHeaderSize || int(size) > len(data)-prefixSize {
		return nil, h, fmt.Errorf("%w: header length %d", errBadHeader, size)
	}
	rest := data[prefixSize:]
	if err := decMode.Unmarshal(rest[:size], &h); err != nil {
		return nil, h, fmt.Errorf("%w: %v", errBadHeader, err)
	}
	if h.Variant != variant {
		return nil, h, fmt.Errorf("%w: file holds %q, want %q", errBadHeader, h.Variant, variant)
	}
	stored := rest[size:]
	if h.StoredSize != uint64(len(stored)) {
		return nil, h, fmt.Errorf("%w: payload is %d bytes, header says %d", errBadHeader, len(stored), h.StoredSize)
	}
	if h.RawSize > 1<<40 {
		return nil, h, fmt.Errorf("%w: raw size %d", errBadHeader, h.RawSize)
	}
	payload, err := decompress(stored, h.Compression, int(h.RawSize))
	if err != nil {
		return nil, h, err
	}
	if xxh3.Hash(payload) != h.Checksum {
		return nil, h, errBadChecksum
	}
	return payload, h, nil
}
