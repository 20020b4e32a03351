package cache

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/AngeloSav/qwt-experiments/errutil"
)

// Compression identifies how the payload of a cache file is stored.
// Values are written to disk; do not renumber.
type Compression uint8

const (
	CompressionNone Compression = 0
	// CompressionLZ4 is LZ4 block mode.
	CompressionLZ4 Compression = 1
	// CompressionZstd is zstd at the default level.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown cache compression %q", name)
	}
}

var errIncompressible = errors.New("cache: payload is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	errutil.FatalIf(err, "cache: zstd encoder")
	zstdDecoder, err = zstd.NewReader(nil)
	errutil.FatalIf(err, "cache: zstd decoder")
}

// compress returns the stored form of data and the compression actually
// applied. Payloads that do not shrink are stored uncompressed.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(data)
	case CompressionZstd:
		out, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported cache compression %v", c)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, c, nil
}

func decompress(stored []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != rawSize {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match expected %d", len(stored), rawSize)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, rawSize)
	case CompressionZstd:
		return decompressZstd(stored, rawSize)
	default:
		return nil, fmt.Errorf("unsupported cache compression %v", c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return dst[:written], nil
}

func decompressLZ4(stored []byte, rawSize int) ([]byte, error) {
	// LZ4 cannot expand input by more than 255x.
	if rawSize > 255*len(stored)+16 {
		return nil, fmt.Errorf("lz4 decompress: %d bytes cannot expand to %d", len(stored), rawSize)
	}
	dst := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(stored, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func decompressZstd(stored []byte, rawSize int) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(stored, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), rawSize)
	}
	return out, nil
}
