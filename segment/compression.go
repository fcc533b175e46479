package segment

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression algorithm for segment sections.
type Compression uint8

const (
	// CompressionNone stores sections uncompressed (still block-framed).
	CompressionNone Compression = 0
	// CompressionLZ4 is fast with moderate ratios; the default for local
	// catalogs where decode speed dominates.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades decode speed for ratio; preferred for
	// catalogs served from object storage.
	CompressionZSTD Compression = 2
)

const (
	blockHeaderSize  = 8
	defaultBlockSize = 256 * 1024
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compressBlock frames one block as
// [uncompressedSize u32][compressedSize u32][payload...].
// compressedSize == 0 marks a raw payload; incompressible blocks
// (ratio > 0.9) are stored raw.
func compressBlock(data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	var err error

	switch c {
	case CompressionLZ4:
		compressed, err = compressBlockLZ4(data)
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	case CompressionNone:
		// fall through to raw framing
	default:
		return nil, errors.New("segment: unknown compression type")
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func compressBlockLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	buf := make([]byte, bound)
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return buf[:n], nil
}

// compressAll frames data as a sequence of compressed blocks.
func compressAll(data []byte, c Compression, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	var out []byte
	for len(data) > 0 {
		n := min(len(data), blockSize)
		block, err := compressBlock(data[:n], c)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		data = data[n:]
	}
	return out, nil
}

// decompressAll decodes a sequence of compressed blocks back into the
// original section payload.
func decompressAll(data []byte, c Compression) ([]byte, error) {
	var out []byte
	for len(data) > 0 {
		if len(data) < blockHeaderSize {
			return nil, errors.New("segment: block too small for header")
		}
		uncompressedSize := binary.LittleEndian.Uint32(data[0:])
		compressedSize := binary.LittleEndian.Uint32(data[4:])
		data = data[blockHeaderSize:]

		if compressedSize == 0 {
			if uint32(len(data)) < uncompressedSize {
				return nil, errors.New("segment: raw block extends beyond data")
			}
			out = append(out, data[:uncompressedSize]...)
			data = data[uncompressedSize:]
			continue
		}

		if uint32(len(data)) < compressedSize {
			return nil, errors.New("segment: compressed block extends beyond data")
		}
		payload := data[:compressedSize]
		data = data[compressedSize:]

		block := make([]byte, uncompressedSize)
		switch c {
		case CompressionZSTD:
			dec := getZstdDecoder()
			decoded, err := dec.DecodeAll(payload, block[:0])
			putZstdDecoder(dec)
			if err != nil {
				return nil, err
			}
			if uint32(len(decoded)) != uncompressedSize {
				return nil, errors.New("segment: decompressed size mismatch")
			}
			out = append(out, decoded...)
		case CompressionLZ4:
			n, err := lz4.UncompressBlock(payload, block)
			if err != nil {
				return nil, err
			}
			if uint32(n) != uncompressedSize {
				return nil, errors.New("segment: decompressed size mismatch")
			}
			out = append(out, block...)
		default:
			return nil, errors.New("segment: compressed block with unknown compression type")
		}
	}
	return out, nil
}

// readAllFrom drains r, for section reads through blobstore.ReadRange.
func readAllFrom(r io.ReadCloser) ([]byte, error) {
	defer r.Close()
	return io.ReadAll(r)
}
