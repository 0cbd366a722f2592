package snapshot

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compress returns the stored payload and the compression actually used.
// Incompressible lz4 input is stored uncompressed.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			return raw, CompressionNone, nil
		}
		return buf[:n], CompressionLZ4, nil
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), CompressionZSTD, nil
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}

func decompress(payload []byte, c Compression, rawLen uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot: lz4: %w", err)
		}
		return raw[:n], nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		raw, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("snapshot: zstd: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
