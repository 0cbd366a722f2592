package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	// Magic identifies snapshot blobs (ASCII: "CCSP").
	Magic = 0x50534343
	// FormatVersion is the current header layout version.
	FormatVersion = 1

	headerSize = 32
)

var (
	ErrInvalidMagic       = errors.New("snapshot: invalid magic number")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")
	ErrUnknownCodec       = errors.New("snapshot: unknown codec")
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
	ErrTruncated          = errors.New("snapshot: truncated data")
)

// ChecksumMismatchError is returned when the payload checksum does not match.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Compression selects the payload compression.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(b []byte) error {
	v, err := ParseCompression(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Header describes a snapshot.
type Header struct {
	Version       uint32
	Compression   Compression
	Codec         string
	Checksum      uint32
	RawLength     uint64
	PayloadLength uint64
}

// Size returns the encoded header length including the codec name.
func (h *Header) Size() int { return headerSize + len(h.Codec) }

func (h *Header) appendTo(dst []byte) ([]byte, error) {
	if len(h.Codec) == 0 || len(h.Codec) > 255 {
		return nil, fmt.Errorf("%w: name length %d", ErrUnknownCodec, len(h.Codec))
	}
	dst = binary.LittleEndian.AppendUint32(dst, Magic)
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = append(dst, byte(h.Compression), byte(len(h.Codec)), 0, 0)
	dst = binary.LittleEndian.AppendUint32(dst, h.Checksum)
	dst = binary.LittleEndian.AppendUint64(dst, h.RawLength)
	dst = binary.LittleEndian.AppendUint64(dst, h.PayloadLength)
	return append(dst, h.Codec...), nil
}

// ReadHeader parses the header at the start of data.
func ReadHeader(data []byte) (*Header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d header bytes", ErrTruncated, len(data))
	}
	if m := binary.LittleEndian.Uint32(data[0:4]); m != Magic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, m)
	}

	h := &Header{
		Version:       binary.LittleEndian.Uint32(data[4:8]),
		Compression:   Compression(data[8]),
		Checksum:      binary.LittleEndian.Uint32(data[12:16]),
		RawLength:     binary.LittleEndian.Uint64(data[16:24]),
		PayloadLength: binary.LittleEndian.Uint64(data[24:32]),
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Compression > CompressionZSTD {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, data[8])
	}

	n := int(data[9])
	if len(data) < headerSize+n {
		return nil, fmt.Errorf("%w: codec name", ErrTruncated)
	}
	h.Codec = string(data[headerSize : headerSize+n])
	return h, nil
}
