// Package snapshot persists conceptspace.State values to a blobstore.
//
// A snapshot is a fixed 32-byte little-endian header, the codec name and the
// (optionally compressed) encoded state:
//
//	Magic           (4 bytes) - 0x50534343 ("CCSP")
//	FormatVersion   (4 bytes)
//	Compression     (1 byte)  - 0=none, 1=lz4, 2=zstd
//	CodecNameLength (1 byte)
//	Reserved        (2 bytes)
//	Checksum        (4 bytes) - CRC32 (IEEE) of the uncompressed payload
//	RawLength       (8 bytes) - uncompressed payload length
//	PayloadLength   (8 bytes) - stored payload length
//	CodecName       (CodecNameLength bytes)
//	Payload         (PayloadLength bytes)
//
// The header is self-describing: Decode selects the codec and decompressor from
// it, so snapshots written with any built-in codec and compression can be read
// back without configuration.
package snapshot
