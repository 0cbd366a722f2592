package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/conceptspace"
	"github.com/hupe1980/conceptspace/blobstore"
	"github.com/hupe1980/conceptspace/codec"
	"github.com/hupe1980/conceptspace/resource"
)

// maxRawLength bounds the decompression buffer a header may request.
const maxRawLength = 1 << 32

// Extension is the file extension used by NameFor.
const Extension = ".snap"

// Options configures encoding and IO.
type Options struct {
	// Codec encodes the state. Default: codec.Default (go-json).
	Codec codec.Codec
	// Compression of the payload. Default: zstd.
	Compression Compression
	// Controller throttles blob IO. Nil means unlimited.
	Controller *resource.Controller
	// Logger receives debug records for saves and loads. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Codec:       codec.Default,
		Compression: CompressionZSTD,
	}
}

func buildOptions(optFns []func(*Options)) Options {
	o := DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Encode serializes st.
func Encode(st *conceptspace.State, optFns ...func(*Options)) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("snapshot: %w: nil state", conceptspace.ErrInvalidArgument)
	}
	o := buildOptions(optFns)

	raw, err := o.Codec.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode with %s: %w", o.Codec.Name(), err)
	}

	payload, used, err := compress(raw, o.Compression)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:       FormatVersion,
		Compression:   used,
		Codec:         o.Codec.Name(),
		Checksum:      crc32.ChecksumIEEE(raw),
		RawLength:     uint64(len(raw)),
		PayloadLength: uint64(len(payload)),
	}

	out := make([]byte, 0, h.Size()+len(payload))
	out, err = h.appendTo(out)
	if err != nil {
		return nil, err
	}
	return append(out, payload...), nil
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) (*conceptspace.State, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}
	if h.RawLength > maxRawLength {
		return nil, fmt.Errorf("snapshot: raw length %d exceeds limit", h.RawLength)
	}

	body := data[h.Size():]
	if uint64(len(body)) < h.PayloadLength {
		return nil, fmt.Errorf("%w: payload has %d of %d bytes", ErrTruncated, len(body), h.PayloadLength)
	}

	raw, err := decompress(body[:h.PayloadLength], h.Compression, h.RawLength)
	if err != nil {
		return nil, err
	}
	if uint64(len(raw)) != h.RawLength {
		return nil, fmt.Errorf("%w: decompressed %d of %d bytes", ErrTruncated, len(raw), h.RawLength)
	}
	if sum := crc32.ChecksumIEEE(raw); sum != h.Checksum {
		return nil, &ChecksumMismatchError{Expected: h.Checksum, Actual: sum}
	}

	var st conceptspace.State
	if err := c.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("snapshot: decode with %s: %w", h.Codec, err)
	}
	return &st, nil
}

// Save encodes st and writes it to store under name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, st *conceptspace.State, optFns ...func(*Options)) error {
	o := buildOptions(optFns)
	start := time.Now()

	data, err := Encode(st, func(e *Options) { *e = o })
	if err != nil {
		return err
	}

	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", name, err)
	}

	if _, err := io.Copy(resource.NewRateLimitedWriter(ctx, w, o.Controller), bytes.NewReader(data)); err != nil {
		abort(w)
		return fmt.Errorf("snapshot: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot: commit %s: %w", name, err)
	}

	o.Logger.DebugContext(ctx, "snapshot saved",
		slog.String("name", name),
		slog.Int("bytes", len(data)),
		slog.String("codec", o.Codec.Name()),
		slog.String("compression", o.Compression.String()),
		slog.Int("points", len(st.Points)),
		slog.Int("regions", len(st.Regions)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func abort(w blobstore.WritableBlob) {
	if a, ok := w.(blobstore.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = w.Close()
}

// Load reads and decodes the snapshot stored under name.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(*Options)) (*conceptspace.State, error) {
	o := buildOptions(optFns)
	start := time.Now()

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	if blob.Size() < headerSize {
		return nil, fmt.Errorf("snapshot: %s: %w", name, ErrTruncated)
	}

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(resource.NewRateLimitedReader(ctx, rc, o.Controller))
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}

	st, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", name, err)
	}

	o.Logger.DebugContext(ctx, "snapshot loaded",
		slog.String("name", name),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)
	return st, nil
}

// Restore loads the snapshot under name and rebuilds the space from it.
func Restore(ctx context.Context, store blobstore.BlobStore, name string, spaceOpts []conceptspace.Option, optFns ...func(*Options)) (*conceptspace.Space, error) {
	st, err := Load(ctx, store, name, optFns...)
	if err != nil {
		return nil, err
	}
	return conceptspace.Restore(ctx, st, spaceOpts...)
}

// NameFor returns "<space id>/<unix nanos>.snap". Names of one space sort in
// creation order.
func NameFor(id uuid.UUID, t time.Time) string {
	return fmt.Sprintf("%s/%020d%s", id, t.UnixNano(), Extension)
}

// ErrNoSnapshot is returned by Latest when no snapshot exists under the prefix.
var ErrNoSnapshot = errors.New("snapshot: no snapshot found")

// Latest returns the greatest snapshot name below prefix.
func Latest(ctx context.Context, store blobstore.BlobStore, prefix string) (string, error) {
	names, err := snapshots(ctx, store, prefix)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoSnapshot
	}
	return names[len(names)-1], nil
}

// Prune deletes all but the newest keep snapshots below prefix and returns
// the deleted names.
func Prune(ctx context.Context, store blobstore.BlobStore, prefix string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("snapshot: %w: keep %d", conceptspace.ErrInvalidArgument, keep)
	}
	names, err := snapshots(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	if len(names) <= keep {
		return nil, nil
	}

	stale := names[:len(names)-keep]
	for _, name := range stale {
		if err := store.Delete(ctx, name); err != nil {
			return nil, fmt.Errorf("snapshot: delete %s: %w", name, err)
		}
	}
	return stale, nil
}

func snapshots(ctx context.Context, store blobstore.BlobStore, prefix string) ([]string, error) {
	all, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list %s: %w", prefix, err)
	}
	out := all[:0]
	for _, name := range all {
		if strings.HasSuffix(name, Extension) {
			out = append(out, name)
		}
	}
	return out, nil
}
