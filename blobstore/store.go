package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = os.ErrNotExist

// BlobStore stores named blobs.
type BlobStore interface {
	// Open opens a blob for reading. Missing blobs return ErrNotFound.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts a streaming write. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a readable blob.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	Size() int64
	io.Closer
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Aborter is implemented by writable blobs that can discard an unfinished write.
type Aborter interface {
	Abort() error
}

// ReadAll reads the whole blob.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	size := b.Size()
	if size == 0 {
		return []byte{}, nil
	}
	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("blobstore: short read: got %d of %d bytes", len(data), size)
	}
	return data, nil
}
