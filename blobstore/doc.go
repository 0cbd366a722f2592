// Package blobstore provides the storage abstraction snapshots are written to.
//
// BlobStore reads and writes named, immutable blobs. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and short-lived spaces
//   - LocalStore: local filesystem with atomic rename on commit
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Streaming write, committed on Close
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
