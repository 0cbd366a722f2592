// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("spaces/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = snapshot.Save(ctx, store, "colors.snap", space.Export())
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large snapshots
//   - CRC32C integrity checksums on upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
