// Package minio stores snapshots in MinIO or any S3-compatible service through
// the minio-go client.
package minio
