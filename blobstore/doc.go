// Package blobstore provides the storage abstraction for container files.
//
// A container is one immutable blob: written once through a WritableBlob,
// then read with random access through a Blob. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, mmap reads, staged writes renamed on Close
//   - MemoryStore: in-memory blobs
//   - CachingStore: block cache in front of any store
//   - s3.Store: Amazon S3 with range reads and streaming multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
