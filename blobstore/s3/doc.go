// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "physics-data",
//	    s3.WithPrefix("runs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	f, err := hepio.CreateBlob(ctx, store, "testevents.root")
//
// # Features
//
//   - Ranged GETs for tree baskets and keys
//   - Streaming multipart uploads while a container is written
//   - CRC32C checksums on uploads
//   - Automatic pagination for listing
package s3
