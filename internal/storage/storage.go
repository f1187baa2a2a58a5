package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains blob storage abstractions for uploaded images.
// Two backends exist: an S3-compatible object store (MinIO) and a local
// filesystem directory. The backend is selected once at deployment time.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a blob storage client interface. Methods use context and
// streaming readers; implementations must be safe for concurrent use and must
// never reuse a key they did not receive from the caller.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL usable to fetch the object without credentials.
	// For object stores this is a time-limited presigned URL; the local backend
	// returns a stable public path and ignores expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
