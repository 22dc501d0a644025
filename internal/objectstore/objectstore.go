// Package objectstore provides signed object operations against an
// S3-compatible store. It defines the Store interface (port) consumed by the
// upload gateway, access issuer and promotion workflow, and an HTTP client
// implementation that signs every request with SigV4.
package objectstore

import (
	"context"
	"fmt"
	"time"
)

// Store defines the object operations the application needs: upload,
// presigned download, server-side copy and delete.
type Store interface {
	// Put uploads body to bucket/key with the given content type.
	// Metadata entries are attached as x-amz-meta-* headers.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error

	// PresignGet returns a signed GET URL for bucket/key valid for expiry.
	// No network I/O is performed; the caller dereferences the URL directly
	// against the object store.
	PresignGet(bucket, key string, expiry time.Duration) (string, error)

	// Copy performs a server-side copy of sourceBucket/key to destBucket/key.
	// The source object is left untouched.
	Copy(ctx context.Context, destBucket, key, sourceBucket string) error

	// Delete removes bucket/key. Deleting a nonexistent key is not an error.
	Delete(ctx context.Context, bucket, key string) error
}

// OperationError reports a non-2xx response from the object store.
// It carries the upstream status and response body for diagnostics.
type OperationError struct {
	Op         string
	Bucket     string
	Key        string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("objectstore: %s %s/%s: upstream status %d: %s",
		e.Op, e.Bucket, e.Key, e.StatusCode, e.Body)
}
