// Package storage keeps uploaded document and cover image objects in one
// bucket of S3, MinIO or Google Cloud Storage and hands out short-lived
// signed download links.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"time"
)

var (
	ErrMissingBucket = errors.New("storage: bucket is required")
	ErrMissingSigner = errors.New("storage: signed url credentials not configured")
)

// Storage is a single-bucket object store.
type Storage interface {
	io.Closer

	// Put uploads size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL valid for expiry that serves key.
	PresignGet(ctx context.Context, key string, expiry time.Duration, opts URLOptions) (string, error)
}

// URLOptions shapes the response served through a signed URL.
type URLOptions struct {
	// Filename is suggested to the browser.
	Filename string
	// Attachment forces a download; otherwise the browser may render inline.
	Attachment bool
}

// ContentDisposition renders the header value the object store should
// answer with.
func (o URLOptions) ContentDisposition() string {
	kind := "inline"
	if o.Attachment {
		kind = "attachment"
	}
	if o.Filename == "" {
		return kind
	}
	return mime.FormatMediaType(kind, map[string]string{"filename": o.Filename})
}
