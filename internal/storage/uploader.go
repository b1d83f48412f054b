package storage

import (
	"context"
	"io"
)

// ImageUploader stores an uploaded image and returns a stable public URL.
// The rest of the system treats returned URLs as opaque strings.
type ImageUploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}
