// Package storage abstracts file persistence behind the Store interface,
// with local-disk and Cloudflare R2 implementations.
package storage

import (
	"context"
	"io"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store is the file persistence contract used by the upload handler.
type Store interface {
	// Save writes the file at the given path and returns its metadata.
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)
	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for a stored path.
	URL(path string) string
}
