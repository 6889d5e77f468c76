package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for retrieving a source file.
type Fetcher interface {
	// Download opens the location and returns its body.
	Download(ctx context.Context, location string) (io.ReadCloser, error)

	// DownloadToFile copies the location to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, location string, path string) (int64, error)
}
