package fetcher

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// FileFetcher reads source files from the local filesystem.
type FileFetcher struct{}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Download opens the file at a plain path or file:// URL.
func (f *FileFetcher) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "file: context cancelled")
	}
	file, err := os.Open(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, eris.Wrap(err, "file: open")
	}
	return file, nil
}

// DownloadToFile copies the file to path.
func (f *FileFetcher) DownloadToFile(ctx context.Context, location string, path string) (int64, error) {
	rc, err := f.Download(ctx, location)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	return writeFile(path, rc)
}
