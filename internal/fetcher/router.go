package fetcher

import (
	"context"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// RouterOptions configures the fetchers behind a Router.
type RouterOptions struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// Router implements Fetcher by dispatching on the location's scheme:
// http(s) to HTTP, ftp to FTP, and plain paths or file:// to the filesystem.
type Router struct {
	HTTP Fetcher
	FTP  Fetcher
	File Fetcher
}

// NewRouter creates a Router with the default fetcher for each scheme.
func NewRouter(opts RouterOptions) *Router {
	return &Router{
		HTTP: NewHTTPFetcher(opts.HTTP),
		FTP:  NewFTPFetcher(opts.FTP),
		File: NewFileFetcher(),
	}
}

func (r *Router) fetcherFor(location string) (Fetcher, error) {
	switch scheme(location) {
	case "http", "https":
		return r.HTTP, nil
	case "ftp":
		return r.FTP, nil
	case "", "file":
		return r.File, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme in %q", location)
	}
}

// Download opens the location with the fetcher for its scheme.
func (r *Router) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	f, err := r.fetcherFor(location)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, location)
}

// DownloadToFile copies the location to path with the fetcher for its scheme.
func (r *Router) DownloadToFile(ctx context.Context, location string, path string) (int64, error) {
	f, err := r.fetcherFor(location)
	if err != nil {
		return 0, err
	}
	return f.DownloadToFile(ctx, location, path)
}

// Resolve joins a file name onto a source base (directory or URL). A name that
// is already an absolute path or a URL is returned unchanged.
func Resolve(source, name string) string {
	if scheme(name) != "" || filepath.IsAbs(name) {
		return name
	}
	switch scheme(source) {
	case "http", "https", "ftp":
		u, err := url.Parse(source)
		if err != nil {
			return source + "/" + name
		}
		u.Path = path.Join("/", u.Path, name)
		return u.String()
	case "file":
		return filepath.Join(strings.TrimPrefix(source, "file://"), name)
	}
	return filepath.Join(source, name)
}

// scheme returns the lowercased URL scheme, or "" for plain paths.
func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}
