// Package fetcher is the tabular data loader: it resolves data paths against a
// local directory or a remote base URL and parses the CSV and XLSX tables behind
// them into header-keyed rows.
package fetcher

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Fetcher opens a single remote or local resource.
type Fetcher interface {
	// Download opens the resource. The caller closes the body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// DownloadToFile copies a resource to path and returns the bytes written.
func DownloadToFile(ctx context.Context, f Fetcher, url, path string) (int64, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}
