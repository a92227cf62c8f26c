package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// FileFetcher opens resources on the local filesystem. Both plain paths and
// file:// URLs are accepted.
type FileFetcher struct{}

// Download opens the file at path.
func (FileFetcher) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "file: context cancelled")
	}
	if strings.HasPrefix(path, "file://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, eris.Wrap(err, "file: parse url")
		}
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "file: open %s", path)
	}
	return f, nil
}
