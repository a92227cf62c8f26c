package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/model"
)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	HTTP    HTTPOptions
	FTP     FTPOptions
	CSV     CSVOptions
	TempDir string // scratch space for remote spreadsheets and archives
}

// Loader resolves data paths such as "crime_data/other_crime_data_2015.csv"
// against a base that is a local directory, an http(s) URL or an ftp URL.
type Loader struct {
	base    string
	remote  bool
	fetcher Fetcher
	csv     CSVOptions
	tempDir string
}

// NewLoader picks the fetcher matching the base's scheme.
func NewLoader(base string, opts LoaderOptions) (*Loader, error) {
	if base == "" {
		return nil, eris.New("fetcher: empty data base")
	}
	l := &Loader{base: base, csv: opts.CSV, tempDir: opts.TempDir}

	scheme := ""
	if i := strings.Index(base, "://"); i > 0 {
		scheme = strings.ToLower(base[:i])
	}
	switch scheme {
	case "":
		l.fetcher = FileFetcher{}
	case "file":
		u, err := url.Parse(base)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: parse data base")
		}
		l.base = u.Path
		l.fetcher = FileFetcher{}
	case "http", "https":
		l.remote = true
		l.fetcher = NewHTTPFetcher(opts.HTTP)
	case "ftp":
		l.remote = true
		l.fetcher = NewFTPFetcher(opts.FTP)
	default:
		return nil, eris.Errorf("fetcher: unsupported data base scheme %q", scheme)
	}
	return l, nil
}

// Base returns the directory or URL paths are resolved against.
func (l *Loader) Base() string {
	return l.base
}

// Resolve joins a slash-separated data path onto the base.
func (l *Loader) Resolve(rel string) string {
	if l.remote {
		joined, err := url.JoinPath(l.base, rel)
		if err != nil {
			return strings.TrimRight(l.base, "/") + "/" + strings.TrimLeft(rel, "/")
		}
		return joined
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.base, filepath.FromSlash(rel))
}

// Open returns the raw bytes behind a data path.
func (l *Loader) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	return l.fetcher.Download(ctx, l.Resolve(rel))
}

// LocalCopy returns a filesystem path for a data path, downloading remote
// resources into a scratch directory. The cleanup func removes that copy.
func (l *Loader) LocalCopy(ctx context.Context, rel string) (string, func(), error) {
	if !l.remote {
		return l.Resolve(rel), func() {}, nil
	}
	dir, err := os.MkdirTemp(l.tempDir, "crimemap-*")
	if err != nil {
		return "", func() {}, eris.Wrap(err, "fetcher: create scratch dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	local := filepath.Join(dir, path.Base(rel))
	if _, err := DownloadToFile(ctx, l.fetcher, l.Resolve(rel), local); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return local, cleanup, nil
}

// Load reads the table at a data path. ".xlsx" paths are read as
// spreadsheets, everything else as UTF-8 CSV with a header row.
func (l *Loader) Load(ctx context.Context, rel string) ([]model.Row, error) {
	start := time.Now()

	var rows []model.Row
	var err error
	if strings.EqualFold(path.Ext(rel), ".xlsx") {
		rows, err = l.loadXLSX(ctx, rel)
	} else {
		rows, err = l.loadCSV(ctx, rel)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: load %s", rel)
	}

	zap.L().Debug("fetcher: table loaded",
		zap.String("path", rel),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

func (l *Loader) loadCSV(ctx context.Context, rel string) ([]model.Row, error) {
	body, err := l.Open(ctx, rel)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return ReadRows(ctx, body, l.csv)
}

func (l *Loader) loadXLSX(ctx context.Context, rel string) ([]model.Row, error) {
	local, cleanup, err := l.LocalCopy(ctx, rel)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return ReadXLSXRows(local, XLSXOptions{})
}
