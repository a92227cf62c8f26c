package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crimemap/internal/model"
)

func writeDataFile(t *testing.T, base, rel, content string) {
	t.Helper()
	p := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestNewLoader_Schemes(t *testing.T) {
	tests := []struct {
		base    string
		remote  bool
		wantErr bool
	}{
		{base: "data", remote: false},
		{base: "/srv/data", remote: false},
		{base: "file:///srv/data", remote: false},
		{base: "https://example.org/london", remote: true},
		{base: "http://example.org/london", remote: true},
		{base: "ftp://ftp.example.org/london", remote: true},
		{base: "s3://bucket/london", wantErr: true},
		{base: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			l, err := NewLoader(tt.base, LoaderOptions{})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.remote, l.remote)
		})
	}
}

func TestLoader_Resolve(t *testing.T) {
	local, err := NewLoader("data", LoaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "crime_data", "other_crime_data_2015.csv"),
		local.Resolve(model.CrimePath(2015)))

	fileURL, err := NewLoader("file:///srv/data", LoaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/data", "population_data", "population_data_2020.csv"),
		fileURL.Resolve(model.PopulationPath(2020)))

	remote, err := NewLoader("https://example.org/london/", LoaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/london/socioeconomic_data/unemployment_data_2015-2024.csv",
		remote.Resolve(model.SocioeconomicPath("unemployment")))
}

func TestLoader_LoadLocalCSV(t *testing.T) {
	base := t.TempDir()
	writeDataFile(t, base, model.PopulationPath(2024), "Area name,GLA Population estimate/ projection\nCamden,\"218,049\"\n")

	l, err := NewLoader(base, LoaderOptions{})
	require.NoError(t, err)

	rows, err := l.Load(context.Background(), model.PopulationPath(2024))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "218,049", rows[0][model.ColPopulation])
}

func TestLoader_LoadMissingFile(t *testing.T) {
	l, err := NewLoader(t.TempDir(), LoaderOptions{})
	require.NoError(t, err)

	_, err = l.Load(context.Background(), model.CrimePath(2015))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: load crime_data/other_crime_data_2015.csv")
}

func TestLoader_LoadLocalXLSX(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "socioeconomic_data"), 0o755))
	src := createTestXLSX(t, t.TempDir(), map[string][][]string{
		"Sheet1": {{"Area name", "2024"}, {"Camden", "4.9"}},
	})
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	writeDataFile(t, base, "socioeconomic_data/unemployment.xlsx", string(data))

	l, err := NewLoader(base, LoaderOptions{})
	require.NoError(t, err)

	rows, err := l.Load(context.Background(), "socioeconomic_data/unemployment.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []model.Row{{"Area name": "Camden", "2024": "4.9"}}, rows)
}

func TestLoader_LoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/london/crime_data/other_crime_data_2015.csv":
			_, _ = w.Write([]byte("Area Type,Borough_SNT,Crime Subtype,Count\nBorough,Camden,Burglary,3\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l, err := NewLoader(srv.URL+"/london", LoaderOptions{HTTP: HTTPOptions{RetryBackoff: time.Millisecond}})
	require.NoError(t, err)

	rows, err := l.Load(context.Background(), model.CrimePath(2015))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Camden", rows[0][model.ColBorough])

	_, err = l.Load(context.Background(), model.CrimePath(2016))
	require.Error(t, err)
}

func TestLoader_LocalCopyRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	scratch := t.TempDir()
	l, err := NewLoader(srv.URL, LoaderOptions{TempDir: scratch})
	require.NoError(t, err)

	local, cleanup, err := l.LocalCopy(context.Background(), "boundaries/london.zip")
	require.NoError(t, err)
	assert.Equal(t, "london.zip", filepath.Base(local))
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	cleanup()
	_, err = os.Stat(local)
	assert.True(t, os.IsNotExist(err))
}

func TestFileFetcher_FileURL(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(p, []byte("a\n"), 0o644))

	rc, err := FileFetcher{}.Download(context.Background(), "file://"+p)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}
