// Package geo loads London borough boundaries and annotates them with crime
// rates for the map surface.
package geo

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/fetcher"
)

// NameProperty is the feature property holding the borough name.
const NameProperty = "neighbourhood"

// shapefile attribute names tried in order; dBASE truncates to 10 characters.
var nameFields = []string{"neighbourh", "name", "lad22nm", "borough"}

// Boundaries is a feature collection with one feature per borough.
type Boundaries struct {
	FC *geojson.FeatureCollection
}

// LoadBoundaries reads a GeoJSON file, a shapefile, or a ZIP archive holding
// a shapefile.
func LoadBoundaries(path string) (*Boundaries, error) {
	var (
		b   *Boundaries
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		b, err = readGeoJSON(path)
	case ".shp":
		b, err = readShapefile(path)
	case ".zip":
		b, err = readZippedShapefile(path)
	default:
		return nil, eris.Errorf("geo: unsupported boundary file %s", path)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geo: boundaries loaded",
		zap.String("path", path),
		zap.Int("features", len(b.FC.Features)),
	)
	return b, nil
}

func readGeoJSON(path string) (*Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geo: parse %s", path)
	}
	return &Boundaries{FC: &fc}, nil
}

func readZippedShapefile(path string) (*Boundaries, error) {
	dir, err := os.MkdirTemp("", "crimemap-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create extract dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	files, err := fetcher.ExtractZIP(path, dir)
	if err != nil {
		return nil, eris.Wrap(err, "geo: extract boundaries")
	}
	shpPath, ok := fetcher.FindByExt(files, ".shp")
	if !ok {
		return nil, eris.Errorf("geo: no .shp file in %s", path)
	}
	return readShapefile(shpPath)
}

// Names returns the borough names of the features in order.
func (b *Boundaries) Names() []string {
	names := make([]string, 0, len(b.FC.Features))
	for _, f := range b.FC.Features {
		if n := FeatureName(f); n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// FeatureName returns a feature's borough name, or "" when it has none.
func FeatureName(f *geojson.Feature) string {
	if f == nil || f.Properties == nil {
		return ""
	}
	s, _ := f.Properties[NameProperty].(string)
	return s
}

// Annotate returns a copy of the collection whose features carry
// "crime_rate" and "has_data". Boroughs without a rate get a null rate.
func (b *Boundaries) Annotate(rates map[string]float64) *geojson.FeatureCollection {
	out := &geojson.FeatureCollection{
		BBox:     b.FC.BBox,
		Features: make([]*geojson.Feature, 0, len(b.FC.Features)),
	}
	for _, f := range b.FC.Features {
		props := make(map[string]interface{}, len(f.Properties)+2)
		for k, v := range f.Properties {
			props[k] = v
		}
		rate, ok := rates[FeatureName(f)]
		props["has_data"] = ok
		if ok {
			props["crime_rate"] = rate
		} else {
			props["crime_rate"] = nil
		}
		out.Features = append(out.Features, &geojson.Feature{
			ID:         f.ID,
			BBox:       f.BBox,
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return out
}

// WriteGeoJSON encodes the collection.
func (b *Boundaries) WriteGeoJSON(w io.Writer) error {
	data, err := json.Marshal(b.FC)
	if err != nil {
		return eris.Wrap(err, "geo: encode geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geo: write geojson")
	}
	return nil
}
