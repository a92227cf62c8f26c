// Package chart renders per-borough crime rate trends with gonum plot.
package chart

import (
	"image/color"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/rank"
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 4.5 * vg.Inch
)

var lineColor = color.RGBA{R: 0xef, G: 0x3b, B: 0x2c, A: 0xff}

// Source exposes the loaded years of crime data.
type Source interface {
	Snapshot(year int) (*model.YearlySnapshot, error)
	Trend(borough string) map[int]float64
}

// Point is one year of a borough trend.
type Point struct {
	Year int
	Rate float64
	Rank rank.DisplayRank
}

// Trend collects the crime rate and rank of borough for every loaded year
// in which it was recorded, oldest first.
func Trend(src Source, borough string) ([]Point, error) {
	rates := src.Trend(borough)
	if len(rates) == 0 {
		return nil, eris.Errorf("chart: no crime data for %q", borough)
	}
	years := make([]int, 0, len(rates))
	for y := range rates {
		years = append(years, y)
	}
	slices.Sort(years)

	pts := make([]Point, 0, len(years))
	for _, year := range years {
		snap, err := src.Snapshot(year)
		if err != nil {
			return nil, err
		}
		r, err := rank.Rank(rates[year], snap.RateValues())
		if err != nil {
			return nil, eris.Wrapf(err, "chart: rank %s %d", borough, year)
		}
		pts = append(pts, Point{Year: year, Rate: rates[year], Rank: r})
	}
	return pts, nil
}

// RenderTrend draws the crime rate trend of borough into out. The image
// format follows the file extension (png, svg, pdf).
func RenderTrend(src Source, borough, out string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	switch format {
	case "png", "svg", "pdf":
	default:
		return eris.Errorf("chart: unsupported format %q", format)
	}

	pts, err := Trend(src, borough)
	if err != nil {
		return err
	}
	p, err := newTrendPlot(borough, pts)
	if err != nil {
		return err
	}
	if err := p.Save(chartWidth, chartHeight, out); err != nil {
		return eris.Wrapf(err, "chart: save %s", out)
	}
	zap.L().Info("trend chart written",
		zap.String("component", "chart"),
		zap.String("borough", borough),
		zap.String("path", out),
		zap.Int("years", len(pts)),
	)
	return nil
}

func newTrendPlot(borough string, pts []Point) (*plot.Plot, error) {
	xys := make(plotter.XYs, len(pts))
	labels := make([]string, len(pts))
	ticks := make(plot.ConstantTicks, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: float64(pt.Year), Y: pt.Rate}
		labels[i] = pt.Rank.String()
		ticks[i] = plot.Tick{Value: float64(pt.Year), Label: strconv.Itoa(pt.Year)}
	}

	p := plot.New()
	p.Title.Text = borough + ": Crime Rate (per 1,000 people)"
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Crimes per 1,000 people"
	p.X.Tick.Marker = ticks
	p.Y.Min = 0

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, eris.Wrap(err, "chart: line")
	}
	line.Color = lineColor
	line.Width = vg.Points(2)

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, eris.Wrap(err, "chart: scatter")
	}
	scatter.Color = lineColor
	scatter.Radius = vg.Points(3)
	scatter.Shape = draw.CircleGlyph{}

	rankLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, eris.Wrap(err, "chart: labels")
	}
	for i := range rankLabels.TextStyle {
		rankLabels.TextStyle[i].Font.Size = vg.Points(8)
	}
	rankLabels.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(4)}

	p.Add(plotter.NewGrid(), line, scatter, rankLabels)
	return p, nil
}
