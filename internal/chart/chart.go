// Package chart draws the dashboard figures with gonum/plot.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"digitrend/internal/catalog"
	"digitrend/internal/errs"
	"digitrend/internal/forecast"
	"digitrend/internal/series"
)

// Default canvas sizes.
const (
	Width        = 12 * vg.Inch
	Height       = 7 * vg.Inch
	RankingWidth = 12 * vg.Inch
)

var groupColors = map[catalog.Group]color.RGBA{
	catalog.Workshops: {R: 0, G: 119, B: 200, A: 204},
	catalog.Jobs:      {R: 34, G: 139, B: 34, A: 204},
	catalog.Startups:  {R: 128, G: 0, B: 128, A: 204},
}

var (
	bandColor     = color.RGBA{R: 255, G: 140, B: 0, A: 64}
	forecastColor = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	historyColor  = color.RGBA{R: 0, G: 100, B: 0, A: 255}
)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// yearTicks labels every year without thousands separators.
func yearTicks(from, to int) plot.ConstantTicks {
	ticks := make([]plot.Tick, 0, to-from+1)
	for y := from; y <= to; y++ {
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	return plot.ConstantTicks(ticks)
}

// GroupLines draws one line per category of a generated group table.
func GroupLines(gt catalog.GroupTable) (*plot.Plot, error) {
	t := gt.Table
	if t == nil || t.Len() == 0 {
		return nil, errs.Invalid("group %s has no rows to draw", gt.Spec.Group)
	}

	p := newPlot(fmt.Sprintf("%s Trends (%d-%d)", gt.Spec.Title, t.Years[0], t.Years[t.Len()-1]), "Year", gt.Spec.Unit)
	p.X.Tick.Marker = yearTicks(t.Years[0], t.Years[t.Len()-1])
	p.Legend.Top = true
	p.Legend.Left = true

	for c, name := range t.Columns {
		points := make(plotter.XYs, t.Len())
		for i, y := range t.Years {
			points[i].X = float64(y)
			points[i].Y = t.Values[c][i]
		}
		line, scatter, err := plotter.NewLinePoints(points)
		if err != nil {
			return nil, fmt.Errorf("line for %s: %w", name, err)
		}
		line.Color = plotutil.Color(c)
		line.Width = vg.Points(2)
		scatter.GlyphStyle.Color = plotutil.Color(c)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(2.5)

		p.Add(line, scatter)
		p.Legend.Add(name, line, scatter)
	}
	return p, nil
}

// GrowthRanking draws a horizontal bar per category, ordered as given and
// coloured by group.
func GrowthRanking(records []catalog.GrowthRecord) (*plot.Plot, error) {
	if len(records) == 0 {
		return nil, errs.Invalid("no growth records to draw")
	}

	p := newPlot("CAGR by Workshop, Job, and Startup Type", "CAGR (%)", "")
	p.Legend.Top = true

	labels := make([]string, len(records))
	minRate, maxRate := 0.0, 0.0
	for i, r := range records {
		labels[i] = r.Topic
		minRate = min(minRate, r.Rate)
		maxRate = max(maxRate, r.Rate)
	}

	for _, g := range []catalog.Group{catalog.Workshops, catalog.Jobs, catalog.Startups} {
		values := make(plotter.Values, len(records))
		present := false
		for i, r := range records {
			if r.Group == g {
				values[i] = r.Rate
				present = true
			}
		}
		if !present {
			continue
		}
		bars, err := plotter.NewBarChart(values, vg.Points(14))
		if err != nil {
			return nil, fmt.Errorf("bars for %s: %w", g, err)
		}
		bars.Horizontal = true
		bars.Color = groupColors[g]
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.Legend.Add(string(g), bars)
	}

	points := make(plotter.XYs, len(records))
	valueLabels := make([]string, len(records))
	for i, r := range records {
		points[i] = plotter.XY{X: r.Rate + maxRate*0.01, Y: float64(i)}
		valueLabels[i] = fmt.Sprintf("%.1f%%", r.Rate)
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: valueLabels})
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(lbl)

	p.NominalY(labels...)
	p.X.Min = minRate * 1.1
	p.X.Max = maxRate * 1.15
	return p, nil
}

// ForecastBand draws the history, a dashed projection starting from the
// last observed point and the shaded confidence band around it.
func ForecastBand(history series.Series, res *forecast.Result, unit string) (*plot.Plot, error) {
	if res == nil || len(res.Points) == 0 {
		return nil, errs.Invalid("no forecast points to draw")
	}
	if len(history.Years) == 0 || len(history.Years) != len(history.Values) {
		return nil, errs.Invalid("history of %q is empty or malformed", history.Name)
	}

	last := len(history.Years) - 1
	lastYear := history.Years[last]
	lastPoint := plotter.XY{X: float64(lastYear), Y: history.Values[last]}
	finalYear := res.Points[len(res.Points)-1].Year

	p := newPlot(fmt.Sprintf("%s Forecast (%d%% confidence)", history.Name, int(res.Confidence)), "Year", unit)
	p.X.Tick.Marker = yearTicks(history.Years[0], finalYear)
	p.Legend.Top = true
	p.Legend.Left = true

	band := make(plotter.XYs, 0, 2*len(res.Points)+1)
	band = append(band, lastPoint)
	for _, pt := range res.Points {
		band = append(band, plotter.XY{X: float64(pt.Year), Y: pt.Upper})
	}
	for i := len(res.Points) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: float64(res.Points[i].Year), Y: res.Points[i].Lower})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, fmt.Errorf("confidence band: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = vg.Length(0)
	p.Add(poly)
	p.Legend.Add(fmt.Sprintf("%d%% band", int(res.Confidence)), poly)

	hist := make(plotter.XYs, len(history.Years))
	for i, y := range history.Years {
		hist[i] = plotter.XY{X: float64(y), Y: history.Values[i]}
	}
	histLine, histPoints, err := plotter.NewLinePoints(hist)
	if err != nil {
		return nil, fmt.Errorf("history line: %w", err)
	}
	histLine.Color = historyColor
	histLine.Width = vg.Points(2)
	histPoints.GlyphStyle.Color = historyColor
	histPoints.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(histLine, histPoints)
	p.Legend.Add("History", histLine, histPoints)

	proj := make(plotter.XYs, 0, len(res.Points)+1)
	proj = append(proj, lastPoint)
	for _, pt := range res.Points {
		proj = append(proj, plotter.XY{X: float64(pt.Year), Y: pt.Estimate})
	}
	projLine, err := plotter.NewLine(proj)
	if err != nil {
		return nil, fmt.Errorf("forecast line: %w", err)
	}
	projLine.Color = forecastColor
	projLine.Width = vg.Points(2)
	projLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(projLine)
	p.Legend.Add("Forecast", projLine)

	return p, nil
}

// RenderPNG encodes p as a PNG of the given size.
func RenderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("%w: png canvas: %v", errs.ErrExport, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", errs.ErrExport, err)
	}
	return buf.Bytes(), nil
}
