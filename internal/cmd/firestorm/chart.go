package firestorm

import (
	"fmt"
	"io"
	"os"

	"github.com/louisbranch/firestorm/internal/storm"
	"github.com/wcharczuk/go-chart/v2"
)

// pngChart is satisfied by the go-chart graph kinds the command renders.
type pngChart interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func renderPNG(path string, graph pngChart) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}

// writeRunChart renders paired bars of the mean hits per hitbox, ordinary
// next to improved, ordered by ascending radius.
func writeRunChart(path string, res storm.Result) error {
	sorted := sortedHitboxes(res.Hitboxes)
	bars := make([]chart.Value, 0, 2*len(sorted))
	for _, hb := range sorted {
		bars = append(bars,
			chart.Value{Value: hb.Ordinary.Mean, Label: fmt.Sprintf("%.2fm Ord", hb.Radius)},
			chart.Value{Value: hb.Improved.Mean, Label: fmt.Sprintf("%.2fm Imp", hb.Radius)},
		)
	}

	graph := chart.BarChart{
		Title:    "Average hits per hitbox",
		Width:    800,
		Height:   500,
		BarWidth: 60,
		Bars:     bars,
	}
	return renderPNG(path, graph)
}

// writeScanChart renders the two per-class mean series against the swept
// value, area modifier shown in percent.
func writeScanChart(path string, variable storm.ScanVariable, points []storm.ScanPoint) error {
	xs := make([]float64, len(points))
	ord := make([]float64, len(points))
	imp := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Value
		if variable == storm.ScanAreaMod {
			xs[i] = p.Value * 100
		}
		ord[i] = p.Ordinary.Mean
		imp[i] = p.Improved.Mean
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Scan %s (%d steps)", variable, len(points)),
		Width:  800,
		Height: 500,
		XAxis:  chart.XAxis{Name: variable.String()},
		YAxis:  chart.YAxis{Name: "Avg hits"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Ord",
				XValues: xs,
				YValues: ord,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "Imp",
				XValues: xs,
				YValues: imp,
				Style:   chart.Style{StrokeColor: chart.ColorOrange, StrokeWidth: 2.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return renderPNG(path, graph)
}
