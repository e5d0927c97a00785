package graphplot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes an echarts page with worthy nodes, pending nodes and the
// midpoints of cached edges grouped by direction family.
func RenderHTML(w io.Writer, l *Layout, title string) error {
	worthy := make([]opts.ScatterData, 0, len(l.Points))
	pending := make([]opts.ScatterData, 0)
	for _, p := range l.Points {
		d := opts.ScatterData{Name: p.Key, Value: []interface{}{p.X, p.Y}}
		if p.Worthy {
			worthy = append(worthy, d)
		} else {
			pending = append(pending, d)
		}
	}

	edges := make(map[string][]opts.ScatterData, len(families))
	for _, s := range l.Segments {
		f := family(s.Direction)
		edges[f] = append(edges[f], opts.ScatterData{
			Name:  fmt.Sprintf("%s %s→%s", s.Direction, s.From, s.To),
			Value: []interface{}{(s.X1 + s.X2) / 2, (s.Y1 + s.Y2) / 2},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("origin=%.6f,%.6f nodes=%d edges=%d", l.OriginLat, l.OriginLon, len(l.Points), len(l.Segments))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "East (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "North (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("worthy", worthy, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	scatter.AddSeries("pending", pending, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	for _, f := range families {
		if len(edges[f]) == 0 {
			continue
		}
		scatter.AddSeries(f, edges[f], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	}
	return scatter.Render(w)
}
