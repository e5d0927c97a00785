package graphplot

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var familyColors = map[string]color.RGBA{
	"sequence": {R: 0x44, G: 0x44, B: 0x44, A: 0xff},
	"step":     {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"turn":     {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	"pano":     {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"similar":  {R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// Plot builds a gonum plot of the layout: one line per edge, coloured by
// direction family, under a scatter of the nodes.
func Plot(l *Layout, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "East (m)"
	p.Y.Label.Text = "North (m)"

	legend := make(map[string]bool, len(families))
	for _, s := range l.Segments {
		line, err := plotter.NewLine(plotter.XYs{{X: s.X1, Y: s.Y1}, {X: s.X2, Y: s.Y2}})
		if err != nil {
			return nil, err
		}
		f := family(s.Direction)
		line.Color = familyColors[f]
		line.Width = vg.Points(1)
		p.Add(line)
		if !legend[f] {
			legend[f] = true
			p.Legend.Add(f, line)
		}
	}

	if len(l.Points) > 0 {
		pts := make(plotter.XYs, len(l.Points))
		for i, pt := range l.Points {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("node", sc)
	}
	return p, nil
}

// SavePNG writes the layout plot to path. The format follows the file extension.
func SavePNG(l *Layout, title, path string) error {
	p, err := Plot(l, title)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
