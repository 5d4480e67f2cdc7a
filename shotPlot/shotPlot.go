//Package shotPlot renders shot bundles and conditioning logs as PNG figures
package shotPlot

import (
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"icrhDiag/derived"
	"icrhDiag/record"
	"icrhDiag/schema"
	"icrhDiag/shot"
)

//line colours in channel order
var palette = []color.Color{
	colornames.Blue,
	colornames.Red,
	colornames.Green,
	colornames.Magenta,
	colornames.Darkorange,
	colornames.Purple,
	colornames.Black,
}

type timeSeries struct {
	x, y []float64
}

func (s *timeSeries) Len() int {
	return len(s.y)
}

func (s *timeSeries) XY(index int) (x, y float64) {
	return s.x[index], s.y[index]
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, idx int, name string, x, y []float64) error {
	l, err := plotter.NewLine(&timeSeries{x: x, y: y})
	if err != nil {
		return fmt.Errorf("failed creating line for %v : %v", name, err)
	}
	l.Color = palette[idx%len(palette)]
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

//ChannelPlot draws the given channels of rec in physical units against the display time axis
func ChannelPlot(rec *record.RawRecord, title, yLabel string, channels ...string) (*plot.Plot, error) {
	p := newPlot(title, rec.Schema.DisplayTimeLabel, yLabel)
	if rec.Empty() {
		p.Title.Text += " (no data)"
		return p, nil
	}
	t := rec.DisplayTime()
	for i, ch := range channels {
		values, err := rec.Channel(ch)
		if err != nil {
			return nil, err
		}
		if !rec.Scaled {
			factor, err := rec.Schema.Scale(ch)
			if err != nil {
				return nil, err
			}
			values = derived.Scale(values, factor)
		}
		if err := addLine(p, i, ch, t, values); err != nil {
			return nil, err
		}
	}
	return p, nil
}

//SeriesPlot draws derived series computed from rec
func SeriesPlot(rec *record.RawRecord, title, yLabel string, series ...*derived.Series) (*plot.Plot, error) {
	p := newPlot(title, rec.Schema.DisplayTimeLabel, yLabel)
	if len(series) == 0 || rec.Empty() {
		p.Title.Text += " (no data)"
		return p, nil
	}
	t := rec.DisplayTime()
	for i, s := range series {
		if len(s.Values) != len(t) {
			return nil, fmt.Errorf("%v: %w", s.Name, derived.ErrAlignment)
		}
		if err := addLine(p, i, s.Name, t, s.Values); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func pick(set derived.Set, names ...string) []*derived.Series {
	picked := make([]*derived.Series, 0, len(names))
	for _, s := range set.Series {
		for _, name := range names {
			if s.Name == name {
				picked = append(picked, s)
			}
		}
	}
	return picked
}

//BundleFigure lays out one row per antenna of b: powers, voltages, VSWR and relative phases.
//Missing records leave their tiles empty
func BundleFigure(b *shot.Bundle) ([][]*plot.Plot, error) {
	sets := derived.ComputeAll(b)
	antennas := make([]shot.SubSource, 0)
	seen := make(map[shot.SubSource]bool)
	for _, key := range b.Keys() {
		if !seen[key.SubSource] {
			seen[key.SubSource] = true
			antennas = append(antennas, key.SubSource)
		}
	}

	rows := make([][]*plot.Plot, 0, len(antennas))
	for _, antenna := range antennas {
		row := make([]*plot.Plot, 4)
		ampKey := shot.Key{SubSource: antenna, Kind: schema.Amplitude}
		if rec, ok := b.Record(ampKey); ok {
			var err error
			if row[0], err = ChannelPlot(rec, fmt.Sprintf("Shot %v %v power", b.EventID, antenna), "Power [a.u.]", "PiG", "PrG", "PiD", "PrD"); err != nil {
				return nil, err
			}
			if row[1], err = ChannelPlot(rec, fmt.Sprintf("%v voltage", antenna), "Voltage [V]", "V1", "V2", "V3", "V4"); err != nil {
				return nil, err
			}
			if row[2], err = SeriesPlot(rec, fmt.Sprintf("%v VSWR", antenna), "VSWR", pick(sets[ampKey], "vswr_left", "vswr_right")...); err != nil {
				return nil, err
			}
		}
		phaseKey := shot.Key{SubSource: antenna, Kind: schema.Phase}
		if rec, ok := b.Record(phaseKey); ok {
			var err error
			if row[3], err = SeriesPlot(rec, fmt.Sprintf("%v phase", antenna), "Phase [deg]", pick(sets[phaseKey], "relative_phase_a", "relative_phase_b")...); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

//ConditioningFigure is the 2x2 overview of a conditioning log: left and right powers in kW on top,
//voltages below
func ConditioningFigure(rec *record.RawRecord) ([][]*plot.Plot, error) {
	layout := [][]struct {
		title, yLabel string
		channels      []string
	}{
		{
			{"Left side", "Power [kW]", []string{"PiG", "PrG"}},
			{"Right side", "Power [kW]", []string{"PiD", "PrD"}},
		},
		{
			{"", "Voltage [V]", []string{"V1", "V2"}},
			{"", "Voltage [V]", []string{"V3", "V4"}},
		},
	}
	plots := make([][]*plot.Plot, len(layout))
	for r := range layout {
		plots[r] = make([]*plot.Plot, len(layout[r]))
		for c, tile := range layout[r] {
			p, err := ChannelPlot(rec, tile.title, tile.yLabel, tile.channels...)
			if err != nil {
				return nil, err
			}
			plots[r][c] = p
		}
	}
	return plots, nil
}

//WritePNG draws the tiled plots on a width x height canvas and writes it to out. nil tiles stay blank
func WritePNG(out io.Writer, plots [][]*plot.Plot, width, height int) error {
	if len(plots) == 0 || len(plots[0]) == 0 {
		return fmt.Errorf("nothing to plot")
	}
	c := vgimg.PngCanvas{Canvas: vgimg.New(vg.Length(width), vg.Length(height))}
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	//plot.Align needs a plot in every tile
	filled := make([][]*plot.Plot, len(plots))
	for r := range plots {
		filled[r] = make([]*plot.Plot, tiles.Cols)
		for col := range filled[r] {
			if col < len(plots[r]) && plots[r][col] != nil {
				filled[r][col] = plots[r][col]
				continue
			}
			blank := plot.New()
			blank.HideAxes()
			filled[r][col] = blank
		}
	}
	canvases := plot.Align(filled, tiles, dc)
	for r := range filled {
		for col := range filled[r] {
			filled[r][col].Draw(canvases[r][col])
		}
	}
	if _, err := c.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write plot : %v", err)
	}
	return nil
}
