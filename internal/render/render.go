// Package render draws environment snapshots to PNG. The environment only
// exposes read-only pose and geometry; every drawing decision lives here.
package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"twocarrier/internal/scape"
)

const (
	carrierRadius   = 0.1
	carrierSegments = 32
	defaultSizeIn   = 6
	defaultDPI      = 96
)

var (
	wallColor  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	rodColor   = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	trailColor = color.RGBA{R: 70, G: 130, B: 180, A: 160}
	black      = color.RGBA{A: 255}
	white      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Viewport is the fixed data window shared by every frame.
var Viewport = struct{ MinX, MaxX, MinY, MaxY float64 }{-5.6, 5.6, -0.6, 6.6}

// Source is what a frame needs from an environment.
type Source interface {
	Carriers() (front, back scape.Point)
	Walls() []scape.WallRegion
}

type Frame struct {
	Title string
	Walls []scape.WallRegion
	Front scape.Point
	Back  scape.Point
	// Trail holds past rod centers, oldest first. Optional.
	Trail []scape.Point
}

func FrameFrom(src Source) Frame {
	front, back := src.Carriers()
	return Frame{Walls: src.Walls(), Front: front, Back: back}
}

type Options struct {
	SizeInches float64
	DPI        int
}

func (o Options) withDefaults() Options {
	if o.SizeInches <= 0 {
		o.SizeInches = defaultSizeIn
	}
	if o.DPI <= 0 {
		o.DPI = defaultDPI
	}
	return o
}

// Plot builds the gonum plot for a frame without rendering it.
func Plot(frame Frame) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = frame.Title
	p.X.Min, p.X.Max = Viewport.MinX, Viewport.MaxX
	p.Y.Min, p.Y.Max = Viewport.MinY, Viewport.MaxY

	for _, wall := range frame.Walls {
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: wall.X, Y: wall.Y},
			{X: wall.X + wall.Width, Y: wall.Y},
			{X: wall.X + wall.Width, Y: wall.Y + wall.Height},
			{X: wall.X, Y: wall.Y + wall.Height},
		})
		if err != nil {
			return nil, fmt.Errorf("wall %s: %w", wall.Name, err)
		}
		poly.Color = wallColor
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	if len(frame.Trail) > 1 {
		pts := make(plotter.XYs, len(frame.Trail))
		for i, c := range frame.Trail {
			pts[i] = plotter.XY{X: c.X, Y: c.Y}
		}
		trail, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("trail: %w", err)
		}
		trail.LineStyle.Color = trailColor
		trail.LineStyle.Width = vg.Points(1)
		trail.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		p.Add(trail)
	}

	rod, err := plotter.NewLine(plotter.XYs{
		{X: frame.Front.X, Y: frame.Front.Y},
		{X: frame.Back.X, Y: frame.Back.Y},
	})
	if err != nil {
		return nil, fmt.Errorf("rod: %w", err)
	}
	rod.LineStyle.Color = rodColor
	rod.LineStyle.Width = vg.Points(2)
	p.Add(rod)

	front, err := carrierPolygon(frame.Front, white, black)
	if err != nil {
		return nil, fmt.Errorf("front carrier: %w", err)
	}
	back, err := carrierPolygon(frame.Back, black, black)
	if err != nil {
		return nil, fmt.Errorf("back carrier: %w", err)
	}
	p.Add(front, back)
	return p, nil
}

// carrierPolygon approximates a circle in data units so its radius scales with the axes.
func carrierPolygon(center scape.Point, fill, edge color.Color) (*plotter.Polygon, error) {
	pts := make(plotter.XYs, carrierSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / carrierSegments
		pts[i] = plotter.XY{X: center.X + carrierRadius*math.Cos(a), Y: center.Y + carrierRadius*math.Sin(a)}
	}
	poly, err := plotter.NewPolygon(pts)
	if err != nil {
		return nil, err
	}
	poly.Color = fill
	poly.LineStyle.Color = edge
	poly.LineStyle.Width = vg.Points(1)
	return poly, nil
}

// WritePNG renders frame as a square PNG.
func WritePNG(w io.Writer, frame Frame, opts Options) error {
	opts = opts.withDefaults()
	p, err := Plot(frame)
	if err != nil {
		return err
	}

	size := vg.Length(opts.SizeInches) * vg.Inch
	c := vgimg.NewWith(vgimg.UseWH(size, size), vgimg.UseDPI(opts.DPI))
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func SavePNG(frame Frame, filename string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	if err := WritePNG(f, frame, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FramePath names the PNG for one step inside dir.
func FramePath(dir string, step int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%05d.png", step))
}
