// Package render rasterizes a diagram to a PNG image for debugging.
// Bisector curves are flattened by sampling their parameter range;
// unbounded edges are clamped to the drawing window.
package render

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/pkg/errors"

	"github.com/ffurano/opencamlib/halfedge"
	"github.com/ffurano/opencamlib/vector"
	"github.com/ffurano/opencamlib/voronoi"
)

// Options controls the raster output.
type Options struct {
	Width, Height int
	Scale         float64 // diagram units to pixels
	CurveSamples  int     // flattening steps per edge
}

// DefaultOptions draws a 1000x1000 image of the [0,100) square.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 1000, Scale: 10.0, CurveSamples: 64}
}

var (
	edgeColor      = color.RGBA{0, 0, 255, 255}
	generatorColor = color.RGBA{255, 0, 0, 255}
	vertexColor    = color.RGBA{0, 255, 0, 255}
)

// WritePNG renders the diagram and writes it to filename.
func WritePNG(d *voronoi.Diagram, filename string, opts Options) error {
	m, err := Draw(d, opts)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "opening render target")
	}
	defer f.Close()
	return errors.Wrap(png.Encode(f, m), "encoding render")
}

// Draw renders the diagram into a new image.
func Draw(d *voronoi.Diagram, opts Options) (*image.RGBA, error) {
	if opts.CurveSamples < 2 {
		opts.CurveSamples = 2
	}
	m := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	gc := draw2dimg.NewGraphicContext(m)
	gc.SetLineWidth(2)
	gc.SetStrokeColor(edgeColor)

	g := d.Graph()
	drawn := make(map[halfedge.EdgeIndex]bool)
	for _, e := range g.Edges() {
		if drawn[e] {
			continue
		}
		drawn[e] = true
		drawn[g.Twin(e)] = true

		rec, err := g.Edge(e)
		if err != nil {
			return nil, err
		}
		strokeCurve(gc, rec.Curve, opts)
	}

	for _, f := range d.Faces() {
		gen, err := d.GeneratorOf(f)
		if err != nil {
			return nil, err
		}
		drawGenerator(m, gc, gen, opts)
	}

	for _, v := range g.Vertices() {
		rec, err := g.Vertex(v)
		if err != nil {
			return nil, err
		}
		x, y := toPixel(rec.Pos, opts)
		drawDot(m, int(x), int(y), 2, vertexColor)
	}
	return m, nil
}

func toPixel(p vector.Vector, opts Options) (float64, float64) {
	return p.X * opts.Scale, float64(opts.Height) - p.Y*opts.Scale
}

// window bound for clamping unbounded curve parameters, in diagram units.
func windowSpan(opts Options) float64 {
	return float64(opts.Width+opts.Height) / opts.Scale
}

func strokeCurve(gc *draw2dimg.GraphicContext, c vector.Curve, opts Options) {
	span := windowSpan(opts)
	t0, t1 := c.T0, c.T1
	if math.IsInf(t0, 0) {
		t0 = -span
	}
	if math.IsInf(t1, 0) {
		t1 = span
	}
	if t1 <= t0 {
		return
	}

	gc.SetStrokeColor(edgeColor)
	for i := 0; i <= opts.CurveSamples; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(opts.CurveSamples)
		x, y := toPixel(c.Eval(t), opts)
		if i == 0 {
			gc.MoveTo(x, y)
		} else {
			gc.LineTo(x, y)
		}
	}
	gc.Stroke()
}

func drawGenerator(m *image.RGBA, gc *draw2dimg.GraphicContext, g voronoi.Generator, opts Options) {
	switch g.Kind {
	case voronoi.GeneratorPoint:
		x, y := toPixel(g.Point, opts)
		drawDot(m, int(x), int(y), 4, generatorColor)
	case voronoi.GeneratorSegment:
		gc.SetStrokeColor(generatorColor)
		x0, y0 := toPixel(g.Start, opts)
		x1, y1 := toPixel(g.End, opts)
		gc.MoveTo(x0, y0)
		gc.LineTo(x1, y1)
		gc.Stroke()
	case voronoi.GeneratorArc:
		gc.SetStrokeColor(generatorColor)
		steps := opts.CurveSamples
		for i := 0; i <= steps; i++ {
			a := g.Angle0 + (g.Angle1-g.Angle0)*float64(i)/float64(steps)
			p := vector.Add(g.Center, vector.Mult(vector.Vector{X: math.Cos(a), Y: math.Sin(a)}, g.Radius))
			x, y := toPixel(p, opts)
			if i == 0 {
				gc.MoveTo(x, y)
			} else {
				gc.LineTo(x, y)
			}
		}
		gc.Stroke()
	}
}

func drawDot(m *image.RGBA, cx, cy, r int, c color.RGBA) {
	for x := cx - r; x <= cx+r; x++ {
		for y := cy - r; y <= cy+r; y++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if dx*dx+dy*dy <= float64(r*r) {
				m.Set(x, y, c)
			}
		}
	}
}
