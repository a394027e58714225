package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// SVGOptions configures the debug rendering.
type SVGOptions struct {
	Width      int
	Height     int
	Margin     int
	ShowLabels bool
	ShowLegend bool
	Title      string
}

// DefaultSVGOptions returns sensible default SVG export options.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      1600,
		Height:     1200,
		Margin:     60,
		ShowLabels: true,
		ShowLegend: true,
		Title:      "Structural Reconstruction",
	}
}

// ExportSVG renders viewports as dashed outlines, columns as filled boxes,
// walls as translucent fills, beam fragments coloured by code, and
// junctions as L/T/C glyphs, scaled to fit the union of every piece of
// geometry the artifact carries.
func ExportSVG(artifact *Artifact, opts SVGOptions) ([]byte, error) {
	if artifact == nil {
		return nil, fmt.Errorf("artifact cannot be nil")
	}
	if opts.Width <= 0 {
		opts.Width = 1600
	}
	if opts.Height <= 0 {
		opts.Height = 1200
	}
	if opts.Margin <= 0 {
		opts.Margin = 60
	}

	world := worldBounds(artifact)
	if world.IsEmpty() {
		return nil, fmt.Errorf("artifact has no geometry to render")
	}
	xf := newTransform(world, opts)

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#10141c")

	drawViewports(canvas, artifact.Viewports, xf, opts)
	drawColumns(canvas, artifact.Columns, xf)
	drawWalls(canvas, artifact.Walls, xf)
	drawFragments(canvas, artifact.Fragments, xf, opts)
	drawJunctions(canvas, artifact.Junctions, xf)

	if opts.ShowLegend {
		drawLegend(canvas, opts)
	}
	if opts.Title != "" {
		canvas.Text(opts.Width/2, 25, opts.Title,
			"text-anchor:middle;font-size:20px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveSVGToFile generates the debug rendering and saves it to a file.
func SaveSVGToFile(artifact *Artifact, filepath string, opts SVGOptions) error {
	data, err := ExportSVG(artifact, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// transform maps world millimetres onto the SVG canvas, flipping Y so the
// rendering reads with the drawing's own north up.
type transform struct {
	scale   float64
	offsetX float64
	offsetY float64
	canvasH float64
}

func newTransform(world geomx.Bounds, opts SVGOptions) transform {
	drawW := float64(opts.Width - 2*opts.Margin)
	drawH := float64(opts.Height - 2*opts.Margin)
	scale := math.Min(drawW/world.Width(), drawH/world.Height())
	if scale <= 0 || math.IsInf(scale, 0) {
		scale = 1
	}
	return transform{
		scale:   scale,
		offsetX: float64(opts.Margin) - world.MinX*scale,
		offsetY: float64(opts.Margin) - world.MinY*scale,
		canvasH: float64(opts.Height),
	}
}

func (t transform) point(p geomx.Point) (int, int) {
	x := p.X*t.scale + t.offsetX
	y := t.canvasH - (p.Y*t.scale + t.offsetY)
	return int(x), int(y)
}

func worldBounds(a *Artifact) geomx.Bounds {
	b := geomx.EmptyBounds()
	for _, v := range a.Viewports {
		b = b.Union(v.Bounds)
	}
	for _, c := range a.Columns {
		b = b.Union(c.Bounds)
	}
	for _, w := range a.Walls {
		b = b.Union(w.Bounds())
	}
	for _, f := range a.Fragments {
		b = b.Union(f.OBB.Bounds())
	}
	return b
}

func drawViewports(canvas *svg.SVG, regions []ViewportExport, xf transform, opts SVGOptions) {
	for _, r := range regions {
		canvas.Gid(r.ID)
		x0, y0 := xf.point(geomx.Point{X: r.Bounds.MinX, Y: r.Bounds.MaxY})
		x1, y1 := xf.point(geomx.Point{X: r.Bounds.MaxX, Y: r.Bounds.MinY})
		canvas.Rect(x0, y0, x1-x0, y1-y0, "fill:none;stroke:#4a5568;stroke-width:1;stroke-dasharray:6,4")
		if opts.ShowLabels && r.Title != "" {
			canvas.Text(x0+4, y0+14, r.Title, "font-size:12px;fill:#a0aec0;font-family:monospace")
		}
		canvas.Gend()
	}
}

func drawColumns(canvas *svg.SVG, columns []structural.Column, xf transform) {
	for _, c := range columns {
		x0, y0 := xf.point(geomx.Point{X: c.Bounds.MinX, Y: c.Bounds.MaxY})
		x1, y1 := xf.point(geomx.Point{X: c.Bounds.MaxX, Y: c.Bounds.MinY})
		canvas.Rect(x0, y0, x1-x0, y1-y0, "fill:#2d3748;stroke:#718096;stroke-width:1")
	}
}

func drawWalls(canvas *svg.SVG, walls []structural.Wall, xf transform) {
	for _, w := range walls {
		xs, ys := polygonPoints(w.OBB, xf)
		canvas.Polygon(xs, ys, "fill:#4a5568;fill-opacity:0.55;stroke:#cbd5e0;stroke-width:1")
	}
}

func drawFragments(canvas *svg.SVG, frags []FragmentExport, xf transform, opts SVGOptions) {
	sorted := append([]FragmentExport(nil), frags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ParentIndex < sorted[j].ParentIndex })

	for _, f := range sorted {
		canvas.Gid(f.ID)
		xs, ys := polygonPoints(f.OBB, xf)
		canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:0.85;stroke:#1a202c;stroke-width:1", codeColor(f.Code)))
		if opts.ShowLabels {
			mx, my := xf.point(f.OBB.Midpoint())
			canvas.Text(mx, my, f.Code, "text-anchor:middle;font-size:10px;fill:#fff;font-family:monospace")
		}
		canvas.Gend()
	}
}

func drawJunctions(canvas *svg.SVG, junctions []beam.IntersectionInfo, xf transform) {
	for _, j := range junctions {
		x, y := xf.point(j.Center)
		canvas.Circle(x, y, 9, "fill:#1a202c;stroke:#ecc94b;stroke-width:1.5")
		canvas.Text(x, y+4, j.Junction.String(), "text-anchor:middle;font-size:10px;font-weight:bold;fill:#ecc94b")
	}
}

func polygonPoints(o geomx.OBB, xf transform) ([]int, []int) {
	corners := o.Corners()
	xs := make([]int, len(corners))
	ys := make([]int, len(corners))
	for i, c := range corners {
		xs[i], ys[i] = xf.point(c)
	}
	return xs, ys
}

// codeColor derives a stable hue from a beam code so repeated codes always
// render with the same colour within and across runs.
func codeColor(code string) string {
	h := 0
	for _, r := range code {
		h = h*31 + int(r)
	}
	if h < 0 {
		h = -h
	}
	return fmt.Sprintf("hsl(%d, 65%%, 50%%)", h%360)
}

func drawLegend(canvas *svg.SVG, opts SVGOptions) {
	x := opts.Width - opts.Margin - 170
	y := opts.Margin

	canvas.Rect(x-10, y-15, 180, 130, "fill:#1a202c;stroke:#4a5568;stroke-width:1;opacity:0.9;rx:5")
	canvas.Text(x, y, "Legend", "font-size:13px;font-weight:bold;fill:#e2e8f0")

	y += 22
	canvas.Rect(x, y-10, 16, 12, "fill:#2d3748;stroke:#718096")
	canvas.Text(x+24, y, "Column", "font-size:11px;fill:#cbd5e0")

	y += 20
	canvas.Rect(x, y-10, 16, 12, "fill:#4a5568;fill-opacity:0.55;stroke:#cbd5e0")
	canvas.Text(x+24, y, "Wall", "font-size:11px;fill:#cbd5e0")

	y += 20
	canvas.Rect(x, y-10, 16, 12, "fill:hsl(200, 65%, 50%)")
	canvas.Text(x+24, y, "Beam (colour by code)", "font-size:11px;fill:#cbd5e0")

	y += 20
	canvas.Circle(x+8, y-4, 7, "fill:#1a202c;stroke:#ecc94b;stroke-width:1.5")
	canvas.Text(x+24, y, "Junction (L/T/C)", "font-size:11px;fill:#cbd5e0")

	y += 20
	canvas.Rect(x, y-10, 16, 12, "fill:none;stroke:#4a5568;stroke-dasharray:4,3")
	canvas.Text(x+24, y, "Viewport", "font-size:11px;fill:#cbd5e0")
}
