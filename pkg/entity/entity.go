package entity

import "github.com/archiforge/cadrecon/pkg/geomx"

// Kind discriminates the variant held by an Entity.
type Kind int

const (
	KindLine Kind = iota
	KindPolyline
	KindCircle
	KindArc
	KindText
	KindInsert
	KindDimension
	KindAttrib
)

// String renders the Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindLine:
		return "LINE"
	case KindPolyline:
		return "POLYLINE"
	case KindCircle:
		return "CIRCLE"
	case KindArc:
		return "ARC"
	case KindText:
		return "TEXT"
	case KindInsert:
		return "INSERT"
	case KindDimension:
		return "DIMENSION"
	case KindAttrib:
		return "ATTRIB"
	default:
		return "UNKNOWN"
	}
}

// Line is a straight segment from Start to End.
type Line struct {
	Start, End geomx.Point
}

// Polyline is a sequence of vertices, optionally closed. Bulges (arc
// segments between vertices) are preserved but not expanded to arcs by this
// package; consumers that need true arc geometry should treat a bulged
// segment as its chord, matching the source's lossy behaviour for
// structural analysis purposes.
type Polyline struct {
	Vertices []geomx.Point
	Closed   bool
	Bulges   []float64 // len(Bulges) == len(Vertices) when present, else nil
}

// Circle is a centre and radius.
type Circle struct {
	Center geomx.Point
	Radius float64
}

// Arc is a circular arc between StartAngle and EndAngle (degrees).
type Arc struct {
	Center                geomx.Point
	Radius                float64
	StartAngle, EndAngle  float64
}

// Text is a text run with an insertion point, rotation in degrees, and
// nominal character height.
type Text struct {
	Insertion geomx.Point
	Content   string
	Rotation  float64
	Height    float64
}

// Insert references a block definition by name, applying scale, rotation,
// and optional row/column grid replication.
type Insert struct {
	Block         string
	Insertion     geomx.Point
	ScaleX, ScaleY float64
	Rotation      float64
	RowCount      int
	ColCount      int
	RowSpacing    float64
	ColSpacing    float64
}

// Dimension carries measured endpoints distinct from the rendered line.
type Dimension struct {
	MeasureStart, MeasureEnd geomx.Point
	Start, End               geomx.Point
	Text                     string
}

// Attrib is a block attribute: a named text field attached to an Insert.
type Attrib struct {
	Tag       string
	Content   string
	Insertion geomx.Point
	Rotation  float64
}

// Entity is a tagged-variant geometric primitive carrying its source layer
// name. Exactly one of the typed fields is meaningful, selected by Kind.
type Entity struct {
	Kind  Kind
	Layer string

	Line      Line
	Polyline  Polyline
	Circle    Circle
	Arc       Arc
	Text      Text
	Insert    Insert
	Dimension Dimension
	Attrib    Attrib
}

// Bounds returns the axis-aligned bounding box of the entity. Entities with
// no spatial extent of their own (a point-like Text) return a
// zero-area box at their insertion point.
func (e Entity) Bounds() geomx.Bounds {
	switch e.Kind {
	case KindLine:
		return geomx.BoundsOf([]geomx.Point{e.Line.Start, e.Line.End})
	case KindPolyline:
		return geomx.BoundsOf(e.Polyline.Vertices)
	case KindCircle:
		r := e.Circle.Radius
		c := e.Circle.Center
		return geomx.Bounds{MinX: c.X - r, MinY: c.Y - r, MaxX: c.X + r, MaxY: c.Y + r}
	case KindArc:
		r := e.Arc.Radius
		c := e.Arc.Center
		return geomx.Bounds{MinX: c.X - r, MinY: c.Y - r, MaxX: c.X + r, MaxY: c.Y + r}
	case KindText:
		return geomx.BoundsOf([]geomx.Point{e.Text.Insertion})
	case KindDimension:
		return geomx.BoundsOf([]geomx.Point{e.Dimension.Start, e.Dimension.End, e.Dimension.MeasureStart, e.Dimension.MeasureEnd})
	case KindAttrib:
		return geomx.BoundsOf([]geomx.Point{e.Attrib.Insertion})
	case KindInsert:
		return geomx.BoundsOf([]geomx.Point{e.Insert.Insertion})
	default:
		return geomx.EmptyBounds()
	}
}

// Center returns the centre of Bounds().
func (e Entity) Center() geomx.Point {
	return e.Bounds().Center()
}

// AnchorPoints returns the set of points filterInBounds consults: start,
// end, measure-start, measure-end (when present) plus the entity's bounds
// centre.
func (e Entity) AnchorPoints() []geomx.Point {
	pts := []geomx.Point{e.Center()}
	switch e.Kind {
	case KindLine:
		pts = append(pts, e.Line.Start, e.Line.End)
	case KindDimension:
		pts = append(pts, e.Dimension.Start, e.Dimension.End, e.Dimension.MeasureStart, e.Dimension.MeasureEnd)
	case KindPolyline:
		if len(e.Polyline.Vertices) > 0 {
			pts = append(pts, e.Polyline.Vertices[0], e.Polyline.Vertices[len(e.Polyline.Vertices)-1])
		}
	}
	return pts
}
