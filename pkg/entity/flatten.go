package entity

import (
	"math"

	"github.com/archiforge/cadrecon/pkg/geomx"
)

// maxInsertDepth bounds recursive block expansion against cyclic block
// references in malformed drawings.
const maxInsertDepth = 32

// Flatten explodes INSERT entities into transformed copies of their block
// definitions (recursively, respecting row/column grid replication and each
// block's base-point offset). Every other entity, closed POLYLINEs
// included, is emitted once as a single entity; the segment view of a
// polyline comes from PolylineSegments, which the pair-scanning stages call
// on their inputs.
//
// Each emitted entity keeps the layer name of its original leaf occurrence:
// an entity placed via an INSERT carries the layer of the entity inside the
// block definition, not the INSERT's own layer, matching how CAD viewers
// resolve "by-layer" leaf geometry.
func Flatten(stream []Entity, blocks BlockTable) []Entity {
	out := make([]Entity, 0, len(stream)*2)
	for _, e := range stream {
		out = append(out, flattenOne(e, blocks, identityTransform(), 0)...)
	}
	return out
}

// transform2D is an affine map applied to local block coordinates:
// world = origin + R(rotation) * (local - basePoint) * scale
type transform2D struct {
	origin   geomx.Point
	basePt   geomx.Point
	scaleX   float64
	scaleY   float64
	rotation float64 // degrees
}

func identityTransform() transform2D {
	return transform2D{scaleX: 1, scaleY: 1}
}

func (t transform2D) apply(p geomx.Point) geomx.Point {
	lx := (p.X - t.basePt.X) * t.scaleX
	ly := (p.Y - t.basePt.Y) * t.scaleY
	rad := t.rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	rx := lx*cos - ly*sin
	ry := lx*sin + ly*cos
	return geomx.Point{X: t.origin.X + rx, Y: t.origin.Y + ry}
}

func flattenOne(e Entity, blocks BlockTable, parent transform2D, depth int) []Entity {
	if e.Kind != KindInsert {
		return []Entity{transformLeaf(e, parent)}
	}
	if depth >= maxInsertDepth {
		return nil
	}
	def, ok := blocks[e.Insert.Block]
	if !ok {
		return nil
	}

	rowCount := e.Insert.RowCount
	if rowCount < 1 {
		rowCount = 1
	}
	colCount := e.Insert.ColCount
	if colCount < 1 {
		colCount = 1
	}

	var out []Entity
	for row := 0; row < rowCount; row++ {
		for col := 0; col < colCount; col++ {
			offset := geomx.Vector{
				X: float64(col) * e.Insert.ColSpacing,
				Y: float64(row) * e.Insert.RowSpacing,
			}
			t := transform2D{
				origin:   e.Insert.Insertion.Add(offset),
				basePt:   def.BasePoint,
				scaleX:   nonZero(e.Insert.ScaleX, 1),
				scaleY:   nonZero(e.Insert.ScaleY, 1),
				rotation: e.Insert.Rotation,
			}
			for _, child := range def.Entities {
				out = append(out, flattenOne(child, blocks, t, depth+1)...)
			}
		}
	}
	return out
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

// transformLeaf applies parent to every point field of a non-Insert entity
// and relabels rotation/text-height-invariant fields.
func transformLeaf(e Entity, t transform2D) Entity {
	switch e.Kind {
	case KindLine:
		e.Line.Start = t.apply(e.Line.Start)
		e.Line.End = t.apply(e.Line.End)
	case KindPolyline:
		verts := make([]geomx.Point, len(e.Polyline.Vertices))
		for i, v := range e.Polyline.Vertices {
			verts[i] = t.apply(v)
		}
		e.Polyline.Vertices = verts
	case KindCircle:
		e.Circle.Center = t.apply(e.Circle.Center)
		e.Circle.Radius *= avgScale(t)
	case KindArc:
		e.Arc.Center = t.apply(e.Arc.Center)
		e.Arc.Radius *= avgScale(t)
		e.Arc.StartAngle += t.rotation
		e.Arc.EndAngle += t.rotation
	case KindText:
		e.Text.Insertion = t.apply(e.Text.Insertion)
		e.Text.Rotation += t.rotation
	case KindDimension:
		e.Dimension.Start = t.apply(e.Dimension.Start)
		e.Dimension.End = t.apply(e.Dimension.End)
		e.Dimension.MeasureStart = t.apply(e.Dimension.MeasureStart)
		e.Dimension.MeasureEnd = t.apply(e.Dimension.MeasureEnd)
	case KindAttrib:
		e.Attrib.Insertion = t.apply(e.Attrib.Insertion)
		e.Attrib.Rotation += t.rotation
	}
	return e
}

func avgScale(t transform2D) float64 {
	return (t.scaleX + t.scaleY) / 2
}

// PolylineSegments returns the LINE segments implied by a closed or open
// polyline, one per consecutive vertex pair (and one closing segment when
// Closed is true). Bulged segments are treated as straight chords.
func PolylineSegments(p Polyline) []Line {
	n := len(p.Vertices)
	if n < 2 {
		return nil
	}
	segs := make([]Line, 0, n)
	for i := 0; i < n-1; i++ {
		segs = append(segs, Line{Start: p.Vertices[i], End: p.Vertices[i+1]})
	}
	if p.Closed {
		segs = append(segs, Line{Start: p.Vertices[n-1], End: p.Vertices[0]})
	}
	return segs
}
