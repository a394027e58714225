package structural

import (
	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
)

// Column is a structural column emitted from any closed polyline, circle,
// or insert-derived leaf shape on a column-semantic layer.
type Column struct {
	Bounds geomx.Bounds
	Center geomx.Point
	Width  float64
	Height float64
}

// ObstacleBounds returns Bounds, satisfying the Obstacle interface used by
// the beam and wall cutting passes.
func (c Column) ObstacleBounds() geomx.Bounds { return c.Bounds }

// BuildColumns emits a Column for every closed polyline, circle, or leaf
// entity on a column-semantic layer.
func BuildColumns(entities []entity.Entity, layers entity.LayerMap) []Column {
	var out []Column
	for _, e := range entities {
		if !layers.HasRole(e.Layer, entity.RoleColumn) {
			continue
		}
		switch e.Kind {
		case entity.KindPolyline:
			if !e.Polyline.Closed {
				continue
			}
			out = append(out, columnFromBounds(e.Bounds()))
		case entity.KindCircle:
			out = append(out, columnFromBounds(e.Bounds()))
		case entity.KindInsert:
			out = append(out, columnFromBounds(e.Bounds()))
		}
	}
	return out
}

func columnFromBounds(b geomx.Bounds) Column {
	return Column{
		Bounds: b,
		Center: b.Center(),
		Width:  b.Width(),
		Height: b.Height(),
	}
}
