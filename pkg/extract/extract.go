package extract

import (
	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
)

// Extract flattens every INSERT in the raw entity stream into leaf
// primitives (respecting block base points and row/column grid
// replication, via entity.Flatten) and tags each result with its leaf
// layer. layers is carried through unused here; it is consulted by every
// later stage for role lookups, not by flattening itself.
func Extract(layers entity.LayerMap, entities []entity.Entity, blocks entity.BlockTable) ([]entity.Entity, stageerr.Errors) {
	var errs stageerr.Errors
	if len(entities) == 0 {
		errs = errs.Add(stageerr.KindInvalidInput, "extract", geomx.Point{}, "empty entity stream")
	}
	return entity.Flatten(entities, blocks), errs
}

// FilterInBounds keeps an entity when any of its anchor points (start, end,
// measure-start, measure-end, bounds centre) lies inside any bounds in
// boundsList, or the entity's own bounds overlap any of them.
func FilterInBounds(stream []entity.Entity, boundsList []geomx.Bounds) []entity.Entity {
	var out []entity.Entity
	for _, e := range stream {
		if entityInBounds(e, boundsList) {
			out = append(out, e)
		}
	}
	return out
}

func entityInBounds(e entity.Entity, boundsList []geomx.Bounds) bool {
	eb := e.Bounds()
	for _, b := range boundsList {
		if b.Overlaps(eb) {
			return true
		}
		for _, p := range e.AnchorPoints() {
			if b.ContainsPoint(p) {
				return true
			}
		}
	}
	return false
}

// RequireMergeBase returns the union of region bounds once Split Views has
// run. When regionBounds is empty, it fails soft: zero Bounds plus a
// PRECONDITION_MISSING error, with a "please run Split
// Views" contract instead of panicking.
func RequireMergeBase(regionBounds []geomx.Bounds) (geomx.Bounds, stageerr.Errors) {
	if len(regionBounds) == 0 {
		errs := stageerr.Errors{}.Add(stageerr.KindPreconditionMissing, "extract", geomx.Point{}, "please run Split Views")
		return geomx.Bounds{}, errs
	}
	union := geomx.EmptyBounds()
	for _, b := range regionBounds {
		union = union.Union(b)
	}
	return union, nil
}
