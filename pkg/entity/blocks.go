package entity

import "github.com/archiforge/cadrecon/pkg/geomx"

// BlockDef is a named, reusable collection of entities referenced by
// Insert.Block. Coordinates inside a block definition are in the block's
// own local frame; Flatten applies each Insert's transform to produce world
// coordinates.
type BlockDef struct {
	Name     string
	Entities []Entity
	// BasePoint is the block's local origin offset, subtracted from every
	// local coordinate before the insert's scale/rotation/translation is
	// applied, matching per-block base-point offsets used by CAD inserts.
	BasePoint geomx.Point
}

// BlockTable resolves block names to their definitions.
type BlockTable map[string]BlockDef
