package beam

import "github.com/archiforge/cadrecon/pkg/geomx"

// RawFragment is Step 1's output: geometry only, no identity yet.
type RawFragment struct {
	OBB geomx.OBB
}

// ObstacleBounds satisfies structural.Obstacle. The pipeline's obstacle list
// holds only columns and walls, so raw fragments are not passed as
// obstacles to any stage.
func (f RawFragment) ObstacleBounds() geomx.Bounds { return f.OBB.Bounds() }

// GeomFragment is Step 2's output: a stable index and junction membership
// added to the raw geometry.
type GeomFragment struct {
	RawFragment
	Index          int
	JunctionMember bool
}

// AttrFragment is Step 3's output: a structural label attached to the
// geometry.
type AttrFragment struct {
	GeomFragment
	Code      string
	Span      int // resolved, defaults to 1 when the label omitted it
	Width     float64
	Height    float64
	RawLabel  string
	FromLabel bool
}

// CodePriority returns the Step-4 code-priority rank: 2 for
// WKL/KL/LL/XL-prefixed codes, 1 for L-prefixed, 0 otherwise.
func (f AttrFragment) CodePriority() int {
	return codePriority(f.Code)
}

// Fragment is Step 4's output: final, possibly-cut geometry with computed
// quantities and a parent pointer back to the Step-3 fragment it was cut
// from (itself when uncut).
type Fragment struct {
	AttrFragment
	ParentIndex int
	Length      float64
	Volume      float64
}
