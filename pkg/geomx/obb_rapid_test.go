package geomx

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

// TestOBBReconstructionInvariant checks a universal property: for every
// OBB built from a rectangle, the reconstructed corners enclose the
// source vertices within 1mm, regardless of the rectangle's position,
// rotation, or aspect ratio.
func TestOBBReconstructionInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cx := rapid.Float64Range(-100000, 100000).Draw(rt, "cx")
		cy := rapid.Float64Range(-100000, 100000).Draw(rt, "cy")
		angleDeg := rapid.Float64Range(0, 360).Draw(rt, "angle")
		halfLen := rapid.Float64Range(25, 20000).Draw(rt, "halfLen")
		halfWidth := rapid.Float64Range(25, 5000).Draw(rt, "halfWidth")

		angle := angleDeg * math.Pi / 180
		u := Vector{X: math.Cos(angle), Y: math.Sin(angle)}
		v := u.Perp()
		center := Point{X: cx, Y: cy}

		corners := [4]Point{
			center.Add(u.Scale(-halfLen)).Add(v.Scale(-halfWidth)),
			center.Add(u.Scale(halfLen)).Add(v.Scale(-halfWidth)),
			center.Add(u.Scale(halfLen)).Add(v.Scale(halfWidth)),
			center.Add(u.Scale(-halfLen)).Add(v.Scale(halfWidth)),
		}

		o := NewOBBFromRect(corners)
		if !o.EnclosesWithinTolerance(corners[:], 1.0) {
			rt.Fatalf("OBB %+v does not enclose corners %+v within 1mm", o, corners)
		}
	})
}

