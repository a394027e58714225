package geomx

import "math"

// Ray is a half-line starting at Origin travelling in unit direction Dir.
type Ray struct {
	Origin Point
	Dir    Vector
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Point {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectOBB casts the ray against o's rectangle and returns the entry
// and exit parameters (tEnter <= tExit) where the ray is inside the
// rectangle, and whether any intersection exists for t >= 0.
//
// This is the primitive behind Step 2's extension-to-perpendicular-target
// search: the caller takes a target's tExit as the reach needed and an
// obstacle's tEnter as the point where the extension is clamped.
func (r Ray) IntersectOBB(o OBB) (tEnter, tExit float64, ok bool) {
	// Transform the ray into the OBB's local frame and clip against the
	// local axis-aligned rectangle [MinT,MaxT] x [-HalfWidth,HalfWidth]
	// using the slab method.
	originT, originN := o.ToLocal(r.Origin)
	dirT := r.Dir.Dot(o.U)
	dirN := r.Dir.Dot(o.V)

	tMin, tMax := math.Inf(-1), math.Inf(1)

	if !clipSlab(originT, dirT, o.MinT, o.MaxT, &tMin, &tMax) {
		return 0, 0, false
	}
	if !clipSlab(originN, dirN, -o.HalfWidth, o.HalfWidth, &tMin, &tMax) {
		return 0, 0, false
	}
	if tMax < 0 {
		return 0, 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, tMax, true
}

// clipSlab narrows [tMin,tMax] to the portion of the ray parametrised by
// origin+t*dir that lies within [lo,hi] along one axis. Returns false if the
// ray never enters the slab.
func clipSlab(origin, dir, lo, hi float64, tMin, tMax *float64) bool {
	const eps = 1e-12
	if math.Abs(dir) < eps {
		// Ray is parallel to this slab: must already be inside it.
		return origin >= lo-1e-9 && origin <= hi+1e-9
	}
	t1 := (lo - origin) / dir
	t2 := (hi - origin) / dir
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > *tMin {
		*tMin = t1
	}
	if t2 < *tMax {
		*tMax = t2
	}
	return *tMin <= *tMax
}

// SegmentIntersect returns the intersection point of segments p0-p1 and
// q0-q1, if any, along with the parametric positions s (on p) and t (on q)
// both in [0,1].
func SegmentIntersect(p0, p1, q0, q1 Point) (pt Point, s, t float64, ok bool) {
	r := p1.Sub(p0)
	q := q1.Sub(q0)
	denom := r.Cross(q)
	if math.Abs(denom) < 1e-12 {
		return Point{}, 0, 0, false
	}
	qp := q0.Sub(p0)
	s = qp.Cross(q) / denom
	t = qp.Cross(r) / denom
	if s < -1e-9 || s > 1+1e-9 || t < -1e-9 || t > 1+1e-9 {
		return Point{}, 0, 0, false
	}
	return p0.Add(r.Scale(s)), s, t, true
}

// LineIntersect returns the intersection of the infinite lines through
// p0-p1 and q0-q1, without clamping to the segments.
func LineIntersect(p0, p1, q0, q1 Point) (pt Point, ok bool) {
	r := p1.Sub(p0)
	q := q1.Sub(q0)
	denom := r.Cross(q)
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	qp := q0.Sub(p0)
	s := qp.Cross(q) / denom
	return p0.Add(r.Scale(s)), true
}

// PerpDistanceToLine returns the perpendicular distance from p to the
// infinite line through a with unit direction dir.
func PerpDistanceToLine(p, a Point, dir Vector) float64 {
	d := p.Sub(a)
	return math.Abs(d.Cross(dir))
}

// ProjectOntoLine returns the signed position of p along the infinite line
// through a with unit direction dir.
func ProjectOntoLine(p, a Point, dir Vector) float64 {
	return p.Sub(a).Dot(dir)
}
