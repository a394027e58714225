package geomx

import "math"

// Segment is a straight line from A to B, used by the parallel-pair scans
// shared by wall synthesis (S3) and beam raw synthesis (S4).
type Segment struct {
	A, B Point
}

// Dir returns the unit direction from A to B and the segment's length.
func (s Segment) Dir() (Vector, float64) {
	return DirectionFromTo(s.A, s.B)
}

// Mid returns the segment's midpoint.
func (s Segment) Mid() Point {
	return s.A.Lerp(s.B, 0.5)
}

// PairInfo describes the geometric relationship between two near-parallel
// segments: their perpendicular gap, and their longitudinal overlap
// interval measured along the reference segment's own axis.
type PairInfo struct {
	Dot            float64 // dot product of unit directions (sign-sensitive)
	Gap            float64 // perpendicular distance between the two lines
	OverlapStart   float64 // overlap interval start, in ref's local t
	OverlapEnd     float64 // overlap interval end, in ref's local t
	OverlapLen     float64
}

// AnalyzePair computes the parallel-pair relationship of seg against ref.
// ok is false when the segments are not near-parallel enough to analyze
// (caller supplies the dot-product threshold).
func AnalyzePair(ref, seg Segment, minAbsDot float64) (PairInfo, bool) {
	uRef, refLen := ref.Dir()
	uSeg, segLen := seg.Dir()
	if refLen < 1e-9 || segLen < 1e-9 {
		return PairInfo{}, false
	}
	dot := uRef.Dot(uSeg)
	if math.Abs(dot) < minAbsDot {
		return PairInfo{}, false
	}

	gap := PerpDistanceToLine(seg.Mid(), ref.A, uRef)

	// Project seg's endpoints onto ref's axis to find the overlap interval.
	t0 := ProjectOntoLine(seg.A, ref.A, uRef)
	t1 := ProjectOntoLine(seg.B, ref.A, uRef)
	segLo, segHi := math.Min(t0, t1), math.Max(t0, t1)
	refLo, refHi := 0.0, refLen

	lo := math.Max(segLo, refLo)
	hi := math.Min(segHi, refHi)
	overlapLen := hi - lo
	if overlapLen < 0 {
		overlapLen = 0
	}

	return PairInfo{
		Dot:          dot,
		Gap:          gap,
		OverlapStart: lo,
		OverlapEnd:   hi,
		OverlapLen:   overlapLen,
	}, true
}
