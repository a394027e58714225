package beam

import (
	"math"
	"sort"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// RawConfigLike is the subset of pipeline.BeamConfig Step 1 needs.
type RawConfigLike struct {
	MinSideLength       float64
	GapTolerance        float64
	FallbackGapMin      float64
	FallbackGapMax      float64
	MinOverlap          float64
	ObstacleCutFraction float64
	ObstacleCutMin      float64
	MinFragmentLength   float64
	CollinearStitchGap  float64
}

const (
	minPairPerpDistance = 10
	maxPairPerpDistance = 1200
)

// WidthVocabulary extracts the allowed-widths set from merged label texts:
// every integer W in a "CODE W×H" or bare "W×H" token with 100<=W<=2000.
func WidthVocabulary(labels []structural.Label) []float64 {
	seen := map[int]bool{}
	var out []float64
	for _, l := range labels {
		if !l.HasWH {
			continue
		}
		if l.Width < 100 || l.Width > 2000 {
			continue
		}
		if !seen[l.Width] {
			seen[l.Width] = true
			out = append(out, float64(l.Width))
		}
	}
	sort.Float64s(out)
	return out
}

// BuildRaw enumerates candidate beam rectangles from a pool of line segments
// plus any explicit closed beam polylines, then obstacle-cuts and stitches
// them.
func BuildRaw(lines []geomx.Segment, explicitRects []geomx.OBB, obstacles []structural.Obstacle, widthVocab []float64, cfg RawConfigLike) ([]RawFragment, stageerr.Errors) {
	var errs stageerr.Errors

	pairs := pairScanBeams(lines, widthVocab, cfg)
	frags := make([]RawFragment, 0, len(pairs)+len(explicitRects))
	for _, obb := range pairs {
		frags = append(frags, RawFragment{OBB: obb})
	}
	for _, obb := range explicitRects {
		frags = append(frags, RawFragment{OBB: obb})
	}

	frags = cutObstacles(frags, obstacles, cfg)
	frags = stitchCollinear(frags, cfg.CollinearStitchGap)
	return frags, errs
}

// pairScanBeams implements the ordered pair scan: candidates sorted by
// descending length, second line of a match marked used and ineligible for
// further pairing.
func pairScanBeams(lines []geomx.Segment, widthVocab []float64, cfg RawConfigLike) []geomx.OBB {
	type lenEntry struct {
		idx int
		len float64
	}
	order := make([]lenEntry, 0, len(lines))
	for i, l := range lines {
		_, length := l.Dir()
		if length < cfg.MinSideLength {
			continue
		}
		order = append(order, lenEntry{i, length})
	}
	sort.Slice(order, func(a, b int) bool { return order[a].len > order[b].len })

	used := make([]bool, len(lines))
	var out []geomx.OBB

	for _, oi := range order {
		i := oi.idx
		if used[i] {
			continue
		}
		for _, oj := range order {
			j := oj.idx
			if j == i || used[j] {
				continue
			}
			info, ok := geomx.AnalyzePair(lines[i], lines[j], 0.95)
			if !ok {
				continue
			}
			if info.Gap < minPairPerpDistance || info.Gap > maxPairPerpDistance {
				continue
			}
			if info.OverlapLen < cfg.MinOverlap {
				continue
			}
			if !gapMatches(info.Gap, widthVocab, cfg) {
				continue
			}

			u, _ := lines[i].Dir()
			p0 := lines[i].A.Add(u.Scale(info.OverlapStart))
			p1 := lines[i].A.Add(u.Scale(info.OverlapEnd))
			obb := geomx.NewOBBFromAxis(p0, p1, info.Gap/2)
			sign := signedSideSeg(lines[i], lines[j].Mid())
			obb.Center = obb.Center.Add(obb.V.Scale(sign * info.Gap / 2))
			out = append(out, obb)

			used[j] = true
			break
		}
	}
	return out
}

func signedSideSeg(ref geomx.Segment, p geomx.Point) float64 {
	u, _ := ref.Dir()
	d := p.Sub(ref.A)
	if u.Cross(d) >= 0 {
		return 1
	}
	return -1
}

func gapMatches(gap float64, vocab []float64, cfg RawConfigLike) bool {
	if len(vocab) == 0 {
		return gap >= cfg.FallbackGapMin && gap <= cfg.FallbackGapMax
	}
	for _, w := range vocab {
		if math.Abs(gap-w) <= cfg.GapTolerance {
			return true
		}
	}
	return false
}

// cutObstacles subtracts, along each fragment's longitudinal axis, the
// union of intervals occupied by obstacles whose lateral overlap with the
// beam's width exceeds min(2%*width, 5mm). Sub-10mm results are discarded.
func cutObstacles(frags []RawFragment, obstacles []structural.Obstacle, cfg RawConfigLike) []RawFragment {
	var out []RawFragment
	for _, f := range frags {
		threshold := math.Min(cfg.ObstacleCutFraction*f.OBB.Width(), cfg.ObstacleCutMin)
		intervals := []interval{{f.OBB.MinT, f.OBB.MaxT}}
		for _, obs := range obstacles {
			b := obs.ObstacleBounds()
			minT, maxT, lateral, ok := projectBoundsOntoOBB(f.OBB, b)
			if !ok || lateral <= threshold {
				continue
			}
			intervals = cutAllIV(intervals, minT, maxT)
		}
		for _, iv := range intervals {
			if iv.hi-iv.lo < cfg.MinFragmentLength {
				continue
			}
			out = append(out, RawFragment{OBB: f.OBB.WithInterval(iv.lo, iv.hi)})
		}
	}
	return out
}

type interval struct{ lo, hi float64 }

func cutAllIV(segments []interval, cutLo, cutHi float64) []interval {
	var out []interval
	for _, s := range segments {
		lo, hi := math.Max(s.lo, cutLo), math.Min(s.hi, cutHi)
		if hi <= lo {
			out = append(out, s)
			continue
		}
		if cutLo > s.lo {
			out = append(out, interval{s.lo, cutLo})
		}
		if cutHi < s.hi {
			out = append(out, interval{cutHi, s.hi})
		}
	}
	return out
}

// projectBoundsOntoOBB projects an axis-aligned obstacle bounds onto o's
// local frame, returning the longitudinal interval it occupies and the
// width of the transverse band it shares with o's [-HalfWidth, HalfWidth].
func projectBoundsOntoOBB(o geomx.OBB, b geomx.Bounds) (minT, maxT, lateral float64, ok bool) {
	corners := []geomx.Point{
		{X: b.MinX, Y: b.MinY}, {X: b.MaxX, Y: b.MinY},
		{X: b.MaxX, Y: b.MaxY}, {X: b.MinX, Y: b.MaxY},
	}
	minT, maxT = math.Inf(1), math.Inf(-1)
	minN, maxN := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		t, n := o.ToLocal(c)
		if t < minT {
			minT = t
		}
		if t > maxT {
			maxT = t
		}
		minN = math.Min(minN, n)
		maxN = math.Max(maxN, n)
	}
	maxLateral := math.Min(maxN, o.HalfWidth) - math.Max(minN, -o.HalfWidth)
	if maxLateral <= 0 || maxT < o.MinT || minT > o.MaxT {
		return 0, 0, 0, false
	}
	if minT < o.MinT {
		minT = o.MinT
	}
	if maxT > o.MaxT {
		maxT = o.MaxT
	}
	return minT, maxT, maxLateral, true
}

// stitchCollinear merges near-collinear raw fragments separated by a gap of
// at most maxGap, stitching CAD splicing artifacts back together.
func stitchCollinear(frags []RawFragment, maxGap float64) []RawFragment {
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(frags); i++ {
			for j := i + 1; j < len(frags); j++ {
				merged, ok := tryCollinearMerge(frags[i].OBB, frags[j].OBB, maxGap)
				if !ok {
					continue
				}
				frags[i] = RawFragment{OBB: merged}
				frags = append(frags[:j], frags[j+1:]...)
				changed = true
				break
			}
			if changed {
				break
			}
		}
	}
	return frags
}

func tryCollinearMerge(a, b geomx.OBB, maxGap float64) (geomx.OBB, bool) {
	if math.Abs(a.U.Dot(b.U)) < 0.999 {
		return geomx.OBB{}, false
	}
	// Express b's interval in a's local frame.
	bMinPt, bMaxPt := b.PointAtT(b.MinT), b.PointAtT(b.MaxT)
	t0, n0 := a.ToLocal(bMinPt)
	t1, n1 := a.ToLocal(bMaxPt)
	if math.Abs(n0) > 5 || math.Abs(n1) > 5 {
		return geomx.OBB{}, false
	}
	bMin, bMax := math.Min(t0, t1), math.Max(t0, t1)

	gap := 0.0
	if bMin > a.MaxT {
		gap = bMin - a.MaxT
	} else if a.MinT > bMax {
		gap = a.MinT - bMax
	}
	if gap > maxGap {
		return geomx.OBB{}, false
	}

	merged := a
	merged.MinT = math.Min(a.MinT, bMin)
	merged.MaxT = math.Max(a.MaxT, bMax)
	if b.HalfWidth > a.HalfWidth {
		merged.HalfWidth = b.HalfWidth
	}
	return merged, true
}

// SegmentsFromBeamEntities collects beam-layer LINE segments and returns
// them alongside any already-closed beam-layer POLYLINE rectangles
// (included verbatim).
func SegmentsFromBeamEntities(entities []entity.Entity, layers entity.LayerMap) ([]geomx.Segment, []geomx.OBB) {
	var segs []geomx.Segment
	var rects []geomx.OBB
	for _, e := range entities {
		if !layers.HasRole(e.Layer, entity.RoleBeam) {
			continue
		}
		switch e.Kind {
		case entity.KindLine:
			segs = append(segs, geomx.Segment{A: e.Line.Start, B: e.Line.End})
		case entity.KindPolyline:
			if e.Polyline.Closed && len(e.Polyline.Vertices) == 4 {
				var corners [4]geomx.Point
				copy(corners[:], e.Polyline.Vertices)
				rects = append(rects, geomx.NewOBBFromRect(corners))
				continue
			}
			for _, seg := range entity.PolylineSegments(e.Polyline) {
				segs = append(segs, geomx.Segment{A: seg.Start, B: seg.End})
			}
		}
	}
	return segs, rects
}
