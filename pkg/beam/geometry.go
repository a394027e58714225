package beam

import (
	"math"
	"sort"

	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// GeomConfigLike is the subset of pipeline.BeamConfig/JunctionConfig Step 2
// needs.
type GeomConfigLike struct {
	AnchorProbe        float64
	OffsetTolerance    float64
	WidthDiffTolerance float64
	CollinearMergeGap  float64
	ParallelMergeSlack float64
	ValidWidths        []float64 // for the extension search budget
	ClusterGrid        float64
	ArmExtentTolerance float64
}

func (c GeomConfigLike) maxSearchDist() float64 {
	m := 600.0
	for _, w := range c.ValidWidths {
		if w > m {
			m = w
		}
	}
	return m
}

// BuildGeometry runs Step 2: collinear merge with crossing support,
// extension to perpendicular targets, parallel merge, and junction
// detection.
func BuildGeometry(raw []RawFragment, obstacles []structural.Obstacle, viewportBounds []geomx.Bounds, cfg GeomConfigLike) ([]GeomFragment, []IntersectionInfo, stageerr.Errors) {
	var errs stageerr.Errors

	merged := collinearMergeWithCrossing(raw, obstacles, cfg)
	extended := extendToPerpendicular(merged, obstacles, viewportBounds, cfg)
	parallelMerged := parallelMerge(extended, cfg)

	frags := make([]GeomFragment, len(parallelMerged))
	for i, f := range parallelMerged {
		frags[i] = GeomFragment{RawFragment: f, Index: i + 1}
	}

	junctions := detectJunctions(frags, cfg)
	for i := range frags {
		for _, j := range junctions {
			for _, m := range j.MemberIndices {
				if m == frags[i].Index {
					frags[i].JunctionMember = true
				}
			}
		}
	}

	return frags, junctions, errs
}

func isAnchored(o geomx.OBB, obstacles []structural.Obstacle, probe float64) bool {
	endLo := o.PointAtT(o.MinT - probe)
	endHi := o.PointAtT(o.MaxT + probe)
	return pointInAnyObstacle(endLo, obstacles) && pointInAnyObstacle(endHi, obstacles)
}

func pointInAnyObstacle(p geomx.Point, obstacles []structural.Obstacle) bool {
	for _, obs := range obstacles {
		if obs.ObstacleBounds().ContainsPoint(p) {
			return true
		}
	}
	return false
}

// collinearMergeWithCrossing merges pairs of parallel beams separated by a
// gap no greater than cfg.CollinearMergeGap, provided the gap is not
// blocked by an obstacle and (when the gap exceeds 5mm) is crossed by a
// perpendicular beam.
func collinearMergeWithCrossing(raw []RawFragment, obstacles []structural.Obstacle, cfg GeomConfigLike) []RawFragment {
	n := len(raw)
	uf := newUnionFind(n)

	type pairKey struct{ i, j int }
	var candidates []pairKey
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if canCollinearMerge(raw[i].OBB, raw[j].OBB, raw, obstacles, cfg) {
				candidates = append(candidates, pairKey{i, j})
			}
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].i != candidates[b].i {
			return candidates[a].i < candidates[b].i
		}
		return candidates[a].j < candidates[b].j
	})
	for _, c := range candidates {
		uf.Union(c.i, c.j)
	}

	groups := uf.Groups()
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var out []RawFragment
	for _, root := range keys {
		members := groups[root]
		sort.Ints(members)
		out = append(out, RawFragment{OBB: unionOBBs(raw, members)})
	}
	return out
}

func unionOBBs(raw []RawFragment, members []int) geomx.OBB {
	base := raw[members[0]].OBB
	minT, maxT := base.MinT, base.MaxT
	halfWidth := base.HalfWidth
	for _, m := range members[1:] {
		o := raw[m].OBB
		t0, _ := base.ToLocal(o.PointAtT(o.MinT))
		t1, _ := base.ToLocal(o.PointAtT(o.MaxT))
		if t0 < minT {
			minT = t0
		}
		if t1 > maxT {
			maxT = t1
		}
		if t0 > maxT {
			maxT = t0
		}
		if t1 < minT {
			minT = t1
		}
		if o.HalfWidth > halfWidth {
			halfWidth = o.HalfWidth
		}
	}
	base.MinT, base.MaxT, base.HalfWidth = minT, maxT, halfWidth
	return base
}

func canCollinearMerge(a, b geomx.OBB, all []RawFragment, obstacles []structural.Obstacle, cfg GeomConfigLike) bool {
	if math.Abs(a.U.Dot(b.U)) < 0.999 {
		return false
	}
	if math.Abs(a.HalfWidth-b.HalfWidth)*2 > cfg.WidthDiffTolerance {
		return false
	}
	t0, n0 := a.ToLocal(b.PointAtT(b.MinT))
	t1, n1 := a.ToLocal(b.PointAtT(b.MaxT))
	avgOffset := (math.Abs(n0) + math.Abs(n1)) / 2
	if avgOffset > cfg.OffsetTolerance {
		return false
	}
	bMin, bMax := math.Min(t0, t1), math.Max(t0, t1)

	var gap float64
	if bMin > a.MaxT {
		gap = bMin - a.MaxT
	} else if a.MinT > bMax {
		gap = a.MinT - bMax
	} else {
		gap = 0 // overlapping, treat as mergeable
	}
	if gap > cfg.CollinearMergeGap {
		return false
	}

	gapLo, gapHi := a.MaxT, bMin
	if a.MinT > bMax {
		gapLo, gapHi = bMax, a.MinT
	}
	if gapHi < gapLo {
		gapLo, gapHi = gapHi, gapLo
	}
	gapBox := geomx.OBB{Center: a.Center, U: a.U, V: a.V, HalfWidth: math.Max(a.HalfWidth, b.HalfWidth), MinT: gapLo, MaxT: gapHi}
	if obstacleBlocks(gapBox, obstacles) {
		return false
	}

	if gap > 5 {
		mid := a.PointAtT((gapLo + gapHi) / 2)
		if !crossedByPerpendicular(mid, a.U, all) {
			return false
		}
	}
	return true
}

func obstacleBlocks(gapBox geomx.OBB, obstacles []structural.Obstacle) bool {
	gb := gapBox.Bounds()
	for _, obs := range obstacles {
		if gb.Overlaps(obs.ObstacleBounds()) {
			return true
		}
	}
	return false
}

func crossedByPerpendicular(mid geomx.Point, axis geomx.Vector, all []RawFragment) bool {
	for _, f := range all {
		if math.Abs(f.OBB.U.Dot(axis)) > 0.1 {
			continue
		}
		if f.OBB.Contains(mid, 0) {
			return true
		}
	}
	return false
}

// extendToPerpendicular extends each unanchored beam end to the farthest
// perpendicular target hit, clamped by the nearest obstacle, the containing
// viewport, and the global search budget.
func extendToPerpendicular(frags []RawFragment, obstacles []structural.Obstacle, viewportBounds []geomx.Bounds, cfg GeomConfigLike) []RawFragment {
	budget := cfg.maxSearchDist()
	out := make([]RawFragment, len(frags))
	for i, f := range frags {
		o := f.OBB
		if isAnchored(o, obstacles, cfg.AnchorProbe) {
			out[i] = f
			continue
		}
		extLo := extensionAmount(o, o.MinT, o.U.Scale(-1), frags, obstacles, viewportBounds, budget)
		extHi := extensionAmount(o, o.MaxT, o.U, frags, obstacles, viewportBounds, budget)
		o.MinT -= extLo
		o.MaxT += extHi
		out[i] = RawFragment{OBB: o}
	}
	return out
}

func extensionAmount(o geomx.OBB, endT float64, dir geomx.Vector, frags []RawFragment, obstacles []structural.Obstacle, viewportBounds []geomx.Bounds, budget float64) float64 {
	endCenter := o.PointAtT(endT)
	corner1 := endCenter.Add(o.V.Scale(o.HalfWidth))
	corner2 := endCenter.Add(o.V.Scale(-o.HalfWidth))
	origins := []geomx.Point{endCenter, corner1, corner2}

	maxT := 0.0
	for _, origin := range origins {
		ray := geomx.Ray{Origin: origin, Dir: dir}
		limit := budget
		if t, ok := firstObstacleT(ray, obstacles); ok && t < limit {
			limit = t
		}
		if t, ok := containingViewportT(ray, origin, viewportBounds); ok && t < limit {
			limit = t
		}
		best := 0.0
		for _, target := range frags {
			if math.Abs(target.OBB.U.Dot(o.U)) > 0.1 {
				continue
			}
			_, tExit, ok := ray.IntersectOBB(target.OBB)
			if !ok {
				continue
			}
			if tExit > best && tExit <= limit {
				best = tExit
			}
		}
		if best > maxT {
			maxT = best
		}
	}
	return maxT
}

func firstObstacleT(ray geomx.Ray, obstacles []structural.Obstacle) (float64, bool) {
	found := false
	best := math.Inf(1)
	for _, obs := range obstacles {
		b := obs.ObstacleBounds()
		corners := [4]geomx.Point{
			{X: b.MinX, Y: b.MinY}, {X: b.MaxX, Y: b.MinY},
			{X: b.MaxX, Y: b.MaxY}, {X: b.MinX, Y: b.MaxY},
		}
		box := geomx.NewOBBFromRect(corners)
		tEnter, _, ok := ray.IntersectOBB(box)
		if !ok {
			continue
		}
		if tEnter < best {
			best = tEnter
			found = true
		}
	}
	return best, found
}

func containingViewportT(ray geomx.Ray, origin geomx.Point, bounds []geomx.Bounds) (float64, bool) {
	for _, b := range bounds {
		if !b.ContainsPoint(origin) {
			continue
		}
		corners := [4]geomx.Point{
			{X: b.MinX, Y: b.MinY}, {X: b.MaxX, Y: b.MinY},
			{X: b.MaxX, Y: b.MaxY}, {X: b.MinX, Y: b.MaxY},
		}
		box := geomx.NewOBBFromRect(corners)
		_, tExit, ok := ray.IntersectOBB(box)
		if ok {
			return tExit, true
		}
	}
	return 0, false
}

// parallelMerge unions overlapping near-parallel beams (dot>=0.98,
// transverse offset within combined half-widths plus 50mm, AABB overlap).
func parallelMerge(frags []RawFragment, cfg GeomConfigLike) []RawFragment {
	n := len(frags)
	uf := newUnionFind(n)
	var candidates [][2]int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := frags[i].OBB, frags[j].OBB
			if math.Abs(a.U.Dot(b.U)) < 0.98 {
				continue
			}
			if !a.Bounds().Overlaps(b.Bounds()) {
				continue
			}
			_, n0 := a.ToLocal(b.Center)
			if math.Abs(n0) > a.HalfWidth+b.HalfWidth+cfg.ParallelMergeSlack {
				continue
			}
			candidates = append(candidates, [2]int{i, j})
		}
	}
	sort.Slice(candidates, func(x, y int) bool {
		if candidates[x][0] != candidates[y][0] {
			return candidates[x][0] < candidates[y][0]
		}
		return candidates[x][1] < candidates[y][1]
	})
	for _, c := range candidates {
		uf.Union(c[0], c[1])
	}
	groups := uf.Groups()
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var out []RawFragment
	for _, root := range keys {
		members := groups[root]
		sort.Ints(members)
		out = append(out, RawFragment{OBB: unionOBBs(frags, members)})
	}
	return out
}
