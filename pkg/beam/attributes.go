package beam

import (
	"math"
	"sort"

	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// AttrConfigLike is the subset of pipeline.BeamConfig Step 3 needs.
type AttrConfigLike struct {
	LabelHitTolerance  float64
	RunOffsetTolerance float64
	RunSampleStep      float64
	FallbackWidth      float64
	FallbackHeight     float64
}

type stamped struct {
	code      string
	span      int
	width     float64
	height    float64
	rawLabel  string
	fromLabel bool
	has       bool
}

// BuildAttributes assigns each beam fragment a structural label: leader
// hit-testing with conflict rejection, run-based propagation, then
// UNKNOWN fallback.
func BuildAttributes(frags []GeomFragment, labels []structural.Label, obstacles []structural.Obstacle, cfg AttrConfigLike) ([]AttrFragment, stageerr.Errors) {
	var errs stageerr.Errors

	marks := make([]stamped, len(frags))
	for _, l := range labels {
		hitAnchor, okA := hitTest(frags, l.Insertion, cfg.LabelHitTolerance)
		hitLeader, okL := -1, false
		if l.LeaderEnd != nil {
			hitLeader, okL = hitTest(frags, *l.LeaderEnd, cfg.LabelHitTolerance)
		}

		var target int
		switch {
		case okA && okL:
			if hitAnchor != hitLeader {
				errs = errs.Add(stageerr.KindLeaderConflict, "beam_attributes", l.Insertion, "leader endpoints land on different beams for label "+l.RawText)
				continue
			}
			target = hitAnchor
		case okA:
			target = hitAnchor
		case okL:
			target = hitLeader
		default:
			continue
		}

		span := l.Span
		if !l.HasSpan {
			span = 1
		}
		marks[target] = stamped{
			code: l.Code, span: span,
			width: float64(l.Width), height: float64(l.Height),
			rawLabel: l.RawText, fromLabel: true, has: true,
		}
	}

	propagateAlongRuns(frags, marks, obstacles, cfg)

	fallbackW, fallbackH := firstCompleteWH(marks, cfg)

	out := make([]AttrFragment, len(frags))
	for i, f := range frags {
		m := marks[i]
		if !m.has {
			errs = errs.Add(stageerr.KindUnknownCode, "beam_attributes", f.OBB.Midpoint(), "fragment has no label or propagation source")
			m = stamped{code: "UNKNOWN", span: 1, width: fallbackW, height: fallbackH}
		}
		out[i] = AttrFragment{
			GeomFragment: f,
			Code:         m.code,
			Span:         m.span,
			Width:        m.width,
			Height:       m.height,
			RawLabel:     m.rawLabel,
			FromLabel:    m.fromLabel,
		}
	}
	return out, errs
}

func hitTest(frags []GeomFragment, p geomx.Point, tol float64) (int, bool) {
	for i, f := range frags {
		if f.OBB.Contains(p, tol) {
			return i, true
		}
	}
	return -1, false
}

func firstCompleteWH(marks []stamped, cfg AttrConfigLike) (float64, float64) {
	for _, m := range marks {
		if m.has && m.width > 0 && m.height > 0 {
			return m.width, m.height
		}
	}
	return cfg.FallbackWidth, cfg.FallbackHeight
}

// propagateAlongRuns copies the first label-stamped attribute block onto
// unlabelled members of the same continuously-covered collinear run.
func propagateAlongRuns(frags []GeomFragment, marks []stamped, obstacles []structural.Obstacle, cfg AttrConfigLike) {
	order := make([]int, len(frags))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		oa, ob := frags[order[a]].OBB, frags[order[b]].OBB
		aa, ab := oa.U.AngleDeg(), ob.U.AngleDeg()
		if aa != ab {
			return aa < ab
		}
		return perpFromOrigin(oa) < perpFromOrigin(ob)
	})

	allFrags := allOBBs(frags)

	i := 0
	for i < len(order) {
		runStart := i
		runMembers := []int{order[i]}
		j := i + 1
		for j < len(order) {
			prev, cur := frags[order[j-1]].OBB, frags[order[j]].OBB
			if !sameRun(prev, cur, allFrags, obstacles, cfg) {
				break
			}
			runMembers = append(runMembers, order[j])
			j++
		}
		applyRunPropagation(runMembers, marks)
		i = j
		if j == runStart {
			i++
		}
	}
}

func perpFromOrigin(o geomx.OBB) float64 {
	return geomx.PerpDistanceToLine(geomx.Point{}, o.Center, o.U) * signOf(o)
}

func signOf(o geomx.OBB) float64 {
	d := o.Center.Sub(geomx.Point{})
	if o.V.Dot(d) >= 0 {
		return 1
	}
	return -1
}

func sameRun(a, b geomx.OBB, allFrags []geomx.OBB, obstacles []structural.Obstacle, cfg AttrConfigLike) bool {
	if math.Abs(a.U.Dot(b.U)) < 0.98 {
		return false
	}
	if math.Abs(perpFromOrigin(a)-perpFromOrigin(b)) > cfg.RunOffsetTolerance {
		return false
	}
	p0, p1 := closestEndpoints(a, b)
	return continuouslyCovered(p0, p1, allFrags, obstacles, cfg.RunSampleStep)
}

func allOBBs(frags []GeomFragment) []geomx.OBB {
	out := make([]geomx.OBB, len(frags))
	for i, f := range frags {
		out[i] = f.OBB
	}
	return out
}

func closestEndpoints(a, b geomx.OBB) (geomx.Point, geomx.Point) {
	aPts := []geomx.Point{a.PointAtT(a.MinT), a.PointAtT(a.MaxT)}
	bPts := []geomx.Point{b.PointAtT(b.MinT), b.PointAtT(b.MaxT)}
	best := math.Inf(1)
	var bp0, bp1 geomx.Point
	for _, pa := range aPts {
		for _, pb := range bPts {
			d := pa.Dist(pb)
			if d < best {
				best = d
				bp0, bp1 = pa, pb
			}
		}
	}
	return bp0, bp1
}

// continuouslyCovered samples p0..p1 at step intervals and requires every
// sample to land inside some beam OBB (any fragment, not just the run's
// endpoints) or inside an obstacle, so a gap bridged by a crossing
// perpendicular beam counts as covered the same way an obstacle does.
func continuouslyCovered(p0, p1 geomx.Point, beams []geomx.OBB, obstacles []structural.Obstacle, step float64) bool {
	_, dist := geomx.DirectionFromTo(p0, p1)
	if dist < 1e-6 {
		return true
	}
	steps := int(math.Ceil(dist / step))
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		p := p0.Lerp(p1, t)
		covered := false
		for _, o := range beams {
			if o.Contains(p, 0) {
				covered = true
				break
			}
		}
		if !covered && pointInAnyObstacle(p, obstacles) {
			covered = true
		}
		if !covered {
			return false
		}
	}
	return true
}

func applyRunPropagation(members []int, marks []stamped) {
	var source stamped
	found := false
	for _, idx := range members {
		if marks[idx].has {
			source = marks[idx]
			found = true
			break
		}
	}
	if !found {
		return
	}
	for _, idx := range members {
		if !marks[idx].has {
			marks[idx] = stamped{
				code: source.code, span: source.span,
				width: source.width, height: source.height,
				rawLabel: source.rawLabel, fromLabel: false, has: true,
			}
		}
	}
}
