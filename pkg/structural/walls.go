package structural

import (
	"math"
	"sort"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
)

// Wall is a structural wall rectangle emitted by pairing two near-parallel
// wall-layer lines whose gap matches the detected thickness vocabulary.
type Wall struct {
	OBB       geomx.OBB
	Thickness float64
}

// Bounds returns the wall rectangle's axis-aligned bounds.
func (w Wall) Bounds() geomx.Bounds { return w.OBB.Bounds() }

// ObstacleBounds satisfies Obstacle: walls cut beams.
func (w Wall) ObstacleBounds() geomx.Bounds { return w.Bounds() }

// WallConfigLike is the subset of pipeline.WallConfig walls.go needs,
// duplicated here as an interface-free struct to avoid an import cycle with
// pkg/pipeline (which imports pkg/structural to orchestrate S3).
type WallConfigLike struct {
	StandardThicknesses []float64
	FallbackThicknesses []float64
	ThicknessRoundTo    float64
	MinGap              float64
	MaxGap              float64
	MatchTolerance      float64
	SupportLateralSlack float64
	SupportMinOverlap   float64
}

// DetectThicknessVocabulary samples pairs of near-parallel wall lines and
// returns the set of gap distances that recur often enough to be a real
// wall thickness. Falls back to cfg.FallbackThicknesses
// when nothing qualifies.
func DetectThicknessVocabulary(lines []geomx.Segment, cfg WallConfigLike) []float64 {
	counts := map[float64]int{}
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			info, ok := geomx.AnalyzePair(lines[i], lines[j], 0.98)
			if !ok {
				continue
			}
			if info.Gap < cfg.MinGap || info.Gap > cfg.MaxGap {
				continue
			}
			rounded := math.Round(info.Gap/cfg.ThicknessRoundTo) * cfg.ThicknessRoundTo
			counts[rounded]++
		}
	}

	var vocab []float64
	for d, n := range counts {
		if n <= 2 {
			continue
		}
		if n > 10 || nearStandard(d, cfg.StandardThicknesses, 5) {
			vocab = append(vocab, d)
		}
	}
	if len(vocab) == 0 {
		return append([]float64{}, cfg.FallbackThicknesses...)
	}
	sort.Float64s(vocab)
	return vocab
}

func nearStandard(d float64, standards []float64, tol float64) bool {
	for _, s := range standards {
		if math.Abs(d-s) <= tol {
			return true
		}
	}
	return false
}

// BuildWalls pairs wall-layer segments into Wall rectangles. A pair is
// accepted when parallel (|dot|>=0.95), the gap matches the thickness
// vocabulary within cfg.MatchTolerance, a parallel axis line supports the
// gap, and columns (the only obstacles walls consider) split the
// longitudinal interval.
func BuildWalls(wallLines, axisLines []geomx.Segment, columns []Column, cfg WallConfigLike) ([]Wall, stageerr.Errors) {
	var errs stageerr.Errors
	vocab := DetectThicknessVocabulary(wallLines, cfg)
	used := make([]bool, len(wallLines))

	type byLen struct {
		idx int
		len float64
	}
	order := make([]byLen, len(wallLines))
	for i, l := range wallLines {
		_, length := l.Dir()
		order[i] = byLen{i, length}
	}
	sort.Slice(order, func(a, b int) bool { return order[a].len > order[b].len })

	var walls []Wall
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
			info, ok := geomx.AnalyzePair(wallLines[i], wallLines[j], 0.95)
			if !ok {
				continue
			}
			if !matchesVocab(info.Gap, vocab, cfg.MatchTolerance) {
				continue
			}
			if !axisSupports(wallLines[i], info, axisLines, cfg) {
				continue
			}

			side := signedSide(wallLines[i], wallLines[j].Mid())
			intervals := splitIntervalByObstacles(info.OverlapStart, info.OverlapEnd, wallLines[i], info.Gap, side, columns)
			for _, iv := range intervals {
				if iv.hi-iv.lo < 1e-6 {
					continue
				}
				u, _ := wallLines[i].Dir()
				p0 := wallLines[i].A.Add(u.Scale(iv.lo))
				p1 := wallLines[i].A.Add(u.Scale(iv.hi))
				obb := geomx.NewOBBFromAxis(p0, p1, info.Gap/2)
				// Shift the OBB's transverse centre to the midline between
				// the two source lines rather than line i itself. The sign
				// of the offset follows which side line j actually sits on.
				sign := signedSide(wallLines[i], wallLines[j].Mid())
				obb.Center = obb.Center.Add(obb.V.Scale(sign * info.Gap / 2))
				walls = append(walls, Wall{OBB: obb, Thickness: info.Gap})
			}
			used[j] = true
			break
		}
	}
	return walls, errs
}

// signedSide returns +1 or -1 depending on which side of ref's axis p falls.
func signedSide(ref geomx.Segment, p geomx.Point) float64 {
	u, _ := ref.Dir()
	d := p.Sub(ref.A)
	if u.Cross(d) >= 0 {
		return 1
	}
	return -1
}

func matchesVocab(gap float64, vocab []float64, tol float64) bool {
	for _, v := range vocab {
		if math.Abs(gap-v) <= tol {
			return true
		}
	}
	return false
}

func axisSupports(ref geomx.Segment, info geomx.PairInfo, axisLines []geomx.Segment, cfg WallConfigLike) bool {
	if len(axisLines) == 0 {
		return false
	}
	for _, ax := range axisLines {
		pinfo, ok := geomx.AnalyzePair(ref, ax, 0.9)
		if !ok {
			continue
		}
		if pinfo.Gap > info.Gap+cfg.SupportLateralSlack {
			continue
		}
		if pinfo.OverlapLen < cfg.SupportMinOverlap {
			continue
		}
		return true
	}
	return false
}

type interval struct{ lo, hi float64 }

// splitIntervalByObstacles removes, from [lo,hi] measured along ref's axis,
// the portion covered by any column whose lateral extent into the gap
// exceeds min(10mm, 2% of gap). side is +1 or -1 for the side of ref the
// paired line lies on, so the gap is the band between ref and side*gap.
func splitIntervalByObstacles(lo, hi float64, ref geomx.Segment, gap, side float64, columns []Column) []interval {
	segments := []interval{{lo, hi}}
	threshold := math.Min(10, 0.02*gap)
	u, _ := ref.Dir()
	bandLo, bandHi := 0.0, gap
	if side < 0 {
		bandLo, bandHi = -gap, 0
	}

	for _, col := range columns {
		corners := []geomx.Point{
			{X: col.Bounds.MinX, Y: col.Bounds.MinY},
			{X: col.Bounds.MaxX, Y: col.Bounds.MinY},
			{X: col.Bounds.MaxX, Y: col.Bounds.MaxY},
			{X: col.Bounds.MinX, Y: col.Bounds.MaxY},
		}
		minT, maxT := math.Inf(1), math.Inf(-1)
		minN, maxN := math.Inf(1), math.Inf(-1)
		for _, c := range corners {
			t := geomx.ProjectOntoLine(c, ref.A, u)
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
			n := u.Cross(c.Sub(ref.A))
			minN = math.Min(minN, n)
			maxN = math.Max(maxN, n)
		}
		lateralCoverage := math.Min(maxN, bandHi) - math.Max(minN, bandLo)
		if lateralCoverage <= threshold {
			continue
		}
		segments = cutAll(segments, minT, maxT)
	}
	return segments
}

func cutAll(segments []interval, cutLo, cutHi float64) []interval {
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

// SegmentsFromEntities flattens wall/axis-layer LINE and closed-POLYLINE
// entities into plain geomx.Segment values for the pair scans above.
func SegmentsFromEntities(entities []entity.Entity, layers entity.LayerMap, role entity.Role) []geomx.Segment {
	var out []geomx.Segment
	for _, e := range entities {
		if !layers.HasRole(e.Layer, role) {
			continue
		}
		switch e.Kind {
		case entity.KindLine:
			out = append(out, geomx.Segment{A: e.Line.Start, B: e.Line.End})
		case entity.KindPolyline:
			for _, seg := range entity.PolylineSegments(e.Polyline) {
				out = append(out, geomx.Segment{A: seg.Start, B: seg.End})
			}
		}
	}
	return out
}
