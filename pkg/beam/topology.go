package beam

import (
	"math"
	"regexp"
	"sort"

	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
)

var priorityHighRe = regexp.MustCompile(`^(WKL|KL|LL|XL)`)
var priorityMidRe = regexp.MustCompile(`^L`)

// codePriority ranks a beam code for Pass 4: 2 for WKL/KL/LL/XL-prefixed
// codes, 1 for L-prefixed, 0 otherwise.
func codePriority(code string) int {
	switch {
	case priorityHighRe.MatchString(code):
		return 2
	case priorityMidRe.MatchString(code):
		return 1
	default:
		return 0
	}
}

// TopoConfigLike is the subset of pipeline.JunctionConfig Step 4 needs.
type TopoConfigLike struct {
	EdgeTolerance float64 // mm; default 10
}

// piece is a working fragment during the Step-4 cascade: a Step-3 fragment,
// or a cut-off sub-fragment of one, addressed by its Step-3 origin index plus
// a name suffix (-A/-B/-T/-H). Dead pieces stay in byOrigin so membership
// lookups by origin can filter them without a separate removal pass.
type piece struct {
	origin int
	attr   AttrFragment
	obb    geomx.OBB
	suffix string
	dead   bool
	// clearOf holds the centres of junctions this piece was cut away from;
	// it no longer counts as a member there even if it still touches them.
	clearOf map[geomx.Point]bool
}

// BuildTopology runs Step 4: the five-pass junction cascade, cutting
// fragments at each resolved junction.
func BuildTopology(frags []AttrFragment, junctions []IntersectionInfo, cfg TopoConfigLike) ([]Fragment, stageerr.Errors) {
	var errs stageerr.Errors

	byOrigin := make(map[int][]*piece, len(frags))
	var allPieces []*piece
	for _, f := range frags {
		p := &piece{origin: f.Index, attr: f, obb: f.OBB}
		byOrigin[f.Index] = append(byOrigin[f.Index], p)
		allPieces = append(allPieces, p)
	}

	cut := func(p *piece, j IntersectionInfo) {
		parts := cutPiece(p, j, cfg)
		for _, part := range parts {
			part.clearOf = map[geomx.Point]bool{j.Center: true}
			for c := range p.clearOf {
				part.clearOf[c] = true
			}
		}
		byOrigin[p.origin] = append(byOrigin[p.origin], parts...)
		allPieces = append(allPieces, parts...)
	}

	resolved := make([]bool, len(junctions))

	runPass := func(rule func(IntersectionInfo, []*piece) ([]*piece, bool, *stageerr.StageError)) {
		for ji, j := range junctions {
			if resolved[ji] {
				continue
			}
			members := membersAt(j, byOrigin)
			if len(members) < 2 {
				resolved[ji] = true
				continue
			}
			cuts, forceResolve, errv := rule(j, members)
			if errv != nil {
				errs = errs.Add(errv.Kind, errv.Stage, errv.Locus, errv.Detail)
			}
			for _, m := range cuts {
				cut(m, j)
			}
			if forceResolve || len(membersAt(j, byOrigin)) <= 1 {
				resolved[ji] = true
			}
		}
	}

	// Pass 1: literal-span rule.
	runPass(literalSpanRule)

	// Pass 2: width, diff > 10mm wins.
	runPass(func(j IntersectionInfo, members []*piece) ([]*piece, bool, *stageerr.StageError) {
		return diffRule(members, func(p *piece) float64 { return p.attr.Width }), false, nil
	})

	// Pass 3: height, diff > 10mm wins.
	runPass(func(j IntersectionInfo, members []*piece) ([]*piece, bool, *stageerr.StageError) {
		return diffRule(members, func(p *piece) float64 { return p.attr.Height }), false, nil
	})

	// Pass 4: code priority.
	runPass(func(j IntersectionInfo, members []*piece) ([]*piece, bool, *stageerr.StageError) {
		return priorityRule(members), false, nil
	})

	// Pass 5: global span satisfaction, at most 3 iterations.
	for iter := 0; iter < 3; iter++ {
		counts := codeCounts(allPieces)
		anyCut := false
		for ji, j := range junctions {
			if resolved[ji] {
				continue
			}
			members := membersAt(j, byOrigin)
			if len(members) < 2 {
				resolved[ji] = true
				continue
			}
			var satisfied, unsatisfied []*piece
			for _, m := range members {
				if counts[m.attr.Code] >= m.attr.Span {
					satisfied = append(satisfied, m)
				} else {
					unsatisfied = append(unsatisfied, m)
				}
			}
			switch {
			case len(unsatisfied) > 0 && len(satisfied) > 0:
				for _, m := range unsatisfied {
					cut(m, j)
				}
				anyCut = true
			case len(unsatisfied) == 0 && j.Junction == JunctionT && j.HasStemAngle:
				_, stem := classifyHeadStem(j, members)
				for _, m := range stem {
					cut(m, j)
				}
				anyCut = true
			}
			if len(membersAt(j, byOrigin)) <= 1 {
				resolved[ji] = true
			}
		}
		if !anyCut {
			break
		}
	}

	for ji, j := range junctions {
		if resolved[ji] {
			continue
		}
		if len(membersAt(j, byOrigin)) >= 2 {
			errs = errs.Add(stageerr.KindUnresolvedJunction, "beam_topology", j.Center, "CHK: junction still has multiple fragments after all five passes")
		}
	}

	return assembleFragments(frags, byOrigin), errs
}

func membersAt(j IntersectionInfo, byOrigin map[int][]*piece) []*piece {
	var out []*piece
	for _, idx := range j.MemberIndices {
		for _, p := range byOrigin[idx] {
			if !p.dead && !p.clearOf[j.Center] && p.obb.Bounds().Overlaps(j.Bounds) {
				out = append(out, p)
			}
		}
	}
	return out
}

func codeCounts(pieces []*piece) map[string]int {
	counts := map[string]int{}
	for _, p := range pieces {
		if !p.dead {
			counts[p.attr.Code]++
		}
	}
	return counts
}

// classifyHeadStem splits a T-junction's members into the through ("cap")
// beams parallel to the cap direction and the single terminating stem beam,
// using StemAngle's axis (the cardinal direction missing from the cluster).
func classifyHeadStem(j IntersectionInfo, members []*piece) (head, stem []*piece) {
	stemVertical := j.StemAngle == angleNorth || j.StemAngle == angleSouth
	for _, m := range members {
		horizontal := math.Abs(m.obb.U.X) > math.Abs(m.obb.U.Y)
		isStem := (stemVertical && !horizontal) || (!stemVertical && horizontal)
		if isStem {
			stem = append(stem, m)
		} else {
			head = append(head, m)
		}
	}
	return head, stem
}

func literalSpanRule(j IntersectionInfo, members []*piece) ([]*piece, bool, *stageerr.StageError) {
	switch j.Junction {
	case JunctionT:
		if !j.HasStemAngle {
			return nil, false, nil
		}
		head, stem := classifyHeadStem(j, members)
		for _, h := range head {
			if h.attr.Span == 1 {
				return stem, true, nil
			}
		}
		return nil, false, nil
	case JunctionC:
		var spanOne, others []*piece
		for _, m := range members {
			if m.attr.Span == 1 {
				spanOne = append(spanOne, m)
			} else {
				others = append(others, m)
			}
		}
		if len(spanOne) > 0 && len(others) > 0 {
			return others, true, nil
		}
		if len(spanOne) == len(members) {
			e := &stageerr.StageError{
				Kind: stageerr.KindCrossSpanOne, Stage: "beam_topology",
				Locus: j.Center, Detail: "all members of C-junction have span=1",
			}
			return nil, true, e
		}
		return nil, false, nil
	default: // L-junction: no literal-span rule applies.
		return nil, false, nil
	}
}

func diffRule(members []*piece, metric func(*piece) float64) []*piece {
	maxV := math.Inf(-1)
	for _, m := range members {
		if v := metric(m); v > maxV {
			maxV = v
		}
	}
	var cut []*piece
	for _, m := range members {
		if maxV-metric(m) > 10 {
			cut = append(cut, m)
		}
	}
	return cut
}

func priorityRule(members []*piece) []*piece {
	maxP := 0
	for _, m := range members {
		if p := m.attr.CodePriority(); p > maxP {
			maxP = p
		}
	}
	var cut []*piece
	for _, m := range members {
		if m.attr.CodePriority() < maxP {
			cut = append(cut, m)
		}
	}
	return cut
}

// cutPiece subtracts junction j's bounds from p along p's longitudinal axis.
// With a 10mm edge tolerance there are four outcomes: total consume (nil),
// start-cut leaving a tail (-T), end-cut leaving a head (-H), or a middle
// cut leaving two sub-fragments (-A, -B). p itself is marked dead.
func cutPiece(p *piece, j IntersectionInfo, cfg TopoConfigLike) []*piece {
	if p.dead {
		return nil
	}
	tol := cfg.EdgeTolerance
	if tol == 0 {
		tol = 10
	}

	corners := [4]geomx.Point{
		{X: j.Bounds.MinX, Y: j.Bounds.MinY}, {X: j.Bounds.MaxX, Y: j.Bounds.MinY},
		{X: j.Bounds.MaxX, Y: j.Bounds.MaxY}, {X: j.Bounds.MinX, Y: j.Bounds.MaxY},
	}
	tMin, tMax := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		t, _ := p.obb.ToLocal(c)
		if t < tMin {
			tMin = t
		}
		if t > tMax {
			tMax = t
		}
	}
	if tMin < p.obb.MinT {
		tMin = p.obb.MinT
	}
	if tMax > p.obb.MaxT {
		tMax = p.obb.MaxT
	}

	startCut := tMin <= p.obb.MinT+tol
	endCut := tMax >= p.obb.MaxT-tol
	p.dead = true

	switch {
	case startCut && endCut:
		return nil
	case startCut:
		tail := &piece{origin: p.origin, attr: p.attr, suffix: p.suffix + "-T", obb: p.obb.WithInterval(tMax, p.obb.MaxT)}
		return []*piece{tail}
	case endCut:
		head := &piece{origin: p.origin, attr: p.attr, suffix: p.suffix + "-H", obb: p.obb.WithInterval(p.obb.MinT, tMin)}
		return []*piece{head}
	default:
		a := &piece{origin: p.origin, attr: p.attr, suffix: p.suffix + "-A", obb: p.obb.WithInterval(p.obb.MinT, tMin)}
		b := &piece{origin: p.origin, attr: p.attr, suffix: p.suffix + "-B", obb: p.obb.WithInterval(tMax, p.obb.MaxT)}
		return []*piece{a, b}
	}
}

// assembleFragments collects every surviving piece, in stable Step-3 index
// order, and stamps fresh 1..N indices, new bounds, and quantities.
func assembleFragments(frags []AttrFragment, byOrigin map[int][]*piece) []Fragment {
	var alive []*piece
	for _, f := range frags {
		group := byOrigin[f.Index]
		sort.SliceStable(group, func(a, b int) bool { return group[a].suffix < group[b].suffix })
		for _, p := range group {
			if !p.dead {
				alive = append(alive, p)
			}
		}
	}

	out := make([]Fragment, 0, len(alive))
	for i, p := range alive {
		gf := GeomFragment{
			RawFragment: RawFragment{OBB: p.obb},
			Index:       i + 1,
			JunctionMember: p.attr.JunctionMember,
		}
		af := AttrFragment{
			GeomFragment: gf,
			Code:         p.attr.Code,
			Span:         p.attr.Span,
			Width:        p.attr.Width,
			Height:       p.attr.Height,
			RawLabel:     p.attr.RawLabel,
			FromLabel:    p.attr.FromLabel,
		}
		length := p.obb.Length()
		out = append(out, Fragment{
			AttrFragment: af,
			ParentIndex:  p.origin,
			Length:       length,
			Volume:       length * p.attr.Width * p.attr.Height,
		})
	}
	return out
}
