package viewport

import (
	"math"
	"sort"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// MergeConfig tunes S2's grid-intersection extraction and translation vote.
type MergeConfig struct {
	GridAlignTol float64
	VoteQuantise float64
}

// Merge groups regions by normalized title, picks the lowest-index member
// of each group as its base, and derives every other member's translation
// vector onto that base by the mode-of-quantised-differences vote over
// shared grid intersections. labelEntities is every
// TEXT/ATTRIB/DIMENSION entity eligible to become a beam label; each is
// cloned onto its group's base frame and split into the returned model's H
// and V channels.
func Merge(regions []structural.ViewportRegion, axisSegments []geomx.Segment, labelEntities []entity.Entity, cfg MergeConfig) ([]structural.MergeMapping, *structural.LabelModel, stageerr.Errors) {
	var errs stageerr.Errors

	groups := map[string][]int{}
	for i, r := range regions {
		key := r.NormalizedTitle()
		groups[key] = append(groups[key], i)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mappings []structural.MergeMapping
	var allLabels []structural.Label

	for _, key := range keys {
		members := groups[key]
		sort.Slice(members, func(a, b int) bool { return regions[members[a]].Index() < regions[members[b]].Index() })
		baseIdx := members[0]
		basePts := axisIntersectionsInBounds(axisSegments, regions[baseIdx].Bounds, cfg.GridAlignTol)

		mappings = append(mappings, structural.MergeMapping{
			SourceIndex:     baseIdx,
			BaseIndex:       baseIdx,
			SourceBounds:    regions[baseIdx].Bounds,
			NormalizedTitle: key,
		})
		allLabels = append(allLabels, labelsInRegion(labelEntities, regions[baseIdx].Bounds, geomx.Vector{}, baseIdx)...)

		for _, mi := range members[1:] {
			targetPts := axisIntersectionsInBounds(axisSegments, regions[mi].Bounds, cfg.GridAlignTol)
			vec, ok := voteTranslation(basePts, targetPts, cfg.VoteQuantise)
			if !ok {
				errs = errs.Add(stageerr.KindInvalidInput, "viewport_merge", regions[mi].Bounds.Center(), "no grid-intersection support for merge; view left standalone")
				continue
			}
			mappings = append(mappings, structural.MergeMapping{
				SourceIndex:       mi,
				BaseIndex:         baseIdx,
				TranslationVector: vec,
				SourceBounds:      regions[mi].Bounds,
				NormalizedTitle:   key,
			})
			allLabels = append(allLabels, labelsInRegion(labelEntities, regions[mi].Bounds, vec, mi)...)
		}
	}

	model := splitChannels(allLabels)
	return mappings, model, errs
}

// axisIntersectionsInBounds classifies segments overlapping bounds as
// near-horizontal or near-vertical by endpoint-coordinate tolerance, then
// returns every horizontal/vertical crossing point inside bounds.
func axisIntersectionsInBounds(segs []geomx.Segment, bounds geomx.Bounds, alignTol float64) []geomx.Point {
	var horiz, vert []geomx.Segment
	for _, s := range segs {
		sb := geomx.BoundsOf([]geomx.Point{s.A, s.B})
		if !bounds.Overlaps(sb) {
			continue
		}
		switch {
		case math.Abs(s.A.Y-s.B.Y) < alignTol:
			horiz = append(horiz, s)
		case math.Abs(s.A.X-s.B.X) < alignTol:
			vert = append(vert, s)
		}
	}

	var pts []geomx.Point
	for _, h := range horiz {
		for _, v := range vert {
			p, ok := geomx.LineIntersect(h.A, h.B, v.A, v.B)
			if ok && bounds.ContainsPoint(p) {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

type quantKey struct{ x, y float64 }

// voteTranslation finds the displacement bucket (quantised to the grid
// spacing) with the most target-to-base point-pair support, and returns the
// exact (unquantised) displacement of the first pair landing in that
// bucket, following the mode-of-quantised-differences rule.
func voteTranslation(basePts, targetPts []geomx.Point, quantise float64) (geomx.Vector, bool) {
	if quantise <= 0 {
		quantise = 50
	}
	counts := map[quantKey]int{}
	first := map[quantKey]geomx.Vector{}
	var order []quantKey

	for _, t := range targetPts {
		for _, b := range basePts {
			d := geomx.Vector{X: b.X - t.X, Y: b.Y - t.Y}
			k := quantKey{math.Round(d.X/quantise) * quantise, math.Round(d.Y/quantise) * quantise}
			if counts[k] == 0 {
				first[k] = d
				order = append(order, k)
			}
			counts[k]++
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].x != order[j].x {
			return order[i].x < order[j].x
		}
		return order[i].y < order[j].y
	})

	best := quantKey{}
	bestCount := 0
	for _, k := range order {
		if counts[k] > bestCount {
			bestCount = counts[k]
			best = k
		}
	}
	if bestCount == 0 {
		return geomx.Vector{}, false
	}
	return first[best], true
}

// labelsInRegion collects every TEXT/ATTRIB/DIMENSION entity inside bounds,
// translates its anchor by vec onto the group's base frame, and parses it
// into a structural.Label tagged with its originating viewport index.
func labelsInRegion(entities []entity.Entity, bounds geomx.Bounds, vec geomx.Vector, sourceIdx int) []structural.Label {
	var out []structural.Label
	for _, e := range entities {
		var insertion geomx.Point
		var rotation float64
		var raw string
		switch e.Kind {
		case entity.KindText:
			insertion, rotation, raw = e.Text.Insertion, e.Text.Rotation, e.Text.Content
		case entity.KindAttrib:
			insertion, rotation, raw = e.Attrib.Insertion, e.Attrib.Rotation, e.Attrib.Content
		case entity.KindDimension:
			insertion, rotation, raw = e.Dimension.Start, 0, e.Dimension.Text
		default:
			continue
		}
		if !bounds.ContainsPoint(insertion) {
			continue
		}
		lbl, ok := structural.ParseLabel(raw, insertion.Add(vec), rotation)
		if !ok {
			continue
		}
		lbl.FromViewport = sourceIdx
		out = append(out, lbl)
	}
	return out
}

func splitChannels(labels []structural.Label) *structural.LabelModel {
	filled := structural.DonorFillWH(labels)
	model := &structural.LabelModel{}
	for _, l := range filled {
		if l.Channel == structural.ChannelV {
			model.V = append(model.V, l)
		} else {
			model.H = append(model.H, l)
		}
	}
	return model
}
