package viewport

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// SplitConfig tunes S1's clustering and title search.
type SplitConfig struct {
	ClusterTolerance float64
	TitleStep        float64
	TitleMaxRadius   float64
}

// Split clusters axis-layer segments into rectangular regions by an
// iterative axis-aligned proximity merge, then attaches a title to each
// region using the underline rule. texts is the pool
// of candidate title entities; underlineSegs is every near-horizontal
// segment eligible to underline a title (not restricted to axis layers,
// since title underlines are drawn on annotation layers).
func Split(axisSegments []geomx.Segment, texts []entity.Entity, underlineSegs []geomx.Segment, cfg SplitConfig) ([]structural.ViewportRegion, stageerr.Errors) {
	var errs stageerr.Errors
	if len(axisSegments) == 0 {
		errs = errs.Add(stageerr.KindInvalidInput, "viewport_split", geomx.Point{}, "no axis segments to cluster")
		return nil, errs
	}

	boxes := make([]geomx.Bounds, len(axisSegments))
	for i, s := range axisSegments {
		boxes[i] = geomx.BoundsOf([]geomx.Point{s.A, s.B})
	}
	clusters := clusterBoxes(boxes, cfg.ClusterTolerance)

	regions := make([]structural.ViewportRegion, 0, len(clusters))
	for _, b := range clusters {
		title, info := findTitle(b, texts, underlineSegs, cfg)
		regions = append(regions, structural.ViewportRegion{Bounds: b, Title: title, Info: info})
	}
	return regions, errs
}

// clusterBoxes fuses any two boxes that overlap once each is expanded by
// tolerance, repeating to a fixed point.
func clusterBoxes(boxes []geomx.Bounds, tolerance float64) []geomx.Bounds {
	clusters := append([]geomx.Bounds{}, boxes...)
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if clusters[i].Expand(tolerance).Overlaps(clusters[j].Expand(tolerance)) {
					clusters[i] = clusters[i].Union(clusters[j])
					clusters = append(clusters[:j], clusters[j+1:]...)
					changed = true
					break
				}
			}
			if changed {
				break
			}
		}
	}
	return clusters
}

var numericOnlyRe = regexp.MustCompile(`^[\s0-9.,+\-xX×mM]+$`)

func isNumericOrDimension(s string) bool {
	return numericOnlyRe.MatchString(s)
}

// findTitle scans outward in TitleStep rings up to TitleMaxRadius and
// returns the tallest underlined, non-numeric text found in the first ring
// that has any candidate.
func findTitle(region geomx.Bounds, texts []entity.Entity, underlineSegs []geomx.Segment, cfg SplitConfig) (string, *structural.TitleInfo) {
	for r := cfg.TitleStep; r <= cfg.TitleMaxRadius; r += cfg.TitleStep {
		ring := region.Expand(r)
		var candidates []entity.Entity
		for _, t := range texts {
			if t.Kind != entity.KindText {
				continue
			}
			if !ring.ContainsPoint(t.Text.Insertion) {
				continue
			}
			if isNumericOrDimension(t.Text.Content) {
				continue
			}
			if !hasUnderline(t.Text, underlineSegs) {
				continue
			}
			candidates = append(candidates, t)
		}
		if len(candidates) == 0 {
			continue
		}
		best := pickTallest(candidates, region.Center())
		return best.Text.Content, parseTitle(best.Text.Content)
	}
	return "", nil
}

func estimateTextWidth(t entity.Text) float64 {
	w := float64(len([]rune(t.Content))) * t.Height * 0.6
	if w <= 0 {
		w = t.Height
	}
	return w
}

// hasUnderline implements the underline rule: a near-horizontal
// segment with y in [-0.2h, +0.6h] below the baseline and x-overlap with
// the text's estimated width of at least 30%.
func hasUnderline(t entity.Text, segs []geomx.Segment) bool {
	h := t.Height
	if h <= 0 {
		h = 250
	}
	width := estimateTextWidth(t)
	xLo, xHi := t.Insertion.X, t.Insertion.X+width

	for _, s := range segs {
		dir, length := s.Dir()
		if length < 1e-6 || math.Abs(dir.Y) > 0.1 {
			continue
		}
		segY := (s.A.Y + s.B.Y) / 2
		offset := t.Insertion.Y - segY
		if offset < -0.2*h || offset > 0.6*h {
			continue
		}
		sLo, sHi := math.Min(s.A.X, s.B.X), math.Max(s.A.X, s.B.X)
		overlap := math.Min(sHi, xHi) - math.Max(sLo, xLo)
		if overlap > 0 && overlap/width >= 0.3 {
			return true
		}
	}
	return false
}

// pickTallest breaks ties by smallest distance to the region centre, then
// ascending (y, x) of the insertion point.
func pickTallest(candidates []entity.Entity, center geomx.Point) entity.Entity {
	sort.Slice(candidates, func(i, j int) bool {
		hi, hj := candidates[i].Text.Height, candidates[j].Text.Height
		if hi != hj {
			return hi > hj
		}
		di, dj := candidates[i].Text.Insertion.Dist(center), candidates[j].Text.Insertion.Dist(center)
		if di != dj {
			return di < dj
		}
		pi, pj := candidates[i].Text.Insertion, candidates[j].Text.Insertion
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})
	return candidates[0]
}

var (
	parenIndexRe = regexp.MustCompile(`^(.*)\((\d+)\)$`)
	parenCJKRe   = regexp.MustCompile(`^(.*)\(([一二三四五六七八九十]+)\)$`)
	dashIndexRe  = regexp.MustCompile(`^(.*)-(\d+)$`)
)

// parseTitle matches "<prefix>(N)", "<prefix>(汉数)" or "<prefix>-N".
func parseTitle(title string) *structural.TitleInfo {
	if m := parenIndexRe.FindStringSubmatch(title); m != nil {
		n, _ := strconv.Atoi(m[2])
		return &structural.TitleInfo{Prefix: m[1], Index: n}
	}
	if m := parenCJKRe.FindStringSubmatch(title); m != nil {
		return &structural.TitleInfo{Prefix: m[1], Index: cjkNumeral(m[2])}
	}
	if m := dashIndexRe.FindStringSubmatch(title); m != nil {
		n, _ := strconv.Atoi(m[2])
		return &structural.TitleInfo{Prefix: m[1], Index: n}
	}
	return nil
}

var cjkDigits = map[rune]int{'一': 1, '二': 2, '三': 3, '四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9, '十': 10}

// cjkNumeral handles the single-character CJK numerals 一..十; compound
// numerals beyond ten are rare for duplicate-view indices and are not
// decoded.
func cjkNumeral(s string) int {
	r := []rune(s)
	if len(r) != 1 {
		return 0
	}
	return cjkDigits[r[0]]
}
