package quantities

import (
	"sort"

	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// CodeTotal sums every fragment sharing one beam code within a viewport.
type CodeTotal struct {
	Code     string
	Count    int
	VolumeM3 float64
}

// ViewportTotals is S8's per-region output. ViewportIndex is -1 when a
// fragment's centre lands outside every known region (its Bounds is then
// the empty bounds).
type ViewportTotals struct {
	ViewportIndex int
	Bounds        geomx.Bounds
	Codes         []CodeTotal
	TotalVolumeM3 float64
}

// Aggregate groups final fragments by owning viewport (point-in-bounds on
// the fragment centre), sorts each group by code (natural order) then
// index, and sums volumes in cubic metres.
func Aggregate(fragments []beam.Fragment, viewports []structural.ViewportRegion) []ViewportTotals {
	groups := map[int][]beam.Fragment{}
	for _, f := range fragments {
		center := f.OBB.Midpoint()
		owner := -1
		for vi, vp := range viewports {
			if vp.Bounds.ContainsPoint(center) {
				owner = vi
				break
			}
		}
		groups[owner] = append(groups[owner], f)
	}

	owners := make([]int, 0, len(groups))
	for o := range groups {
		owners = append(owners, o)
	}
	sort.Ints(owners)

	totals := make([]ViewportTotals, 0, len(owners))
	for _, owner := range owners {
		frags := groups[owner]
		sort.Slice(frags, func(i, j int) bool {
			if frags[i].Code != frags[j].Code {
				return naturalLess(frags[i].Code, frags[j].Code)
			}
			return frags[i].Index < frags[j].Index
		})

		var codeOrder []string
		codeSums := map[string]*CodeTotal{}
		var vpVolume float64
		for _, f := range frags {
			ct, ok := codeSums[f.Code]
			if !ok {
				ct = &CodeTotal{Code: f.Code}
				codeSums[f.Code] = ct
				codeOrder = append(codeOrder, f.Code)
			}
			v := f.Volume / 1e9
			ct.Count++
			ct.VolumeM3 += v
			vpVolume += v
		}

		codes := make([]CodeTotal, 0, len(codeOrder))
		for _, c := range codeOrder {
			codes = append(codes, *codeSums[c])
		}

		bounds := geomx.EmptyBounds()
		if owner >= 0 {
			bounds = viewports[owner].Bounds
		}

		totals = append(totals, ViewportTotals{
			ViewportIndex: owner,
			Bounds:        bounds,
			Codes:         codes,
			TotalVolumeM3: vpVolume,
		})
	}
	return totals
}

// naturalLess compares beam codes the way a person reading a schedule
// would: digit runs compare by numeric value, not lexically, so KL2 sorts
// before KL10.
func naturalLess(a, b string) bool {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ca, cb := a[ai], b[bi]
		if isDigit(ca) && isDigit(cb) {
			as := ai
			for ai < len(a) && isDigit(a[ai]) {
				ai++
			}
			bs := bi
			for bi < len(b) && isDigit(b[bi]) {
				bi++
			}
			na, nb := stripLeadingZeros(a[as:ai]), stripLeadingZeros(b[bs:bi])
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		ai++
		bi++
	}
	return len(a)-ai < len(b)-bi
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func stripLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}
