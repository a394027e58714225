package viewport

import (
	"testing"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/structural"
	"github.com/stretchr/testify/require"
)

func gridSegments(originX, originY float64) []geomx.Segment {
	var segs []geomx.Segment
	for i := 0; i < 5; i++ {
		y := originY + float64(i)*2000
		segs = append(segs, geomx.Segment{A: geomx.Point{X: originX, Y: y}, B: geomx.Point{X: originX + 8000, Y: y}})
	}
	for i := 0; i < 5; i++ {
		x := originX + float64(i)*2000
		segs = append(segs, geomx.Segment{A: geomx.Point{X: x, Y: originY}, B: geomx.Point{X: x, Y: originY + 8000}})
	}
	return segs
}

func defaultMergeConfig() MergeConfig {
	return MergeConfig{GridAlignTol: 10, VoteQuantise: 50}
}

// TestMergeE5ViewportDuplicateMerge covers the duplicate-view merge scenario:
// two regions titled "一层梁(1)" and "一层梁(2)", separated by (20000, 0),
// each carrying an identical five-axis grid. The derived translation vector
// must land within 50mm of (-20000, 0), and the merged label count equals
// the union of both regions' label-layer texts.
func TestMergeE5ViewportDuplicateMerge(t *testing.T) {
	baseGrid := gridSegments(0, 0)
	dupGrid := gridSegments(20000, 0)
	axisSegs := append(append([]geomx.Segment{}, baseGrid...), dupGrid...)

	regions := []structural.ViewportRegion{
		{
			Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 8000, MaxY: 8000},
			Title:  "一层梁(1)",
			Info:   &structural.TitleInfo{Prefix: "一层梁", Index: 1},
		},
		{
			Bounds: geomx.Bounds{MinX: 20000, MinY: 0, MaxX: 28000, MaxY: 8000},
			Title:  "一层梁(2)",
			Info:   &structural.TitleInfo{Prefix: "一层梁", Index: 2},
		},
	}

	baseLabel := entity.Entity{Kind: entity.KindText, Text: entity.Text{Insertion: geomx.Point{X: 1000, Y: 1000}, Content: "KL1(2) 300x600"}}
	dupLabel := entity.Entity{Kind: entity.KindText, Text: entity.Text{Insertion: geomx.Point{X: 21000, Y: 1000}, Content: "KL1(2) 300x600"}}

	mappings, model, errs := Merge(regions, axisSegs, []entity.Entity{baseLabel, dupLabel}, defaultMergeConfig())
	require.Empty(t, errs)
	require.Len(t, mappings, 2)

	var base, dup *structural.MergeMapping
	for i := range mappings {
		if mappings[i].IsBase() {
			base = &mappings[i]
		} else {
			dup = &mappings[i]
		}
	}
	require.NotNil(t, base)
	require.NotNil(t, dup)
	require.InDelta(t, -20000, dup.TranslationVector.X, 50)
	require.InDelta(t, 0, dup.TranslationVector.Y, 50)

	require.Len(t, model.All(), 2)
}

func TestMerge_UnrelatedTitlesStayStandalone(t *testing.T) {
	regions := []structural.ViewportRegion{
		{Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 8000, MaxY: 8000}, Title: "1F PLAN"},
		{Bounds: geomx.Bounds{MinX: 20000, MinY: 0, MaxX: 28000, MaxY: 8000}, Title: "2F PLAN"},
	}

	mappings, _, errs := Merge(regions, nil, nil, defaultMergeConfig())
	require.Empty(t, errs)
	require.Len(t, mappings, 2)
	require.True(t, mappings[0].IsBase())
	require.True(t, mappings[1].IsBase())
}

func TestMerge_NoGridSupportReportsError(t *testing.T) {
	regions := []structural.ViewportRegion{
		{
			Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 8000, MaxY: 8000},
			Title:  "3F PLAN(1)",
			Info:   &structural.TitleInfo{Prefix: "3F PLAN", Index: 1},
		},
		{
			Bounds: geomx.Bounds{MinX: 20000, MinY: 0, MaxX: 28000, MaxY: 8000},
			Title:  "3F PLAN(2)",
			Info:   &structural.TitleInfo{Prefix: "3F PLAN", Index: 2},
		},
	}

	mappings, _, errs := Merge(regions, gridSegments(0, 0), nil, defaultMergeConfig())
	require.Len(t, errs, 1)
	require.Len(t, mappings, 1)
	require.True(t, mappings[0].IsBase())
}

func TestVoteTranslation_PicksModeOfQuantisedDifferences(t *testing.T) {
	base := []geomx.Point{{X: 0, Y: 0}, {X: 2000, Y: 0}, {X: 0, Y: 2000}}
	target := []geomx.Point{{X: -19990, Y: 5}, {X: -17995, Y: -5}, {X: -20005, Y: 2005}}

	vec, ok := voteTranslation(base, target, 50)
	require.True(t, ok)
	require.InDelta(t, 20000, vec.X, 50)
	require.InDelta(t, 0, vec.Y, 50)
}

func TestVoteTranslation_NoPairsReturnsFalse(t *testing.T) {
	_, ok := voteTranslation(nil, nil, 50)
	require.False(t, ok)
}
