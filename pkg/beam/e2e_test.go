package beam

import (
	"testing"

	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
	"github.com/stretchr/testify/require"
)

func rectOBB(x0, y0, x1, y1 float64) geomx.OBB {
	corners := [4]geomx.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	return geomx.NewOBBFromRect(corners)
}

// TestTopologyE1SimpleTJunction covers the simple-T scenario: a head beam
// running the full width of a viewport and a stem terminating into it, both
// labelled KL1(2). Neither literal-span, width, height nor priority resolve
// the junction, so the cascade falls to the global-span pass, which finds
// both members' code count already satisfies their span and cuts the stem.
func TestTopologyE1SimpleTJunction(t *testing.T) {
	head := rectOBB(0, 0, 10000, 300)
	stem := rectOBB(4900, 300, 5100, 5000)

	frags := []GeomFragment{
		{RawFragment: RawFragment{OBB: head}, Index: 1},
		{RawFragment: RawFragment{OBB: stem}, Index: 2},
	}
	junctions := detectJunctions(frags, GeomConfigLike{ClusterGrid: 200, ArmExtentTolerance: 1})
	require.Len(t, junctions, 1)
	require.Equal(t, JunctionT, junctions[0].Junction)

	attrs := []AttrFragment{
		{GeomFragment: frags[0], Code: "KL1", Span: 2, Width: 300, Height: 600, FromLabel: true},
		{GeomFragment: frags[1], Code: "KL1", Span: 2, Width: 300, Height: 600, FromLabel: true},
	}

	out, errs := BuildTopology(attrs, junctions, TopoConfigLike{EdgeTolerance: 10})
	require.Empty(t, errs)
	require.Len(t, out, 2)

	var headOut, stemOut *Fragment
	for i := range out {
		switch out[i].ParentIndex {
		case 1:
			headOut = &out[i]
		case 2:
			stemOut = &out[i]
		}
	}
	require.NotNil(t, headOut)
	require.NotNil(t, stemOut)
	require.InDelta(t, 10000, headOut.Length, 1)
	require.InDelta(t, 4700, stemOut.Length, 1)
	require.Equal(t, "KL1", stemOut.Code)
}

// TestTopologyE2CrossCodePriority covers a four-arm cross where a KL-class
// beam (priority 2) meets an L-class beam (priority 1). The narrower/lower
// priority member is cut away; the KL beam survives whole.
func TestTopologyE2CrossCodePriority(t *testing.T) {
	horiz := rectOBB(0, 4850, 10000, 5150)
	vert := rectOBB(4875, 0, 5125, 10000)

	frags := []GeomFragment{
		{RawFragment: RawFragment{OBB: horiz}, Index: 1},
		{RawFragment: RawFragment{OBB: vert}, Index: 2},
	}
	junctions := detectJunctions(frags, GeomConfigLike{ClusterGrid: 200, ArmExtentTolerance: 1})
	require.Len(t, junctions, 1)
	require.Equal(t, JunctionC, junctions[0].Junction)

	attrs := []AttrFragment{
		{GeomFragment: frags[0], Code: "KL2", Span: 2, Width: 300, Height: 600, FromLabel: true},
		{GeomFragment: frags[1], Code: "L3", Span: 2, Width: 250, Height: 500, FromLabel: true},
	}

	out, _ := BuildTopology(attrs, junctions, TopoConfigLike{EdgeTolerance: 10})

	var klLen, l3Len float64
	var klCount, l3Count int
	for _, f := range out {
		if f.Code == "KL2" {
			klLen += f.Length
			klCount++
		} else {
			l3Len += f.Length
			l3Count++
		}
	}
	require.Equal(t, 1, klCount)
	require.InDelta(t, 10000, klLen, 1)
	require.Less(t, l3Len, 10000.0)
}

// TestTopologyE3SpanOneConflict covers two span-1 beams crossing: the
// literal-span rule for C-junctions must resolve without cutting either.
func TestTopologyE3SpanOneConflict(t *testing.T) {
	a := rectOBB(850, 0, 1150, 2000)
	b := rectOBB(0, 850, 2000, 1150)

	frags := []GeomFragment{
		{RawFragment: RawFragment{OBB: a}, Index: 1},
		{RawFragment: RawFragment{OBB: b}, Index: 2},
	}
	junctions := detectJunctions(frags, GeomConfigLike{ClusterGrid: 200, ArmExtentTolerance: 1})
	require.Len(t, junctions, 1)
	require.Equal(t, JunctionC, junctions[0].Junction)

	attrs := []AttrFragment{
		{GeomFragment: frags[0], Code: "WKL4", Span: 1, Width: 300, Height: 700, FromLabel: true},
		{GeomFragment: frags[1], Code: "WKL4", Span: 1, Width: 300, Height: 700, FromLabel: true},
	}

	out, errs := BuildTopology(attrs, junctions, TopoConfigLike{EdgeTolerance: 10})
	require.True(t, errs.HasKind(stageerr.KindCrossSpanOne))
	require.Len(t, out, 2)
	require.InDelta(t, 2000, out[0].Length, 1)
	require.InDelta(t, 2000, out[1].Length, 1)
}

// TestAttributesE4UnlabelledPropagation covers two collinear fragments
// separated by a 100mm gap, bridged by a third, perpendicular labelled beam
// crossing the gap midpoint: the second, unlabelled fragment must inherit
// the first's code with fromLabel=false.
func TestAttributesE4UnlabelledPropagation(t *testing.T) {
	first := GeomFragment{RawFragment: RawFragment{OBB: rectOBB(0, 0, 1000, 300)}, Index: 1}
	second := GeomFragment{RawFragment: RawFragment{OBB: rectOBB(1100, 0, 2100, 300)}, Index: 2}
	crossing := GeomFragment{RawFragment: RawFragment{OBB: rectOBB(1000, -300, 1100, 600)}, Index: 3}

	labels := []structural.Label{
		{RawText: "KL5 300x600", Code: "KL5", Width: 300, Height: 600, HasWH: true, Insertion: geomx.Point{X: 500, Y: 150}},
		{RawText: "L9 200x500", Code: "L9", Width: 200, Height: 500, HasWH: true, Insertion: geomx.Point{X: 1050, Y: 500}},
	}

	out, errs := BuildAttributes([]GeomFragment{first, second, crossing}, labels, nil, AttrConfigLike{
		LabelHitTolerance: 20, RunOffsetTolerance: 200, RunSampleStep: 50,
		FallbackWidth: 300, FallbackHeight: 600,
	})
	require.Empty(t, errs)
	require.Len(t, out, 3)
	require.Equal(t, "KL5", out[0].Code)
	require.True(t, out[0].FromLabel)
	require.Equal(t, "KL5", out[1].Code)
	require.False(t, out[1].FromLabel)
	require.Equal(t, "L9", out[2].Code)
	require.True(t, out[2].FromLabel)
}
