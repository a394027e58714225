package quantities

import (
	"testing"

	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/structural"
	"github.com/stretchr/testify/require"
)

func obb(x0, y0, x1, y1 float64) geomx.OBB {
	corners := [4]geomx.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	return geomx.NewOBBFromRect(corners)
}

func fragment(index int, code string, o geomx.OBB, volume float64) beam.Fragment {
	return beam.Fragment{
		AttrFragment: beam.AttrFragment{
			GeomFragment: beam.GeomFragment{RawFragment: beam.RawFragment{OBB: o}, Index: index},
			Code:         code,
		},
		ParentIndex: index,
		Volume:      volume,
	}
}

func TestAggregate_SingleViewportSingleCode(t *testing.T) {
	viewports := []structural.ViewportRegion{
		{Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 10000, MaxY: 10000}},
	}
	frags := []beam.Fragment{
		fragment(0, "KL1", obb(1000, 1000, 6000, 1300), 0.5e9),
		fragment(1, "KL1", obb(1000, 2000, 6000, 2300), 0.5e9),
	}

	totals := Aggregate(frags, viewports)
	require.Len(t, totals, 1)
	require.Equal(t, 0, totals[0].ViewportIndex)
	require.Len(t, totals[0].Codes, 1)
	require.Equal(t, "KL1", totals[0].Codes[0].Code)
	require.Equal(t, 2, totals[0].Codes[0].Count)
	require.InDelta(t, 1.0, totals[0].TotalVolumeM3, 1e-9)
}

func TestAggregate_FragmentOutsideEveryViewport(t *testing.T) {
	viewports := []structural.ViewportRegion{
		{Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}},
	}
	frags := []beam.Fragment{fragment(0, "KL1", obb(5000, 5000, 5500, 5300), 0.1e9)}

	totals := Aggregate(frags, viewports)
	require.Len(t, totals, 1)
	require.Equal(t, -1, totals[0].ViewportIndex)
	require.True(t, totals[0].Bounds.IsEmpty())
}

func TestAggregate_GroupsByViewportThenCode(t *testing.T) {
	viewports := []structural.ViewportRegion{
		{Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 10000, MaxY: 10000}},
		{Bounds: geomx.Bounds{MinX: 20000, MinY: 0, MaxX: 30000, MaxY: 10000}},
	}
	frags := []beam.Fragment{
		fragment(0, "KL2", obb(1000, 1000, 6000, 1300), 0.4e9),
		fragment(1, "L3", obb(1000, 2000, 6000, 2300), 0.2e9),
		fragment(2, "KL2", obb(21000, 1000, 26000, 1300), 0.4e9),
	}

	totals := Aggregate(frags, viewports)
	require.Len(t, totals, 2)
	require.Equal(t, 0, totals[0].ViewportIndex)
	require.Equal(t, 1, totals[1].ViewportIndex)
	require.Len(t, totals[0].Codes, 2)
	require.Len(t, totals[1].Codes, 1)
}

func TestAggregate_NaturalCodeOrdering(t *testing.T) {
	viewports := []structural.ViewportRegion{
		{Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 10000, MaxY: 10000}},
	}
	frags := []beam.Fragment{
		fragment(0, "KL10", obb(0, 0, 5000, 300), 0.1e9),
		fragment(1, "KL2", obb(0, 1000, 5000, 1300), 0.1e9),
	}

	totals := Aggregate(frags, viewports)
	require.Len(t, totals[0].Codes, 2)
	require.Equal(t, "KL2", totals[0].Codes[0].Code)
	require.Equal(t, "KL10", totals[0].Codes[1].Code)
}

func TestNaturalLess(t *testing.T) {
	require.True(t, naturalLess("KL2", "KL10"))
	require.False(t, naturalLess("KL10", "KL2"))
	require.True(t, naturalLess("KL2", "L3"))
	require.False(t, naturalLess("KL2", "KL2"))
}

func TestAggregate_EmptyInput(t *testing.T) {
	totals := Aggregate(nil, nil)
	require.Empty(t, totals)
}
