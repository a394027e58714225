package entity

import (
	"testing"

	"github.com/archiforge/cadrecon/pkg/geomx"
)

func TestFlattenInsertGrid(t *testing.T) {
	blocks := BlockTable{
		"COL300": BlockDef{
			Name: "COL300",
			Entities: []Entity{
				{Kind: KindPolyline, Layer: "COLUMN", Polyline: Polyline{
					Vertices: []geomx.Point{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 300, Y: 300}, {X: 0, Y: 300}},
					Closed:   true,
				}},
			},
		},
	}
	insert := Entity{
		Kind: KindInsert,
		Insert: Insert{
			Block:      "COL300",
			Insertion:  geomx.Point{X: 1000, Y: 1000},
			RowCount:   2,
			ColCount:   2,
			RowSpacing: 5000,
			ColSpacing: 5000,
		},
	}
	out := Flatten([]Entity{insert}, blocks)
	if len(out) != 4 {
		t.Fatalf("expected 4 flattened columns, got %d", len(out))
	}
	for _, e := range out {
		if e.Layer != "COLUMN" {
			t.Errorf("expected leaf layer COLUMN, got %q", e.Layer)
		}
	}
	// Verify the (1,1) grid cell landed at (1000+5000, 1000+5000).
	found := false
	for _, e := range out {
		b := e.Bounds()
		if b.MinX == 6000 && b.MinY == 6000 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a grid cell at (6000,6000), entities: %+v", out)
	}
}

func TestPolylineSegmentsClosed(t *testing.T) {
	p := Polyline{
		Vertices: []geomx.Point{{0, 0}, {10, 0}, {10, 10}},
		Closed:   true,
	}
	segs := PolylineSegments(p)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments for closed triangle, got %d", len(segs))
	}
}
