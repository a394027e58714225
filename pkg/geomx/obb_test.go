package geomx

import "testing"

func TestNewOBBFromRectEnclosesSource(t *testing.T) {
	corners := [4]Point{
		{X: 0, Y: 0},
		{X: 10000, Y: 0},
		{X: 10000, Y: 300},
		{X: 0, Y: 300},
	}
	o := NewOBBFromRect(corners)
	if !o.EnclosesWithinTolerance(corners[:], 1.0) {
		t.Fatalf("reconstructed OBB does not enclose source corners within 1mm: %+v", o)
	}
	if got := o.Length(); got < 9999 || got > 10001 {
		t.Errorf("Length() = %v, want ~10000", got)
	}
	if got := o.Width(); got < 299 || got > 301 {
		t.Errorf("Width() = %v, want ~300", got)
	}
}

func TestOBBOrthogonalAxes(t *testing.T) {
	o := NewOBBFromAxis(Point{0, 0}, Point{100, 0}, 50)
	if dot := o.U.Dot(o.V); dot > 1e-9 || dot < -1e-9 {
		t.Errorf("U.V = %v, want 0", dot)
	}
	if l := o.U.Len(); l < 0.999 || l > 1.001 {
		t.Errorf("|U| = %v, want 1", l)
	}
	if l := o.V.Len(); l < 0.999 || l > 1.001 {
		t.Errorf("|V| = %v, want 1", l)
	}
}

func TestOBBContainsAndLocal(t *testing.T) {
	o := NewOBBFromAxis(Point{0, 0}, Point{1000, 0}, 150)
	if !o.Contains(Point{500, 0}, 0) {
		t.Errorf("expected midpoint to be contained")
	}
	if o.Contains(Point{500, 200}, 0) {
		t.Errorf("expected point outside half-width to be rejected")
	}
	t1, n1 := o.ToLocal(Point{250, 50})
	if t1 < -251 || t1 > -249 {
		t.Errorf("ToLocal t = %v, want ~-250 since center is at (500,0)", t1)
	}
	if n1 < 49 || n1 > 51 {
		t.Errorf("ToLocal n = %v, want ~50", n1)
	}
}

func TestRayIntersectOBB(t *testing.T) {
	target := NewOBBFromAxis(Point{0, -150}, Point{0, 150}, 150) // vertical beam
	r := Ray{Origin: Point{-500, 0}, Dir: Vector{X: 1, Y: 0}}
	tEnter, tExit, ok := r.IntersectOBB(target)
	if !ok {
		t.Fatalf("expected intersection")
	}
	if tEnter < 349 || tEnter > 351 {
		t.Errorf("tEnter = %v, want ~350", tEnter)
	}
	if tExit < 649 || tExit > 651 {
		t.Errorf("tExit = %v, want ~650", tExit)
	}
}
