package export

import (
	"strings"
	"testing"

	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/structural"
)

func TestExportSVG_Basic(t *testing.T) {
	artifact := createTestArtifact()

	opts := DefaultSVGOptions()
	opts.Title = "Test Plan"

	data, err := ExportSVG(artifact, opts)
	if err != nil {
		t.Fatalf("ExportSVG failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportSVG returned empty data")
	}

	svgStr := string(data)
	if !strings.Contains(svgStr, "<svg") {
		t.Error("output does not contain <svg> tag")
	}
	if !strings.Contains(svgStr, "</svg>") {
		t.Error("output does not contain closing </svg> tag")
	}
	if !strings.Contains(svgStr, "Test Plan") {
		t.Error("output does not contain the configured title")
	}
}

func TestExportSVG_NilArtifact(t *testing.T) {
	opts := DefaultSVGOptions()
	if _, err := ExportSVG(nil, opts); err == nil {
		t.Error("expected error for nil artifact, got nil")
	}
}

func TestExportSVG_EmptyArtifact(t *testing.T) {
	opts := DefaultSVGOptions()
	if _, err := ExportSVG(&Artifact{}, opts); err == nil {
		t.Error("expected error for artifact with no geometry, got nil")
	}
}

func TestDefaultSVGOptions(t *testing.T) {
	opts := DefaultSVGOptions()

	if opts.Width <= 0 {
		t.Errorf("Width should be positive, got %d", opts.Width)
	}
	if opts.Height <= 0 {
		t.Errorf("Height should be positive, got %d", opts.Height)
	}
	if opts.Margin <= 0 {
		t.Errorf("Margin should be positive, got %d", opts.Margin)
	}
}

func TestExportSVG_ZeroOptionsFillDefaults(t *testing.T) {
	artifact := createTestArtifact()

	data, err := ExportSVG(artifact, SVGOptions{})
	if err != nil {
		t.Fatalf("ExportSVG failed with zero-value options: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportSVG returned empty data with zero-value options")
	}
}

func TestExportSVG_ColumnsAndWallsOnly(t *testing.T) {
	artifact := &Artifact{
		Columns: []structural.Column{
			{Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 500, MaxY: 500}},
		},
		Walls: []structural.Wall{
			{OBB: geomx.NewOBBFromAxis(geomx.Point{X: 0, Y: 0}, geomx.Point{X: 3000, Y: 0}, 100), Thickness: 200},
		},
	}

	data, err := ExportSVG(artifact, DefaultSVGOptions())
	if err != nil {
		t.Fatalf("ExportSVG failed: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("output does not contain <svg> tag")
	}
}

func TestSaveSVGToFile(t *testing.T) {
	artifact := createTestArtifact()
	tmpDir := t.TempDir()
	path := tmpDir + "/plan.svg"

	if err := SaveSVGToFile(artifact, path, DefaultSVGOptions()); err != nil {
		t.Fatalf("SaveSVGToFile failed: %v", err)
	}
}

func TestNewTransform_FlipsY(t *testing.T) {
	world := geomx.Bounds{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	opts := SVGOptions{Width: 500, Height: 500, Margin: 0}
	xf := newTransform(world, opts)

	_, yTop := xf.point(geomx.Point{X: 0, Y: 1000})
	_, yBottom := xf.point(geomx.Point{X: 0, Y: 0})
	if yTop >= yBottom {
		t.Errorf("expected world-top to map above world-bottom on canvas: yTop=%d yBottom=%d", yTop, yBottom)
	}
}

func TestCodeColor_StableAcrossCalls(t *testing.T) {
	a := codeColor("KL2")
	b := codeColor("KL2")
	if a != b {
		t.Errorf("codeColor is not stable: %q != %q", a, b)
	}
}
