package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/quantities"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

func createTestArtifact() *Artifact {
	viewports := []ViewportExport{
		{
			ViewportRegion: structural.ViewportRegion{
				Bounds: geomx.Bounds{MinX: 0, MinY: 0, MaxX: 10000, MaxY: 8000},
				Title:  "3F PLAN(1)",
				Info:   &structural.TitleInfo{Prefix: "3F PLAN", Index: 1},
			},
			ID: "viewport-0",
		},
		{
			ViewportRegion: structural.ViewportRegion{
				Bounds: geomx.Bounds{MinX: 12000, MinY: 0, MaxX: 22000, MaxY: 8000},
				Title:  "3F PLAN(2)",
				Info:   &structural.TitleInfo{Prefix: "3F PLAN", Index: 2},
			},
			ID: "viewport-1",
		},
	}

	mappings := []structural.MergeMapping{
		{SourceIndex: 1, BaseIndex: 1, NormalizedTitle: "3F PLAN"},
		{SourceIndex: 2, BaseIndex: 1, TranslationVector: geomx.Vector{X: -12000, Y: 0}, NormalizedTitle: "3F PLAN"},
	}

	columns := []structural.Column{
		{Bounds: geomx.Bounds{MinX: 2000, MinY: 2000, MaxX: 2500, MaxY: 2500}, Center: geomx.Point{X: 2250, Y: 2250}, Width: 500, Height: 500},
	}

	walls := []structural.Wall{
		{OBB: geomx.NewOBBFromAxis(geomx.Point{X: 0, Y: 0}, geomx.Point{X: 5000, Y: 0}, 100), Thickness: 200},
	}

	junctions := []beam.IntersectionInfo{
		{
			Bounds:        geomx.Bounds{MinX: 4900, MinY: -100, MaxX: 5100, MaxY: 100},
			Center:        geomx.Point{X: 5000, Y: 0},
			Junction:      beam.JunctionT,
			HasStemAngle:  true,
			StemAngle:     90,
			MemberIndices: []int{0, 1, 2},
		},
	}

	fragments := []FragmentExport{
		{
			Fragment: beam.Fragment{
				AttrFragment: beam.AttrFragment{
					GeomFragment: beam.GeomFragment{
						RawFragment: beam.RawFragment{OBB: geomx.NewOBBFromAxis(geomx.Point{X: 0, Y: 0}, geomx.Point{X: 5000, Y: 0}, 150)},
						Index:       0,
					},
					Code:   "KL2",
					Span:   1,
					Width:  300,
					Height: 600,
				},
				ParentIndex: 0,
				Length:      5000,
				Volume:      0.9,
			},
			ID: "fragment-0",
		},
	}

	totals := []quantities.ViewportTotals{
		{
			ViewportIndex: 0,
			Bounds:        viewports[0].Bounds,
			Codes:         []quantities.CodeTotal{{Code: "KL2", Count: 1, VolumeM3: 0.9}},
			TotalVolumeM3: 0.9,
		},
	}

	errs := stageerr.Errors{}
	errs = errs.Add(stageerr.KindUnknownCode, "beam-attributes", geomx.Point{X: 1000, Y: 1000}, "no label within tolerance")

	return &Artifact{
		Viewports:  viewports,
		Mappings:   mappings,
		Columns:    columns,
		Walls:      walls,
		Junctions:  junctions,
		Fragments:  fragments,
		Quantities: totals,
		Errors:     errs,
	}
}

func TestExportJSON(t *testing.T) {
	artifact := createTestArtifact()

	data, err := ExportJSON(artifact)
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportJSON() returned empty data")
	}

	var result Artifact
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("ExportJSON() produced invalid JSON: %v", err)
	}

	if len(result.Viewports) != len(artifact.Viewports) {
		t.Errorf("Viewports count mismatch: got %d, want %d", len(result.Viewports), len(artifact.Viewports))
	}
	if len(result.Fragments) != len(artifact.Fragments) {
		t.Errorf("Fragments count mismatch: got %d, want %d", len(result.Fragments), len(artifact.Fragments))
	}
}

func TestExportJSONCompact(t *testing.T) {
	artifact := createTestArtifact()

	data, err := ExportJSONCompact(artifact)
	if err != nil {
		t.Fatalf("ExportJSONCompact() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportJSONCompact() returned empty data")
	}

	var result Artifact
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("ExportJSONCompact() produced invalid JSON: %v", err)
	}

	formatted, _ := ExportJSON(artifact)
	if len(data) >= len(formatted) {
		t.Errorf("Compact JSON is not smaller: compact=%d, formatted=%d", len(data), len(formatted))
	}
}

func TestSaveJSONToFile(t *testing.T) {
	artifact := createTestArtifact()
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test_artifact.json")

	if err := SaveJSONToFile(artifact, filePath); err != nil {
		t.Fatalf("SaveJSONToFile() error = %v", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Fatal("SaveJSONToFile() did not create file")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}

	var result Artifact
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Saved file contains invalid JSON: %v", err)
	}
	if len(result.Columns) != len(artifact.Columns) {
		t.Error("Saved artifact columns were not preserved")
	}
}

func TestSaveJSONCompactToFile(t *testing.T) {
	artifact := createTestArtifact()
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test_artifact_compact.json")

	if err := SaveJSONCompactToFile(artifact, filePath); err != nil {
		t.Fatalf("SaveJSONCompactToFile() error = %v", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	var result Artifact
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Saved file contains invalid JSON: %v", err)
	}

	formattedPath := filepath.Join(tmpDir, "test_formatted.json")
	_ = SaveJSONToFile(artifact, formattedPath)
	formattedData, _ := os.ReadFile(formattedPath)

	if len(data) >= len(formattedData) {
		t.Errorf("Compact file is not smaller: compact=%d, formatted=%d", len(data), len(formattedData))
	}
}

func TestExportJSON_EmptyArtifact(t *testing.T) {
	artifact := &Artifact{}

	data, err := ExportJSON(artifact)
	if err != nil {
		t.Fatalf("ExportJSON() with empty artifact error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportJSON() returned empty data for empty artifact")
	}

	var result Artifact
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("ExportJSON() produced invalid JSON for empty artifact: %v", err)
	}
}

func TestSaveJSONToFile_InvalidPath(t *testing.T) {
	artifact := createTestArtifact()
	invalidPath := "/nonexistent/directory/that/does/not/exist/file.json"

	if err := SaveJSONToFile(artifact, invalidPath); err == nil {
		t.Fatal("SaveJSONToFile() should fail with invalid path")
	}
}

func TestExportJSON_RoundTrip(t *testing.T) {
	original := createTestArtifact()

	data, err := ExportJSON(original)
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	var restored Artifact
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if len(restored.Viewports) != len(original.Viewports) {
		t.Errorf("Viewports count mismatch: got %v, want %v", len(restored.Viewports), len(original.Viewports))
	}
	if len(restored.Mappings) != len(original.Mappings) {
		t.Errorf("Mappings count mismatch: got %v, want %v", len(restored.Mappings), len(original.Mappings))
	}
	if len(restored.Columns) != len(original.Columns) {
		t.Errorf("Columns count mismatch: got %v, want %v", len(restored.Columns), len(original.Columns))
	}
	if len(restored.Walls) != len(original.Walls) {
		t.Errorf("Walls count mismatch: got %v, want %v", len(restored.Walls), len(original.Walls))
	}
	if len(restored.Junctions) != len(original.Junctions) {
		t.Errorf("Junctions count mismatch: got %v, want %v", len(restored.Junctions), len(original.Junctions))
	}
	if len(restored.Fragments) != len(original.Fragments) {
		t.Errorf("Fragments count mismatch: got %v, want %v", len(restored.Fragments), len(original.Fragments))
	}
	if len(restored.Quantities) != len(original.Quantities) {
		t.Errorf("Quantities count mismatch: got %v, want %v", len(restored.Quantities), len(original.Quantities))
	}
	if len(restored.Errors) != len(original.Errors) {
		t.Errorf("Errors count mismatch: got %v, want %v", len(restored.Errors), len(original.Errors))
	}

	if restored.Fragments[0].Code != original.Fragments[0].Code {
		t.Errorf("Fragment code mismatch: got %q, want %q", restored.Fragments[0].Code, original.Fragments[0].Code)
	}
	if restored.Quantities[0].TotalVolumeM3 != original.Quantities[0].TotalVolumeM3 {
		t.Errorf("TotalVolumeM3 mismatch: got %v, want %v", restored.Quantities[0].TotalVolumeM3, original.Quantities[0].TotalVolumeM3)
	}
}
