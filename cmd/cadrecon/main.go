package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/export"
	"github.com/archiforge/cadrecon/pkg/pipeline"
)

const version = "1.0.0"

var (
	inputPath  = flag.String("input", "", "Path to entity JSON file (required)")
	layersPath = flag.String("layers", "", "Path to layer-role YAML config (required)")
	outputDir  = flag.String("output", ".", "Output directory for generated files")
	format     = flag.String("format", "json", "Export format: json, svg, or all")
	stageFlag  = flag.String("stage", "", "Run only up to this stage (for debugging), e.g. mergeviews")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	versionF   = flag.Bool("version", false, "Print version and exit")
	help       = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Printf("cadrecon version %s\n", version)
		os.Exit(0)
	}
	if *help {
		printHelp()
		os.Exit(0)
	}

	if *inputPath == "" || *layersPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -input and -layers flags are required")
		printUsage()
		os.Exit(1)
	}

	validFormats := map[string]bool{"json": true, "svg": true, "all": true}
	if !validFormats[*format] {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q, must be one of: json, svg, all\n", *format)
		os.Exit(1)
	}

	target, err := stageFromFlag(*stageFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(target); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// inputDoc is the JSON shape accepted by -input: a flat entity stream plus
// any block definitions those entities' INSERTs reference.
type inputDoc struct {
	Entities []entity.Entity    `json:"entities"`
	Blocks   entity.BlockTable  `json:"blocks"`
}

func run(target pipeline.Stage) error {
	ctx := context.Background()

	if *verbose {
		fmt.Printf("Loading layer config from %s\n", *layersPath)
	}
	cfg, err := pipeline.LoadConfig(*layersPath)
	if err != nil {
		return fmt.Errorf("failed to load layer config: %w", err)
	}

	if *verbose {
		fmt.Printf("Loading entities from %s\n", *inputPath)
	}
	doc, err := loadInput(*inputPath)
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	if *verbose {
		fmt.Printf("Loaded %d entities, %d block definitions\n", len(doc.Entities), len(doc.Blocks))
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	start := time.Now()
	if *verbose {
		fmt.Println("Running reconstruction pipeline...")
	}

	proj, err := pipeline.RunToStage(ctx, cfg, doc.Entities, doc.Blocks, target)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	elapsed := time.Since(start)

	if *verbose {
		fmt.Printf("Pipeline completed in %v\n", elapsed)
		printStats(proj)
	}

	artifact := export.BuildArtifact(proj)
	baseName := strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath))

	if *format == "json" || *format == "all" {
		if err := exportJSON(artifact, baseName); err != nil {
			return err
		}
	}
	if *format == "svg" || *format == "all" {
		if err := exportSVG(artifact, baseName); err != nil {
			return err
		}
	}

	fmt.Printf("Successfully reconstructed %s in %v (%d non-fatal errors)\n", baseName, elapsed, len(proj.Errors))
	return nil
}

func loadInput(path string) (*inputDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc inputDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

func stageFromFlag(s string) (pipeline.Stage, error) {
	switch strings.ToLower(s) {
	case "":
		return pipeline.StageQuantities, nil
	case "extract":
		return pipeline.StageExtract, nil
	case "splitviews":
		return pipeline.StageSplitViews, nil
	case "mergeviews":
		return pipeline.StageMergeViews, nil
	case "columnswalls":
		return pipeline.StageColumnsWalls, nil
	case "beamraw":
		return pipeline.StageBeamRaw, nil
	case "beamgeometry":
		return pipeline.StageBeamGeometry, nil
	case "beamattributes":
		return pipeline.StageBeamAttributes, nil
	case "beamtopology":
		return pipeline.StageBeamTopology, nil
	case "quantities":
		return pipeline.StageQuantities, nil
	default:
		return 0, fmt.Errorf("unknown stage %q", s)
	}
}

func exportJSON(artifact *export.Artifact, baseName string) error {
	filename := filepath.Join(*outputDir, baseName+".json")
	if *verbose {
		fmt.Printf("Exporting JSON to %s\n", filename)
	}
	if err := export.SaveJSONToFile(artifact, filename); err != nil {
		return fmt.Errorf("failed to export JSON: %w", err)
	}
	if *verbose {
		info, _ := os.Stat(filename)
		fmt.Printf("  Wrote %d bytes\n", info.Size())
	}
	return nil
}

func exportSVG(artifact *export.Artifact, baseName string) error {
	filename := filepath.Join(*outputDir, baseName+".svg")
	if *verbose {
		fmt.Printf("Exporting SVG to %s\n", filename)
	}
	opts := export.DefaultSVGOptions()
	opts.Title = baseName
	if err := export.SaveSVGToFile(artifact, filename, opts); err != nil {
		return fmt.Errorf("failed to export SVG: %w", err)
	}
	if *verbose {
		info, _ := os.Stat(filename)
		fmt.Printf("  Wrote %d bytes\n", info.Size())
	}
	return nil
}

func printStats(p *pipeline.Project) {
	fmt.Println("\nReconstruction Statistics:")
	fmt.Printf("  Entities: %d\n", len(p.Entities))
	fmt.Printf("  Viewports: %d\n", len(p.Regions))
	fmt.Printf("  Merge mappings: %d\n", len(p.Mappings))
	fmt.Printf("  Columns: %d\n", len(p.Columns))
	fmt.Printf("  Walls: %d\n", len(p.Walls))
	fmt.Printf("  Junctions: %d\n", len(p.Junctions))
	fmt.Printf("  Beam fragments: %d\n", len(p.Fragments))
	if len(p.Quantities) > 0 {
		var total float64
		for _, vt := range p.Quantities {
			total += vt.TotalVolumeM3
		}
		fmt.Printf("  Total concrete volume: %.3f m3\n", total)
	}
	if len(p.Errors) > 0 {
		fmt.Printf("\nNon-fatal errors: %d\n", len(p.Errors))
		for _, e := range p.Errors {
			fmt.Printf("  [%s] %s: %s\n", e.Stage, e.Kind, e.Detail)
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage: cadrecon -input <entities.json> -layers <layers.yaml> [options]")
	fmt.Fprintln(os.Stderr, "\nRun 'cadrecon -help' for detailed help")
}

func printHelp() {
	fmt.Printf("cadrecon version %s\n\n", version)
	fmt.Println("Reconstructs structural geometry (columns, walls, beams, junctions,")
	fmt.Println("concrete quantities) from a flattened CAD entity stream.")
	fmt.Println("\nUsage:")
	fmt.Println("  cadrecon -input <entities.json> -layers <layers.yaml> [options]")
	fmt.Println("\nRequired Flags:")
	fmt.Println("  -input string")
	fmt.Println("        Path to entity JSON file ({\"entities\": [...], \"blocks\": {...}})")
	fmt.Println("  -layers string")
	fmt.Println("        Path to layer-role YAML config")
	fmt.Println("\nOptional Flags:")
	fmt.Println("  -output string")
	fmt.Println("        Output directory for generated files (default: current directory)")
	fmt.Println("  -format string")
	fmt.Println("        Export format: json, svg, or all (default: json)")
	fmt.Println("  -stage string")
	fmt.Println("        Run only up to this stage: extract, splitviews, mergeviews,")
	fmt.Println("        columnswalls, beamraw, beamgeometry, beamattributes,")
	fmt.Println("        beamtopology, quantities (default: quantities)")
	fmt.Println("  -verbose")
	fmt.Println("        Enable verbose output")
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  # Full reconstruction with JSON export")
	fmt.Println("  cadrecon -input plan.json -layers layers.yaml")
	fmt.Println("\n  # Stop after view merging and render a debug SVG")
	fmt.Println("  cadrecon -input plan.json -layers layers.yaml -stage mergeviews -format svg")
}
