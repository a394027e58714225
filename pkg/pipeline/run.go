package pipeline

import (
	"context"
	"fmt"

	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/extract"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/quantities"
	"github.com/archiforge/cadrecon/pkg/structural"
	"github.com/archiforge/cadrecon/pkg/viewport"
)

// Run executes every stage from Extraction through Quantities, mirroring
// a single staged orchestration call. Each stage's recoverable
// errors are appended to Project.Errors rather than aborting the run; only
// a cancelled context or an invalid config stops early with a non-nil
// error.
func Run(ctx context.Context, cfg *Config, entities []entity.Entity, blocks entity.BlockTable) (*Project, error) {
	return RunToStage(ctx, cfg, entities, blocks, StageQuantities)
}

// RunToStage runs every stage up to and including target, then returns
// whatever the project has accumulated so far.
func RunToStage(ctx context.Context, cfg *Config, entities []entity.Entity, blocks entity.BlockTable, target Stage) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := ctxDone(ctx); err != nil {
		return nil, err
	}

	p := &Project{}

	flat, errs := extract.Extract(cfg.Layers, entities, blocks)
	p.Entities = flat
	p.Errors = append(p.Errors, errs...)
	if target == StageExtract {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	axisSegs := structural.SegmentsFromEntities(flat, cfg.Layers, entity.RoleAxis)
	titleTexts := titleCandidates(flat, cfg.Layers)
	underlineSegs := lineSegments(flat)
	regions, errs := viewport.Split(axisSegs, titleTexts, underlineSegs, viewport.SplitConfig{
		ClusterTolerance: cfg.Viewport.ClusterTolerance,
		TitleStep:        cfg.Viewport.TitleStep,
		TitleMaxRadius:   cfg.Viewport.TitleMaxRadius,
	})
	p.Regions = regions
	p.Errors = append(p.Errors, errs...)
	if target == StageSplitViews {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	labelEntities := labelCandidates(flat, cfg.Layers)
	mappings, model, errs := viewport.Merge(regions, axisSegs, labelEntities, viewport.MergeConfig{
		GridAlignTol: cfg.Viewport.GridAlignTol,
		VoteQuantise: cfg.Viewport.VoteQuantise,
	})
	p.Mappings = mappings
	p.Labels = model
	p.Errors = append(p.Errors, errs...)
	if target == StageMergeViews {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	baseBounds, errs := extract.RequireMergeBase(p.viewportBoundsList())
	p.Errors = append(p.Errors, errs...)
	scoped := extract.FilterInBounds(flat, []geomx.Bounds{baseBounds})

	columns := structural.BuildColumns(scoped, cfg.Layers)
	wallLines := structural.SegmentsFromEntities(scoped, cfg.Layers, entity.RoleWall)
	walls, errs := structural.BuildWalls(wallLines, axisSegs, columns, structural.WallConfigLike{
		StandardThicknesses: cfg.Wall.StandardThicknesses,
		FallbackThicknesses: cfg.Wall.FallbackThicknesses,
		ThicknessRoundTo:    cfg.Wall.ThicknessRoundTo,
		MinGap:              cfg.Wall.MinGap,
		MaxGap:              cfg.Wall.MaxGap,
		MatchTolerance:      cfg.Wall.MatchTolerance,
		SupportLateralSlack: cfg.Wall.SupportLateralSlack,
		SupportMinOverlap:   cfg.Wall.SupportMinOverlap,
	})
	p.Columns = columns
	p.Walls = walls
	p.Errors = append(p.Errors, errs...)
	if target == StageColumnsWalls {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	beamLines, explicitRects := beam.SegmentsFromBeamEntities(scoped, cfg.Layers)
	widthVocab := beam.WidthVocabulary(p.mergedLabels())
	obstacles := p.obstacles()
	rawFrags, errs := beam.BuildRaw(beamLines, explicitRects, obstacles, widthVocab, beam.RawConfigLike{
		MinSideLength:       cfg.Beam.MinSideLength,
		GapTolerance:        cfg.Beam.GapTolerance,
		FallbackGapMin:      cfg.Beam.FallbackGapMin,
		FallbackGapMax:      cfg.Beam.FallbackGapMax,
		MinOverlap:          cfg.Beam.MinOverlap,
		ObstacleCutFraction: cfg.Beam.ObstacleCutFraction,
		ObstacleCutMin:      cfg.Beam.ObstacleCutMin,
		MinFragmentLength:   cfg.Beam.MinFragmentLength,
		CollinearStitchGap:  cfg.Beam.CollinearStitchGap,
	})
	p.RawFragments = rawFrags
	p.Errors = append(p.Errors, errs...)
	if target == StageBeamRaw {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	geomFrags, junctions, errs := beam.BuildGeometry(rawFrags, obstacles, p.viewportBoundsList(), beam.GeomConfigLike{
		AnchorProbe:        cfg.Beam.AnchorProbe,
		OffsetTolerance:    cfg.Beam.OffsetTolerance,
		WidthDiffTolerance: cfg.Beam.WidthDiffTolerance,
		CollinearMergeGap:  cfg.Beam.CollinearMergeGap,
		ParallelMergeSlack: cfg.Beam.ParallelMergeSlack,
		ValidWidths:        widthVocab,
		ClusterGrid:        cfg.Junction.ClusterGrid,
		ArmExtentTolerance: cfg.Junction.ArmExtentTolerance,
	})
	p.GeomFragments = geomFrags
	p.Junctions = junctions
	p.Errors = append(p.Errors, errs...)
	if target == StageBeamGeometry {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	attrFrags, errs := beam.BuildAttributes(geomFrags, p.mergedLabels(), obstacles, beam.AttrConfigLike{
		LabelHitTolerance:  cfg.Beam.LabelHitTolerance,
		RunOffsetTolerance: cfg.Beam.RunOffsetTolerance,
		RunSampleStep:      cfg.Beam.RunSampleStep,
		FallbackWidth:      cfg.Beam.FallbackWidth,
		FallbackHeight:     cfg.Beam.FallbackHeight,
	})
	p.AttrFragments = attrFrags
	p.Errors = append(p.Errors, errs...)
	if target == StageBeamAttributes {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	fragments, errs := beam.BuildTopology(attrFrags, junctions, beam.TopoConfigLike{
		EdgeTolerance: cfg.Junction.CutEdgeTolerance,
	})
	p.Fragments = fragments
	p.Errors = append(p.Errors, errs...)
	if target == StageBeamTopology {
		return p, nil
	}
	if err := ctxDone(ctx); err != nil {
		return p, err
	}

	p.Quantities = quantities.Aggregate(fragments, regions)
	return p, nil
}

func ctxDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// titleCandidates returns every TEXT entity eligible for the S1 title
// search: entities on a hinted VIEWPORT_TITLE layer when any exist,
// otherwise every TEXT entity not on an axis layer.
func titleCandidates(entities []entity.Entity, layers entity.LayerMap) []entity.Entity {
	hinted := layers.LayersWithRole(entity.RoleViewportTitle)
	var out []entity.Entity
	for _, e := range entities {
		if e.Kind != entity.KindText {
			continue
		}
		if len(hinted) > 0 {
			if !containsLayer(hinted, e.Layer) {
				continue
			}
		} else if layers.HasRole(e.Layer, entity.RoleAxis) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func containsLayer(layers []string, layer string) bool {
	for _, l := range layers {
		if l == layer {
			return true
		}
	}
	return false
}

// lineSegments collects every LINE entity's segment, the pool the S1
// underline search draws from.
func lineSegments(entities []entity.Entity) []geomx.Segment {
	var out []geomx.Segment
	for _, e := range entities {
		if e.Kind == entity.KindLine {
			out = append(out, geomx.Segment{A: e.Line.Start, B: e.Line.End})
		}
	}
	return out
}

// labelCandidates returns every TEXT/ATTRIB/DIMENSION entity on a
// BEAM_LABEL layer. BEAM_IN_SITU_LABEL layers are excluded from the merged
// stream, and no later stage reads those labels.
func labelCandidates(entities []entity.Entity, layers entity.LayerMap) []entity.Entity {
	var out []entity.Entity
	for _, e := range entities {
		switch e.Kind {
		case entity.KindText, entity.KindAttrib, entity.KindDimension:
		default:
			continue
		}
		if layers.HasRole(e.Layer, entity.RoleBeamInSituLabel) {
			continue
		}
		if !layers.HasRole(e.Layer, entity.RoleBeamLabel) {
			continue
		}
		out = append(out, e)
	}
	return out
}
