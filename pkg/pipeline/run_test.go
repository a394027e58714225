package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/stretchr/testify/require"
)

func axisLine(x0, y0, x1, y1 float64) entity.Entity {
	return entity.Entity{
		Kind:  entity.KindLine,
		Layer: "A-AXIS",
		Line:  entity.Line{Start: geomx.Point{X: x0, Y: y0}, End: geomx.Point{X: x1, Y: y1}},
	}
}

func singleViewportConfig() *Config {
	cfg := DefaultConfig()
	cfg.Layers = entity.LayerMap{
		"A-AXIS":   {entity.RoleAxis},
		"A-COLUMN": {entity.RoleColumn},
		"A-WALL":   {entity.RoleWall},
		"A-BEAM":   {entity.RoleBeam},
		"A-TEXT":   {entity.RoleBeamLabel},
	}
	return cfg
}

func rectAxis(x0, y0, x1, y1 float64) []entity.Entity {
	return []entity.Entity{
		axisLine(x0, y0, x1, y0),
		axisLine(x1, y0, x1, y1),
		axisLine(x1, y1, x0, y1),
		axisLine(x0, y1, x0, y0),
	}
}

func TestRunToStage_Extract(t *testing.T) {
	cfg := singleViewportConfig()
	entities := rectAxis(0, 0, 10000, 8000)

	p, err := RunToStage(context.Background(), cfg, entities, nil, StageExtract)
	require.NoError(t, err)
	require.Len(t, p.Entities, 4)
	require.Nil(t, p.Regions)
}

func TestRunToStage_SplitViews(t *testing.T) {
	cfg := singleViewportConfig()
	entities := rectAxis(0, 0, 10000, 8000)

	p, err := RunToStage(context.Background(), cfg, entities, nil, StageSplitViews)
	require.NoError(t, err)
	require.Len(t, p.Regions, 1)
	require.Nil(t, p.Mappings)
}

func TestRunToStage_MergeViews(t *testing.T) {
	cfg := singleViewportConfig()
	entities := rectAxis(0, 0, 10000, 8000)

	p, err := RunToStage(context.Background(), cfg, entities, nil, StageMergeViews)
	require.NoError(t, err)
	require.Len(t, p.Mappings, 1)
	require.True(t, p.Mappings[0].IsBase())
	require.NotNil(t, p.Labels)
}

func TestRun_FullPipelineWithNoStructuralEntities(t *testing.T) {
	cfg := singleViewportConfig()
	entities := rectAxis(0, 0, 10000, 8000)

	p, err := Run(context.Background(), cfg, entities, nil)
	require.NoError(t, err)
	require.Len(t, p.Regions, 1)
	require.Empty(t, p.Columns)
	require.Empty(t, p.Walls)
	require.Empty(t, p.Fragments)
	require.Empty(t, p.Quantities)
}

func TestRun_InvalidConfigFailsFast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layers = nil

	_, err := Run(context.Background(), cfg, rectAxis(0, 0, 1000, 1000), nil)
	require.Error(t, err)
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	cfg := singleViewportConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, rectAxis(0, 0, 1000, 1000), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_DeadlineExceededDuringStages(t *testing.T) {
	cfg := singleViewportConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := Run(ctx, cfg, rectAxis(0, 0, 1000, 1000), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunToStage_NoAxisEntitiesReportsError(t *testing.T) {
	cfg := singleViewportConfig()
	entities := []entity.Entity{
		{Kind: entity.KindText, Layer: "A-TEXT", Text: entity.Text{Content: "note", Insertion: geomx.Point{X: 0, Y: 0}}},
	}

	p, err := RunToStage(context.Background(), cfg, entities, nil, StageSplitViews)
	require.NoError(t, err)
	require.Empty(t, p.Regions)
	require.NotEmpty(t, p.Errors)
}

func TestProject_ObstaclesOrderedColumnsThenWalls(t *testing.T) {
	cfg := singleViewportConfig()
	entities := append(rectAxis(0, 0, 10000, 8000),
		entity.Entity{Kind: entity.KindCircle, Layer: "A-COLUMN", Circle: entity.Circle{Center: geomx.Point{X: 5000, Y: 4000}, Radius: 250}},
		entity.Entity{Kind: entity.KindLine, Layer: "A-WALL", Line: entity.Line{Start: geomx.Point{X: 0, Y: 4000}, End: geomx.Point{X: 10000, Y: 4000}}},
	)

	p, err := RunToStage(context.Background(), cfg, entities, nil, StageColumnsWalls)
	require.NoError(t, err)
	require.Len(t, p.Columns, 1)

	obstacles := p.obstacles()
	require.Len(t, obstacles, 1+len(p.Walls))
	require.Equal(t, p.Columns[0].Bounds, obstacles[0].ObstacleBounds())
}
