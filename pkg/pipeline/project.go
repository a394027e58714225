package pipeline

import (
	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/entity"
	"github.com/archiforge/cadrecon/pkg/geomx"
	"github.com/archiforge/cadrecon/pkg/quantities"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// Stage names one of the nine pipeline boundaries, in run order. Project
// fields are populated up to and including the requested stage; later
// fields stay at their zero value.
type Stage int

const (
	StageExtract Stage = iota
	StageSplitViews
	StageMergeViews
	StageColumnsWalls
	StageBeamRaw
	StageBeamGeometry
	StageBeamAttributes
	StageBeamTopology
	StageQuantities
)

// Project is the union of every stage's output, held for inspection and
// replay. No stage mutates a prior stage's fields; Run only appends.
type Project struct {
	Entities []entity.Entity

	Regions  []structural.ViewportRegion
	Mappings []structural.MergeMapping
	Labels   *structural.LabelModel

	Columns []structural.Column
	Walls   []structural.Wall

	RawFragments  []beam.RawFragment
	GeomFragments []beam.GeomFragment
	Junctions     []beam.IntersectionInfo
	AttrFragments []beam.AttrFragment
	Fragments     []beam.Fragment

	Quantities []quantities.ViewportTotals

	Errors stageerr.Errors
}

// obstacles returns every column and wall as a structural.Obstacle, in a
// stable column-then-wall order so beam-stage obstacle scans are
// reproducible across runs.
func (p *Project) obstacles() []structural.Obstacle {
	out := make([]structural.Obstacle, 0, len(p.Columns)+len(p.Walls))
	for _, c := range p.Columns {
		out = append(out, c)
	}
	for _, w := range p.Walls {
		out = append(out, w)
	}
	return out
}

// viewportBoundsList returns every discovered region's bounds, in the
// order Split Views discovered them.
func (p *Project) viewportBoundsList() []geomx.Bounds {
	out := make([]geomx.Bounds, len(p.Regions))
	for i, r := range p.Regions {
		out[i] = r.Bounds
	}
	return out
}

// mergedLabels flattens the H and V channels produced by View Merging into
// the single stream Build Attributes consumes.
func (p *Project) mergedLabels() []structural.Label {
	if p.Labels == nil {
		return nil
	}
	return p.Labels.All()
}
