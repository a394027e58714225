package export

import (
	"github.com/google/uuid"

	"github.com/archiforge/cadrecon/pkg/beam"
	"github.com/archiforge/cadrecon/pkg/pipeline"
	"github.com/archiforge/cadrecon/pkg/quantities"
	"github.com/archiforge/cadrecon/pkg/stageerr"
	"github.com/archiforge/cadrecon/pkg/structural"
)

// ViewportExport pairs a ViewportRegion with a debug identifier used to
// cross-reference the JSON artifact against the SVG rendering's element IDs
// of the same export. The identifier is a random UUID minted per export, so
// it differs between runs.
type ViewportExport struct {
	structural.ViewportRegion
	ID string `json:"id"`
}

// FragmentExport pairs a beam Fragment with a per-export debug identifier,
// the beam-side counterpart to ViewportExport.
type FragmentExport struct {
	beam.Fragment
	ID string `json:"id"`
}

// Artifact is the final exported form of a completed Project: the external
// interface's fields, plus the auxiliary tables needed to reproduce them.
type Artifact struct {
	Viewports  []ViewportExport            `json:"viewports"`
	Mappings   []structural.MergeMapping   `json:"mergeMappings"`
	Columns    []structural.Column         `json:"columns"`
	Walls      []structural.Wall           `json:"walls"`
	Junctions  []beam.IntersectionInfo     `json:"junctions"`
	Fragments  []FragmentExport            `json:"fragments"`
	Quantities []quantities.ViewportTotals `json:"quantities"`
	Errors     stageerr.Errors             `json:"errors"`
}

// BuildArtifact reduces a completed Project to its exportable shape,
// minting a fresh random debug ID for each viewport and fragment on every
// call.
func BuildArtifact(p *pipeline.Project) *Artifact {
	viewports := make([]ViewportExport, len(p.Regions))
	for i, r := range p.Regions {
		viewports[i] = ViewportExport{ViewportRegion: r, ID: uuid.NewString()}
	}
	fragments := make([]FragmentExport, len(p.Fragments))
	for i, f := range p.Fragments {
		fragments[i] = FragmentExport{Fragment: f, ID: uuid.NewString()}
	}
	return &Artifact{
		Viewports:  viewports,
		Mappings:   p.Mappings,
		Columns:    p.Columns,
		Walls:      p.Walls,
		Junctions:  p.Junctions,
		Fragments:  fragments,
		Quantities: p.Quantities,
		Errors:     p.Errors,
	}
}
