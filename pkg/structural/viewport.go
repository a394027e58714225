package structural

import "github.com/archiforge/cadrecon/pkg/geomx"

// TitleInfo is present on a ViewportRegion when its title matches
// "<prefix>(N)", "<prefix>(汉数)", or "<prefix>-N".
type TitleInfo struct {
	Prefix string
	Index  int
}

// ViewportRegion is a rectangular drawing region discovered by axis
// clustering (S1) and attributed with a human-readable title.
type ViewportRegion struct {
	Bounds geomx.Bounds
	Title  string
	Info   *TitleInfo // nil when Title does not parse as "<prefix>(N)"/"-N"
}

// NormalizedTitle returns Info.Prefix when Info is present, else the raw
// Title, matching the grouping key MergeMapping uses in S2.
func (v ViewportRegion) NormalizedTitle() string {
	if v.Info != nil {
		return v.Info.Prefix
	}
	return v.Title
}

// Index returns the duplicate-view ordinal used for sorting within a group,
// defaulting to 1 when Info is absent (the region is its own base).
func (v ViewportRegion) Index() int {
	if v.Info != nil {
		return v.Info.Index
	}
	return 1
}

// MergeMapping records how one viewport's geometry was translated onto a
// base viewport of the same title prefix. The base itself has a
// MergeMapping with a zero TranslationVector and SourceIndex == BaseIndex.
type MergeMapping struct {
	SourceIndex      int
	BaseIndex        int
	TranslationVector geomx.Vector
	SourceBounds     geomx.Bounds
	NormalizedTitle  string
}

// IsBase reports whether this mapping describes the group's base viewport.
func (m MergeMapping) IsBase() bool {
	return m.SourceIndex == m.BaseIndex
}
