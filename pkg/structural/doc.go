// Package structural holds the value types produced by the viewport,
// column, and wall stages (S1-S3): ViewportRegion, MergeMapping, Column,
// Wall, and the merged single-view LabelModel, plus the columns/walls
// synthesis algorithms themselves.
package structural
