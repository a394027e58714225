// Package pipeline orchestrates the nine-stage structural-geometry
// reconstruction DAG (S0 Extraction through S8 Quantities), threading each
// stage's immutable output into the next and collecting per-stage
// StageError records instead of aborting.
//
// Stages are pure functions; Project holds the union of every stage's
// result so later stages (and callers replaying a run) can see all prior
// output without re-deriving it.
package pipeline
