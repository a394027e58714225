// Package stageerr defines the structured, non-fatal diagnostic record
// shared by every pipeline stage package. It has no
// dependency on pkg/pipeline so that stage packages (extract, viewport,
// structural, beam, quantities) can report errors without importing the
// orchestrator that in turn imports them.
package stageerr

import "github.com/archiforge/cadrecon/pkg/geomx"

// ErrorKind enumerates the recoverable error categories a stage can report.
// Every kind but INVALID_INPUT is recorded alongside a normal stage
// result; INVALID_INPUT accompanies an empty result for that stage, except
// in View Merging, which records it for a duplicate view left standalone
// for lack of grid support and still returns its other mappings.
type ErrorKind string

const (
	// KindPreconditionMissing: a required prior stage has not run.
	KindPreconditionMissing ErrorKind = "PRECONDITION_MISSING"
	// KindLeaderConflict: a label leader's endpoints land on two beams.
	KindLeaderConflict ErrorKind = "LEADER_CONFLICT"
	// KindCrossSpanOne: every member of a C-junction has span=1.
	KindCrossSpanOne ErrorKind = "CROSS_SPAN_ONE"
	// KindUnresolvedJunction: a junction still has >=2 fragments after all
	// five topology passes.
	KindUnresolvedJunction ErrorKind = "UNRESOLVED_JUNCTION"
	// KindUnknownCode: a beam fragment has no label or propagation source.
	KindUnknownCode ErrorKind = "UNKNOWN_CODE"
	// KindInvalidInput: fatal per-stage geometry failure (NaN, degenerate
	// polygon, out-of-memory class failures modelled as input errors).
	KindInvalidInput ErrorKind = "INVALID_INPUT"
)

// StageError is a structured, non-fatal diagnostic produced by a stage.
// Locus is the point in world space the error concerns (a junction centre,
// a leader's insertion point, a fragment centroid); it is the zero Point
// when a locus does not apply.
type StageError struct {
	Kind   ErrorKind
	Stage  string
	Locus  geomx.Point
	Detail string
}

// Errors is an ordered collection of StageError, append-only per stage.
type Errors []StageError

// Add appends a new StageError and returns the updated slice, mirroring the
// append-returns-slice idiom used throughout the stage implementations.
func (e Errors) Add(kind ErrorKind, stage string, locus geomx.Point, detail string) Errors {
	return append(e, StageError{Kind: kind, Stage: stage, Locus: locus, Detail: detail})
}

// HasKind reports whether any recorded error matches kind.
func (e Errors) HasKind(kind ErrorKind) bool {
	for _, err := range e {
		if err.Kind == kind {
			return true
		}
	}
	return false
}
