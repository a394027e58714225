package pipeline

import "github.com/archiforge/cadrecon/pkg/stageerr"

// These aliases let callers of pipeline.Run work entirely in terms of
// pipeline.* names without a second import for the leaf error type that
// every stage package depends on.
type (
	ErrorKind  = stageerr.ErrorKind
	StageError = stageerr.StageError
	Errors     = stageerr.Errors
)

const (
	KindPreconditionMissing = stageerr.KindPreconditionMissing
	KindLeaderConflict      = stageerr.KindLeaderConflict
	KindCrossSpanOne        = stageerr.KindCrossSpanOne
	KindUnresolvedJunction  = stageerr.KindUnresolvedJunction
	KindUnknownCode         = stageerr.KindUnknownCode
	KindInvalidInput        = stageerr.KindInvalidInput
)
