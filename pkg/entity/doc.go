// Package entity defines the tagged-variant geometric entity that every
// pipeline stage consumes, the semantic layer-role mapping, and the
// recursive insert/polyline flattening.
//
// Entities are immutable value types. The source CAD model draws no
// distinction between entity shapes beyond a bag of optional fields; here
// each shape is its own struct and Entity carries a Kind discriminator, so
// callers switch exhaustively instead of testing field presence.
package entity
