// Package geomx implements the 2D geometric algebra shared by every stage of
// the structural-geometry reconstruction pipeline: points, axis-aligned
// bounds, unit vectors, and oriented bounding boxes (OBBs).
//
// All coordinates are in millimetres. Types in this package are immutable
// value types; every operation returns a new value rather than mutating its
// receiver.
package geomx
