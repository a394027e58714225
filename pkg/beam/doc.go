// Package beam implements the four beam stages (S4-S7): raw rectangle
// synthesis, geometry merging/extension/junction detection, label
// attribution, and junction topology resolution. Fragment is the
// progressively enriched value type threaded through all four stages, via
// struct embedding rather than mutation: each stage returns a new slice of
// the next stage's fragment type.
package beam
