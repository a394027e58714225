// Package export renders a completed reconstruction Project to external
// formats: a JSON artifact for downstream tooling, and an SVG debug
// rendering for visual review.
package export
