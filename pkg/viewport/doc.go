// Package viewport implements S1 (region discovery and titling) and S2
// (duplicate-view merging and label channel splitting).
package viewport
