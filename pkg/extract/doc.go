// Package extract implements S0: flattening the raw entity stream and
// restricting it to a set of bounds.
package extract
