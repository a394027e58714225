// Package quantities implements S8: grouping final beam fragments by their
// owning viewport and summing concrete volumes.
package quantities
