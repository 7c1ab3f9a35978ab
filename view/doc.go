// Package view derives read-only projections of the live collection.
//
// Apply is the filter: an empty or whitespace-only filter returns its input
// unchanged (the same slice, no copy). Any other filter keeps the items whose
// field values, joined by spaces, contain the filter text ignoring case.
// Nested values are rendered as JSON (map keys sorted) before matching.
//
// View keeps Apply's result current as its source buffer flushes or the
// filter changes. Pager slices a View into fixed-size pages.
package view
