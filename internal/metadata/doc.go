// Package metadata flattens document metadata into scalar values.
//
// Storage only accepts string, int64, float64 and bool metadata values.
// Normalise coerces front-matter and caller-supplied fields into that
// shape and fills in the structural defaults (filename, type, doc_id,
// source_ext). Normalise is idempotent: feeding its output back in
// returns the same mapping.
package metadata
