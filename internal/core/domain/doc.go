// Package domain holds the types every other qpro package speaks: the
// ingested Document and its Chunks, the RawDocument read from disk, the
// composed Draft, settings and the classified Error.
//
// It imports the standard library only.
package domain
