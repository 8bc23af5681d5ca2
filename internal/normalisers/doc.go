// Package normalisers turns files of every supported format into plain
// text documents.
//
// Each format lives in its own subpackage. The Registry here picks the
// right one for a file: by extension first, then by the MIME type
// detected from content, then the plain-text fallback.
package normalisers
