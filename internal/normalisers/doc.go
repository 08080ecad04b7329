// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract the
// translatable text from a specific MIME type, so a document can be analysed
// straight from its source file.
//
// Default returns a registry with every built-in normaliser registered.
package normalisers
