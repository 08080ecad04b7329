// Package textdiff measures how much a document changed between two
// revisions and where.
//
// Similarity is a normalised edit distance in [0, 1]. Inputs above a length
// threshold are sampled (first, middle and last thirds) so the quadratic cost
// stays bounded. Diff aligns sentence and line units of both revisions and
// reports the maximal changed regions as segments of the current text.
//
// All offsets are rune indices. Every function in this package is pure.
package textdiff
