// Package textutil provides title normalization, edit-distance similarity
// and text sanitization used by duplicate detection.
//
// Titles are compared after normalization: Unicode NFC, lowercase, and
// removal of whitespace and common punctuation. Similarity is
// 1 - levenshtein/maxLen measured in runes, so it always lies in [0, 1].
package textutil
