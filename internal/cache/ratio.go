// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides the fuzzy answer cache: previously answered
// questions are matched against incoming queries by edit-distance similarity
// so near-duplicate questions are answered without calling the model.
package cache

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SIMILARITY SCORING
// =============================================================================

// Ratio scores the similarity of two strings on a 0-100 scale. 100 means the
// normalized strings are identical, 0 means nothing matches.
//
// UNICODE: Both inputs are NFC-normalized and lower-cased before comparison,
// and the edit distance runs over runes, so "café" and "café" (decomposed)
// score 100.
//
// The score is derived from Levenshtein distance with substitutions costing
// 2, scaled by the combined length: 100 * (lenA + lenB - dist) / (lenA + lenB).
func Ratio(a, b string) int {
	ra := normalize(a)
	rb := normalize(b)

	// Degenerate cases: two empty strings are identical, one empty string
	// matches nothing.
	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	total := len(ra) + len(rb)
	dist := editDistance(ra, rb)
	return int(float64(100*(total-dist))/float64(total) + 0.5)
}

func normalize(s string) []rune {
	return []rune(strings.ToLower(norm.NFC.String(s)))
}

// editDistance computes Levenshtein distance over runes with substitution
// cost 2 (a substitution counts as one delete plus one insert). Uses a
// single-row DP to keep allocation at O(min(len)).
func editDistance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		prev := row[0] // row[i-1][j-1]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 2
			}
			row[j] = min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
