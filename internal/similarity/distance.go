// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package similarity ranks users by the token edit distance between their tag lists.
package similarity

// Distance returns the Levenshtein distance between two token sequences: the
// minimum number of single-token insertions, deletions, or substitutions that
// turn a into b. It is symmetric and Distance(nil, s) == len(s).
//
// Runs in O(len(a)*len(b)) time with a single row sized by the shorter input.
func Distance[T comparable](a, b []T) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			above := row[j]
			if a[i-1] == b[j-1] {
				row[j] = diag
			} else {
				row[j] = 1 + min(above, row[j-1], diag)
			}
			diag = above
		}
	}

	return row[len(b)]
}
