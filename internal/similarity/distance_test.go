// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package similarity

import (
	"testing"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		want int
	}{
		{"both empty", nil, nil, 0},
		{"empty to three", []string{}, []string{"a", "b", "c"}, 3},
		{"three to empty", []string{"a", "b", "c"}, nil, 3},
		{"identical", []string{"go", "rust"}, []string{"go", "rust"}, 0},
		{"substitution", []string{"go", "rust"}, []string{"go", "zig"}, 1},
		{"replace all plus delete", []string{"go", "rust"}, []string{"python"}, 2},
		{"insertion", []string{"go"}, []string{"go", "rust"}, 1},
		{"order matters", []string{"a", "b"}, []string{"b", "a"}, 2},
		{"kitten sitting tokens",
			[]string{"k", "i", "t", "t", "e", "n"},
			[]string{"s", "i", "t", "t", "i", "n", "g"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDistanceProperties(t *testing.T) {
	t.Parallel()

	seqs := [][]string{
		nil,
		{"go"},
		{"go", "rust"},
		{"rust", "go", "c"},
		{"python", "go", "go", "zig"},
		{"x", "y", "z", "w", "v"},
	}

	for _, a := range seqs {
		if d := Distance(a, append([]string(nil), a...)); d != 0 {
			t.Errorf("Distance(%v, copy) = %d, want 0", a, d)
		}
		if d := Distance(nil, a); d != len(a) {
			t.Errorf("Distance(nil, %v) = %d, want %d", a, d, len(a))
		}
		for _, b := range seqs {
			ab, ba := Distance(a, b), Distance(b, a)
			if ab != ba {
				t.Errorf("asymmetric: d(%v,%v)=%d d(%v,%v)=%d", a, b, ab, b, a, ba)
			}
			if ab == 0 && len(a) != len(b) {
				t.Errorf("zero distance between different lengths %v %v", a, b)
			}
		}
	}
}

func TestDistanceGenericRunes(t *testing.T) {
	t.Parallel()

	if got := Distance([]rune("flaw"), []rune("lawn")); got != 2 {
		t.Errorf("Distance(flaw, lawn) = %d, want 2", got)
	}
}
