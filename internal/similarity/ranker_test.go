// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package similarity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/tags"
)

func user(id int64, raw string) models.User {
	return models.User{ID: id, Username: fmt.Sprintf("user%d", id), Tags: raw}
}

func ids(matches []Match) []int64 {
	out := make([]int64, len(matches))
	for i, m := range matches {
		out[i] = m.User.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankWorkedExample(t *testing.T) {
	t.Parallel()

	u := user(1, `["go","rust"]`)
	population := []models.User{
		u,
		user(2, `["go","zig"]`),
		user(3, `["python"]`),
	}

	got, err := NewRanker(Options{}).Rank(context.Background(), &u, population, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !equalIDs(ids(got), []int64{2, 3}) {
		t.Errorf("Rank ids = %v, want [2 3]", ids(got))
	}
	if got[0].Distance != 1 || got[1].Distance != 2 {
		t.Errorf("distances = %d,%d want 1,2", got[0].Distance, got[1].Distance)
	}
}

func TestRankLastWriteWinsOnTie(t *testing.T) {
	t.Parallel()

	q := user(1, `["go","rust"]`)
	population := []models.User{
		user(2, `["go","zig"]`),  // distance 1
		user(3, `["go","java"]`), // distance 1, later
		user(4, `["c"]`),         // distance 2
	}

	got, err := NewRanker(Options{}).Rank(context.Background(), &q, population, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !equalIDs(ids(got), []int64{3, 4}) {
		t.Errorf("Rank ids = %v, want [3 4]", ids(got))
	}
}

func TestRankKeepAllIsStable(t *testing.T) {
	t.Parallel()

	q := user(1, `["go","rust"]`)
	population := []models.User{
		user(4, `["c"]`),
		user(2, `["go","zig"]`),
		user(3, `["go","java"]`),
	}

	got, err := NewRanker(Options{TiePolicy: TieKeepAll}).Rank(context.Background(), &q, population, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !equalIDs(ids(got), []int64{2, 3, 4}) {
		t.Errorf("Rank ids = %v, want [2 3 4]", ids(got))
	}
}

func TestRankExclusion(t *testing.T) {
	t.Parallel()

	q := user(1, `["go"]`)
	twin := user(2, `["go"]`)
	other := user(3, `["rust"]`)
	population := []models.User{q, twin, other}

	tests := []struct {
		name string
		mode Exclusion
		want []int64
	}{
		{"by value excludes identical encodings", ExcludeByValue, []int64{3}},
		{"by identity keeps twin", ExcludeByIdentity, []int64{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewRanker(Options{Exclusion: tt.mode}).Rank(context.Background(), &q, population, 10)
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("ids = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestRankSkipsBlankEncodings(t *testing.T) {
	t.Parallel()

	q := user(1, `["go"]`)
	population := []models.User{user(2, ""), user(3, "  "), user(4, `["go","c"]`)}

	got, err := NewRanker(Options{TiePolicy: TieKeepAll}).Rank(context.Background(), &q, population, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !equalIDs(ids(got), []int64{4}) {
		t.Errorf("ids = %v, want [4]", ids(got))
	}
}

func TestRankEmptyQueryTags(t *testing.T) {
	t.Parallel()

	// A query with no tags still ranks: distance 0 to other empty arrays,
	// len(tags) to everyone else.
	q := user(1, "")
	population := []models.User{user(2, `[]`), user(3, `["a","b"]`), user(4, `["a"]`)}

	got, err := NewRanker(Options{}).Rank(context.Background(), &q, population, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !equalIDs(ids(got), []int64{2, 4, 3}) {
		t.Errorf("ids = %v, want [2 4 3]", ids(got))
	}
	for i, want := range []int{0, 1, 2} {
		if got[i].Distance != want {
			t.Errorf("got[%d].Distance = %d, want %d", i, got[i].Distance, want)
		}
	}
}

func TestRankTruncatesToK(t *testing.T) {
	t.Parallel()

	q := user(0, `[]`)
	var population []models.User
	for i := 1; i <= 2000; i++ {
		n := i % 40
		toks := make([]string, n)
		for j := range toks {
			toks[j] = fmt.Sprintf("t%d", j)
		}
		population = append(population, user(int64(i), tags.Encode(toks)))
	}

	for _, policy := range []TiePolicy{TieLastWriteWins, TieKeepAll} {
		got, err := NewRanker(Options{TiePolicy: policy, Workers: 4}).Rank(context.Background(), &q, population, 5)
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("len = %d, want 5", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Distance < got[i-1].Distance {
				t.Errorf("not ascending at %d: %d < %d", i, got[i].Distance, got[i-1].Distance)
			}
			if policy == TieLastWriteWins && got[i].Distance == got[i-1].Distance {
				t.Errorf("duplicate distance %d under last-write-wins", got[i].Distance)
			}
		}
		for _, m := range got {
			if m.User.Tags == q.Tags {
				t.Errorf("result includes candidate with the query's encoding: %d", m.User.ID)
			}
		}
	}
}

func TestRankParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	q := user(0, `["a","b","c"]`)
	var population []models.User
	for i := 1; i <= 3000; i++ {
		toks := []string{"a", fmt.Sprintf("x%d", i%7), fmt.Sprintf("y%d", i%3)}
		population = append(population, user(int64(i), tags.Encode(toks[:1+i%3])))
	}

	seq, err := NewRanker(Options{Workers: 1}).Rank(context.Background(), &q, population, 10)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := NewRanker(Options{Workers: 8}).Rank(context.Background(), &q, population, 10)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if !equalIDs(ids(seq), ids(par)) {
		t.Errorf("parallel %v differs from sequential %v", ids(par), ids(seq))
	}
}

func TestRankValidation(t *testing.T) {
	t.Parallel()

	q := user(1, `["go"]`)
	pop := []models.User{user(2, `["rust"]`)}
	r := NewRanker(Options{})

	cases := []struct {
		name  string
		query *models.User
		pop   []models.User
		k     int
	}{
		{"nil query", nil, pop, 1},
		{"empty population", &q, nil, 1},
		{"zero k", &q, pop, 0},
		{"negative k", &q, pop, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := r.Rank(context.Background(), tc.query, tc.pop, tc.k); !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRankCanceled(t *testing.T) {
	t.Parallel()

	q := user(0, `["a"]`)
	population := make([]models.User, 4000)
	for i := range population {
		population[i] = user(int64(i+1), `["b","c"]`)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRanker(Options{Workers: 4}).Rank(ctx, &q, population, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParsePolicies(t *testing.T) {
	t.Parallel()

	if p, err := ParseTiePolicy("keep_all"); err != nil || p != TieKeepAll {
		t.Errorf("ParseTiePolicy(keep_all) = %v, %v", p, err)
	}
	if p, err := ParseTiePolicy(""); err != nil || p != TieLastWriteWins {
		t.Errorf("ParseTiePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParseTiePolicy("random"); err == nil {
		t.Error("expected error for unknown tie policy")
	}
	if e, err := ParseExclusion("identity"); err != nil || e != ExcludeByIdentity {
		t.Errorf("ParseExclusion(identity) = %v, %v", e, err)
	}
	if _, err := ParseExclusion("nobody"); err == nil {
		t.Error("expected error for unknown exclusion")
	}
}
