// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package similarity

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/tags"
)

// TiePolicy decides what happens when several candidates share a distance.
type TiePolicy int

const (
	// TieLastWriteWins keeps a single candidate per distance: the one enumerated last.
	TieLastWriteWins TiePolicy = iota

	// TieKeepAll keeps every candidate, ordered by distance then enumeration order.
	TieKeepAll
)

// Exclusion decides which candidates count as "the query user".
type Exclusion int

const (
	// ExcludeByValue skips every candidate whose raw tag encoding equals the query's.
	ExcludeByValue Exclusion = iota

	// ExcludeByIdentity skips only the candidate with the query's ID.
	ExcludeByIdentity
)

// ParseTiePolicy maps a configuration value to a TiePolicy.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch s {
	case "", "last_write_wins":
		return TieLastWriteWins, nil
	case "keep_all":
		return TieKeepAll, nil
	default:
		return 0, fmt.Errorf("unknown tie policy %q", s)
	}
}

// ParseExclusion maps a configuration value to an Exclusion.
func ParseExclusion(s string) (Exclusion, error) {
	switch s {
	case "", "value":
		return ExcludeByValue, nil
	case "identity":
		return ExcludeByIdentity, nil
	default:
		return 0, fmt.Errorf("unknown exclusion mode %q", s)
	}
}

// parallelThreshold is the candidate count below which distances are computed inline.
const parallelThreshold = 512

// Match is a ranked candidate.
type Match struct {
	Distance int
	User     models.User
}

// Options configures a Ranker.
type Options struct {
	TiePolicy TiePolicy
	Exclusion Exclusion

	// Workers bounds the goroutines used for distance computation.
	// Zero or negative means GOMAXPROCS.
	Workers int
}

// Ranker selects the K users whose tags are closest to a query user's tags.
// A Ranker is stateless and safe for concurrent use.
type Ranker struct {
	opts Options
}

// NewRanker creates a Ranker.
func NewRanker(opts Options) *Ranker {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{opts: opts}
}

// candidate is a population member that survived filtering.
type candidate struct {
	index int
}

// Rank returns up to k matches for query drawn from population, ascending by distance.
//
// Candidates with a blank tag encoding are never scored. Under TieLastWriteWins
// at most one candidate survives per distance and it is the latest one in
// population order.
func (r *Ranker) Rank(ctx context.Context, query *models.User, population []models.User, k int) ([]Match, error) {
	switch {
	case query == nil:
		return nil, fmt.Errorf("%w: query user is required", apperrors.ErrValidation)
	case len(population) == 0:
		return nil, fmt.Errorf("%w: user population is empty", apperrors.ErrValidation)
	case k <= 0:
		return nil, fmt.Errorf("%w: match count must be positive, got %d", apperrors.ErrValidation, k)
	}

	start := time.Now()
	queryTags := tags.Decode(query.Tags)

	candidates := make([]candidate, 0, len(population))
	for i := range population {
		u := &population[i]
		if tags.IsBlank(u.Tags) || r.excluded(query, u) {
			continue
		}
		candidates = append(candidates, candidate{index: i})
	}

	distances, err := r.distances(ctx, queryTags, population, candidates)
	if err != nil {
		return nil, err
	}

	var matches []Match
	if r.opts.TiePolicy == TieKeepAll {
		matches = keepAll(population, candidates, distances, k)
	} else {
		matches = lastWriteWins(population, candidates, distances, k)
	}

	metrics.RecordMatch(time.Since(start), len(candidates), len(matches))
	logging.CtxComponent(ctx, "similarity").Debug().
		Int64("user_id", query.ID).
		Int("population", len(population)).
		Int("scanned", len(candidates)).
		Int("returned", len(matches)).
		Msg("Ranked candidates")

	return matches, nil
}

func (r *Ranker) excluded(query, u *models.User) bool {
	if r.opts.Exclusion == ExcludeByIdentity {
		return u.ID == query.ID
	}
	return u.Tags == query.Tags
}

// distances computes the distance of every candidate to queryTags. Result i
// belongs to candidates[i]. Workers write disjoint index ranges.
func (r *Ranker) distances(ctx context.Context, queryTags []string, population []models.User, candidates []candidate) ([]int, error) {
	out := make([]int, len(candidates))

	score := func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			if (i-lo)%256 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			out[i] = Distance(queryTags, tags.Decode(population[candidates[i].index].Tags))
		}
		return nil
	}

	if len(candidates) < parallelThreshold || r.opts.Workers == 1 {
		if err := score(0, len(candidates)); err != nil {
			return nil, err
		}
		return out, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	chunk := (len(candidates) + r.opts.Workers - 1) / r.opts.Workers
	for lo := 0; lo < len(candidates); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(candidates))
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return score(lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lastWriteWins reduces in population order into a distance-keyed map so a
// later candidate replaces an earlier one at the same distance.
func lastWriteWins(population []models.User, candidates []candidate, distances []int, k int) []Match {
	byDistance := make(map[int]int, len(candidates))
	for i, c := range candidates {
		byDistance[distances[i]] = c.index
	}

	keys := make([]int, 0, len(byDistance))
	for d := range byDistance {
		keys = append(keys, d)
	}
	sort.Ints(keys)
	if len(keys) > k {
		keys = keys[:k]
	}

	out := make([]Match, len(keys))
	for i, d := range keys {
		out[i] = Match{Distance: d, User: population[byDistance[d]]}
	}
	return out
}

func keepAll(population []models.User, candidates []candidate, distances []int, k int) []Match {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})
	if len(order) > k {
		order = order[:k]
	}

	out := make([]Match, len(order))
	for i, o := range order {
		out[i] = Match{Distance: distances[o], User: population[candidates[o].index]}
	}
	return out
}
