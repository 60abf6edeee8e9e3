// Package pairing selects which two companies are presented next in a
// head-to-head vote.
//
// Selection is random on purpose: two calls with the same input are not
// expected to return the same pair. The only memory carried between calls is
// the set of already completed pairings, which is owned by the caller.
package pairing

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// DefaultWindow is the maximum rating difference between two companies for
// SelectClosePair to consider them a close match.
const DefaultWindow = 300

// ErrNotEnoughCandidates is returned when less than two distinct candidates
// are available once exclusions are applied.
var ErrNotEnoughCandidates = errors.New("Need at least two companies for head-to-head voting.") // nolint:stylecheck,golint

// A Candidate is a rated entity that can be paired.
type Candidate struct {
	ID     string
	Rating float64
}

// Set is a set of strings, used for both excluded IDs and completed pairing
// keys. A nil Set is empty.
type Set map[string]struct{}

func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, v := range items {
		s[v] = struct{}{}
	}

	return s
}

func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s Set) Add(item string) {
	s[item] = struct{}{}
}

// Key returns the order-independent pairing key of two IDs, the sorted IDs
// joined with "-". Clients echo these keys back so the format is fixed.
// IDs may contain "-" themselves: keys are only unambiguous because company
// IDs are canonical UUIDs, which all have the same length.
func Key(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)

	return strings.Join(ids, "-")
}

// SelectPair returns the first pair of a shuffled pool that has not been
// completed yet. If every pair was completed it returns the first two
// candidates of the shuffled pool.
func SelectPair(pool []Candidate, excluded, completed Set) (Candidate, Candidate, error) {
	shuffled, err := shuffle(pool, excluded)
	if err != nil {
		return Candidate{}, Candidate{}, err
	}

	for i := 0; i < len(shuffled); i++ {
		for j := i + 1; j < len(shuffled); j++ {
			if !completed.Has(Key(shuffled[i].ID, shuffled[j].ID)) {
				return shuffled[i], shuffled[j], nil
			}
		}
	}

	return shuffled[0], shuffled[1], nil
}

// SelectClosePair picks random anchors until one has a not yet completed
// opponent within window rating points, the opponent is then picked randomly
// among those. If no anchor qualifies it returns two arbitrary candidates.
func SelectClosePair(pool []Candidate, excluded, completed Set, window float64) (Candidate, Candidate, error) {
	shuffled, err := shuffle(pool, excluded)
	if err != nil {
		return Candidate{}, Candidate{}, err
	}

	opponents := make([]Candidate, 0, len(shuffled))
	for i, anchor := range shuffled {
		opponents = opponents[:0]
		for j, candidate := range shuffled {
			if i == j || math.Abs(candidate.Rating-anchor.Rating) > window {
				continue
			}
			if completed.Has(Key(anchor.ID, candidate.ID)) {
				continue
			}

			opponents = append(opponents, candidate)
		}

		if len(opponents) > 0 {
			return anchor, opponents[rand.Intn(len(opponents))], nil // nolint:gosec
		}
	}

	return shuffled[0], shuffled[1], nil
}

// shuffle returns a uniformly shuffled copy of the pool without the excluded
// or duplicated IDs.
func shuffle(pool []Candidate, excluded Set) ([]Candidate, error) {
	seen := make(Set, len(pool))
	ret := make([]Candidate, 0, len(pool))
	for _, v := range pool {
		if excluded.Has(v.ID) || seen.Has(v.ID) {
			continue
		}

		seen.Add(v.ID)
		ret = append(ret, v)
	}

	if len(ret) < 2 {
		return nil, ErrNotEnoughCandidates
	}

	rand.Shuffle(len(ret), func(i, j int) { // nolint:gosec
		ret[i], ret[j] = ret[j], ret[i]
	})

	return ret, nil
}
