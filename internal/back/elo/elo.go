// Package elo implements the Elo rating update applied after each head-to-head
// vote.
package elo

import (
	"fmt"
	"math"
)

// DefaultK is the maximum rating swing a single matchup can cause.
const DefaultK = 32

// Outcome is the result of a matchup from the point of view of its first
// participant.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeA               // first participant won
	OutcomeB               // second participant won
	OutcomeDraw
)

// ParseOutcome converts a wire value ("a", "b", "draw") to an Outcome.
func ParseOutcome(str string) (Outcome, error) {
	switch str {
	case "a":
		return OutcomeA, nil
	case "b":
		return OutcomeB, nil
	case "draw":
		return OutcomeDraw, nil
	default:
		return OutcomeInvalid, fmt.Errorf("invalid outcome: %q", str)
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeA:
		return "a"
	case OutcomeB:
		return "b"
	case OutcomeDraw:
		return "draw"
	default:
		return "invalid"
	}
}

func (o Outcome) IsValid() bool {
	return o >= OutcomeA && o <= OutcomeDraw
}

// scores returns the actual scores of both participants.
func (o Outcome) scores() (float64, float64) {
	switch o {
	case OutcomeA:
		return 1, 0
	case OutcomeB:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

// Expected returns the score ratingA is expected to make against ratingB.
func Expected(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// Update returns the new ratings of both participants after a matchup.
// Each side is rounded to the nearest integer independently, the sum of both
// ratings can thus drift by one point.
// Ratings are not bounded.
func Update(ratingA, ratingB float64, outcome Outcome, k float64) (float64, float64) {
	actualA, actualB := outcome.scores()

	newA := math.Round(ratingA + k*(actualA-Expected(ratingA, ratingB)))
	newB := math.Round(ratingB + k*(actualB-Expected(ratingB, ratingA)))

	return newA, newB
}
