package elo_test

import (
	"math"
	"ratemycompany/internal/back/elo"
	"testing"
)

func TestUpdate(t *testing.T) {
	cases := []struct {
		a, b       float64
		outcome    elo.Outcome
		newA, newB float64
	}{
		{1600, 1600, elo.OutcomeA, 1616, 1584},
		{1600, 1600, elo.OutcomeB, 1584, 1616},
		{1600, 1600, elo.OutcomeDraw, 1600, 1600},
		{1800, 1600, elo.OutcomeA, 1808, 1592},
		{1800, 1600, elo.OutcomeB, 1776, 1624},
		{1800, 1600, elo.OutcomeDraw, 1792, 1608},
		{3000, 1000, elo.OutcomeA, 3000, 1000},
	}

	for _, v := range cases {
		newA, newB := elo.Update(v.a, v.b, v.outcome, elo.DefaultK)
		if newA != v.newA || newB != v.newB {
			t.Errorf(
				"Update(%v, %v, %s): expected (%v, %v), got (%v, %v)",
				v.a, v.b, v.outcome, v.newA, v.newB, newA, newB,
			)
		}
	}
}

func TestUpdateWinnerGains(t *testing.T) {
	for a := 1000.0; a <= 2600; a += 50 {
		for b := 1000.0; b <= 2600; b += 50 {
			newA, newB := elo.Update(a, b, elo.OutcomeA, elo.DefaultK)
			if newA < a || newB > b {
				t.Fatalf("winner lost rating: (%v, %v) -> (%v, %v)", a, b, newA, newB)
			}

			// Below a 600 points gap the winner always gains.
			if math.Abs(a-b) < 600 && (newA <= a || newB >= b) {
				t.Fatalf("expected strict change: (%v, %v) -> (%v, %v)", a, b, newA, newB)
			}

			// Independent rounding may drift the total by at most one point.
			if drift := (newA + newB) - (a + b); math.Abs(drift) > 1 {
				t.Fatalf("unexpected drift %v for (%v, %v)", drift, a, b)
			}
		}
	}
}

func TestUpdateDrawRegressesToParity(t *testing.T) {
	for _, v := range [][2]float64{{1700, 1500}, {2400, 1600}, {1510, 1500}} {
		high, low := elo.Update(v[0], v[1], elo.OutcomeDraw, elo.DefaultK)
		if high > v[0] || low < v[1] {
			t.Errorf("draw did not move (%v, %v) towards parity: (%v, %v)", v[0], v[1], high, low)
		}
	}

	high, low := elo.Update(1700, 1500, elo.OutcomeDraw, elo.DefaultK)
	if high >= 1700 || low <= 1500 {
		t.Errorf("expected strict change on a 200 points gap, got (%v, %v)", high, low)
	}
}

func TestExpected(t *testing.T) {
	if e := elo.Expected(1500, 1500); e != 0.5 {
		t.Errorf("expected 0.5, got %v", e)
	}

	if sum := elo.Expected(1800, 1500) + elo.Expected(1500, 1800); math.Abs(sum-1) > 1e-9 {
		t.Errorf("expected scores must sum to 1, got %v", sum)
	}
}

func TestParseOutcome(t *testing.T) {
	for _, v := range []string{"a", "b", "draw"} {
		o, err := elo.ParseOutcome(v)
		if err != nil {
			t.Fatal(err)
		}
		if o.String() != v {
			t.Errorf("expected %q, got %q", v, o)
		}
	}

	for _, v := range []string{"", "x", "A", "A_WINS", "Draw"} {
		if _, err := elo.ParseOutcome(v); err == nil {
			t.Errorf("expected an error for %q", v)
		}
	}
}

func TestTier(t *testing.T) {
	cases := []struct {
		rating float64
		tier   string
	}{
		{3000, "S+"},
		{2500, "S+"},
		{2499, "S"},
		{2300, "A+"},
		{2250, "A"},
		{2100, "B+"},
		{2000, "B"},
		{1950, "C+"},
		{1800, "C"},
		{1750, "D+"},
		{1600, "D"},
		{1599, "F"},
		{-20, "F"},
	}

	for _, v := range cases {
		if actual := elo.Tier(v.rating); actual != v.tier {
			t.Errorf("Tier(%v): expected %s, got %s", v.rating, v.tier, actual)
		}
	}
}
