package elo

type tier struct {
	min   float64
	label string
}

var tiers = []tier{ // nolint:gochecknoglobals
	{2500, "S+"},
	{2400, "S"},
	{2300, "A+"},
	{2200, "A"},
	{2100, "B+"},
	{2000, "B"},
	{1900, "C+"},
	{1800, "C"},
	{1700, "D+"},
	{1600, "D"},
}

// Tier returns the display tier ("S+" down to "F") of a rating.
func Tier(rating float64) string {
	for _, v := range tiers {
		if rating >= v.min {
			return v.label
		}
	}

	return "F"
}
