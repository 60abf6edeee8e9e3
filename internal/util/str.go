package util

import (
	"math"
	"strconv"

	"gopkg.in/guregu/null.v4"
)

// FormatPay renders an hourly pay for display, eg. "$42/hr".
func FormatPay(pay null.Float) string {
	if !pay.Valid || math.IsNaN(pay.Float64) {
		return "N/A"
	}

	rounded := math.Round(pay.Float64)
	if math.IsInf(rounded, 0) || rounded <= 0 {
		return "N/A"
	}

	return "$" + strconv.FormatFloat(rounded, 'f', 0, 64) + "/hr"
}
