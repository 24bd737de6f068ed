package utils

import "math"

// Clamp returns x limited to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

// Clamp01 returns x limited to [0, 1].
func Clamp01(x float64) float64 {
	return Clamp(x, 0, 1)
}

// Round2 rounds x to two decimals. Scores are reported with this precision.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
