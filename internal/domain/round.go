package domain

import "math"

// roundTo rounds half away from zero to the given number of decimals
func roundTo(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}
