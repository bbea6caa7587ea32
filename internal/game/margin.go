package game

import "math"

const (
	// DefaultMargin is the ablation margin the slider starts at.
	DefaultMargin = 1.0
	// MaxMargin is the widest margin allowed.
	MaxMargin = 20.0
)

// ClampMargin limits m to [0, MaxMargin] in steps of 0.1. NaN becomes the
// default margin.
func ClampMargin(m float64) float64 {
	if math.IsNaN(m) {
		return DefaultMargin
	}
	m = math.Max(0, math.Min(MaxMargin, m))
	return math.Round(m*10) / 10
}
