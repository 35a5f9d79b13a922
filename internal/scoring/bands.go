package scoring

import (
	"math"
	"math/rand"
)

// band 闭区间 [lo, hi]
type band struct {
	lo, hi float64
}

// at returns the value at position p (0 = lo, 1 = hi).
func (b band) at(p float64) float64 {
	return b.lo + p*(b.hi-b.lo)
}

// DefaultBandPosition is the band midpoint.
const DefaultBandPosition = 0.5

// JitterPosition derives a reproducible band position from a caller-supplied seed.
// Identical seeds always give identical positions.
func JitterPosition(seed int64) float64 {
	return rand.New(rand.NewSource(seed)).Float64()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkNonNegative(field string, v float64) error {
	if !finite(v) {
		return invalid(field, "must be a finite number")
	}
	if v < 0 {
		return invalid(field, "must be >= 0, got %g", v)
	}
	return nil
}

func checkPositive(field string, v float64) error {
	if !finite(v) {
		return invalid(field, "must be a finite number")
	}
	if v <= 0 {
		return invalid(field, "must be > 0, got %g", v)
	}
	return nil
}

// RiskLevelFor maps a risk score onto the dashboard's three levels.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score <= 33:
		return RiskLow
	case score <= 66:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// AQICategoryFor 空气质量分级
func AQICategoryFor(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	default:
		return "Unhealthy"
	}
}
