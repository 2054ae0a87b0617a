// Package stats provides the pure numeric primitives shared by the
// correlation engines and the burnout scorer. Every helper returns a neutral
// zero on degenerate input; none of them panic or produce NaN.
package stats

import (
	"math"
	"sort"
	"strings"
)

// Average returns the arithmetic mean of values, or 0 for an empty slice.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the median of values, or 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// StdDev returns the population standard deviation of values, or 0 when
// fewer than two points are supplied.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Average(values)
	var sumSquares float64
	for _, v := range values {
		d := v - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// PearsonCorrelation returns the Pearson correlation coefficient of two
// series. It returns 0 when the series differ in length, contain fewer than
// 3 points, or either series has zero variance.
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 3 {
		return 0
	}

	meanX := Average(x)
	meanY := Average(y)

	var num, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		num += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}

	return num / math.Sqrt(varX*varY)
}

// MoodDelta converts a group-vs-baseline mood difference into signed
// percentage points. Mood scores live in [0, 1], so multiplying by 100 yields
// a percentage-point delta. Returns 0 when the baseline is exactly 0.
func MoodDelta(groupMood, baselineMood float64) int {
	if baselineMood == 0 {
		return 0
	}
	return int(math.Round((groupMood - baselineMood) * 100))
}

// Strength is the three-tier confidence classification of an insight.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Rank orders strengths for sorting, strong first.
func (s Strength) Rank() int {
	switch s {
	case StrengthStrong:
		return 0
	case StrengthModerate:
		return 1
	default:
		return 2
	}
}

// DetermineStrength classifies an effect by delta magnitude and sample size.
// Smaller samples require a larger effect: strong needs |delta| >= 20 at n >= 5
// or |delta| >= 15 at n >= 10; moderate needs |delta| >= 10 at n >= 5 or
// |delta| >= 8 at n >= 10.
func DetermineStrength(delta float64, sampleSize int) Strength {
	abs := math.Abs(delta)
	switch {
	case (abs >= 20 && sampleSize >= 5) || (abs >= 15 && sampleSize >= 10):
		return StrengthStrong
	case (abs >= 10 && sampleSize >= 5) || (abs >= 8 && sampleSize >= 10):
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// InsightID derives the stable natural key for an insight from its category
// and factor. The factor is lower-cased with runs of non-alphanumerics
// collapsed to single underscores, so "Yoga!" and "yoga" share one ID. The ID
// keys persistence, deduplication, and feedback learning.
func InsightID(category, factor string) string {
	var b strings.Builder
	lastUnderscore := true // suppress a leading separator
	for _, r := range strings.ToLower(factor) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	return category + "_" + slug + "_mood"
}
