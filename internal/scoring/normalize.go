// Package scoring turns raw bid metrics into bounded sub-scores.
//
// Cohort-relative metrics (price, timeline) go through Normalize. Rating,
// experience and qualifications use fixed anchors instead, so a contractor's
// score on those axes does not depend on who else bid.
package scoring

import "math"

const (
	MinScore = 20.0
	MaxScore = 100.0

	scoreSpan = MaxScore - MinScore
)

type Direction int

const (
	LowerIsBetter Direction = iota
	HigherIsBetter
)

// Normalize maps value onto [MinScore, MaxScore] relative to the cohort's
// min and max. A cohort without variance scores everybody MaxScore.
func Normalize(value, min, max float64, direction Direction) float64 {
	if max == min {
		return MaxScore
	}

	ratio := (value - min) / (max - min)
	if direction == LowerIsBetter {
		ratio = 1 - ratio
	}
	return clamp(MinScore+scoreSpan*ratio, MinScore, MaxScore)
}

// RatingScore maps a 0-5 star rating onto [MinScore, MaxScore].
func RatingScore(rating float64) float64 {
	return clamp(MinScore+(rating/5)*scoreSpan, MinScore, MaxScore)
}

// ExperienceScore ramps linearly and saturates at ten years.
func ExperienceScore(years float64) float64 {
	return clamp(MinScore+math.Min(years*8, scoreSpan), MinScore, MaxScore)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
