package models

import "math"

// Weighting holds the user-configurable percentages of the four weighted
// components. They are meant to sum to 100.
type Weighting struct {
	Price      float64 `json:"price"`
	Timeline   float64 `json:"timeline"`
	Rating     float64 `json:"rating"`
	Experience float64 `json:"experience"`
}

func DefaultWeighting() Weighting {
	return Weighting{Price: 40, Timeline: 30, Rating: 15, Experience: 15}
}

// Valid reports whether every weight is a finite non-negative number and at
// least one of them is positive.
func (w Weighting) Valid() bool {
	for _, v := range []float64{w.Price, w.Timeline, w.Rating, w.Experience} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return w.Price+w.Timeline+w.Rating+w.Experience > 0
}

type ScoreBreakdown struct {
	PriceScore         float64 `json:"priceScore"`
	TimelineScore      float64 `json:"timelineScore"`
	RatingScore        float64 `json:"ratingScore"`
	ExperienceScore    float64 `json:"experienceScore"`
	QualificationScore float64 `json:"qualificationScore"`
	Total              float64 `json:"total"`
}

type RankedBid struct {
	Rank   int            `json:"rank"`
	Bid    Bid            `json:"bid"`
	Scores ScoreBreakdown `json:"scores"`
}
