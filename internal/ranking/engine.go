// Package ranking scores every bid of a job against the rest of its cohort and
// orders them. Evaluate is a pure function of its Input; callers fetch review
// and qualification data beforehand and report failed lookups per contractor.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"buildmarket/internal/models"
	"buildmarket/internal/scoring"
)

// Share of the configurable weights left after reserving the qualification
// budget.
const weightScale = 0.8

type QualificationMode string

const (
	// QualificationLegacy adds the raw 0-100 qualification score to the total.
	QualificationLegacy QualificationMode = "legacy"
	// QualificationWeighted scales the qualification score into the 20 points
	// freed by weightScale, keeping the total on a 0-100 scale.
	QualificationWeighted QualificationMode = "weighted"
)

func ValidQualificationMode(m QualificationMode) bool {
	switch m {
	case QualificationLegacy, QualificationWeighted:
		return true
	default:
		return false
	}
}

// ContractorData is the auxiliary data fetched for one contractor. A non-nil
// error means the lookup failed and the fallback applies.
type ContractorData struct {
	Review           *models.ReviewAggregate
	ReviewErr        error
	Qualifications   []models.QualificationRecord
	QualificationErr error
}

type Input struct {
	Bids        []models.Bid
	Contractors map[string]ContractorData
	Weighting   models.Weighting
	Now         time.Time
}

type Evaluation struct {
	// Breakdowns[i] belongs to Input.Bids[i].
	Breakdowns []models.ScoreBreakdown
	Ranked     []models.RankedBid
}

type Engine struct {
	mode QualificationMode
}

func NewEngine(mode QualificationMode) (*Engine, error) {
	if mode == "" {
		mode = QualificationLegacy
	}
	if !ValidQualificationMode(mode) {
		return nil, fmt.Errorf("ranking.NewEngine: unknown qualification mode: %s", mode)
	}
	return &Engine{mode: mode}, nil
}

func (e *Engine) Mode() QualificationMode {
	return e.mode
}

func (e *Engine) Evaluate(in Input) Evaluation {
	ev := Evaluation{
		Breakdowns: make([]models.ScoreBreakdown, len(in.Bids)),
		Ranked:     make([]models.RankedBid, len(in.Bids)),
	}
	if len(in.Bids) == 0 {
		return ev
	}

	c := cohortOf(in.Bids)
	w := adjust(in.Weighting)
	year := in.Now.Year()

	for i, bid := range in.Bids {
		ev.Breakdowns[i] = e.score(bid, c, w, in.Contractors[bid.ContractorId], year)
		ev.Ranked[i] = models.RankedBid{Bid: bid, Scores: ev.Breakdowns[i]}
	}

	sort.SliceStable(ev.Ranked, func(i, j int) bool {
		return less(ev.Ranked[i], ev.Ranked[j])
	})
	for i := range ev.Ranked {
		ev.Ranked[i].Rank = i + 1
	}

	return ev
}

func (e *Engine) score(bid models.Bid, c cohort, w models.Weighting, data ContractorData, year int) models.ScoreBreakdown {
	var s models.ScoreBreakdown

	s.PriceScore = scoring.Normalize(bid.Price.InexactFloat64(), c.minPrice, c.maxPrice, scoring.LowerIsBetter)
	s.TimelineScore = scoring.Normalize(float64(bid.TimelineDays), c.minDays, c.maxDays, scoring.LowerIsBetter)
	s.RatingScore = scoring.RatingScore(resolveRating(bid.Contractor, data))
	s.ExperienceScore = scoring.ExperienceScore(bid.Contractor.ExperienceYears)
	if data.QualificationErr == nil {
		s.QualificationScore = scoring.QualificationScore(data.Qualifications, year)
	}

	s.Total = s.PriceScore*(w.Price/100) +
		s.TimelineScore*(w.Timeline/100) +
		s.RatingScore*(w.Rating/100) +
		s.ExperienceScore*(w.Experience/100) +
		e.qualificationContribution(s.QualificationScore)

	return s
}

func (e *Engine) qualificationContribution(q float64) float64 {
	if e.mode == QualificationWeighted {
		return q * (1 - weightScale)
	}
	return q
}

// resolveRating prefers the review average and falls back to the snapshot
// when the contractor has no reviews or the lookup failed.
func resolveRating(c models.ContractorSnapshot, data ContractorData) float64 {
	if data.ReviewErr == nil && data.Review != nil && data.Review.ReviewCount > 0 {
		return data.Review.AverageRating
	}
	return c.RatingFallback
}

func adjust(w models.Weighting) models.Weighting {
	return models.Weighting{
		Price:      w.Price * weightScale,
		Timeline:   w.Timeline * weightScale,
		Rating:     w.Rating * weightScale,
		Experience: w.Experience * weightScale,
	}
}

// less orders by total descending, then lower price, then earlier
// submission. Bid id settles fully identical bids.
func less(a, b models.RankedBid) bool {
	if a.Scores.Total != b.Scores.Total {
		return a.Scores.Total > b.Scores.Total
	}
	if cmp := a.Bid.Price.Cmp(b.Bid.Price); cmp != 0 {
		return cmp < 0
	}
	if !a.Bid.SubmittedAt.Equal(b.Bid.SubmittedAt) {
		return a.Bid.SubmittedAt.Before(b.Bid.SubmittedAt)
	}
	return a.Bid.Id < b.Bid.Id
}

type cohort struct {
	minPrice, maxPrice float64
	minDays, maxDays   float64
}

func cohortOf(bids []models.Bid) cohort {
	c := cohort{
		minPrice: bids[0].Price.InexactFloat64(),
		maxPrice: bids[0].Price.InexactFloat64(),
		minDays:  float64(bids[0].TimelineDays),
		maxDays:  float64(bids[0].TimelineDays),
	}
	for _, b := range bids[1:] {
		p := b.Price.InexactFloat64()
		d := float64(b.TimelineDays)
		c.minPrice = min(c.minPrice, p)
		c.maxPrice = max(c.maxPrice, p)
		c.minDays = min(c.minDays, d)
		c.maxDays = max(c.maxDays, d)
	}
	return c
}
