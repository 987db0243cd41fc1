package ranking

import (
	"buildmarket/internal/models"

	"github.com/shopspring/decimal"
)

// Filter narrows a ranking for display. It runs after scoring, so hidden bids
// still count towards the cohort and ranks keep the numbers of the full ranking.
type Filter struct {
	Status          models.BidStatus
	MaxPrice        *decimal.Decimal
	MaxTimelineDays int
	MinTotal        float64
}

func (f Filter) Match(rb models.RankedBid) bool {
	if f.Status != "" && rb.Bid.Status != f.Status {
		return false
	}
	if f.MaxPrice != nil && rb.Bid.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MaxTimelineDays > 0 && rb.Bid.TimelineDays > f.MaxTimelineDays {
		return false
	}
	return rb.Scores.Total >= f.MinTotal
}

func (ev Evaluation) Filter(f Filter) []models.RankedBid {
	result := make([]models.RankedBid, 0, len(ev.Ranked))
	for _, rb := range ev.Ranked {
		if f.Match(rb) {
			result = append(result, rb)
		}
	}
	return result
}
