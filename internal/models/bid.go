package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

func ValidBidStatus(t BidStatus) bool {
	switch t {
	case BidPending, BidAccepted, BidRejected:
		return true
	default:
		return false
	}
}

// ContractorSnapshot is the contractor data denormalized onto every bid.
// RatingFallback is used only when the contractor has no reviews.
type ContractorSnapshot struct {
	ExperienceYears   float64 `json:"experienceYears"`
	CompletedProjects int     `json:"completedProjects"`
	RatingFallback    float64 `json:"ratingFallback"`
}

type Bid struct {
	Id           string             `json:"id"`
	JobId        string             `json:"jobId"`
	ContractorId string             `json:"contractorId"`
	Price        decimal.Decimal    `json:"price"`
	TimelineDays int                `json:"timelineDays"`
	SubmittedAt  time.Time          `json:"submittedAt"`
	Status       BidStatus          `json:"status"`
	Contractor   ContractorSnapshot `json:"contractor"`
}
