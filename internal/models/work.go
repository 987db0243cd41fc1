package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MilestoneStatus string

const (
	MilestonePending             MilestoneStatus = "Pending"
	MilestoneInProgress          MilestoneStatus = "InProgress"
	MilestonePendingVerification MilestoneStatus = "PendingVerification"
	MilestoneReadyForPayment     MilestoneStatus = "ReadyForPayment"
	MilestoneCompleted           MilestoneStatus = "Completed"
)

func ValidMilestoneStatus(t MilestoneStatus) bool {
	switch t {
	case MilestonePending, MilestoneInProgress, MilestonePendingVerification, MilestoneReadyForPayment, MilestoneCompleted:
		return true
	default:
		return false
	}
}

type WorkStatus string

const (
	WorkActive    WorkStatus = "Active"
	WorkOnHold    WorkStatus = "OnHold"
	WorkCompleted WorkStatus = "Completed"
	WorkCancelled WorkStatus = "Cancelled"
	WorkDisputed  WorkStatus = "Disputed"
)

func ValidWorkStatus(t WorkStatus) bool {
	switch t {
	case WorkActive, WorkOnHold, WorkCompleted, WorkCancelled, WorkDisputed:
		return true
	default:
		return false
	}
}

type Milestone struct {
	Id               string           `json:"id"`
	WorkId           string           `json:"workId"`
	Position         int              `json:"position"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Amount           decimal.Decimal  `json:"amount"`
	Status           MilestoneStatus  `json:"status"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	ActualAmountPaid *decimal.Decimal `json:"actualAmountPaid,omitempty"`
}

type OngoingWork struct {
	Id           string      `json:"id"`
	JobId        string      `json:"jobId"`
	BidId        string      `json:"bidId"`
	ClientId     string      `json:"clientId"`
	ContractorId string      `json:"contractorId"`
	TimelineDays int         `json:"timelineDays"`
	Milestones   []Milestone `json:"milestones"`
	WorkProgress int         `json:"workProgress"`
	Status       WorkStatus  `json:"status"`
	Reviewed     bool        `json:"reviewed"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"-"`
}
