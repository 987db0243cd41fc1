package controller

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"buildmarket/internal/models"
	"buildmarket/internal/ranking"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func parseRequest(data []byte, req any) error {
	err := json.Unmarshal(data, req)
	if err != nil {
		return err
	}
	return validate.Struct(req)
}

// New job request

type NewJobReq struct {
	ClientId    string `json:"clientId" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Location    string `json:"location" validate:"max=100"`
}

func ParseNewJobReq(data []byte) (*NewJobReq, error) {
	t := &NewJobReq{}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// New contractor request

type NewContractorReq struct {
	Name              string  `json:"name" validate:"required,max=100"`
	ExperienceYears   float64 `json:"experienceYears" validate:"gte=0"`
	CompletedProjects int     `json:"completedProjects" validate:"gte=0"`
	RatingFallback    float64 `json:"ratingFallback" validate:"gte=0,lte=5"`
}

func ParseNewContractorReq(data []byte) (*NewContractorReq, error) {
	t := &NewContractorReq{}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// New review request

type NewReviewReq struct {
	ClientId string `json:"clientId" validate:"required,uuid"`
	WorkId   string `json:"workId" validate:"omitempty,uuid"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text     string `json:"text" validate:"max=1000"`
}

func ParseNewReviewReq(data []byte) (*NewReviewReq, error) {
	t := &NewReviewReq{}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// New qualification request

type NewQualificationReq struct {
	Title              string                    `json:"title" validate:"required,max=200"`
	VerificationStatus models.VerificationStatus `json:"verificationStatus"`
	Year               int                       `json:"year" validate:"required,gte=1900,lte=2200"`
}

func ParseNewQualificationReq(data []byte) (*NewQualificationReq, error) {
	t := &NewQualificationReq{}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}

	if len(t.VerificationStatus) == 0 {
		t.VerificationStatus = models.QualificationUnverified
	} else if !models.ValidVerificationStatus(t.VerificationStatus) {
		return nil, fmt.Errorf("invalid verification status supplied: %s, should be one of: %s, %s", t.VerificationStatus, models.QualificationVerified, models.QualificationUnverified)
	}
	return t, nil
}

// New bid request

type NewBidReq struct {
	JobId        string          `json:"jobId" validate:"required,uuid"`
	ContractorId string          `json:"contractorId" validate:"required,uuid"`
	Price        decimal.Decimal `json:"price"`
	TimelineDays int             `json:"timelineDays" validate:"required,gt=0"`
}

func ParseNewBidReq(data []byte) (*NewBidReq, error) {
	t := &NewBidReq{}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}

	if !t.Price.IsPositive() {
		return nil, fmt.Errorf("field 'price' must be positive, got %s", t.Price)
	}
	return t, nil
}

// Accept bid request

type MilestoneReq struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
}

type AcceptBidReq struct {
	Milestones []MilestoneReq `json:"milestones" validate:"dive"`
}

// ParseAcceptBidReq accepts an empty body as a bid without milestones.
func ParseAcceptBidReq(data []byte) (*AcceptBidReq, error) {
	t := &AcceptBidReq{}
	if len(data) == 0 {
		return t, nil
	}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}

	for i := range t.Milestones {
		if err := checkAmount(t.Milestones[i].Amount, "amount"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func ParseMilestoneReq(data []byte) (*MilestoneReq, error) {
	t := &MilestoneReq{}
	if err := parseRequest(data, t); err != nil {
		return nil, err
	}
	if err := checkAmount(t.Amount, "amount"); err != nil {
		return nil, err
	}
	return t, nil
}

func (m MilestoneReq) toModel() models.Milestone {
	return models.Milestone{
		Name:        m.Name,
		Description: m.Description,
		Amount:      m.Amount,
		Status:      models.MilestonePending,
	}
}

// Milestone payment request

type PaymentReq struct {
	Amount decimal.Decimal `json:"amount"`
}

func ParsePaymentReq(data []byte) (*PaymentReq, error) {
	t := &PaymentReq{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	if err := checkAmount(t.Amount, "amount"); err != nil {
		return nil, err
	}
	return t, nil
}

// Ranking query

// ParseWeighting reads the optional price, timeline, rating and experience
// query parameters. It returns nil when none is given; missing ones in a
// partial set count as 0.
func ParseWeighting(query url.Values) (*models.Weighting, error) {
	var w models.Weighting
	found := false

	fields := []struct {
		key string
		dst *float64
	}{
		{"price", &w.Price},
		{"timeline", &w.Timeline},
		{"rating", &w.Rating},
		{"experience", &w.Experience},
	}
	for _, f := range fields {
		str := query.Get(f.key)
		if len(str) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value of '%s' query parameter: %s", f.key, str)
		}
		*f.dst = v
		found = true
	}

	if !found {
		return nil, nil
	}
	if !w.Valid() {
		return nil, models.ErrInvalidWeighting
	}
	return &w, nil
}

func ParseRankingFilter(query url.Values) (ranking.Filter, error) {
	var f ranking.Filter

	if str := query.Get("status"); len(str) > 0 {
		f.Status = models.BidStatus(str)
		if !models.ValidBidStatus(f.Status) {
			return f, fmt.Errorf("invalid bid status supplied: %s", str)
		}
	}

	if str := query.Get("max_price"); len(str) > 0 {
		price, err := decimal.NewFromString(str)
		if err != nil {
			return f, fmt.Errorf("invalid value of 'max_price' query parameter: %s", str)
		}
		f.MaxPrice = &price
	}

	if str := query.Get("max_days"); len(str) > 0 {
		days, err := strconv.Atoi(str)
		if err != nil || days < 0 {
			return f, fmt.Errorf("invalid value of 'max_days' query parameter: %s", str)
		}
		f.MaxTimelineDays = days
	}

	if str := query.Get("min_total"); len(str) > 0 {
		total, err := strconv.ParseFloat(str, 64)
		if err != nil || math.IsNaN(total) || math.IsInf(total, 0) {
			return f, fmt.Errorf("invalid value of 'min_total' query parameter: %s", str)
		}
		f.MinTotal = total
	}

	return f, nil
}

// Service

func checkAmount(d decimal.Decimal, fieldName string) error {
	if d.IsNegative() {
		return fmt.Errorf("field '%s' must not be negative, got %s", fieldName, d)
	}
	return nil
}

func validId(id string) bool {
	return uuid.Validate(id) == nil
}
