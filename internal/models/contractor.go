package models

import "time"

type Contractor struct {
	Id                string    `json:"id"`
	Name              string    `json:"name"`
	ExperienceYears   float64   `json:"experienceYears"`
	CompletedProjects int       `json:"completedProjects"`
	RatingFallback    float64   `json:"ratingFallback"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (c Contractor) Snapshot() ContractorSnapshot {
	return ContractorSnapshot{
		ExperienceYears:   c.ExperienceYears,
		CompletedProjects: c.CompletedProjects,
		RatingFallback:    c.RatingFallback,
	}
}

type Review struct {
	Id           string    `json:"id"`
	ContractorId string    `json:"contractorId"`
	ClientId     string    `json:"clientId"`
	WorkId       string    `json:"workId,omitempty"`
	Rating       int       `json:"rating"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ReviewAggregate summarizes all reviews of one contractor.
type ReviewAggregate struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

type VerificationStatus string

const (
	QualificationVerified   VerificationStatus = "verified"
	QualificationUnverified VerificationStatus = "unverified"
)

func ValidVerificationStatus(t VerificationStatus) bool {
	switch t {
	case QualificationVerified, QualificationUnverified:
		return true
	default:
		return false
	}
}

type QualificationRecord struct {
	Id                 string             `json:"id"`
	ContractorId       string             `json:"contractorId"`
	Title              string             `json:"title"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	Year               int                `json:"year"`
}
