package models

import "time"

type JobStatus string

const (
	JobOpen    JobStatus = "open"
	JobAwarded JobStatus = "awarded"
	JobClosed  JobStatus = "closed"
)

func ValidJobStatus(t JobStatus) bool {
	switch t {
	case JobOpen, JobAwarded, JobClosed:
		return true
	default:
		return false
	}
}

type Job struct {
	Id          string    `json:"id"`
	ClientId    string    `json:"clientId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}
