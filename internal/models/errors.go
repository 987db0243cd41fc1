package models

import "errors"

var (
	ErrNoJob            = errors.New("requested job does not exist")
	ErrNoContractor     = errors.New("requested contractor does not exist")
	ErrNoBid            = errors.New("requested bid does not exist")
	ErrNoWork           = errors.New("requested ongoing work does not exist")
	ErrNoMilestone      = errors.New("requested milestone does not exist")
	ErrBidFinalized     = errors.New("bid is already accepted or rejected")
	ErrJobAwarded       = errors.New("job already has an accepted bid")
	ErrJobClosed        = errors.New("job is not open for bids")
	ErrInvalidStatus    = errors.New("invalid status supplied")
	ErrInvalidWeighting = errors.New("weights must be non-negative and not all zero")
)
