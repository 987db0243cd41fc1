package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"buildmarket/internal/models"
	"buildmarket/internal/ranking"
	"buildmarket/internal/service"

	"github.com/shopspring/decimal"
)

type Service interface {
	AddJob(ctx context.Context, job models.Job) (models.Job, error)
	GetJob(ctx context.Context, jobId string) (models.Job, error)
	SetJobStatus(ctx context.Context, jobId string, status models.JobStatus) (models.Job, error)

	AddContractor(ctx context.Context, c models.Contractor) (models.Contractor, error)
	GetContractor(ctx context.Context, contractorId string) (models.Contractor, error)
	GetContractorReviews(ctx context.Context, contractorId string, limit, offset int) ([]models.Review, error)
	AddReview(ctx context.Context, review models.Review) (models.Review, error)
	AddQualification(ctx context.Context, q models.QualificationRecord) (models.QualificationRecord, error)

	AddBid(ctx context.Context, bid models.Bid) (models.Bid, error)
	GetBid(ctx context.Context, bidId string) (models.Bid, error)
	WithdrawBid(ctx context.Context, bidId string) error
	GetJobBids(ctx context.Context, jobId string) ([]models.Bid, error)
	RankJobBids(ctx context.Context, jobId string, weighting *models.Weighting, filter ranking.Filter) (service.JobRanking, error)
	AcceptBid(ctx context.Context, bidId string, milestones []models.Milestone) (models.OngoingWork, error)

	GetWork(ctx context.Context, workId string) (models.OngoingWork, error)
	AddMilestone(ctx context.Context, workId string, m models.Milestone) (models.OngoingWork, error)
	SetMilestoneStatus(ctx context.Context, workId, milestoneId string, status models.MilestoneStatus) (models.OngoingWork, error)
	RecordMilestonePayment(ctx context.Context, workId, milestoneId string, amount decimal.Decimal) (models.OngoingWork, error)
	SetWorkStatus(ctx context.Context, workId string, status models.WorkStatus) (models.OngoingWork, error)
	MarkWorkReviewed(ctx context.Context, workId string) (models.OngoingWork, error)
}

type Controller struct {
	service Service
	log     *slog.Logger
}

func NewController(service Service, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{service: service, log: log}
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Jobs

// POST /api/jobs/new
func (c *Controller) NewJob(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewJobReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := c.service.AddJob(r.Context(), models.Job{
		ClientId:    req.ClientId,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, job)
}

// GET /api/jobs/{jobId}
func (c *Controller) GetJob(w http.ResponseWriter, r *http.Request) {
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}

	job, err := c.service.GetJob(r.Context(), jobId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, job)
}

// PUT /api/jobs/{jobId}/status?status=closed
func (c *Controller) SetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}

	status := models.JobStatus(r.URL.Query().Get("status"))
	if !models.ValidJobStatus(status) {
		c.errorResponse(w, http.StatusBadRequest, "empty or invalid status supplied")
		return
	}

	job, err := c.service.SetJobStatus(r.Context(), jobId, status)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, job)
}

// GET /api/jobs/{jobId}/bids
func (c *Controller) JobBids(w http.ResponseWriter, r *http.Request) {
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}

	bids, err := c.service.GetJobBids(r.Context(), jobId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bids)
}

// GET /api/jobs/{jobId}/bids/ranked
func (c *Controller) RankedBids(w http.ResponseWriter, r *http.Request) {
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}

	query := r.URL.Query()

	weighting, err := ParseWeighting(query)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := ParseRankingFilter(query)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := c.service.RankJobBids(r.Context(), jobId, weighting, filter)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, result)
}

//// Contractors

// POST /api/contractors/new
func (c *Controller) NewContractor(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewContractorReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	contractor, err := c.service.AddContractor(r.Context(), models.Contractor{
		Name:              req.Name,
		ExperienceYears:   req.ExperienceYears,
		CompletedProjects: req.CompletedProjects,
		RatingFallback:    req.RatingFallback,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, contractor)
}

// GET /api/contractors/{contractorId}
func (c *Controller) GetContractor(w http.ResponseWriter, r *http.Request) {
	contractorId, ok := c.pathId(w, r, "contractorId")
	if !ok {
		return
	}

	contractor, err := c.service.GetContractor(r.Context(), contractorId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, contractor)
}

// GET /api/contractors/{contractorId}/reviews
func (c *Controller) ContractorReviews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := c.getQueryInt(query, "limit")
	if err != nil || limit < 0 {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil || offset < 0 {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	contractorId, ok := c.pathId(w, r, "contractorId")
	if !ok {
		return
	}

	reviews, err := c.service.GetContractorReviews(r.Context(), contractorId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, reviews)
}

// POST /api/contractors/{contractorId}/reviews
func (c *Controller) NewReview(w http.ResponseWriter, r *http.Request) {
	contractorId, ok := c.pathId(w, r, "contractorId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewReviewReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := c.service.AddReview(r.Context(), models.Review{
		ContractorId: contractorId,
		ClientId:     req.ClientId,
		WorkId:       req.WorkId,
		Rating:       req.Rating,
		Text:         req.Text,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, review)
}

// POST /api/contractors/{contractorId}/qualifications
func (c *Controller) NewQualification(w http.ResponseWriter, r *http.Request) {
	contractorId, ok := c.pathId(w, r, "contractorId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewQualificationReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := c.service.AddQualification(r.Context(), models.QualificationRecord{
		ContractorId:       contractorId,
		Title:              req.Title,
		VerificationStatus: req.VerificationStatus,
		Year:               req.Year,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, q)
}

//// Bids

// POST /api/bids/new
func (c *Controller) NewBid(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewBidReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := c.service.AddBid(r.Context(), models.Bid{
		JobId:        req.JobId,
		ContractorId: req.ContractorId,
		Price:        req.Price,
		TimelineDays: req.TimelineDays,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bid)
}

// GET /api/bids/{bidId}
func (c *Controller) GetBid(w http.ResponseWriter, r *http.Request) {
	bidId, ok := c.pathId(w, r, "bidId")
	if !ok {
		return
	}

	bid, err := c.service.GetBid(r.Context(), bidId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bid)
}

// DELETE /api/bids/{bidId}
func (c *Controller) WithdrawBid(w http.ResponseWriter, r *http.Request) {
	bidId, ok := c.pathId(w, r, "bidId")
	if !ok {
		return
	}

	err := c.service.WithdrawBid(r.Context(), bidId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/bids/{bidId}/accept
func (c *Controller) AcceptBid(w http.ResponseWriter, r *http.Request) {
	bidId, ok := c.pathId(w, r, "bidId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseAcceptBidReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	milestones := make([]models.Milestone, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		milestones = append(milestones, m.toModel())
	}

	work, err := c.service.AcceptBid(r.Context(), bidId, milestones)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

//// Ongoing works

// GET /api/works/{workId}
func (c *Controller) GetWork(w http.ResponseWriter, r *http.Request) {
	workId, ok := c.pathId(w, r, "workId")
	if !ok {
		return
	}

	work, err := c.service.GetWork(r.Context(), workId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

// POST /api/works/{workId}/milestones
func (c *Controller) NewMilestone(w http.ResponseWriter, r *http.Request) {
	workId, ok := c.pathId(w, r, "workId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseMilestoneReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	work, err := c.service.AddMilestone(r.Context(), workId, req.toModel())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

// PUT /api/works/{workId}/milestones/{milestoneId}/status
func (c *Controller) SetMilestoneStatus(w http.ResponseWriter, r *http.Request) {
	workId, ok := c.pathId(w, r, "workId")
	if !ok {
		return
	}
	milestoneId, ok := c.pathId(w, r, "milestoneId")
	if !ok {
		return
	}

	status := models.MilestoneStatus(r.URL.Query().Get("status"))
	if !models.ValidMilestoneStatus(status) {
		c.errorResponse(w, http.StatusBadRequest, "empty or invalid status supplied")
		return
	}

	work, err := c.service.SetMilestoneStatus(r.Context(), workId, milestoneId, status)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

// PUT /api/works/{workId}/milestones/{milestoneId}/payment
func (c *Controller) MilestonePayment(w http.ResponseWriter, r *http.Request) {
	workId, ok := c.pathId(w, r, "workId")
	if !ok {
		return
	}
	milestoneId, ok := c.pathId(w, r, "milestoneId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParsePaymentReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	work, err := c.service.RecordMilestonePayment(r.Context(), workId, milestoneId, req.Amount)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

// PUT /api/works/{workId}/status
func (c *Controller) SetWorkStatus(w http.ResponseWriter, r *http.Request) {
	workId, ok := c.pathId(w, r, "workId")
	if !ok {
		return
	}

	status := models.WorkStatus(r.URL.Query().Get("status"))
	if !models.ValidWorkStatus(status) {
		c.errorResponse(w, http.StatusBadRequest, "empty or invalid status supplied")
		return
	}

	work, err := c.service.SetWorkStatus(r.Context(), workId, status)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

// PUT /api/works/{workId}/reviewed
func (c *Controller) MarkWorkReviewed(w http.ResponseWriter, r *http.Request) {
	workId, ok := c.pathId(w, r, "workId")
	if !ok {
		return
	}

	work, err := c.service.MarkWorkReviewed(r.Context(), workId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, work)
}

// Service

type ErrorResponse struct {
	Reason string `json:"reason"`
}

// pathId reads a path value and checks it is a UUID, answering 400 otherwise.
func (c *Controller) pathId(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := r.PathValue(key)
	if len(id) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty "+key+" supplied")
		return "", false
	}
	if !validId(id) {
		c.errorResponse(w, http.StatusBadRequest, "malformed "+key+" supplied: "+id)
		return "", false
	}
	return id, true
}

func (c *Controller) getQueryInt(query url.Values, key string) (int, error) {
	strs, ok := query[key]
	if ok && len(strs) > 0 {
		return strconv.Atoi(strs[0])
	}
	return 0, nil
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	data, err := json.Marshal(ErrorResponse{Reason: text})
	if err != nil {
		c.log.Error("controller.Controller.errorResponse", slog.Any("err", err))
		return
	}

	_, err = w.Write(data)
	if err != nil {
		c.log.Error("controller.Controller.errorResponse", slog.Any("err", err))
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNoJob):
		c.errorResponse(w, http.StatusNotFound, "requested job does not exist")
	case errors.Is(err, models.ErrNoContractor):
		c.errorResponse(w, http.StatusNotFound, "requested contractor does not exist")
	case errors.Is(err, models.ErrNoBid):
		c.errorResponse(w, http.StatusNotFound, "requested bid does not exist")
	case errors.Is(err, models.ErrNoWork):
		c.errorResponse(w, http.StatusNotFound, "requested ongoing work does not exist or unacessible")
	case errors.Is(err, models.ErrNoMilestone):
		c.errorResponse(w, http.StatusNotFound, "requested milestone does not exist")
	case errors.Is(err, models.ErrBidFinalized):
		c.errorResponse(w, http.StatusConflict, "requested bid is already accepted or rejected")
	case errors.Is(err, models.ErrJobAwarded):
		c.errorResponse(w, http.StatusConflict, "job already has an accepted bid")
	case errors.Is(err, models.ErrJobClosed):
		c.errorResponse(w, http.StatusConflict, "job is not open for bids")
	case errors.Is(err, models.ErrInvalidStatus):
		c.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidWeighting):
		c.errorResponse(w, http.StatusBadRequest, models.ErrInvalidWeighting.Error())
	case errors.Is(err, context.Canceled):
		c.log.Debug("request cancelled", slog.Any("err", err))
		c.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		c.log.Error("controller", slog.Any("err", err))
		c.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(d)
	if err != nil {
		c.log.Error("controller.Controller.marshalResponse", slog.Any("err", err))
		return
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}
