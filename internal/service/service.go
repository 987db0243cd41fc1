package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buildmarket/internal/config"
	"buildmarket/internal/models"
	"buildmarket/internal/progress"
	"buildmarket/internal/ranking"

	"github.com/shopspring/decimal"
)

type Repository interface {
	AddJob(ctx context.Context, job models.Job) (models.Job, error)
	GetJob(ctx context.Context, jobId string) (models.Job, error)
	UpdateJob(ctx context.Context, jobId string, fn func(job *models.Job) error) (models.Job, error)

	AddContractor(ctx context.Context, c models.Contractor) (models.Contractor, error)
	GetContractor(ctx context.Context, contractorId string) (models.Contractor, error)
	AddReview(ctx context.Context, review models.Review) (models.Review, error)
	GetReviews(ctx context.Context, contractorId string, limit, offset int) ([]models.Review, error)
	ReviewAggregate(ctx context.Context, contractorId string) (models.ReviewAggregate, bool, error)
	AddQualification(ctx context.Context, q models.QualificationRecord) (models.QualificationRecord, error)
	GetQualifications(ctx context.Context, contractorId string) ([]models.QualificationRecord, error)

	AddBid(ctx context.Context, bid models.Bid) (models.Bid, error)
	GetJobBids(ctx context.Context, jobId string) ([]models.Bid, error)
	GetBidByUUID(ctx context.Context, UUID string) (models.Bid, error)
	DeleteBid(ctx context.Context, UUID string) error
	AcceptBid(ctx context.Context, bidId string, newWork func(bid models.Bid, job models.Job) (models.OngoingWork, error)) (models.OngoingWork, error)

	GetWork(ctx context.Context, workId string) (models.OngoingWork, error)
	UpdateWork(ctx context.Context, workId string, fn func(work *models.OngoingWork) error) (models.OngoingWork, error)
}

type Service struct {
	repo        Repository
	engine      *ranking.Engine
	weighting   models.Weighting
	lookupLimit int
	log         *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, cfg *config.ScoringConfig, log *slog.Logger) (*Service, error) {
	engine, err := ranking.NewEngine(ranking.QualificationMode(cfg.QualificationMode))
	if err != nil {
		return nil, fmt.Errorf("service.NewService: %w", err)
	}

	weighting := cfg.Weighting()
	if !weighting.Valid() {
		return nil, fmt.Errorf("service.NewService: default weighting: %w", models.ErrInvalidWeighting)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:        repo,
		engine:      engine,
		weighting:   weighting,
		lookupLimit: max(cfg.LookupConcurrency, 1),
		log:         log,
		now:         time.Now,
	}, nil
}

//// Jobs

func (s *Service) AddJob(ctx context.Context, job models.Job) (models.Job, error) {
	job.Status = models.JobOpen
	job, err := s.repo.AddJob(ctx, job)
	if err != nil {
		return job, fmt.Errorf("service.Service.AddJob: %w", err)
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, jobId string) (models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobId)
	if err != nil {
		return job, fmt.Errorf("service.Service.GetJob: %w", err)
	}
	return job, nil
}

// SetJobStatus closes or reopens a job. A job only becomes awarded through
// AcceptBid and stays awarded.
func (s *Service) SetJobStatus(ctx context.Context, jobId string, status models.JobStatus) (models.Job, error) {
	if !models.ValidJobStatus(status) || status == models.JobAwarded {
		return models.Job{}, fmt.Errorf("service.Service.SetJobStatus: %w: %s", models.ErrInvalidStatus, status)
	}

	job, err := s.repo.UpdateJob(ctx, jobId, func(job *models.Job) error {
		if job.Status == models.JobAwarded {
			return models.ErrJobAwarded
		}
		job.Status = status
		return nil
	})
	if err != nil {
		return job, fmt.Errorf("service.Service.SetJobStatus: %w", err)
	}
	return job, nil
}

//// Contractors

func (s *Service) AddContractor(ctx context.Context, c models.Contractor) (models.Contractor, error) {
	c, err := s.repo.AddContractor(ctx, c)
	if err != nil {
		return c, fmt.Errorf("service.Service.AddContractor: %w", err)
	}
	return c, nil
}

func (s *Service) GetContractor(ctx context.Context, contractorId string) (models.Contractor, error) {
	c, err := s.repo.GetContractor(ctx, contractorId)
	if err != nil {
		return c, fmt.Errorf("service.Service.GetContractor: %w", err)
	}
	return c, nil
}

func (s *Service) GetContractorReviews(ctx context.Context, contractorId string, limit, offset int) ([]models.Review, error) {
	_, err := s.repo.GetContractor(ctx, contractorId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetContractorReviews: %w", err)
	}

	reviews, err := s.repo.GetReviews(ctx, contractorId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetContractorReviews: %w", err)
	}
	return reviews, nil
}

// AddReview stores a client's review of a contractor. When the review refers
// to an ongoing work of that contractor, the repository marks the work
// reviewed in the same transaction.
func (s *Service) AddReview(ctx context.Context, review models.Review) (models.Review, error) {
	_, err := s.repo.GetContractor(ctx, review.ContractorId)
	if err != nil {
		return review, fmt.Errorf("service.Service.AddReview: %w", err)
	}

	review, err = s.repo.AddReview(ctx, review)
	if err != nil {
		return review, fmt.Errorf("service.Service.AddReview: %w", err)
	}
	return review, nil
}

func (s *Service) AddQualification(ctx context.Context, q models.QualificationRecord) (models.QualificationRecord, error) {
	_, err := s.repo.GetContractor(ctx, q.ContractorId)
	if err != nil {
		return q, fmt.Errorf("service.Service.AddQualification: %w", err)
	}

	if len(q.VerificationStatus) == 0 {
		q.VerificationStatus = models.QualificationUnverified
	}
	q, err = s.repo.AddQualification(ctx, q)
	if err != nil {
		return q, fmt.Errorf("service.Service.AddQualification: %w", err)
	}
	return q, nil
}

//// Bids

// AddBid places a pending bid. Whether the job still accepts bids is checked
// by the repository together with the insert.
func (s *Service) AddBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	contractor, err := s.repo.GetContractor(ctx, bid.ContractorId)
	if err != nil {
		return bid, fmt.Errorf("service.Service.AddBid: %w", err)
	}

	bid, err = s.repo.AddBid(ctx, bid)
	if err != nil {
		return bid, fmt.Errorf("service.Service.AddBid: %w", err)
	}
	bid.Contractor = contractor.Snapshot()
	return bid, nil
}

func (s *Service) GetBid(ctx context.Context, bidId string) (models.Bid, error) {
	bid, err := s.repo.GetBidByUUID(ctx, bidId)
	if err != nil {
		return bid, fmt.Errorf("service.Service.GetBid: %w", err)
	}
	return bid, nil
}

// WithdrawBid removes a pending bid. It leaves the cohort before any ranking
// or award is computed from it.
func (s *Service) WithdrawBid(ctx context.Context, bidId string) error {
	err := s.repo.DeleteBid(ctx, bidId)
	if err != nil {
		return fmt.Errorf("service.Service.WithdrawBid: %w", err)
	}
	s.log.Info("bid withdrawn", slog.String("bid", bidId))
	return nil
}

func (s *Service) GetJobBids(ctx context.Context, jobId string) ([]models.Bid, error) {
	_, err := s.repo.GetJob(ctx, jobId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetJobBids: %w", err)
	}

	bids, err := s.repo.GetJobBids(ctx, jobId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetJobBids: %w", err)
	}
	return bids, nil
}

// AcceptBid accepts a pending bid, rejects its competitors and opens the
// ongoing work with the given milestones.
func (s *Service) AcceptBid(ctx context.Context, bidId string, milestones []models.Milestone) (models.OngoingWork, error) {
	work, err := s.repo.AcceptBid(ctx, bidId, func(bid models.Bid, job models.Job) (models.OngoingWork, error) {
		w := models.OngoingWork{
			JobId:        job.Id,
			BidId:        bid.Id,
			ClientId:     job.ClientId,
			ContractorId: bid.ContractorId,
			TimelineDays: bid.TimelineDays,
			Status:       models.WorkActive,
		}
		for _, m := range milestones {
			if _, err := progress.AddMilestone(&w, m); err != nil {
				return w, err
			}
		}
		return w, nil
	})
	if err != nil {
		return work, fmt.Errorf("service.Service.AcceptBid: %w", err)
	}

	s.log.Info("bid accepted", slog.String("bid", bidId), slog.String("work", work.Id), slog.Int("milestones", len(work.Milestones)))
	return work, nil
}

//// Ongoing work

func (s *Service) GetWork(ctx context.Context, workId string) (models.OngoingWork, error) {
	work, err := s.repo.GetWork(ctx, workId)
	if err != nil {
		return work, fmt.Errorf("service.Service.GetWork: %w", err)
	}
	return work, nil
}

func (s *Service) AddMilestone(ctx context.Context, workId string, m models.Milestone) (models.OngoingWork, error) {
	work, err := s.repo.UpdateWork(ctx, workId, func(w *models.OngoingWork) error {
		_, err := progress.AddMilestone(w, m)
		return err
	})
	if err != nil {
		return work, fmt.Errorf("service.Service.AddMilestone: %w", err)
	}
	return work, nil
}

func (s *Service) SetMilestoneStatus(ctx context.Context, workId, milestoneId string, status models.MilestoneStatus) (models.OngoingWork, error) {
	work, err := s.repo.UpdateWork(ctx, workId, func(w *models.OngoingWork) error {
		_, err := progress.SetMilestoneStatus(w, milestoneId, status, s.now().UTC())
		return err
	})
	if err != nil {
		return work, fmt.Errorf("service.Service.SetMilestoneStatus: %w", err)
	}

	if work.Status == models.WorkCompleted {
		s.log.Debug("work completed", slog.String("work", work.Id))
	}
	return work, nil
}

func (s *Service) RecordMilestonePayment(ctx context.Context, workId, milestoneId string, amount decimal.Decimal) (models.OngoingWork, error) {
	work, err := s.repo.UpdateWork(ctx, workId, func(w *models.OngoingWork) error {
		_, err := progress.RecordPayment(w, milestoneId, amount)
		return err
	})
	if err != nil {
		return work, fmt.Errorf("service.Service.RecordMilestonePayment: %w", err)
	}
	return work, nil
}

func (s *Service) SetWorkStatus(ctx context.Context, workId string, status models.WorkStatus) (models.OngoingWork, error) {
	work, err := s.repo.UpdateWork(ctx, workId, func(w *models.OngoingWork) error {
		return progress.SetStatus(w, status)
	})
	if err != nil {
		return work, fmt.Errorf("service.Service.SetWorkStatus: %w", err)
	}
	return work, nil
}

func (s *Service) MarkWorkReviewed(ctx context.Context, workId string) (models.OngoingWork, error) {
	work, err := s.repo.UpdateWork(ctx, workId, func(w *models.OngoingWork) error {
		w.Reviewed = true
		return nil
	})
	if err != nil {
		return work, fmt.Errorf("service.Service.MarkWorkReviewed: %w", err)
	}
	return work, nil
}
