package service

import (
	"context"
	"fmt"
	"log/slog"

	"buildmarket/internal/models"
	"buildmarket/internal/ranking"

	"golang.org/x/sync/errgroup"
)

type JobRanking struct {
	JobId             string                    `json:"jobId"`
	Weighting         models.Weighting          `json:"weighting"`
	QualificationMode ranking.QualificationMode `json:"qualificationMode"`
	TotalBids         int                       `json:"totalBids"`
	Bids              []models.RankedBid        `json:"bids"`
}

// RankJobBids scores the job's full bid set and returns the ranking narrowed
// by filter. A nil weighting selects the configured default.
func (s *Service) RankJobBids(ctx context.Context, jobId string, weighting *models.Weighting, filter ranking.Filter) (JobRanking, error) {
	w := s.weighting
	if weighting != nil {
		if !weighting.Valid() {
			return JobRanking{}, fmt.Errorf("service.Service.RankJobBids: %w", models.ErrInvalidWeighting)
		}
		w = *weighting
	}

	_, err := s.repo.GetJob(ctx, jobId)
	if err != nil {
		return JobRanking{}, fmt.Errorf("service.Service.RankJobBids: %w", err)
	}

	bids, err := s.repo.GetJobBids(ctx, jobId)
	if err != nil {
		return JobRanking{}, fmt.Errorf("service.Service.RankJobBids: %w", err)
	}

	contractors, err := s.contractorData(ctx, bids)
	if err != nil {
		return JobRanking{}, fmt.Errorf("service.Service.RankJobBids: %w", err)
	}

	ev := s.engine.Evaluate(ranking.Input{
		Bids:        bids,
		Contractors: contractors,
		Weighting:   w,
		Now:         s.now(),
	})

	return JobRanking{
		JobId:             jobId,
		Weighting:         w,
		QualificationMode: s.engine.Mode(),
		TotalBids:         len(bids),
		Bids:              ev.Filter(filter),
	}, nil
}

// contractorData fetches reviews and qualifications for every distinct
// contractor concurrently. A failed lookup is logged and recorded on that
// contractor only; the only error returned is a cancelled context.
func (s *Service) contractorData(ctx context.Context, bids []models.Bid) (map[string]ranking.ContractorData, error) {
	ids := make([]string, 0, len(bids))
	seen := make(map[string]bool, len(bids))
	for _, bid := range bids {
		if !seen[bid.ContractorId] {
			seen[bid.ContractorId] = true
			ids = append(ids, bid.ContractorId)
		}
	}

	results := make([]ranking.ContractorData, len(ids))

	var g errgroup.Group
	g.SetLimit(s.lookupLimit)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = s.lookupContractor(ctx, id)
			return nil
		})
	}
	// lookup failures stay on the contractor, so every goroutine returns nil
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := make(map[string]ranking.ContractorData, len(ids))
	for i, id := range ids {
		data[id] = results[i]
	}
	return data, nil
}

func (s *Service) lookupContractor(ctx context.Context, contractorId string) ranking.ContractorData {
	var data ranking.ContractorData

	agg, ok, err := s.repo.ReviewAggregate(ctx, contractorId)
	if err != nil {
		data.ReviewErr = err
		s.log.Warn("review lookup failed, using rating fallback", slog.String("contractor", contractorId), slog.Any("err", err))
	} else if ok {
		data.Review = &agg
	}

	data.Qualifications, err = s.repo.GetQualifications(ctx, contractorId)
	if err != nil {
		data.QualificationErr = err
		s.log.Warn("qualification lookup failed, scoring qualifications as 0", slog.String("contractor", contractorId), slog.Any("err", err))
	}

	return data
}
