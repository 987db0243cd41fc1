package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buildmarket/internal/models"
)

const bidColumns = `
		bids.id, bids.job_id, bids.contractor_id, bids.price, bids.timeline_days, bids.status, bids.submitted_at,
		contractors.experience_years, contractors.completed_projects, contractors.rating_fallback
	FROM bids
		INNER JOIN contractors ON (contractors.id = bids.contractor_id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBid(row rowScanner) (models.Bid, error) {
	var bid models.Bid
	err := row.Scan(
		&bid.Id, &bid.JobId, &bid.ContractorId, &bid.Price, &bid.TimelineDays, &bid.Status, &bid.SubmittedAt,
		&bid.Contractor.ExperienceYears, &bid.Contractor.CompletedProjects, &bid.Contractor.RatingFallback,
	)
	return bid, err
}

// AddBid inserts a pending bid only while the job is open. The job row is
// share-locked by the insert, so a concurrent AcceptBid either awards the job
// before the bid lands or waits until the bid is committed.
func (repo *Repository) AddBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	query := `
	INSERT INTO bids (job_id, contractor_id, price, timeline_days, status)
	SELECT
		jobs.id, $2::UUID, $3::NUMERIC, $4::INTEGER, 'pending'
	FROM jobs
	WHERE jobs.id = $1 AND jobs.status = 'open'
	FOR SHARE
	RETURNING
		id, status, submitted_at
	`

	row := repo.db.QueryRowContext(ctx, query, bid.JobId, bid.ContractorId, bid.Price, bid.TimelineDays)
	err := row.Scan(&bid.Id, &bid.Status, &bid.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// either there is no such job or it stopped accepting bids
		_, err = repo.GetJob(ctx, bid.JobId)
		if err == nil {
			err = models.ErrJobClosed
		}
		return bid, fmt.Errorf("repository.Repository.AddBid: %w", err)
	} else if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: %w", err)
	}
	return bid, nil
}

// GetJobBids returns every bid of the job with the contractor snapshot joined
// in. Ranking needs the whole cohort, so there is no paging here.
func (repo *Repository) GetJobBids(ctx context.Context, jobId string) ([]models.Bid, error) {
	query := `SELECT` + bidColumns + `
	WHERE bids.job_id = $1
	ORDER BY bids.submitted_at, bids.id
	`

	rows, err := repo.db.QueryContext(ctx, query, jobId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetJobBids: %w", err)
	}
	defer rows.Close()

	var result []models.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetJobBids: rows scan error: %w", err)
		}
		result = append(result, bid)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetJobBids: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetBidByUUID(ctx context.Context, UUID string) (models.Bid, error) {
	query := `SELECT` + bidColumns + `
	WHERE bids.id = $1
	`

	bid, err := scanBid(repo.db.QueryRowContext(ctx, query, UUID))
	if errors.Is(err, sql.ErrNoRows) {
		return bid, fmt.Errorf("repository.Repository.GetBidByUUID: %w", models.ErrNoBid)
	} else if err != nil {
		return bid, fmt.Errorf("repository.Repository.GetBidByUUID: %w", err)
	}
	return bid, nil
}

// AcceptBid marks the bid accepted, rejects the other pending bids of the job,
// and stores the ongoing work produced by newWork, all in one transaction.
func (repo *Repository) AcceptBid(ctx context.Context, bidId string, newWork func(bid models.Bid, job models.Job) (models.OngoingWork, error)) (models.OngoingWork, error) {
	var work models.OngoingWork

	err := repo.inTx(ctx, func(tx *sql.Tx) error {
		bid, err := scanBid(tx.QueryRowContext(ctx, `SELECT`+bidColumns+` WHERE bids.id = $1 FOR UPDATE OF bids`, bidId))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNoBid
		} else if err != nil {
			return err
		}
		if bid.Status != models.BidPending {
			return models.ErrBidFinalized
		}

		var job models.Job
		row := tx.QueryRowContext(ctx, "SELECT id, client_id, title, status FROM jobs WHERE id = $1 FOR UPDATE", bid.JobId)
		err = row.Scan(&job.Id, &job.ClientId, &job.Title, &job.Status)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNoJob
		} else if err != nil {
			return err
		}
		switch job.Status {
		case models.JobOpen:
		case models.JobAwarded:
			return models.ErrJobAwarded
		default:
			return models.ErrJobClosed
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE bids
		SET (status, updated_at) = (CASE WHEN id = $2 THEN 'accepted' ELSE 'rejected' END, CURRENT_TIMESTAMP)
		WHERE job_id = $1 AND (id = $2 OR status = 'pending')
		`, bid.JobId, bid.Id)
		if err != nil {
			return err
		}
		bid.Status = models.BidAccepted

		err = repo.setJobStatus(ctx, tx, job.Id, models.JobAwarded)
		if err != nil {
			return err
		}

		work, err = newWork(bid, job)
		if err != nil {
			return err
		}
		work, err = repo.insertWork(ctx, tx, work)
		return err
	})
	if err != nil {
		return work, fmt.Errorf("repository.Repository.AcceptBid: %w", err)
	}

	return work, nil
}

// DeleteBid removes a bid that is still pending. Accepted and rejected bids
// are part of the job history and stay.
func (repo *Repository) DeleteBid(ctx context.Context, UUID string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM bids WHERE id = $1 AND status = $2", UUID, models.BidPending)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteBid: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteBid: %w", err)
	}
	if n > 0 {
		return nil
	}

	_, err = repo.GetBidByUUID(ctx, UUID)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteBid: %w", err)
	}
	return fmt.Errorf("repository.Repository.DeleteBid: %w", models.ErrBidFinalized)
}
