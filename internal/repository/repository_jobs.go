package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buildmarket/internal/models"
)

func (repo *Repository) AddJob(ctx context.Context, job models.Job) (models.Job, error) {
	query := `
	INSERT INTO jobs (client_id, title, description, location, status)
	VALUES
		($1, $2, $3, $4, $5)
	RETURNING
		id, status, created_at, updated_at
	`

	if len(job.Status) == 0 {
		job.Status = models.JobOpen
	}

	row := repo.db.QueryRowContext(ctx, query, job.ClientId, job.Title, job.Description, job.Location, job.Status)
	err := row.Scan(&job.Id, &job.Status, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return job, fmt.Errorf("repository.Repository.AddJob: %w", err)
	}
	return job, nil
}

func (repo *Repository) GetJob(ctx context.Context, jobId string) (models.Job, error) {
	query := `
	SELECT
		id, client_id, title, description, location, status, created_at, updated_at
	FROM jobs
	WHERE id = $1
	`

	var job models.Job
	row := repo.db.QueryRowContext(ctx, query, jobId)
	err := row.Scan(&job.Id, &job.ClientId, &job.Title, &job.Description, &job.Location, &job.Status, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return job, fmt.Errorf("repository.Repository.GetJob: %w", models.ErrNoJob)
	} else if err != nil {
		return job, fmt.Errorf("repository.Repository.GetJob: %w", err)
	}
	return job, nil
}

// UpdateJob locks the job row and saves the status fn leaves on it.
func (repo *Repository) UpdateJob(ctx context.Context, jobId string, fn func(job *models.Job) error) (models.Job, error) {
	query := `
	SELECT
		id, client_id, title, description, location, status, created_at, updated_at
	FROM jobs
	WHERE id = $1
	FOR UPDATE
	`

	var job models.Job
	err := repo.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, query, jobId)
		err := row.Scan(&job.Id, &job.ClientId, &job.Title, &job.Description, &job.Location, &job.Status, &job.CreatedAt, &job.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNoJob
		} else if err != nil {
			return err
		}

		prev := job.Status
		err = fn(&job)
		if err != nil {
			return err
		}
		if job.Status == prev {
			return nil
		}
		return repo.setJobStatus(ctx, tx, job.Id, job.Status)
	})
	if err != nil {
		return job, fmt.Errorf("repository.Repository.UpdateJob: %w", err)
	}
	return job, nil
}

func (repo *Repository) setJobStatus(ctx context.Context, tx *sql.Tx, jobId string, status models.JobStatus) error {
	if !models.ValidJobStatus(status) {
		return fmt.Errorf("repository.Repository.setJobStatus: %w: %s", models.ErrInvalidStatus, status)
	}
	_, err := tx.ExecContext(ctx, "UPDATE jobs SET (status, updated_at) = ($1, CURRENT_TIMESTAMP) WHERE id = $2", status, jobId)
	if err != nil {
		return fmt.Errorf("repository.Repository.setJobStatus: %w", err)
	}
	return nil
}
