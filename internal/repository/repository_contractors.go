package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buildmarket/internal/models"
)

func (repo *Repository) AddContractor(ctx context.Context, c models.Contractor) (models.Contractor, error) {
	query := `
	INSERT INTO contractors (name, experience_years, completed_projects, rating_fallback)
	VALUES
		($1, $2, $3, $4)
	RETURNING
		id, created_at
	`

	row := repo.db.QueryRowContext(ctx, query, c.Name, c.ExperienceYears, c.CompletedProjects, c.RatingFallback)
	err := row.Scan(&c.Id, &c.CreatedAt)
	if err != nil {
		return c, fmt.Errorf("repository.Repository.AddContractor: %w", err)
	}
	return c, nil
}

func (repo *Repository) GetContractor(ctx context.Context, contractorId string) (models.Contractor, error) {
	query := `
	SELECT
		id, name, experience_years, completed_projects, rating_fallback, created_at
	FROM contractors
	WHERE id = $1
	`

	var c models.Contractor
	row := repo.db.QueryRowContext(ctx, query, contractorId)
	err := row.Scan(&c.Id, &c.Name, &c.ExperienceYears, &c.CompletedProjects, &c.RatingFallback, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("repository.Repository.GetContractor: %w", models.ErrNoContractor)
	} else if err != nil {
		return c, fmt.Errorf("repository.Repository.GetContractor: %w", err)
	}
	return c, nil
}

//// Reviews

// AddReview inserts the review. A review tied to a work also marks that work
// reviewed; both writes share one transaction, and a work that does not
// belong to the reviewed contractor yields ErrNoWork.
func (repo *Repository) AddReview(ctx context.Context, review models.Review) (models.Review, error) {
	query := `
	INSERT INTO reviews (contractor_id, client_id, work_id, rating, text)
	VALUES
		($1, $2, $3, $4, $5)
	RETURNING
		id, created_at
	`

	err := repo.inTx(ctx, func(tx *sql.Tx) error {
		if len(review.WorkId) > 0 {
			res, err := tx.ExecContext(ctx, `
			UPDATE ongoing_works
			SET (reviewed, updated_at) = (true, CURRENT_TIMESTAMP)
			WHERE id = $1 AND contractor_id = $2
			`, review.WorkId, review.ContractorId)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: work %s was not done by contractor %s", models.ErrNoWork, review.WorkId, review.ContractorId)
			}
		}

		row := tx.QueryRowContext(ctx, query, review.ContractorId, review.ClientId, nullUUID(review.WorkId), review.Rating, review.Text)
		return row.Scan(&review.Id, &review.CreatedAt)
	})
	if err != nil {
		return review, fmt.Errorf("repository.Repository.AddReview: %w", err)
	}
	return review, nil
}

// ReviewAggregate reports ok=false when the contractor has no reviews.
func (repo *Repository) ReviewAggregate(ctx context.Context, contractorId string) (agg models.ReviewAggregate, ok bool, err error) {
	query := `
	SELECT
		COALESCE(AVG(rating), 0)::DOUBLE PRECISION,
		COUNT(*)
	FROM reviews
	WHERE contractor_id = $1
	`

	row := repo.db.QueryRowContext(ctx, query, contractorId)
	err = row.Scan(&agg.AverageRating, &agg.ReviewCount)
	if err != nil {
		return agg, false, fmt.Errorf("repository.Repository.ReviewAggregate: %w", err)
	}
	return agg, agg.ReviewCount > 0, nil
}

func (repo *Repository) GetReviews(ctx context.Context, contractorId string, limit, offset int) ([]models.Review, error) {
	query := `
	SELECT
		id, contractor_id, client_id, work_id, rating, text, created_at
	FROM reviews
	WHERE contractor_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	OFFSET $3
	`

	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	rows, err := repo.db.QueryContext(ctx, query, contractorId, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetReviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	var review models.Review
	var workId interface{}
	for rows.Next() {
		err = rows.Scan(&review.Id, &review.ContractorId, &review.ClientId, &workId, &review.Rating, &review.Text, &review.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetReviews: rows scan failed: %w", err)
		}
		review.WorkId = readUUID(workId)
		reviews = append(reviews, review)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetReviews: %w", rows.Err())
	}

	return reviews, nil
}

//// Qualifications

func (repo *Repository) AddQualification(ctx context.Context, q models.QualificationRecord) (models.QualificationRecord, error) {
	query := `
	INSERT INTO qualifications (contractor_id, title, verification_status, year)
	VALUES
		($1, $2, $3, $4)
	RETURNING
		id
	`

	row := repo.db.QueryRowContext(ctx, query, q.ContractorId, q.Title, q.VerificationStatus, q.Year)
	err := row.Scan(&q.Id)
	if err != nil {
		return q, fmt.Errorf("repository.Repository.AddQualification: %w", err)
	}
	return q, nil
}

func (repo *Repository) GetQualifications(ctx context.Context, contractorId string) ([]models.QualificationRecord, error) {
	query := `
	SELECT
		id, contractor_id, title, verification_status, year
	FROM qualifications
	WHERE contractor_id = $1
	ORDER BY year DESC, id
	`

	rows, err := repo.db.QueryContext(ctx, query, contractorId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetQualifications: %w", err)
	}
	defer rows.Close()

	var result []models.QualificationRecord
	var q models.QualificationRecord
	for rows.Next() {
		err = rows.Scan(&q.Id, &q.ContractorId, &q.Title, &q.VerificationStatus, &q.Year)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetQualifications: rows scan failed: %w", err)
		}
		result = append(result, q)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetQualifications: %w", rows.Err())
	}

	return result, nil
}
