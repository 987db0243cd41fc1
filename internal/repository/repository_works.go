package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buildmarket/internal/models"

	"github.com/shopspring/decimal"
)

func (repo *Repository) GetWork(ctx context.Context, workId string) (models.OngoingWork, error) {
	var work models.OngoingWork

	err := repo.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		work, err = repo.loadWork(ctx, tx, workId, false)
		return err
	})
	if err != nil {
		return work, fmt.Errorf("repository.Repository.GetWork: %w", err)
	}
	return work, nil
}

// UpdateWork locks the work row, reloads its milestones, lets fn mutate the
// aggregate and writes it back. fn always sees the latest committed
// milestones, so concurrent writers serialize on the row lock.
func (repo *Repository) UpdateWork(ctx context.Context, workId string, fn func(work *models.OngoingWork) error) (models.OngoingWork, error) {
	var work models.OngoingWork

	err := repo.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		work, err = repo.loadWork(ctx, tx, workId, true)
		if err != nil {
			return err
		}

		err = fn(&work)
		if err != nil {
			return err
		}

		return repo.saveWork(ctx, tx, &work)
	})
	if err != nil {
		return work, fmt.Errorf("repository.Repository.UpdateWork: %w", err)
	}
	return work, nil
}

func (repo *Repository) loadWork(ctx context.Context, tx *sql.Tx, workId string, forUpdate bool) (models.OngoingWork, error) {
	query := `
	SELECT
		id, job_id, bid_id, client_id, contractor_id, timeline_days, work_progress, status, reviewed, created_at, updated_at
	FROM ongoing_works
	WHERE id = $1
	`
	if forUpdate {
		query += "FOR UPDATE"
	}

	var w models.OngoingWork
	row := tx.QueryRowContext(ctx, query, workId)
	err := row.Scan(&w.Id, &w.JobId, &w.BidId, &w.ClientId, &w.ContractorId, &w.TimelineDays, &w.WorkProgress, &w.Status, &w.Reviewed, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return w, models.ErrNoWork
	} else if err != nil {
		return w, fmt.Errorf("repository.Repository.loadWork: %w", err)
	}

	w.Milestones, err = repo.loadMilestones(ctx, tx, w.Id)
	if err != nil {
		return w, err
	}
	return w, nil
}

func (repo *Repository) loadMilestones(ctx context.Context, tx *sql.Tx, workId string) ([]models.Milestone, error) {
	query := `
	SELECT
		id, work_id, position, name, description, amount, status, completed_at, actual_amount_paid
	FROM milestones
	WHERE work_id = $1
	ORDER BY position
	`

	rows, err := tx.QueryContext(ctx, query, workId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.loadMilestones: %w", err)
	}
	defer rows.Close()

	result := []models.Milestone{}
	for rows.Next() {
		var m models.Milestone
		var completedAt sql.NullTime
		var paid decimal.NullDecimal
		err = rows.Scan(&m.Id, &m.WorkId, &m.Position, &m.Name, &m.Description, &m.Amount, &m.Status, &completedAt, &paid)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.loadMilestones: rows scan error: %w", err)
		}
		if completedAt.Valid {
			m.CompletedAt = &completedAt.Time
		}
		if paid.Valid {
			m.ActualAmountPaid = &paid.Decimal
		}
		result = append(result, m)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.loadMilestones: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) insertWork(ctx context.Context, tx *sql.Tx, w models.OngoingWork) (models.OngoingWork, error) {
	query := `
	INSERT INTO ongoing_works (job_id, bid_id, client_id, contractor_id, timeline_days, work_progress, status, reviewed)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING
		id, created_at, updated_at
	`

	row := tx.QueryRowContext(ctx, query, w.JobId, w.BidId, w.ClientId, w.ContractorId, w.TimelineDays, w.WorkProgress, w.Status, w.Reviewed)
	err := row.Scan(&w.Id, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return w, fmt.Errorf("repository.Repository.insertWork: %w", err)
	}

	for i := range w.Milestones {
		w.Milestones[i].WorkId = w.Id
		err = repo.upsertMilestone(ctx, tx, &w.Milestones[i])
		if err != nil {
			return w, err
		}
	}
	return w, nil
}

func (repo *Repository) saveWork(ctx context.Context, tx *sql.Tx, w *models.OngoingWork) error {
	query := `
	UPDATE ongoing_works
	SET (work_progress, status, reviewed, updated_at) = ($1, $2, $3, CURRENT_TIMESTAMP)
	WHERE id = $4
	RETURNING updated_at
	`

	row := tx.QueryRowContext(ctx, query, w.WorkProgress, w.Status, w.Reviewed, w.Id)
	err := row.Scan(&w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.Repository.saveWork: %w", err)
	}

	for i := range w.Milestones {
		err = repo.upsertMilestone(ctx, tx, &w.Milestones[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// upsertMilestone inserts milestones without an id and updates the rest.
// Milestones are never deleted.
func (repo *Repository) upsertMilestone(ctx context.Context, tx *sql.Tx, m *models.Milestone) error {
	var paid decimal.NullDecimal
	if m.ActualAmountPaid != nil {
		paid = decimal.NewNullDecimal(*m.ActualAmountPaid)
	}

	if len(m.Id) == 0 {
		query := `
		INSERT INTO milestones (work_id, position, name, description, amount, status, completed_at, actual_amount_paid)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
		`
		row := tx.QueryRowContext(ctx, query, m.WorkId, m.Position, m.Name, m.Description, m.Amount, m.Status, m.CompletedAt, paid)
		err := row.Scan(&m.Id)
		if err != nil {
			return fmt.Errorf("repository.Repository.upsertMilestone: %w", err)
		}
		return nil
	}

	query := `
	UPDATE milestones
	SET (name, description, amount, status, completed_at, actual_amount_paid) = ($1, $2, $3, $4, $5, $6)
	WHERE id = $7 AND work_id = $8
	`
	_, err := tx.ExecContext(ctx, query, m.Name, m.Description, m.Amount, m.Status, m.CompletedAt, paid, m.Id, m.WorkId)
	if err != nil {
		return fmt.Errorf("repository.Repository.upsertMilestone: %w", err)
	}
	return nil
}
