// Package progress keeps an ongoing work's progress and status in step with
// its milestones. Every mutator here recomputes before returning, so callers
// can treat them as the hook to run right before persisting the work.
package progress

import (
	"fmt"
	"math"
	"time"

	"buildmarket/internal/models"

	"github.com/shopspring/decimal"
)

const complete = 100

// Recompute derives WorkProgress from the milestone list and moves the work
// to Completed once every milestone is done. It never moves a work out of
// Completed. With no milestones the previous progress is kept. Reports
// whether anything changed.
func Recompute(w *models.OngoingWork) bool {
	if len(w.Milestones) == 0 {
		return false
	}

	done := 0
	for _, m := range w.Milestones {
		if m.Status == models.MilestoneCompleted {
			done++
		}
	}

	progress := int(math.Round(complete * float64(done) / float64(len(w.Milestones))))
	changed := progress != w.WorkProgress
	w.WorkProgress = progress

	if w.WorkProgress == complete && w.Status != models.WorkCompleted {
		w.Status = models.WorkCompleted
		changed = true
	}

	return changed
}

func AddMilestone(w *models.OngoingWork, m models.Milestone) (models.Milestone, error) {
	if m.Status == "" {
		m.Status = models.MilestonePending
	}
	if !models.ValidMilestoneStatus(m.Status) {
		return m, fmt.Errorf("progress.AddMilestone: %w: %s", models.ErrInvalidStatus, m.Status)
	}
	m.WorkId = w.Id
	m.Position = len(w.Milestones)

	w.Milestones = append(w.Milestones, m)
	Recompute(w)
	return m, nil
}

// SetMilestoneStatus changes the status of one milestone and stamps or clears
// its completion time.
func SetMilestoneStatus(w *models.OngoingWork, milestoneId string, status models.MilestoneStatus, now time.Time) (models.Milestone, error) {
	if !models.ValidMilestoneStatus(status) {
		return models.Milestone{}, fmt.Errorf("progress.SetMilestoneStatus: %w: %s", models.ErrInvalidStatus, status)
	}

	m, err := find(w, milestoneId)
	if err != nil {
		return models.Milestone{}, fmt.Errorf("progress.SetMilestoneStatus: %w", err)
	}

	if status == models.MilestoneCompleted && m.Status != models.MilestoneCompleted {
		at := now
		m.CompletedAt = &at
	} else if status != models.MilestoneCompleted {
		m.CompletedAt = nil
	}
	m.Status = status

	Recompute(w)
	return *m, nil
}

func RecordPayment(w *models.OngoingWork, milestoneId string, amount decimal.Decimal) (models.Milestone, error) {
	if amount.IsNegative() {
		return models.Milestone{}, fmt.Errorf("progress.RecordPayment: negative amount: %s", amount)
	}

	m, err := find(w, milestoneId)
	if err != nil {
		return models.Milestone{}, fmt.Errorf("progress.RecordPayment: %w", err)
	}
	m.ActualAmountPaid = &amount

	Recompute(w)
	return *m, nil
}

// SetStatus applies a manual status change. Exclusivity between the terminal
// states is left to the caller.
func SetStatus(w *models.OngoingWork, status models.WorkStatus) error {
	if !models.ValidWorkStatus(status) {
		return fmt.Errorf("progress.SetStatus: %w: %s", models.ErrInvalidStatus, status)
	}
	w.Status = status
	return nil
}

func find(w *models.OngoingWork, milestoneId string) (*models.Milestone, error) {
	for i := range w.Milestones {
		if w.Milestones[i].Id == milestoneId {
			return &w.Milestones[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrNoMilestone, milestoneId)
}
