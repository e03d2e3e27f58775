package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tolkline/booking-be/internal/booking/domain"
)

type assignmentRow struct {
	ID           string         `db:"assignment_id"`
	JobID        string         `db:"job_id"`
	TranslatorID string         `db:"translator_id"`
	AssignedAt   time.Time      `db:"assigned_at"`
	CanceledAt   sql.NullTime   `db:"canceled_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	CompletedBy  sql.NullString `db:"completed_by"`
}

func (r *assignmentRow) toDomain() *domain.Assignment {
	a := &domain.Assignment{
		ID:           r.ID,
		JobID:        r.JobID,
		TranslatorID: r.TranslatorID,
		AssignedAt:   r.AssignedAt,
		CompletedBy:  r.CompletedBy.String,
	}
	if r.CanceledAt.Valid {
		t := r.CanceledAt.Time
		a.CanceledAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		a.CompletedAt = &t
	}
	return a
}

const assignmentColumns = `
	assignment_id, job_id, translator_id, assigned_at, canceled_at,
	completed_at, completed_by
`

// FindCurrent returns the assignment that still binds a translator to the
// job, or nil when there is none. At most one such row exists per job.
func (s *Storage) FindCurrent(ctx context.Context, jobID string) (*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE job_id = $1 AND canceled_at IS NULL AND completed_at IS NULL
	`

	var row assignmentRow
	err := s.db.GetContext(ctx, &row, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find current assignment: %w", err)
	}

	return row.toDomain(), nil
}

// IsAlreadyBooked reports whether the translator holds a live assignment on a
// job whose session window covers at.
func (s *Storage) IsAlreadyBooked(ctx context.Context, translatorID string, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM assignments a
			JOIN jobs j ON j.job_id = a.job_id
			WHERE a.translator_id = $1
			  AND a.canceled_at IS NULL
			  AND a.completed_at IS NULL
			  AND j.due <= $2
			  AND $2 < j.due + make_interval(mins => j.duration)
		)
	`

	var booked bool
	if err := s.db.GetContext(ctx, &booked, query, translatorID, at); err != nil {
		return false, fmt.Errorf("failed to check existing bookings: %w", err)
	}

	return booked, nil
}

// Claim atomically binds a translator to a pending job: the status flip to
// assigned and the assignment insert commit together or not at all. Under
// concurrent accepts exactly one caller wins; the rest get ErrAlreadyClaimed.
func (s *Storage) Claim(ctx context.Context, jobID, translatorID string) (*domain.Assignment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	// Optimistic check-and-set on the status column. Zero rows means the job
	// left pending between the read and now: someone else claimed it.
	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = $1, updated_at = NOW() WHERE job_id = $2 AND status = $3`,
		domain.StatusAssigned, jobID, domain.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Warn("Failed to claim job - already claimed or not pending",
			slog.String("job_id", jobID),
			slog.String("translator_id", translatorID),
		)
		return nil, domain.ErrAlreadyClaimed
	}

	assignment := &domain.Assignment{
		ID:           uuid.New().String(),
		JobID:        jobID,
		TranslatorID: translatorID,
		AssignedAt:   time.Now(),
	}

	// A partial unique index on (job_id) WHERE canceled_at IS NULL AND
	// completed_at IS NULL backs up the status guard.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (assignment_id, job_id, translator_id, assigned_at)
		 VALUES ($1, $2, $3, $4)`,
		assignment.ID, assignment.JobID, assignment.TranslatorID, assignment.AssignedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	s.logger.Info("Job claimed successfully",
		slog.String("job_id", jobID),
		slog.String("translator_id", translatorID),
	)

	return assignment, nil
}

// Reassign cancels the current assignment (when there is one) and binds the
// new translator in the same transaction. History rows are never deleted.
func (s *Storage) Reassign(ctx context.Context, jobID, newTranslatorID string) (*domain.Assignment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reassign transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE assignments SET canceled_at = NOW()
		 WHERE job_id = $1 AND canceled_at IS NULL AND completed_at IS NULL`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel current assignment: %w", err)
	}

	assignment := &domain.Assignment{
		ID:           uuid.New().String(),
		JobID:        jobID,
		TranslatorID: newTranslatorID,
		AssignedAt:   time.Now(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (assignment_id, job_id, translator_id, assigned_at)
		 VALUES ($1, $2, $3, $4)`,
		assignment.ID, assignment.JobID, assignment.TranslatorID, assignment.AssignedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reassign: %w", err)
	}

	s.logger.Info("Job reassigned",
		slog.String("job_id", jobID),
		slog.String("translator_id", newTranslatorID),
	)

	return assignment, nil
}

// Release closes the current assignment: completed marks it done with the
// acting user recorded, everything else cancels it.
func (s *Storage) Release(ctx context.Context, jobID, translatorID string, cause domain.ReleaseCause, completedBy string) error {
	var query string
	var args []interface{}

	if cause == domain.ReleaseCompleted {
		query = `
			UPDATE assignments SET completed_at = NOW(), completed_by = $3
			WHERE job_id = $1 AND translator_id = $2
			  AND canceled_at IS NULL AND completed_at IS NULL
		`
		args = []interface{}{jobID, translatorID, completedBy}
	} else {
		query = `
			UPDATE assignments SET canceled_at = NOW()
			WHERE job_id = $1 AND translator_id = $2
			  AND canceled_at IS NULL AND completed_at IS NULL
		`
		args = []interface{}{jobID, translatorID}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to release assignment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNoCurrentAssignment
	}

	s.logger.Info("Assignment released",
		slog.String("job_id", jobID),
		slog.String("translator_id", translatorID),
		slog.String("cause", string(cause)),
	)

	return nil
}

// CancelOpenAssignments cancels whatever still binds the job, if anything.
// Used by reopen, where a missing assignment is not an error.
func (s *Storage) CancelOpenAssignments(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET canceled_at = NOW()
		 WHERE job_id = $1 AND canceled_at IS NULL AND completed_at IS NULL`,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel open assignments: %w", err)
	}
	return nil
}
