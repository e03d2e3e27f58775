// Package store owns the authoritative booking state in PostgreSQL: jobs,
// assignments and translator profiles. The claim operation lives here and is
// the only place that needs real atomicity.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tolkline/booking-be/internal/booking/domain"
	"github.com/tolkline/booking-be/shared/postgresql"
)

// Storage handles all database operations for the booking core.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

type jobRow struct {
	JobID                string         `db:"job_id"`
	CustomerID           string         `db:"customer_id"`
	CustomerEmail        string         `db:"customer_email"`
	FromLanguageID       string         `db:"from_language_id"`
	Gender               string         `db:"gender"`
	Certified            string         `db:"certified"`
	JobType              string         `db:"job_type"`
	Immediate            bool           `db:"immediate"`
	Due                  time.Time      `db:"due"`
	Duration             int            `db:"duration"`
	Status               string         `db:"status"`
	CustomerPhoneType    bool           `db:"customer_phone_type"`
	CustomerPhysicalType bool           `db:"customer_physical_type"`
	Town                 string         `db:"town"`
	AdminComments        sql.NullString `db:"admin_comments"`
	Reference            sql.NullString `db:"reference"`
	SessionTime          sql.NullString `db:"session_time"`
	WithdrawAt           sql.NullTime   `db:"withdraw_at"`
	EndedAt              sql.NullTime   `db:"ended_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	WillExpireAt         time.Time      `db:"will_expire_at"`
	ReminderEmailsSent   bool           `db:"reminder_emails_sent"`
}

func (r *jobRow) toDomain() *domain.Job {
	job := &domain.Job{
		ID:                      r.JobID,
		CustomerID:              r.CustomerID,
		CustomerEmail:           r.CustomerEmail,
		FromLanguageID:          r.FromLanguageID,
		Gender:                  domain.Gender(r.Gender),
		Certified:               domain.Certification(r.Certified),
		JobType:                 domain.JobType(r.JobType),
		Immediate:               r.Immediate,
		Due:                     r.Due,
		Duration:                r.Duration,
		Status:                  domain.Status(r.Status),
		CustomerPhoneAllowed:    r.CustomerPhoneType,
		CustomerPhysicalAllowed: r.CustomerPhysicalType,
		Town:                    r.Town,
		AdminComments:           r.AdminComments.String,
		Reference:               r.Reference.String,
		SessionTime:             r.SessionTime.String,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
		WillExpireAt:            r.WillExpireAt,
		ReminderEmailsSent:      r.ReminderEmailsSent,
	}
	if r.WithdrawAt.Valid {
		t := r.WithdrawAt.Time
		job.WithdrawAt = &t
	}
	if r.EndedAt.Valid {
		t := r.EndedAt.Time
		job.EndedAt = &t
	}
	return job
}

const jobColumns = `
	job_id, customer_id, customer_email, from_language_id, gender, certified,
	job_type, immediate, due, duration, status, customer_phone_type,
	customer_physical_type, town, admin_comments, reference, session_time,
	withdraw_at, ended_at, created_at, updated_at, will_expire_at,
	reminder_emails_sent
`

// CreateJob inserts a new booking.
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (
			:job_id, :customer_id, :customer_email, :from_language_id, :gender,
			:certified, :job_type, :immediate, :due, :duration, :status,
			:customer_phone_type, :customer_physical_type, :town,
			:admin_comments, :reference, :session_time, :withdraw_at,
			:ended_at, :created_at, :updated_at, :will_expire_at,
			:reminder_emails_sent
		)
	`

	_, err := s.db.NamedExecContext(ctx, query, toRow(job))
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob retrieves a booking by its ID.
func (s *Storage) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	var row jobRow
	err := s.db.GetContext(ctx, &row, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain(), nil
}

// UpdateJobGuarded writes the job's mutable fields, but only while the stored
// status still matches expect. Zero rows affected means another actor got
// there first; the caller observes a conflict and nothing was mutated.
func (s *Storage) UpdateJobGuarded(ctx context.Context, job *domain.Job, expect domain.Status) error {
	query := `
		UPDATE jobs SET
			from_language_id = :from_language_id,
			gender = :gender,
			certified = :certified,
			due = :due,
			duration = :duration,
			status = :status,
			town = :town,
			admin_comments = :admin_comments,
			reference = :reference,
			session_time = :session_time,
			withdraw_at = :withdraw_at,
			ended_at = :ended_at,
			created_at = :created_at,
			updated_at = NOW(),
			will_expire_at = :will_expire_at,
			reminder_emails_sent = :reminder_emails_sent
		WHERE job_id = :job_id AND status = :expect_status
	`

	args := toRow(job)
	args["expect_status"] = string(expect)

	res, err := s.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Warn("Guarded job update lost the race",
			slog.String("job_id", job.ID),
			slog.String("expected_status", string(expect)),
		)
		return domain.NewConflict(domain.ReasonGuardViolation, "job status changed concurrently")
	}

	return nil
}

// ExpirePending moves pending jobs past their expiry window into timedout and
// returns them so the sweep can notify customers. One statement, so two
// concurrent sweeps never expire the same job twice.
func (s *Storage) ExpirePending(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND will_expire_at <= $3
		RETURNING ` + jobColumns

	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows, query, domain.StatusTimedOut, domain.StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire pending jobs: %w", err)
	}

	jobs := make([]domain.Job, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].toDomain()
	}

	return jobs, nil
}

// DueForReminder returns assigned bookings starting within lead of now whose
// reminder has not gone out yet.
func (s *Storage) DueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		  AND reminder_emails_sent = FALSE
		  AND due > $2
		  AND due <= $3
		ORDER BY due ASC
	`

	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows, query, domain.StatusAssigned, now, now.Add(lead))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs due for reminder: %w", err)
	}

	jobs := make([]domain.Job, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].toDomain()
	}

	return jobs, nil
}

// MarkReminderSent flags a booking so the reminder sweep skips it next time.
func (s *Storage) MarkReminderSent(ctx context.Context, jobID string) error {
	query := `UPDATE jobs SET reminder_emails_sent = TRUE, updated_at = NOW() WHERE job_id = $1`
	if _, err := s.db.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// JobFilter narrows a booking listing.
type JobFilter struct {
	CustomerID     string
	Status         string
	FromLanguageID string
	PageSize       int
	Cursor         *JobCursor
}

// JobCursor is an opaque keyset position in (created_at, job_id) order.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// ListJobs returns bookings matching the filter, newest first, fetching one
// row beyond the page size so the caller can tell whether more remain.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.CustomerID != "" {
		query += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.FromLanguageID != "" {
		query += fmt.Sprintf(" AND from_language_id = $%d", argIdx)
		args = append(args, filter.FromLanguageID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]domain.Job, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].toDomain()
	}

	return jobs, nil
}

func toRow(job *domain.Job) map[string]interface{} {
	args := map[string]interface{}{
		"job_id":                 job.ID,
		"customer_id":            job.CustomerID,
		"customer_email":         job.CustomerEmail,
		"from_language_id":       job.FromLanguageID,
		"gender":                 string(job.Gender),
		"certified":              string(job.Certified),
		"job_type":               string(job.JobType),
		"immediate":              job.Immediate,
		"due":                    job.Due,
		"duration":               job.Duration,
		"status":                 string(job.Status),
		"customer_phone_type":    job.CustomerPhoneAllowed,
		"customer_physical_type": job.CustomerPhysicalAllowed,
		"town":                   job.Town,
		"admin_comments":         nullString(job.AdminComments),
		"reference":              nullString(job.Reference),
		"session_time":           nullString(job.SessionTime),
		"withdraw_at":            nullTime(job.WithdrawAt),
		"ended_at":               nullTime(job.EndedAt),
		"created_at":             job.CreatedAt,
		"updated_at":             job.UpdatedAt,
		"will_expire_at":         job.WillExpireAt,
		"reminder_emails_sent":   job.ReminderEmailsSent,
	}
	return args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
