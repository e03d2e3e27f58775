package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Reopen puts a booking back on the market. A non-timedout booking is reset
// in place; a timedout one is preserved for audit and a fresh copy is
// created, linked back through its admin comment. Either way any open
// assignment is released and the suitable-job push goes out again.
func (s *Service) Reopen(ctx context.Context, cmd domain.ReopenCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var reopened *domain.Job
	if job.Status == domain.StatusTimedOut {
		clone := *job
		clone.ID = uuid.New().String()
		clone.Status = domain.StatusPending
		clone.AdminComments = "This booking is a reopening of booking #" + job.ID
		clone.CreatedAt = now
		clone.UpdatedAt = now
		clone.WillExpireAt = domain.WillExpireAt(clone.Due, now)
		clone.ReminderEmailsSent = false
		clone.SessionTime = ""
		clone.WithdrawAt = nil
		clone.EndedAt = nil
		if err := s.jobs.CreateJob(ctx, &clone); err != nil {
			return nil, err
		}
		reopened = &clone
	} else {
		prev := job.Status
		job.Status = domain.StatusPending
		job.CreatedAt = now
		job.WillExpireAt = domain.WillExpireAt(job.Due, now)
		job.WithdrawAt = &now
		if err := s.jobs.UpdateJobGuarded(ctx, job, prev); err != nil {
			return nil, err
		}
		reopened = job
	}

	if err := s.assignments.CancelOpenAssignments(ctx, cmd.JobID); err != nil {
		return nil, err
	}

	s.logger.Info("Booking reopened",
		slog.String("job_id", cmd.JobID),
		slog.String("reopened_job_id", reopened.ID))

	s.notifyCandidates(ctx, reopened, dispatch.NewPayload(dispatch.KindSuitableJob, reopened), "")
	s.emit(ctx, domain.JobCanceled{JobID: cmd.JobID, ActorID: cmd.ActorID, Role: domain.RoleAdmin, Status: reopened.Status, At: now})

	return reopened, nil
}

// ExpirePending times out every pending booking whose acceptance window has
// closed and tells each customer. It is invoked on a timer by the dispatch
// worker and returns the number of bookings expired.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	expired, err := s.jobs.ExpirePending(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	for i := range expired {
		job := &expired[i]
		s.logger.Info("Booking expired",
			slog.String("job_id", job.ID),
			slog.Time("will_expire_at", job.WillExpireAt))
		s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindJobExpired, job))
	}
	return len(expired), nil
}

// SessionReminders pushes a session-start reminder to both parties of every
// assigned booking starting within lead, once per booking.
func (s *Service) SessionReminders(ctx context.Context, lead time.Duration) (int, error) {
	due, err := s.jobs.DueForReminder(ctx, s.clock.Now(), lead)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		job := &due[i]
		payload := dispatch.NewPayload(dispatch.KindSessionStartRemind, job)
		s.notifyCustomer(ctx, job, payload)
		s.notifyAssignedTranslator(ctx, job, payload)
		if err := s.jobs.MarkReminderSent(ctx, job.ID); err != nil {
			s.logger.Error("Failed to mark reminder sent",
				slog.String("job_id", job.ID),
				slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}
