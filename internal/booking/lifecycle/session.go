package lifecycle

import (
	"context"
	"log/slog"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Start marks an assigned session as in progress.
func (s *Service) Start(ctx context.Context, cmd domain.StartCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusAssigned {
		return nil, guardViolation(job.Status, domain.StatusStarted)
	}

	job.Status = domain.StatusStarted
	if err := s.jobs.UpdateJobGuarded(ctx, job, domain.StatusAssigned); err != nil {
		return nil, err
	}

	s.logger.Info("Session started", slog.String("job_id", job.ID))
	return job, nil
}

// End completes a started session. The stored session time is the interval
// between the scheduled due time and the completion instant. The customer
// receives an invoice-framed notice and the translator a payroll-framed one,
// both carrying the same interval.
func (s *Service) End(ctx context.Context, cmd domain.EndCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusStarted {
		// Ending an already-completed session is a no-op, not an error.
		return job, nil
	}

	now := s.clock.Now()
	job.Status = domain.StatusCompleted
	job.SessionTime = domain.SessionInterval(job.Due, now)
	job.EndedAt = &now
	if err := s.jobs.UpdateJobGuarded(ctx, job, domain.StatusStarted); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.FindCurrent(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		if err := s.assignments.Release(ctx, job.ID, assignment.TranslatorID, domain.ReleaseCompleted, cmd.ActorID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Session completed",
		slog.String("job_id", job.ID),
		slog.String("session_time", job.SessionTime))

	payload := dispatch.NewPayload(dispatch.KindSessionEnded, job)
	payload.SessionTime = job.SessionTime

	customerNotice := payload
	customerNotice.Framing = dispatch.FramingInvoice
	s.notifyCustomer(ctx, job, customerNotice)

	if assignment != nil {
		if translator, terr := s.translators.GetTranslator(ctx, assignment.TranslatorID); terr == nil {
			translatorNotice := payload
			translatorNotice.Framing = dispatch.FramingPayroll
			s.notifyTranslator(ctx, translator, translatorNotice)
		} else {
			s.logger.Error("Failed to load translator for completion notice",
				slog.String("job_id", job.ID),
				slog.Any("error", terr))
		}
	}

	s.emit(ctx, domain.SessionEnded{JobID: job.ID, SessionTime: job.SessionTime, CompletedBy: cmd.ActorID, At: now})
	return job, nil
}

// CustomerNotCall closes a started session where the customer never showed
// up. The translator is released without the billing notices a normal
// completion sends.
func (s *Service) CustomerNotCall(ctx context.Context, cmd domain.CustomerNotCallCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusStarted {
		return nil, guardViolation(job.Status, domain.StatusNotCarriedOutCustomer)
	}

	// Resolve the assignment before the terminal flip so a wrong translator
	// id cannot leave the job closed with the real assignment still current.
	current, err := s.assignments.FindCurrent(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if current != nil && cmd.TranslatorID != "" && current.TranslatorID != cmd.TranslatorID {
		return nil, domain.NewConflict(domain.ReasonNotAssigned,
			"booking is held by another translator")
	}

	now := s.clock.Now()
	job.Status = domain.StatusNotCarriedOutCustomer
	job.EndedAt = &now
	if err := s.jobs.UpdateJobGuarded(ctx, job, domain.StatusStarted); err != nil {
		return nil, err
	}

	if current != nil {
		if err := s.assignments.Release(ctx, job.ID, current.TranslatorID, domain.ReleaseCompleted, cmd.TranslatorID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Session closed as customer no-show", slog.String("job_id", job.ID))
	return job, nil
}
