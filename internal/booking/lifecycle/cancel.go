package lifecycle

import (
	"context"
	"log/slog"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Cancel withdraws a booking. Customers may always withdraw; the resulting
// status records whether they were inside the 24h billing window. A
// translator cancellation more than 24h out returns the job to the market;
// inside the window it is rejected and must go through support.
func (s *Service) Cancel(ctx context.Context, cmd domain.CancelCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}

	switch cmd.Role {
	case domain.RoleCustomer:
		return s.cancelByCustomer(ctx, job, cmd)
	case domain.RoleTranslator:
		return s.cancelByTranslator(ctx, job, cmd)
	default:
		return nil, domain.NewValidationError(domain.ReasonMissingField, "role", "unknown canceling role")
	}
}

func (s *Service) cancelByCustomer(ctx context.Context, job *domain.Job, cmd domain.CancelCommand) (*domain.Job, error) {
	switch job.Status {
	case domain.StatusPending, domain.StatusAssigned, domain.StatusStarted:
	default:
		return nil, guardViolation(job.Status, domain.StatusWithdrawBefore24)
	}

	now := s.clock.Now()
	prev := job.Status
	target := domain.StatusWithdrawAfter24
	if job.Due.Sub(now) >= domain.CancelCutoff {
		target = domain.StatusWithdrawBefore24
	}
	job.Status = target
	job.WithdrawAt = &now
	if err := s.jobs.UpdateJobGuarded(ctx, job, prev); err != nil {
		return nil, err
	}

	s.logger.Info("Booking withdrawn by customer",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)))

	assignment, err := s.assignments.FindCurrent(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		if err := s.assignments.Release(ctx, job.ID, assignment.TranslatorID, domain.ReleaseWithdrawn, ""); err != nil {
			return nil, err
		}
		if translator, terr := s.translators.GetTranslator(ctx, assignment.TranslatorID); terr == nil {
			s.notifyTranslator(ctx, translator, dispatch.NewPayload(dispatch.KindJobCancelled, job))
		} else {
			s.logger.Error("Failed to load translator for cancellation notice",
				slog.String("job_id", job.ID),
				slog.Any("error", terr))
		}
	}

	s.emit(ctx, domain.JobCanceled{JobID: job.ID, ActorID: cmd.ActorID, Role: domain.RoleCustomer, Status: job.Status, At: now})
	return job, nil
}

func (s *Service) cancelByTranslator(ctx context.Context, job *domain.Job, cmd domain.CancelCommand) (*domain.Job, error) {
	switch job.Status {
	case domain.StatusAssigned, domain.StatusStarted:
	default:
		return nil, guardViolation(job.Status, domain.StatusPending)
	}

	now := s.clock.Now()
	if job.Due.Sub(now) <= domain.CancelCutoff {
		return nil, domain.NewConflict(domain.ReasonCancelWithin24,
			"you can not cancel a booking less than 24 hours before it starts, please call the office")
	}

	// The actor must hold the current assignment before anything is touched;
	// otherwise the real translator's assignment would survive the re-listing.
	current, err := s.assignments.FindCurrent(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNoCurrentAssignment
	}
	if current.TranslatorID != cmd.ActorID {
		return nil, domain.NewConflict(domain.ReasonNotAssigned,
			"booking is held by another translator")
	}

	s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindSearchingReplace, job))

	prev := job.Status
	job.Status = domain.StatusPending
	// Re-listing resets the expiry window as if freshly created.
	job.CreatedAt = now
	job.WillExpireAt = domain.WillExpireAt(job.Due, now)
	if err := s.jobs.UpdateJobGuarded(ctx, job, prev); err != nil {
		return nil, err
	}
	if err := s.assignments.Release(ctx, job.ID, current.TranslatorID, domain.ReleaseWithdrawn, ""); err != nil {
		return nil, err
	}

	s.logger.Info("Booking returned to market by translator",
		slog.String("job_id", job.ID),
		slog.String("translator_id", cmd.ActorID))

	s.notifyCandidates(ctx, job, dispatch.NewPayload(dispatch.KindSuitableJob, job), cmd.ActorID)
	s.emit(ctx, domain.JobCanceled{JobID: job.ID, ActorID: cmd.ActorID, Role: domain.RoleTranslator, Status: job.Status, At: now})
	return job, nil
}
