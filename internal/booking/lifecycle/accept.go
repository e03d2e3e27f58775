package lifecycle

import (
	"context"
	"log/slog"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
	"github.com/tolkline/booking-be/internal/booking/match"
)

// Accept is a translator's attempt to take a pending booking. Eligibility
// and the overlapping-booking check run first; the claim itself is a single
// atomic check-and-set in the store, so exactly one of N concurrent callers
// wins.
func (s *Service) Accept(ctx context.Context, cmd domain.AcceptCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	translator, err := s.translators.GetTranslator(ctx, cmd.TranslatorID)
	if err != nil {
		return nil, err
	}

	if ok, reason := match.Check(job, translator); !ok {
		return nil, domain.NewConflict(domain.ReasonIneligible, "translator is not eligible for this booking: "+reason)
	}

	booked, err := s.assignments.IsAlreadyBooked(ctx, translator.ID, job.Due)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, domain.NewConflict(domain.ReasonAlreadyBooked, "you already have a booking at this time")
	}

	if _, err := s.assignments.Claim(ctx, job.ID, translator.ID); err != nil {
		return nil, err
	}
	job.Status = domain.StatusAssigned

	s.logger.Info("Booking accepted",
		slog.String("job_id", job.ID),
		slog.String("translator_id", translator.ID))

	s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindJobAccepted, job))
	s.emit(ctx, domain.JobAssigned{JobID: job.ID, TranslatorID: translator.ID, At: s.clock.Now()})

	return job, nil
}
