package lifecycle

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Create validates a booking request, persists it as pending and fans the
// suitable-job push out to eligible translators.
func (s *Service) Create(ctx context.Context, cmd domain.CreateCommand) (*domain.Job, error) {
	now := s.clock.Now()

	if cmd.FromLanguageID == "" {
		return nil, domain.NewValidationError(domain.ReasonMissingField, "from_language_id", "you must fill in all fields")
	}
	if cmd.Duration <= 0 {
		return nil, domain.NewValidationError(domain.ReasonMissingField, "duration", "you must fill in all fields")
	}

	due := cmd.Due
	phoneAllowed := cmd.CustomerPhoneAllowed
	if cmd.Immediate {
		// Immediate bookings start shortly and are always phone sessions.
		due = now.Add(domain.ImmediateLeadTime)
		phoneAllowed = true
	} else {
		if due.IsZero() {
			return nil, domain.NewValidationError(domain.ReasonMissingField, "due", "you must fill in all fields")
		}
		if !due.After(now) {
			return nil, domain.NewValidationError(domain.ReasonDueInPast, "due", "can't create booking in the past")
		}
		if !cmd.CustomerPhoneAllowed && !cmd.CustomerPhysicalAllowed {
			return nil, domain.NewValidationError(domain.ReasonMissingField, "customer_phone_type", "you must make a selection for phone or on-site")
		}
	}

	job := &domain.Job{
		ID:                      uuid.New().String(),
		CustomerID:              cmd.CustomerID,
		CustomerEmail:           cmd.CustomerEmail,
		FromLanguageID:          cmd.FromLanguageID,
		Gender:                  cmd.Gender,
		Certified:               cmd.Certified,
		JobType:                 domain.JobTypeForConsumer(cmd.ConsumerType),
		Immediate:               cmd.Immediate,
		Due:                     due,
		Duration:                cmd.Duration,
		Status:                  domain.StatusPending,
		CustomerPhoneAllowed:    phoneAllowed,
		CustomerPhysicalAllowed: cmd.CustomerPhysicalAllowed,
		Town:                    cmd.Town,
		Reference:               cmd.Reference,
		CreatedAt:               now,
		UpdatedAt:               now,
		WillExpireAt:            domain.WillExpireAt(due, now),
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		slog.String("job_id", job.ID),
		slog.String("from_language_id", job.FromLanguageID),
		slog.Bool("immediate", job.Immediate),
		slog.Time("due", job.Due))

	s.emit(ctx, domain.JobCreated{JobID: job.ID, CustomerID: job.CustomerID, Immediate: job.Immediate, Due: job.Due, At: now})
	s.notifyCandidates(ctx, job, dispatch.NewPayload(dispatch.KindSuitableJob, job), "")

	return job, nil
}
