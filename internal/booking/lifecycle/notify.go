package lifecycle

import (
	"context"
	"log/slog"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
	"github.com/tolkline/booking-be/internal/booking/match"
)

// notifyCandidates fans a push out to every eligible translator, split into
// an immediate and a night-delayed batch. excludeID removes the translator
// who triggered the transition from the audience. Delivery failures are
// logged and never fail the transition.
func (s *Service) notifyCandidates(ctx context.Context, job *domain.Job, payload dispatch.Payload, excludeID string) {
	candidates, err := s.translators.ListCandidates(ctx, job)
	if err != nil {
		s.logger.Error("Failed to list candidate translators",
			slog.String("job_id", job.ID),
			slog.Any("error", err))
		return
	}

	if excludeID != "" {
		kept := candidates[:0]
		for _, t := range candidates {
			if t.ID != excludeID {
				kept = append(kept, t)
			}
		}
		candidates = kept
	}

	night := s.calendar.IsNightHours(s.clock.Now())
	batch := match.Partition(job, candidates, night)
	if batch.Empty() {
		s.logger.Info("No eligible translators for booking",
			slog.String("job_id", job.ID),
			slog.String("from_language_id", job.FromLanguageID))
		return
	}

	if len(batch.Now) > 0 {
		s.send(ctx, translatorRecipients(batch.Now), payload, false)
	}
	if len(batch.Delayed) > 0 {
		s.send(ctx, translatorRecipients(batch.Delayed), payload, true)
	}
}

// notifyTranslator pushes to a single translator, honoring the opt-out and
// night-delay profile flags.
func (s *Service) notifyTranslator(ctx context.Context, t *domain.Translator, payload dispatch.Payload) {
	if t.NotGetNotification {
		return
	}
	delayed := t.NotGetNighttime && s.calendar.IsNightHours(s.clock.Now())
	s.send(ctx, []dispatch.Recipient{dispatch.TranslatorRecipient(t)}, payload, delayed)
}

// notifyCustomer pushes to the booking's customer. Customers carry no
// opt-out profile, so the push is always immediate.
func (s *Service) notifyCustomer(ctx context.Context, job *domain.Job, payload dispatch.Payload) {
	s.send(ctx, []dispatch.Recipient{dispatch.CustomerRecipient(job)}, payload, false)
}

func (s *Service) send(ctx context.Context, recipients []dispatch.Recipient, payload dispatch.Payload, delayed bool) {
	if err := s.notifier.Notify(ctx, recipients, payload, delayed); err != nil {
		s.logger.Error("Failed to dispatch notification",
			slog.String("notification_type", string(payload.Kind)),
			slog.String("job_id", payload.JobID),
			slog.Any("error", err))
	}
}

func (s *Service) emit(ctx context.Context, event domain.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			slog.String("event", event.EventName()),
			slog.Any("error", err))
	}
}

func translatorRecipients(translators []domain.Translator) []dispatch.Recipient {
	recipients := make([]dispatch.Recipient, 0, len(translators))
	for i := range translators {
		recipients = append(recipients, dispatch.TranslatorRecipient(&translators[i]))
	}
	return recipients
}
