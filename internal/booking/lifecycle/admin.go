package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// AdminEdit applies the bundled admin update. Translator, due time, language
// and status are diffed independently; each dimension that actually changed
// triggers its own notification after the row is persisted. Status changes
// dispatch on the booking's current status and enforce the target-specific
// guards.
func (s *Service) AdminEdit(ctx context.Context, cmd domain.AdminEditCommand) (*domain.Job, error) {
	job, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	prev := job.Status

	current, err := s.assignments.FindCurrent(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	translatorChanged := false
	oldTranslatorID := ""
	if cmd.TranslatorID != "" && (current == nil || current.TranslatorID != cmd.TranslatorID) {
		if _, err := s.translators.GetTranslator(ctx, cmd.TranslatorID); err != nil {
			return nil, err
		}
		if current != nil {
			oldTranslatorID = current.TranslatorID
		}
		translatorChanged = true
	}

	dueChanged := false
	var oldDue time.Time
	if !cmd.Due.IsZero() && !cmd.Due.Equal(job.Due) {
		oldDue = job.Due
		job.Due = cmd.Due
		dueChanged = true
	}

	languageChanged := false
	oldLanguageID := ""
	if cmd.FromLanguageID != "" && cmd.FromLanguageID != job.FromLanguageID {
		oldLanguageID = job.FromLanguageID
		job.FromLanguageID = cmd.FromLanguageID
		languageChanged = true
	}

	// Post-commit notification work collected by the status branch.
	var after []func(context.Context)
	if cmd.Status != "" && cmd.Status != job.Status {
		after, err = s.applyAdminStatus(ctx, job, cmd, now, translatorChanged)
		if err != nil {
			return nil, err
		}
	}

	// The reassign waits for the status guards so a rejected edit leaves the
	// current assignment untouched.
	if translatorChanged {
		if _, err := s.assignments.Reassign(ctx, job.ID, cmd.TranslatorID); err != nil {
			return nil, err
		}
	}

	job.AdminComments = cmd.AdminComments
	if cmd.Reference != "" {
		job.Reference = cmd.Reference
	}

	if err := s.jobs.UpdateJobGuarded(ctx, job, prev); err != nil {
		return nil, err
	}

	s.logger.Info("Booking updated by admin",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
		slog.Bool("translator_changed", translatorChanged),
		slog.Bool("due_changed", dueChanged),
		slog.Bool("language_changed", languageChanged))

	for _, fn := range after {
		fn(ctx)
	}

	// Change notices only matter for bookings that have not happened yet.
	if job.Due.After(now) {
		if dueChanged {
			payload := dispatch.NewPayload(dispatch.KindChangedDate, job)
			payload.OldDue = &oldDue
			s.notifyParties(ctx, job, payload)
		}
		if languageChanged {
			payload := dispatch.NewPayload(dispatch.KindChangedLanguage, job)
			payload.OldLanguageID = oldLanguageID
			s.notifyParties(ctx, job, payload)
		}
		if translatorChanged {
			payload := dispatch.NewPayload(dispatch.KindChangedTranslator, job)
			payload.OldTranslator = oldTranslatorID
			s.notifyCustomer(ctx, job, payload)
			s.notifyAssignedTranslator(ctx, job, payload)
			if oldTranslatorID != "" {
				if old, terr := s.translators.GetTranslator(ctx, oldTranslatorID); terr == nil {
					s.notifyTranslator(ctx, old, dispatch.NewPayload(dispatch.KindJobCancelled, job))
				}
			}
		}
	}

	return job, nil
}

// applyAdminStatus mutates the job for an admin-forced status change and
// returns the notifications to send once the row is saved. It dispatches on
// the booking's current status.
func (s *Service) applyAdminStatus(ctx context.Context, job *domain.Job, cmd domain.AdminEditCommand, now time.Time, translatorChanged bool) ([]func(context.Context), error) {
	from := job.Status
	to := cmd.Status
	if !to.Valid() {
		return nil, domain.NewValidationError(domain.ReasonMissingField, "status", "unknown status "+string(to))
	}

	switch from {
	case domain.StatusTimedOut:
		switch to {
		case domain.StatusPending:
			job.Status = domain.StatusPending
			job.CreatedAt = now
			job.WillExpireAt = domain.WillExpireAt(job.Due, now)
			job.ReminderEmailsSent = false
			return []func(context.Context){func(ctx context.Context) {
				s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindSuitableJob, job))
				s.notifyCandidates(ctx, job, dispatch.NewPayload(dispatch.KindSuitableJob, job), "")
			}}, nil
		case domain.StatusAssigned:
			if !translatorChanged {
				return nil, guardViolation(from, to)
			}
			job.Status = domain.StatusAssigned
			return []func(context.Context){func(ctx context.Context) {
				s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindJobAccepted, job))
				s.notifyAssignedTranslator(ctx, job, dispatch.NewPayload(dispatch.KindJobAccepted, job))
			}}, nil
		default:
			return nil, guardViolation(from, to)
		}

	case domain.StatusPending:
		switch to {
		case domain.StatusAssigned:
			if !translatorChanged {
				return nil, guardViolation(from, to)
			}
			job.Status = domain.StatusAssigned
			return []func(context.Context){func(ctx context.Context) {
				s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindJobAccepted, job))
				s.notifyAssignedTranslator(ctx, job, dispatch.NewPayload(dispatch.KindJobAccepted, job))
				remind := dispatch.NewPayload(dispatch.KindSessionStartRemind, job)
				s.notifyCustomer(ctx, job, remind)
				s.notifyAssignedTranslator(ctx, job, remind)
			}}, nil
		case domain.StatusTimedOut:
			if cmd.AdminComments == "" {
				return nil, missingAdminComment()
			}
			job.Status = domain.StatusTimedOut
			return nil, nil
		case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24:
			job.Status = to
			job.WithdrawAt = &now
			return []func(context.Context){func(ctx context.Context) {
				s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindJobCancelled, job))
			}}, nil
		default:
			return nil, guardViolation(from, to)
		}

	case domain.StatusAssigned:
		switch to {
		case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut:
			if to == domain.StatusTimedOut && cmd.AdminComments == "" {
				return nil, missingAdminComment()
			}
			job.Status = to
			if to != domain.StatusTimedOut {
				job.WithdrawAt = &now
			}
			return []func(context.Context){func(ctx context.Context) {
				s.notifyCustomer(ctx, job, dispatch.NewPayload(dispatch.KindJobCancelled, job))
				s.notifyAssignedTranslator(ctx, job, dispatch.NewPayload(dispatch.KindJobCancelled, job))
				if err := s.assignments.CancelOpenAssignments(ctx, job.ID); err != nil {
					s.logger.Error("Failed to release assignment on admin cancel",
						slog.String("job_id", job.ID),
						slog.Any("error", err))
				}
			}}, nil
		default:
			return nil, guardViolation(from, to)
		}

	case domain.StatusStarted:
		if cmd.AdminComments == "" {
			return nil, missingAdminComment()
		}
		switch to {
		case domain.StatusCompleted:
			if cmd.SessionTime == "" {
				return nil, domain.NewValidationError(domain.ReasonMissingSessionTime, "session_time", "session time is required to complete a booking")
			}
			job.Status = domain.StatusCompleted
			job.SessionTime = cmd.SessionTime
			job.EndedAt = &now
			return []func(context.Context){func(ctx context.Context) {
				payload := dispatch.NewPayload(dispatch.KindSessionEnded, job)
				payload.SessionTime = job.SessionTime
				customerNotice := payload
				customerNotice.Framing = dispatch.FramingInvoice
				s.notifyCustomer(ctx, job, customerNotice)
				translatorNotice := payload
				translatorNotice.Framing = dispatch.FramingPayroll
				s.notifyAssignedTranslator(ctx, job, translatorNotice)
				if err := s.assignments.CancelOpenAssignments(ctx, job.ID); err != nil {
					s.logger.Error("Failed to close assignment on admin completion",
						slog.String("job_id", job.ID),
						slog.Any("error", err))
				}
			}}, nil
		case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut:
			job.Status = to
			if to != domain.StatusTimedOut {
				job.WithdrawAt = &now
			}
			return nil, nil
		default:
			return nil, guardViolation(from, to)
		}

	case domain.StatusCompleted:
		if to != domain.StatusTimedOut {
			return nil, guardViolation(from, to)
		}
		if cmd.AdminComments == "" {
			return nil, missingAdminComment()
		}
		job.Status = domain.StatusTimedOut
		return nil, nil

	case domain.StatusWithdrawAfter24:
		if to != domain.StatusTimedOut {
			return nil, guardViolation(from, to)
		}
		if cmd.AdminComments == "" {
			return nil, missingAdminComment()
		}
		job.Status = domain.StatusTimedOut
		return nil, nil

	default:
		return nil, guardViolation(from, to)
	}
}

// notifyAssignedTranslator pushes to whoever currently holds the job, if
// anyone does.
func (s *Service) notifyAssignedTranslator(ctx context.Context, job *domain.Job, payload dispatch.Payload) {
	assignment, err := s.assignments.FindCurrent(ctx, job.ID)
	if err != nil || assignment == nil {
		return
	}
	translator, err := s.translators.GetTranslator(ctx, assignment.TranslatorID)
	if err != nil {
		s.logger.Error("Failed to load assigned translator",
			slog.String("job_id", job.ID),
			slog.Any("error", err))
		return
	}
	s.notifyTranslator(ctx, translator, payload)
}

// notifyParties pushes the same payload to the customer and the current
// translator.
func (s *Service) notifyParties(ctx context.Context, job *domain.Job, payload dispatch.Payload) {
	s.notifyCustomer(ctx, job, payload)
	s.notifyAssignedTranslator(ctx, job, payload)
}

func missingAdminComment() *domain.Error {
	return domain.NewValidationError(domain.ReasonMissingAdminComment, "admin_comments",
		"please add a comment explaining why the booking timed out")
}
