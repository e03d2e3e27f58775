// Package lifecycle is the booking state machine: it validates and applies
// every status transition, consulting the match rules and the assignment
// store, and fans out notification batches after each commit.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// JobStore persists bookings.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	UpdateJobGuarded(ctx context.Context, job *domain.Job, expect domain.Status) error
	ExpirePending(ctx context.Context, now time.Time) ([]domain.Job, error)
	DueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]domain.Job, error)
	MarkReminderSent(ctx context.Context, jobID string) error
}

// AssignmentStore owns the job-translator binding, including the atomic
// claim.
type AssignmentStore interface {
	FindCurrent(ctx context.Context, jobID string) (*domain.Assignment, error)
	IsAlreadyBooked(ctx context.Context, translatorID string, at time.Time) (bool, error)
	Claim(ctx context.Context, jobID, translatorID string) (*domain.Assignment, error)
	Reassign(ctx context.Context, jobID, newTranslatorID string) (*domain.Assignment, error)
	Release(ctx context.Context, jobID, translatorID string, cause domain.ReleaseCause, completedBy string) error
	CancelOpenAssignments(ctx context.Context, jobID string) error
}

// TranslatorDirectory reads translator profiles.
type TranslatorDirectory interface {
	GetTranslator(ctx context.Context, translatorID string) (*domain.Translator, error)
	ListCandidates(ctx context.Context, job *domain.Job) ([]domain.Translator, error)
}

// Config holds the collaborators a Service needs.
type Config struct {
	Logger      *slog.Logger
	Jobs        JobStore
	Assignments AssignmentStore
	Translators TranslatorDirectory
	Notifier    dispatch.Notifier
	Events      dispatch.EventSink
	Clock       dispatch.Clock
	Calendar    dispatch.Calendar
}

// Service is the booking lifecycle state machine.
type Service struct {
	logger      *slog.Logger
	jobs        JobStore
	assignments AssignmentStore
	translators TranslatorDirectory
	notifier    dispatch.Notifier
	events      dispatch.EventSink
	clock       dispatch.Clock
	calendar    dispatch.Calendar
}

// New creates a Service instance.
func New(cfg *Config) *Service {
	return &Service{
		logger:      cfg.Logger,
		jobs:        cfg.Jobs,
		assignments: cfg.Assignments,
		translators: cfg.Translators,
		notifier:    cfg.Notifier,
		events:      cfg.Events,
		clock:       cfg.Clock,
		calendar:    cfg.Calendar,
	}
}

// Get returns a booking together with its current assignment, if any.
func (s *Service) Get(ctx context.Context, jobID string) (*domain.Job, *domain.Assignment, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.assignments.FindCurrent(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, assignment, nil
}

func guardViolation(from domain.Status, to domain.Status) *domain.Error {
	return domain.NewConflict(domain.ReasonGuardViolation,
		"transition from "+string(from)+" to "+string(to)+" is not allowed")
}
