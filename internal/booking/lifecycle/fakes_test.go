package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// fakeStore is an in-memory stand-in for the SQL store. Claim takes the same
// lock as every other mutation, so it is exactly as atomic as the real
// check-and-set.
type fakeStore struct {
	mu          sync.Mutex
	jobs        map[string]*domain.Job
	assignments map[string][]*domain.Assignment
	translators map[string]*domain.Translator
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:        make(map[string]*domain.Job),
		assignments: make(map[string][]*domain.Assignment),
		translators: make(map[string]*domain.Translator),
	}
}

func (f *fakeStore) CreateJob(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeStore) UpdateJobGuarded(_ context.Context, job *domain.Job, expect domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.jobs[job.ID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if stored.Status != expect {
		return domain.NewConflict(domain.ReasonGuardViolation, "job status changed concurrently")
	}
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeStore) ExpirePending(_ context.Context, now time.Time) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []domain.Job
	for _, job := range f.jobs {
		if job.Status == domain.StatusPending && !job.WillExpireAt.After(now) {
			job.Status = domain.StatusTimedOut
			expired = append(expired, *job)
		}
	}
	return expired, nil
}

func (f *fakeStore) DueForReminder(_ context.Context, now time.Time, lead time.Duration) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []domain.Job
	for _, job := range f.jobs {
		if job.Status == domain.StatusAssigned && !job.ReminderEmailsSent &&
			job.Due.After(now) && !job.Due.After(now.Add(lead)) {
			due = append(due, *job)
		}
	}
	return due, nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[jobID]; ok {
		job.ReminderEmailsSent = true
	}
	return nil
}

func (f *fakeStore) FindCurrent(_ context.Context, jobID string) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments[jobID] {
		if a.Current() {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) IsAlreadyBooked(_ context.Context, translatorID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for jobID, list := range f.assignments {
		for _, a := range list {
			if a.TranslatorID != translatorID || !a.Current() {
				continue
			}
			job := f.jobs[jobID]
			if job == nil {
				continue
			}
			end := job.Due.Add(time.Duration(job.Duration) * time.Minute)
			if !at.Before(job.Due) && at.Before(end) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeStore) Claim(_ context.Context, jobID, translatorID string) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if job.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyClaimed
	}
	job.Status = domain.StatusAssigned
	a := &domain.Assignment{
		ID:           uuid.New().String(),
		JobID:        jobID,
		TranslatorID: translatorID,
		AssignedAt:   time.Now(),
	}
	f.assignments[jobID] = append(f.assignments[jobID], a)
	copied := *a
	return &copied, nil
}

func (f *fakeStore) Reassign(_ context.Context, jobID, newTranslatorID string) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, a := range f.assignments[jobID] {
		if a.Current() {
			a.CanceledAt = &now
		}
	}
	a := &domain.Assignment{
		ID:           uuid.New().String(),
		JobID:        jobID,
		TranslatorID: newTranslatorID,
		AssignedAt:   now,
	}
	f.assignments[jobID] = append(f.assignments[jobID], a)
	copied := *a
	return &copied, nil
}

func (f *fakeStore) Release(_ context.Context, jobID, translatorID string, cause domain.ReleaseCause, completedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, a := range f.assignments[jobID] {
		if a.Current() && a.TranslatorID == translatorID {
			if cause == domain.ReleaseCompleted {
				a.CompletedAt = &now
				a.CompletedBy = completedBy
			} else {
				a.CanceledAt = &now
			}
			return nil
		}
	}
	return domain.ErrNoCurrentAssignment
}

func (f *fakeStore) CancelOpenAssignments(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, a := range f.assignments[jobID] {
		if a.Current() {
			a.CanceledAt = &now
		}
	}
	return nil
}

func (f *fakeStore) GetTranslator(_ context.Context, translatorID string) (*domain.Translator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr, ok := f.translators[translatorID]
	if !ok {
		return nil, domain.ErrTranslatorNotFound
	}
	copied := *tr
	return &copied, nil
}

func (f *fakeStore) ListCandidates(_ context.Context, job *domain.Job) ([]domain.Translator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Translator
	for _, tr := range f.translators {
		for _, l := range tr.Languages {
			if l == job.FromLanguageID {
				out = append(out, *tr)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) addTranslator(tr domain.Translator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := tr
	f.translators[tr.ID] = &copied
}

func (f *fakeStore) currentTranslator(jobID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments[jobID] {
		if a.Current() {
			return a.TranslatorID
		}
	}
	return ""
}

// sentBatch records one Notify call.
type sentBatch struct {
	Recipients []dispatch.Recipient
	Payload    dispatch.Payload
	Delayed    bool
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches []sentBatch
}

func (f *fakeNotifier) Notify(_ context.Context, recipients []dispatch.Recipient, payload dispatch.Payload, delayed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, sentBatch{Recipients: recipients, Payload: payload, Delayed: delayed})
	return nil
}

func (f *fakeNotifier) ofKind(kind dispatch.Kind) []sentBatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentBatch
	for _, b := range f.batches {
		if b.Payload.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeNotifier) recipientIDs(kind dispatch.Kind) []string {
	var out []string
	for _, b := range f.ofKind(kind) {
		for _, r := range b.Recipients {
			out = append(out, r.ID)
		}
	}
	return out
}

type fakeSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeSink) Publish(_ context.Context, e domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeSink) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

type fixedCalendar struct {
	night bool
	open  time.Time
}

func (c fixedCalendar) IsNightHours(time.Time) bool             { return c.night }
func (c fixedCalendar) NextBusinessInstant(time.Time) time.Time { return c.open }

// env bundles a Service with its fakes for a test.
type env struct {
	svc      *Service
	store    *fakeStore
	notifier *fakeNotifier
	sink     *fakeSink
	clock    *fixedClock
}

func newEnv(now time.Time, night bool) *env {
	st := newFakeStore()
	n := &fakeNotifier{}
	sink := &fakeSink{}
	clock := &fixedClock{t: now}
	svc := New(&Config{
		Logger:      slog.New(slog.DiscardHandler),
		Jobs:        st,
		Assignments: st,
		Translators: st,
		Notifier:    n,
		Events:      sink,
		Clock:       clock,
		Calendar:    fixedCalendar{night: night, open: now.Add(8 * time.Hour)},
	})
	return &env{svc: svc, store: st, notifier: n, sink: sink, clock: clock}
}
