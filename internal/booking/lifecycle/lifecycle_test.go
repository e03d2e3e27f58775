package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/booking/domain"
)

var testNow = time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)

func eligibleTranslator(id string) domain.Translator {
	return domain.Translator{
		ID:        id,
		Email:     id + "@translators.example",
		Type:      domain.TranslatorProfessional,
		Gender:    domain.GenderFemale,
		Town:      "Stockholm",
		Languages: []string{"lang-fr"},
		Levels:    []domain.Level{domain.LevelCertified},
	}
}

func seedJob(e *env, id string, status domain.Status, due time.Time) *domain.Job {
	job := &domain.Job{
		ID:                   id,
		CustomerID:           "cust-1",
		CustomerEmail:        "cust-1@customers.example",
		FromLanguageID:       "lang-fr",
		JobType:              domain.JobTypePaid,
		Due:                  due,
		Duration:             60,
		Status:               status,
		CustomerPhoneAllowed: true,
		CreatedAt:            testNow.Add(-time.Hour),
		WillExpireAt:         due.Add(-48 * time.Hour),
	}
	_ = e.store.CreateJob(context.Background(), job)
	return job
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CreateCommand)
		field  string
		reason string
	}{
		{
			name:   "missing language",
			mutate: func(c *domain.CreateCommand) { c.FromLanguageID = "" },
			field:  "from_language_id",
			reason: domain.ReasonMissingField,
		},
		{
			name:   "missing duration",
			mutate: func(c *domain.CreateCommand) { c.Duration = 0 },
			field:  "duration",
			reason: domain.ReasonMissingField,
		},
		{
			name:   "scheduled without due",
			mutate: func(c *domain.CreateCommand) { c.Due = time.Time{} },
			field:  "due",
			reason: domain.ReasonMissingField,
		},
		{
			name:   "due in the past",
			mutate: func(c *domain.CreateCommand) { c.Due = testNow.Add(-time.Hour) },
			field:  "due",
			reason: domain.ReasonDueInPast,
		},
		{
			name: "neither phone nor physical",
			mutate: func(c *domain.CreateCommand) {
				c.CustomerPhoneAllowed = false
				c.CustomerPhysicalAllowed = false
			},
			field:  "customer_phone_type",
			reason: domain.ReasonMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(testNow, false)
			cmd := domain.CreateCommand{
				CustomerID:           "cust-1",
				ConsumerType:         "paid",
				FromLanguageID:       "lang-fr",
				Due:                  testNow.Add(48 * time.Hour),
				Duration:             60,
				CustomerPhoneAllowed: true,
			}
			tt.mutate(&cmd)

			_, err := e.svc.Create(context.Background(), cmd)

			de, ok := domain.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, domain.CodeValidation, de.Code)
			assert.Equal(t, tt.reason, de.Reason)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestCreate_Scheduled(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	e.store.addTranslator(eligibleTranslator("tr-2"))

	due := testNow.Add(48 * time.Hour)
	job, err := e.svc.Create(context.Background(), domain.CreateCommand{
		CustomerID:           "cust-1",
		CustomerEmail:        "cust-1@customers.example",
		ConsumerType:         "paid",
		FromLanguageID:       "lang-fr",
		Due:                  due,
		Duration:             60,
		CustomerPhoneAllowed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, domain.JobTypePaid, job.JobType)
	assert.Equal(t, domain.WillExpireAt(due, testNow), job.WillExpireAt)

	stored, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	assert.ElementsMatch(t, []string{"tr-1", "tr-2"}, e.notifier.recipientIDs(dispatch.KindSuitableJob))
	assert.Contains(t, e.sink.names(), "job.created")
}

func TestCreate_Immediate(t *testing.T) {
	e := newEnv(testNow, false)

	job, err := e.svc.Create(context.Background(), domain.CreateCommand{
		CustomerID:     "cust-1",
		ConsumerType:   "paid",
		FromLanguageID: "lang-fr",
		Immediate:      true,
		Duration:       30,
		// Immediate bookings ignore the supplied session type.
		CustomerPhoneAllowed:    false,
		CustomerPhysicalAllowed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(domain.ImmediateLeadTime), job.Due)
	assert.True(t, job.CustomerPhoneAllowed)
	assert.True(t, job.Immediate)
}

func TestAccept(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(48*time.Hour))

	got, err := e.svc.Accept(context.Background(), domain.AcceptCommand{JobID: job.ID, TranslatorID: "tr-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAssigned, got.Status)
	assert.Equal(t, "tr-1", e.store.currentTranslator(job.ID))
	assert.Equal(t, []string{"cust-1"}, e.notifier.recipientIDs(dispatch.KindJobAccepted))
	assert.Contains(t, e.sink.names(), "job.assigned")
}

func TestAccept_Ineligible(t *testing.T) {
	e := newEnv(testNow, false)
	wrongLang := eligibleTranslator("tr-1")
	wrongLang.Languages = []string{"lang-ar"}
	e.store.addTranslator(wrongLang)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(48*time.Hour))

	_, err := e.svc.Accept(context.Background(), domain.AcceptCommand{JobID: job.ID, TranslatorID: "tr-1"})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeConflict, de.Code)
	assert.Equal(t, domain.ReasonIneligible, de.Reason)
	assert.Empty(t, e.store.currentTranslator(job.ID), "rejected accept must not claim the job")
}

func TestAccept_AlreadyBooked(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))

	due := testNow.Add(48 * time.Hour)
	other := seedJob(e, "job-other", domain.StatusPending, due)
	_, err := e.store.Claim(context.Background(), other.ID, "tr-1")
	require.NoError(t, err)

	overlap := seedJob(e, "job-overlap", domain.StatusPending, due.Add(30*time.Minute))

	_, err = e.svc.Accept(context.Background(), domain.AcceptCommand{JobID: overlap.ID, TranslatorID: "tr-1"})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonAlreadyBooked, de.Reason)
}

func TestAccept_ConcurrentSingleWinner(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(48*time.Hour))

	const contenders = 8
	ids := make([]string, contenders)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		e.store.addTranslator(eligibleTranslator(ids[i]))
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Accept(context.Background(), domain.AcceptCommand{JobID: job.ID, TranslatorID: ids[i]})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ReasonAlreadyClaimed, de.Reason)
	}
	assert.Equal(t, 1, winners)

	stored, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, stored.Status)
}

func TestStart(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusAssigned, testNow.Add(time.Hour))

	got, err := e.svc.Start(context.Background(), domain.StartCommand{JobID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, got.Status)
}

func TestStart_NotAssigned(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(time.Hour))

	_, err := e.svc.Start(context.Background(), domain.StartCommand{JobID: job.ID})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonGuardViolation, de.Reason)
}

func TestEnd(t *testing.T) {
	due := testNow.Add(-75*time.Minute - 30*time.Second)
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))

	job := seedJob(e, "job-1", domain.StatusPending, due)
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)
	_, err = e.svc.Start(context.Background(), domain.StartCommand{JobID: job.ID})
	require.NoError(t, err)

	got, err := e.svc.End(context.Background(), domain.EndCommand{JobID: job.ID, ActorID: "tr-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "01:15:30", got.SessionTime)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, testNow, *got.EndedAt)

	current, err := e.store.FindCurrent(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, current, "completed assignment must be released")

	ended := e.notifier.ofKind(dispatch.KindSessionEnded)
	require.Len(t, ended, 2)
	framings := map[string]string{}
	for _, b := range ended {
		require.Len(t, b.Recipients, 1)
		framings[b.Recipients[0].ID] = b.Payload.Framing
		assert.Equal(t, "01:15:30", b.Payload.SessionTime)
	}
	assert.Equal(t, dispatch.FramingInvoice, framings["cust-1"])
	assert.Equal(t, dispatch.FramingPayroll, framings["tr-1"])

	assert.Contains(t, e.sink.names(), "session.ended")
}

func TestEnd_NotStarted(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusAssigned, testNow.Add(time.Hour))

	got, err := e.svc.End(context.Background(), domain.EndCommand{JobID: job.ID, ActorID: "tr-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAssigned, got.Status)
	assert.Empty(t, e.notifier.ofKind(dispatch.KindSessionEnded))
}

func TestCustomerNotCall(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(-time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)
	_, err = e.svc.Start(context.Background(), domain.StartCommand{JobID: job.ID})
	require.NoError(t, err)

	got, err := e.svc.CustomerNotCall(context.Background(), domain.CustomerNotCallCommand{JobID: job.ID, TranslatorID: "tr-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNotCarriedOutCustomer, got.Status)
	current, err := e.store.FindCurrent(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, current)
	// No billing notices on a no-show close.
	assert.Empty(t, e.notifier.ofKind(dispatch.KindSessionEnded))
}

func TestCustomerNotCall_NotStarted(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusAssigned, testNow.Add(time.Hour))

	_, err := e.svc.CustomerNotCall(context.Background(), domain.CustomerNotCallCommand{JobID: job.ID, TranslatorID: "tr-1"})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonGuardViolation, de.Reason)
}

func TestCustomerNotCall_WrongTranslator(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(-time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)
	_, err = e.svc.Start(context.Background(), domain.StartCommand{JobID: job.ID})
	require.NoError(t, err)

	_, err = e.svc.CustomerNotCall(context.Background(), domain.CustomerNotCallCommand{JobID: job.ID, TranslatorID: "tr-2"})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonNotAssigned, de.Reason)

	stored, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, stored.Status, "rejected close must not change the job")
	assert.Equal(t, "tr-1", e.store.currentTranslator(job.ID))
}

func TestCancel_Customer(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		want domain.Status
	}{
		{name: "more than 24h out", due: testNow.Add(48 * time.Hour), want: domain.StatusWithdrawBefore24},
		{name: "exactly 24h out", due: testNow.Add(24 * time.Hour), want: domain.StatusWithdrawBefore24},
		{name: "inside 24h", due: testNow.Add(3 * time.Hour), want: domain.StatusWithdrawAfter24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(testNow, false)
			e.store.addTranslator(eligibleTranslator("tr-1"))
			job := seedJob(e, "job-1", domain.StatusPending, tt.due)
			_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
			require.NoError(t, err)

			got, err := e.svc.Cancel(context.Background(), domain.CancelCommand{
				JobID:   job.ID,
				ActorID: "cust-1",
				Role:    domain.RoleCustomer,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.want, got.Status)
			require.NotNil(t, got.WithdrawAt)

			current, err := e.store.FindCurrent(context.Background(), job.ID)
			require.NoError(t, err)
			assert.Nil(t, current)
			assert.Equal(t, []string{"tr-1"}, e.notifier.recipientIDs(dispatch.KindJobCancelled))
		})
	}
}

func TestCancel_TranslatorWithin24(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(12*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	_, err = e.svc.Cancel(context.Background(), domain.CancelCommand{
		JobID:   job.ID,
		ActorID: "tr-1",
		Role:    domain.RoleTranslator,
	})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonCancelWithin24, de.Reason)

	stored, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, stored.Status, "rejected cancel must not change the job")
}

func TestCancel_TranslatorRelists(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	e.store.addTranslator(eligibleTranslator("tr-2"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(72*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	got, err := e.svc.Cancel(context.Background(), domain.CancelCommand{
		JobID:   job.ID,
		ActorID: "tr-1",
		Role:    domain.RoleTranslator,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, testNow, got.CreatedAt, "re-listing restarts the expiry window")

	current, err := e.store.FindCurrent(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	assert.Equal(t, []string{"cust-1"}, e.notifier.recipientIDs(dispatch.KindSearchingReplace))
	assert.Equal(t, []string{"tr-2"}, e.notifier.recipientIDs(dispatch.KindSuitableJob),
		"the canceling translator must not be re-notified")
}

func TestCancel_TranslatorNotHolder(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	e.store.addTranslator(eligibleTranslator("tr-2"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(72*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	_, err = e.svc.Cancel(context.Background(), domain.CancelCommand{
		JobID:   job.ID,
		ActorID: "tr-2",
		Role:    domain.RoleTranslator,
	})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonNotAssigned, de.Reason)

	stored, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, stored.Status, "rejected cancel must not re-list the booking")
	assert.Equal(t, "tr-1", e.store.currentTranslator(job.ID))
	assert.Empty(t, e.notifier.ofKind(dispatch.KindSearchingReplace))

	// The booking never returned to the market, so a second accept still loses.
	_, err = e.svc.Accept(context.Background(), domain.AcceptCommand{JobID: job.ID, TranslatorID: "tr-2"})
	de, ok = domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonAlreadyClaimed, de.Reason)
	assert.Equal(t, "tr-1", e.store.currentTranslator(job.ID))
}

func TestAdminEdit_StatusGuards(t *testing.T) {
	tests := []struct {
		name   string
		from   domain.Status
		cmd    domain.AdminEditCommand
		reason string
	}{
		{
			name:   "assigned to timedout needs a comment",
			from:   domain.StatusAssigned,
			cmd:    domain.AdminEditCommand{Status: domain.StatusTimedOut},
			reason: domain.ReasonMissingAdminComment,
		},
		{
			name:   "started to completed needs session time",
			from:   domain.StatusStarted,
			cmd:    domain.AdminEditCommand{Status: domain.StatusCompleted, AdminComments: "phone confirmation"},
			reason: domain.ReasonMissingSessionTime,
		},
		{
			name:   "pending to assigned needs a translator",
			from:   domain.StatusPending,
			cmd:    domain.AdminEditCommand{Status: domain.StatusAssigned},
			reason: domain.ReasonGuardViolation,
		},
		{
			name:   "completed to pending is not allowed",
			from:   domain.StatusCompleted,
			cmd:    domain.AdminEditCommand{Status: domain.StatusPending, AdminComments: "undo"},
			reason: domain.ReasonGuardViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(testNow, false)
			job := seedJob(e, "job-1", tt.from, testNow.Add(48*time.Hour))

			cmd := tt.cmd
			cmd.JobID = job.ID
			_, err := e.svc.AdminEdit(context.Background(), cmd)

			de, ok := domain.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, de.Reason)

			stored, err := e.store.GetJob(context.Background(), job.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.from, stored.Status, "rejected edit must not change the job")
		})
	}
}

func TestAdminEdit_RejectedStatusKeepsTranslator(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	e.store.addTranslator(eligibleTranslator("tr-2"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(48*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	_, err = e.svc.AdminEdit(context.Background(), domain.AdminEditCommand{
		JobID:        job.ID,
		TranslatorID: "tr-2",
		Status:       domain.StatusTimedOut,
	})

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonMissingAdminComment, de.Reason)
	assert.Equal(t, "tr-1", e.store.currentTranslator(job.ID), "rejected edit must not reassign")
}

func TestAdminEdit_ForceComplete(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(-2*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)
	_, err = e.svc.Start(context.Background(), domain.StartCommand{JobID: job.ID})
	require.NoError(t, err)

	got, err := e.svc.AdminEdit(context.Background(), domain.AdminEditCommand{
		JobID:         job.ID,
		Status:        domain.StatusCompleted,
		AdminComments: "confirmed by phone",
		SessionTime:   "01:30:00",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "01:30:00", got.SessionTime)
	require.NotNil(t, got.EndedAt)

	current, err := e.store.FindCurrent(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	ended := e.notifier.ofKind(dispatch.KindSessionEnded)
	assert.Len(t, ended, 2)
}

func TestAdminEdit_TimedOutBackToPending(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	job := seedJob(e, "job-1", domain.StatusTimedOut, testNow.Add(96*time.Hour))
	job.ReminderEmailsSent = true
	require.NoError(t, e.store.UpdateJobGuarded(context.Background(), job, domain.StatusTimedOut))

	got, err := e.svc.AdminEdit(context.Background(), domain.AdminEditCommand{
		JobID:  job.ID,
		Status: domain.StatusPending,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, testNow, got.CreatedAt)
	assert.False(t, got.ReminderEmailsSent)
	// Both the customer and the candidate pool are told the booking is open
	// again.
	assert.ElementsMatch(t, []string{"cust-1", "tr-1"}, e.notifier.recipientIDs(dispatch.KindSuitableJob))
}

func TestAdminEdit_ChangeDue(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(48*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	oldDue := job.Due
	newDue := testNow.Add(72 * time.Hour)
	got, err := e.svc.AdminEdit(context.Background(), domain.AdminEditCommand{
		JobID:  job.ID,
		Status: domain.StatusAssigned,
		Due:    newDue,
	})
	require.NoError(t, err)

	assert.Equal(t, newDue, got.Due)
	notices := e.notifier.ofKind(dispatch.KindChangedDate)
	require.NotEmpty(t, notices)
	for _, b := range notices {
		require.NotNil(t, b.Payload.OldDue)
		assert.Equal(t, oldDue, *b.Payload.OldDue)
	}
}

func TestAdminEdit_ChangeTranslator(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	e.store.addTranslator(eligibleTranslator("tr-2"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(48*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	_, err = e.svc.AdminEdit(context.Background(), domain.AdminEditCommand{
		JobID:        job.ID,
		Status:       domain.StatusAssigned,
		TranslatorID: "tr-2",
	})
	require.NoError(t, err)

	assert.Equal(t, "tr-2", e.store.currentTranslator(job.ID))
	assert.Contains(t, e.notifier.recipientIDs(dispatch.KindChangedTranslator), "tr-2")
	assert.Equal(t, []string{"tr-1"}, e.notifier.recipientIDs(dispatch.KindJobCancelled))
}

func TestReopen_TimedOutClones(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	job := seedJob(e, "job-1", domain.StatusTimedOut, testNow.Add(96*time.Hour))

	got, err := e.svc.Reopen(context.Background(), domain.ReopenCommand{JobID: job.ID, ActorID: "admin-1"})
	require.NoError(t, err)

	assert.NotEqual(t, job.ID, got.ID, "timedout reopen creates a fresh booking")
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Contains(t, got.AdminComments, job.ID)

	original, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimedOut, original.Status, "original stays for audit")

	assert.Equal(t, []string{"tr-1"}, e.notifier.recipientIDs(dispatch.KindSuitableJob))
}

func TestReopen_InPlace(t *testing.T) {
	e := newEnv(testNow, false)
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(96*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	got, err := e.svc.Reopen(context.Background(), domain.ReopenCommand{JobID: job.ID, ActorID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.StatusPending, got.Status)

	current, err := e.store.FindCurrent(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, current, "open assignment must be released")
}

func TestExpirePending(t *testing.T) {
	e := newEnv(testNow, false)

	stale := seedJob(e, "job-stale", domain.StatusPending, testNow.Add(time.Hour))
	stale.WillExpireAt = testNow.Add(-time.Minute)
	require.NoError(t, e.store.UpdateJobGuarded(context.Background(), stale, domain.StatusPending))

	fresh := seedJob(e, "job-fresh", domain.StatusPending, testNow.Add(96*time.Hour))

	n, err := e.svc.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := e.store.GetJob(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimedOut, stored.Status)

	stillFresh, err := e.store.GetJob(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stillFresh.Status)

	assert.Equal(t, []string{"cust-1"}, e.notifier.recipientIDs(dispatch.KindJobExpired))
}

func TestSessionReminders(t *testing.T) {
	e := newEnv(testNow, false)
	e.store.addTranslator(eligibleTranslator("tr-1"))
	job := seedJob(e, "job-1", domain.StatusPending, testNow.Add(12*time.Hour))
	_, err := e.store.Claim(context.Background(), job.ID, "tr-1")
	require.NoError(t, err)

	n, err := e.svc.SessionReminders(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ElementsMatch(t, []string{"cust-1", "tr-1"}, e.notifier.recipientIDs(dispatch.KindSessionStartRemind))

	stored, err := e.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReminderEmailsSent)

	// Second sweep is silent.
	n, err = e.svc.SessionReminders(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
