package worker

import (
	"context"
	"log/slog"
	"time"
)

// runSweeps periodically expires stale pending bookings and sends
// session-start reminders for upcoming ones.
func (w *Worker) runSweeps(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.Info("Booking sweep started",
		slog.Duration("interval", w.sweepInterval),
		slog.Duration("reminder_lead", w.reminderLead),
	)

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	expired, err := w.bookings.ExpirePending(ctx)
	if err != nil {
		w.logger.Error("Expiry sweep failed", slog.String("error", err.Error()))
	} else if expired > 0 {
		w.logger.Info("Expired pending bookings", slog.Int("count", expired))
	}

	reminded, err := w.bookings.SessionReminders(ctx, w.reminderLead)
	if err != nil {
		w.logger.Error("Reminder sweep failed", slog.String("error", err.Error()))
	} else if reminded > 0 {
		w.logger.Info("Sent session-start reminders", slog.Int("count", reminded))
	}
}
