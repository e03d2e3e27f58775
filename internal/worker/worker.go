// Package worker is the dispatch service: it drains the notification queue
// into the push gateway and runs the periodic booking sweeps (expiry,
// session-start reminders).
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tolkline/booking-be/internal/booking/lifecycle"
	"github.com/tolkline/booking-be/internal/worker/domain"
	"github.com/tolkline/booking-be/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	RabbitClient *rabbitmq.Client
	Pusher       *Pusher
	Bookings     *lifecycle.Service

	WorkerID        string
	Concurrency     int
	QueueSize       int
	PrefetchCount   int
	QueueName       string
	DeliveryTimeout time.Duration
	SweepInterval   time.Duration
	ReminderLead    time.Duration
}

// Worker consumes notification batches and delivers them.
type Worker struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	pusher       *Pusher
	bookings     *lifecycle.Service

	workerID        string
	concurrency     int
	prefetchCount   int
	queueName       string
	deliveryTimeout time.Duration
	sweepInterval   time.Duration
	reminderLead    time.Duration

	deliveries chan *domain.Delivery
	wg         sync.WaitGroup
	stopChan   chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:          cfg.Logger,
		rabbitClient:    cfg.RabbitClient,
		pusher:          cfg.Pusher,
		bookings:        cfg.Bookings,
		workerID:        cfg.WorkerID,
		concurrency:     cfg.Concurrency,
		prefetchCount:   cfg.PrefetchCount,
		queueName:       cfg.QueueName,
		deliveryTimeout: cfg.DeliveryTimeout,
		sweepInterval:   cfg.SweepInterval,
		reminderLead:    cfg.ReminderLead,
		deliveries:      make(chan *domain.Delivery, cfg.QueueSize),
		stopChan:        make(chan struct{}),
	}
}

// Start begins consuming notifications and running sweeps; it blocks until
// the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting dispatch worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("sweep_interval", w.sweepInterval),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go w.runSweeps(ctx)

	w.startMessageDispatcher(ctx, deliveries)

	w.logger.Info("Dispatch worker context canceled, stopping...")
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping dispatch worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Dispatch worker stopped")
}
