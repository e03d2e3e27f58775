package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tolkline/booking-be/internal/worker/domain"
)

// spawnWorkerPool spawns N delivery goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each delivery goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case d, ok := <-w.deliveries:
			if !ok {
				return
			}

			err := w.deliver(ctx, d)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("job_id", d.Message.Payload.JobID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Notification delivery failed",
					slog.String("worker_name", workerName),
					slog.String("job_id", d.Message.Payload.JobID),
					slog.String("error", err.Error()),
				)

				requeue := w.shouldRequeue(err)
				if nackErr := channel.Nack(d.DeliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(d.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// deliver sends one notification batch with the configured timeout.
func (w *Worker) deliver(ctx context.Context, d *domain.Delivery) error {
	deliveryCtx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
	defer cancel()
	return w.pusher.Send(deliveryCtx, d.Message)
}

// shouldRequeue determines if a delivery should be requeued based on the error type
func (w *Worker) shouldRequeue(err error) bool {
	// Permanently rejected messages go to the DLQ
	if errors.Is(err, domain.ErrDeliveryRejected) {
		return false
	}
	if errors.Is(err, domain.ErrInvalidMessage) {
		return false
	}

	// Requeue for transient errors
	var retryableErr *domain.RetryableError
	if errors.As(err, &retryableErr) {
		return true
	}

	return false
}
