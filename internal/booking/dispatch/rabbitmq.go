package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tolkline/booking-be/internal/booking/domain"
	"github.com/tolkline/booking-be/shared/rabbitmq"
)

// Routing keys on the booking exchange.
const (
	RoutingKeyNotify = "booking.notify"
	routingKeyEvent  = "booking.event."
)

// RabbitNotifier publishes notify batches to the dispatch queue. The actual
// channel delivery (push gateway, SMS) happens in the dispatch worker.
type RabbitNotifier struct {
	client   *rabbitmq.Client
	calendar Calendar
	clock    Clock
	logger   *slog.Logger
}

// NewRabbitNotifier creates a notifier publishing through the given client.
func NewRabbitNotifier(client *rabbitmq.Client, clock Clock, calendar Calendar, logger *slog.Logger) *RabbitNotifier {
	return &RabbitNotifier{client: client, clock: clock, calendar: calendar, logger: logger}
}

// Notify publishes one batch. When delayed, the envelope carries the next
// business instant so the worker can schedule delivery.
func (n *RabbitNotifier) Notify(ctx context.Context, recipients []Recipient, payload Payload, delayed bool) error {
	if len(recipients) == 0 {
		return nil
	}

	msg := Message{
		Recipients: recipients,
		Payload:    payload,
		Delayed:    delayed,
	}
	if delayed {
		sendAfter := n.calendar.NextBusinessInstant(n.clock.Now())
		msg.SendAfter = &sendAfter
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notify message: %w", err)
	}

	if err := n.client.PublishWithRetry(ctx, RoutingKeyNotify, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish notify batch: %w", err)
	}

	n.logger.Info("Notify batch published",
		slog.String("job_id", payload.JobID),
		slog.String("kind", string(payload.Kind)),
		slog.Int("recipients", len(recipients)),
		slog.Bool("delayed", delayed),
	)

	return nil
}

// RabbitEventSink publishes lifecycle events under booking.event.<name>.
type RabbitEventSink struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewRabbitEventSink creates an event sink publishing through the given client.
func NewRabbitEventSink(client *rabbitmq.Client, logger *slog.Logger) *RabbitEventSink {
	return &RabbitEventSink{client: client, logger: logger}
}

func (s *RabbitEventSink) Publish(ctx context.Context, e domain.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", e.EventName(), err)
	}

	if err := s.client.Publish(ctx, routingKeyEvent+e.EventName(), body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", e.EventName(), err)
	}

	s.logger.Debug("Lifecycle event published",
		slog.String("event", e.EventName()),
	)

	return nil
}
