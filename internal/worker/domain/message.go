package domain

import "github.com/tolkline/booking-be/internal/booking/dispatch"

// Delivery is one queued notification batch together with its broker
// delivery tag, as handed from the consumer to the worker pool.
type Delivery struct {
	Message     dispatch.Message
	DeliveryTag uint64
}
