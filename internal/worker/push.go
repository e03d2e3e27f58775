package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tolkline/booking-be/internal/booking/dispatch"
	"github.com/tolkline/booking-be/internal/worker/domain"
)

// PusherConfig configures the push gateway client.
type PusherConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryInterval time.Duration
}

// Pusher delivers notification batches to the push gateway over HTTP.
type Pusher struct {
	client *resty.Client
	logger *slog.Logger
}

// NewPusher creates a Pusher instance.
func NewPusher(cfg PusherConfig, logger *slog.Logger) *Pusher {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetRetryCount(cfg.RetryAttempts).
		SetRetryWaitTime(cfg.RetryInterval)

	return &Pusher{
		client: client,
		logger: logger,
	}
}

// pushRequest is the gateway's wire format. A non-nil send_after asks the
// gateway to hold the push until that instant.
type pushRequest struct {
	Recipients []dispatch.Recipient `json:"recipients"`
	Payload    dispatch.Payload     `json:"payload"`
	SendAfter  *time.Time           `json:"send_after,omitempty"`
}

// Send delivers one notification batch. A 4xx answer is permanent and maps
// to ErrDeliveryRejected; network errors and 5xx answers are retryable.
func (p *Pusher) Send(ctx context.Context, msg dispatch.Message) error {
	req := pushRequest{
		Recipients: msg.Recipients,
		Payload:    msg.Payload,
	}
	if msg.Delayed {
		req.SendAfter = msg.SendAfter
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/v1/push")
	if err != nil {
		return domain.NewRetryableError(fmt.Errorf("push gateway request failed: %w", err))
	}

	switch {
	case resp.StatusCode() >= 200 && resp.StatusCode() < 300:
		p.logger.Debug("Push delivered",
			slog.String("notification_type", string(msg.Payload.Kind)),
			slog.String("job_id", msg.Payload.JobID),
			slog.Int("recipients", len(msg.Recipients)),
		)
		return nil
	case resp.StatusCode() >= 400 && resp.StatusCode() < 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrDeliveryRejected, resp.StatusCode(), resp.String())
	default:
		return domain.NewRetryableError(fmt.Errorf("push gateway returned status %d", resp.StatusCode()))
	}
}
