package rabbitmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishBackoff(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		mult    float64
		attempt int
		want    time.Duration
	}{
		{
			name:    "first retry waits the base delay",
			base:    100 * time.Millisecond,
			mult:    2.0,
			attempt: 0,
			want:    100 * time.Millisecond,
		},
		{
			name:    "doubling multiplier",
			base:    100 * time.Millisecond,
			mult:    2.0,
			attempt: 3,
			want:    800 * time.Millisecond,
		},
		{
			name:    "custom multiplier",
			base:    200 * time.Millisecond,
			mult:    1.5,
			attempt: 2,
			want:    450 * time.Millisecond,
		},
		{
			name:    "flat multiplier keeps the delay constant",
			base:    time.Second,
			mult:    1.0,
			attempt: 5,
			want:    time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publishBackoff(tt.base, tt.mult, tt.attempt))
		})
	}
}
