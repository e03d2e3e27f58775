package domain

import "time"

// Event is a lifecycle fact emitted for external subscribers (billing, audit).
type Event interface {
	EventName() string
}

type JobCreated struct {
	JobID      string    `json:"job_id"`
	CustomerID string    `json:"customer_id"`
	Immediate  bool      `json:"immediate"`
	Due        time.Time `json:"due"`
	At         time.Time `json:"at"`
}

func (JobCreated) EventName() string { return "job.created" }

type JobAssigned struct {
	JobID        string    `json:"job_id"`
	TranslatorID string    `json:"translator_id"`
	At           time.Time `json:"at"`
}

func (JobAssigned) EventName() string { return "job.assigned" }

type JobCanceled struct {
	JobID   string    `json:"job_id"`
	ActorID string    `json:"actor_id"`
	Role    ActorRole `json:"role"`
	Status  Status    `json:"status"`
	At      time.Time `json:"at"`
}

func (JobCanceled) EventName() string { return "job.canceled" }

type SessionEnded struct {
	JobID       string    `json:"job_id"`
	SessionTime string    `json:"session_time"`
	CompletedBy string    `json:"completed_by"`
	At          time.Time `json:"at"`
}

func (SessionEnded) EventName() string { return "session.ended" }
