package dto

import (
	"time"

	"github.com/tolkline/booking-be/internal/booking/domain"
)

type CreateBookingRequest struct {
	CustomerID     string `json:"customer_id" binding:"required"`
	CustomerEmail  string `json:"customer_email" binding:"required,email"`
	ConsumerType   string `json:"consumer_type" binding:"required,oneof=paid rwsconsumer ngo"`
	FromLanguageID string `json:"from_language_id" binding:"required"`
	Immediate      bool   `json:"immediate"`
	Due            string `json:"due"`      // RFC 3339; ignored when immediate
	Duration       int    `json:"duration"` // minutes

	Gender    string `json:"gender" binding:"omitempty,oneof=male female"`
	Certified string `json:"certified" binding:"omitempty,oneof=normal yes law health both n_law n_health"`

	CustomerPhoneType    bool   `json:"customer_phone_type"`
	CustomerPhysicalType bool   `json:"customer_physical_type"`
	Town                 string `json:"town"`
	Reference            string `json:"reference"`
}

type AcceptBookingRequest struct {
	TranslatorID string `json:"translator_id" binding:"required"`
}

type EndBookingRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

type CustomerNotCallRequest struct {
	TranslatorID string `json:"translator_id" binding:"required"`
}

type CancelBookingRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Role    string `json:"role" binding:"required,oneof=customer translator"`
}

type AdminUpdateRequest struct {
	Status        string `json:"status"`
	AdminComments string `json:"admin_comments"`
	SessionTime   string `json:"session_time"`
	Reference     string `json:"reference"`

	Due            string `json:"due"` // RFC 3339; empty means unchanged
	FromLanguageID string `json:"from_language_id"`
	TranslatorID   string `json:"translator_id"`
}

type ReopenBookingRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

type ListBookingsRequest struct {
	CustomerID     string `form:"customer_id"`
	Status         string `form:"status"`
	FromLanguageID string `form:"from_language_id"`
	PageSize       int    `form:"page_size"`
	Cursor         string `form:"cursor"`
}

type ListBookingsResponse struct {
	Bookings   []BookingDTO `json:"bookings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type BookingDTO struct {
	JobID                string `json:"job_id"`
	CustomerID           string `json:"customer_id"`
	FromLanguageID       string `json:"from_language_id"`
	Gender               string `json:"gender,omitempty"`
	Certified            string `json:"certified,omitempty"`
	JobType              string `json:"job_type"`
	Immediate            bool   `json:"immediate"`
	Due                  string `json:"due"`
	Duration             int    `json:"duration"`
	Status               string `json:"status"`
	CustomerPhoneType    bool   `json:"customer_phone_type"`
	CustomerPhysicalType bool   `json:"customer_physical_type"`
	Town                 string `json:"town,omitempty"`
	AdminComments        string `json:"admin_comments,omitempty"`
	Reference            string `json:"reference,omitempty"`
	SessionTime          string `json:"session_time,omitempty"`
	WithdrawAt           string `json:"withdraw_at,omitempty"`
	EndedAt              string `json:"ended_at,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
	WillExpireAt         string `json:"will_expire_at"`
	TranslatorID         string `json:"translator_id,omitempty"`
}

// FromJob maps a domain job onto the wire form.
func FromJob(job *domain.Job, assignment *domain.Assignment) BookingDTO {
	d := BookingDTO{
		JobID:                job.ID,
		CustomerID:           job.CustomerID,
		FromLanguageID:       job.FromLanguageID,
		Gender:               string(job.Gender),
		Certified:            string(job.Certified),
		JobType:              string(job.JobType),
		Immediate:            job.Immediate,
		Due:                  job.Due.Format(time.RFC3339),
		Duration:             job.Duration,
		Status:               string(job.Status),
		CustomerPhoneType:    job.CustomerPhoneAllowed,
		CustomerPhysicalType: job.CustomerPhysicalAllowed,
		Town:                 job.Town,
		AdminComments:        job.AdminComments,
		Reference:            job.Reference,
		SessionTime:          job.SessionTime,
		CreatedAt:            job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            job.UpdatedAt.Format(time.RFC3339),
		WillExpireAt:         job.WillExpireAt.Format(time.RFC3339),
	}
	if job.WithdrawAt != nil {
		d.WithdrawAt = job.WithdrawAt.Format(time.RFC3339)
	}
	if job.EndedAt != nil {
		d.EndedAt = job.EndedAt.Format(time.RFC3339)
	}
	if assignment != nil {
		d.TranslatorID = assignment.TranslatorID
	}
	return d
}
