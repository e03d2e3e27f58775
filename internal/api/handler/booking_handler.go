package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tolkline/booking-be/internal/api/dto"
	"github.com/tolkline/booking-be/internal/booking/domain"
	"github.com/tolkline/booking-be/internal/booking/store"
)

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	cmd := domain.CreateCommand{
		CustomerID:              req.CustomerID,
		CustomerEmail:           req.CustomerEmail,
		ConsumerType:            req.ConsumerType,
		FromLanguageID:          req.FromLanguageID,
		Immediate:               req.Immediate,
		Duration:                req.Duration,
		Gender:                  domain.Gender(req.Gender),
		Certified:               domain.Certification(req.Certified),
		CustomerPhoneAllowed:    req.CustomerPhoneType,
		CustomerPhysicalAllowed: req.CustomerPhysicalType,
		Town:                    req.Town,
		Reference:               req.Reference,
	}
	if req.Due != "" {
		due, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "due must be RFC 3339",
			})
			return
		}
		cmd.Due = due
	}

	job, err := h.bookings.Create(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromJob(job, nil))
}

// GetBooking handles GET /api/v1/bookings/:job_id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	job, assignment, err := h.bookings.Get(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, assignment))
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var req dto.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeBookingCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := store.JobFilter{
		CustomerID:     req.CustomerID,
		Status:         req.Status,
		FromLanguageID: req.FromLanguageID,
		PageSize:       req.PageSize,
		Cursor:         cursor,
	}

	jobs, err := h.store.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	bookings := make([]dto.BookingDTO, len(jobs))
	for i := range jobs {
		bookings[i] = dto.FromJob(&jobs[i], nil)
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeBookingCursor(&store.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}

	c.JSON(http.StatusOK, dto.ListBookingsResponse{
		Bookings:   bookings,
		NextCursor: nextCursor,
	})
}

// AcceptBooking handles POST /api/v1/bookings/:job_id/accept
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	var req dto.AcceptBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.bookings.Accept(c.Request.Context(), domain.AcceptCommand{
		JobID:        jobID,
		TranslatorID: req.TranslatorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// StartBooking handles POST /api/v1/bookings/:job_id/start
func (h *BookingHandler) StartBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.bookings.Start(c.Request.Context(), domain.StartCommand{JobID: jobID})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// EndBooking handles POST /api/v1/bookings/:job_id/end
func (h *BookingHandler) EndBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	var req dto.EndBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.bookings.End(c.Request.Context(), domain.EndCommand{
		JobID:   jobID,
		ActorID: req.ActorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// CustomerNotCall handles POST /api/v1/bookings/:job_id/customer-not-call
func (h *BookingHandler) CustomerNotCall(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	var req dto.CustomerNotCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.bookings.CustomerNotCall(c.Request.Context(), domain.CustomerNotCallCommand{
		JobID:        jobID,
		TranslatorID: req.TranslatorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// CancelBooking handles POST /api/v1/bookings/:job_id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.bookings.Cancel(c.Request.Context(), domain.CancelCommand{
		JobID:   jobID,
		ActorID: req.ActorID,
		Role:    domain.ActorRole(req.Role),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// UpdateBooking handles PUT /api/v1/bookings/:job_id (admin edit)
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	var req dto.AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cmd := domain.AdminEditCommand{
		JobID:          jobID,
		Status:         domain.Status(req.Status),
		AdminComments:  req.AdminComments,
		SessionTime:    req.SessionTime,
		Reference:      req.Reference,
		FromLanguageID: req.FromLanguageID,
		TranslatorID:   req.TranslatorID,
	}
	if req.Due != "" {
		due, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due must be RFC 3339"})
			return
		}
		cmd.Due = due
	}

	job, err := h.bookings.AdminEdit(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// ReopenBooking handles POST /api/v1/bookings/:job_id/reopen
func (h *BookingHandler) ReopenBooking(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	var req dto.ReopenBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.bookings.Reopen(c.Request.Context(), domain.ReopenCommand{
		JobID:   jobID,
		ActorID: req.ActorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job, nil))
}

// jobID pulls and validates the :job_id path parameter.
func (h *BookingHandler) jobID(c *gin.Context) (string, bool) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return "", false
	}
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be a valid UUID"})
		return "", false
	}
	return jobID, true
}
