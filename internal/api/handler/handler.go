package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tolkline/booking-be/internal/booking/domain"
	"github.com/tolkline/booking-be/internal/booking/lifecycle"
	"github.com/tolkline/booking-be/internal/booking/store"
	"github.com/tolkline/booking-be/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Bookings *lifecycle.Service
	Store    *store.Storage
	DB       *postgresql.Client
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	logger   *slog.Logger
	bookings *lifecycle.Service
	store    *store.Storage
}

// NewBookingHandler creates a new BookingHandler instance
func NewBookingHandler(deps *Dependencies) *BookingHandler {
	return &BookingHandler{
		logger:   deps.Logger,
		bookings: deps.Bookings,
		store:    deps.Store,
	}
}

// respondError maps a domain error to its HTTP status. Anything untyped is a
// 500 with a generic body.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	if de, ok := domain.AsDomainError(err); ok {
		status := http.StatusInternalServerError
		switch de.Code {
		case domain.CodeValidation:
			status = http.StatusUnprocessableEntity
		case domain.CodeConflict:
			status = http.StatusConflict
		case domain.CodeNotFound:
			status = http.StatusNotFound
		}
		body := gin.H{
			"error":  de.Message,
			"reason": de.Reason,
		}
		if de.Field != "" {
			body["field"] = de.Field
		}
		c.JSON(status, body)
		return
	}

	h.logger.Error("Unhandled error", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
	})
}
