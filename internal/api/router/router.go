package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tolkline/booking-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "booking-api-service",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "booking-api-service",
		})
	})

	bookingHandler := handler.NewBookingHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		{
			// POST /api/v1/bookings - Create a booking
			bookings.POST("", bookingHandler.CreateBooking)

			// GET /api/v1/bookings - List bookings with filtering and pagination
			bookings.GET("", bookingHandler.ListBookings)

			// GET /api/v1/bookings/:job_id - Get booking details
			bookings.GET("/:job_id", bookingHandler.GetBooking)

			// PUT /api/v1/bookings/:job_id - Admin update
			bookings.PUT("/:job_id", bookingHandler.UpdateBooking)

			// POST /api/v1/bookings/:job_id/accept - Translator accepts
			bookings.POST("/:job_id/accept", bookingHandler.AcceptBooking)

			// POST /api/v1/bookings/:job_id/start - Session starts
			bookings.POST("/:job_id/start", bookingHandler.StartBooking)

			// POST /api/v1/bookings/:job_id/end - Session ends
			bookings.POST("/:job_id/end", bookingHandler.EndBooking)

			// POST /api/v1/bookings/:job_id/customer-not-call - Customer no-show
			bookings.POST("/:job_id/customer-not-call", bookingHandler.CustomerNotCall)

			// POST /api/v1/bookings/:job_id/cancel - Withdraw or translator cancel
			bookings.POST("/:job_id/cancel", bookingHandler.CancelBooking)

			// POST /api/v1/bookings/:job_id/reopen - Put back on the market
			bookings.POST("/:job_id/reopen", bookingHandler.ReopenBooking)
		}
	}

	return r
}
