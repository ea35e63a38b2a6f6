package booking

import (
	"errors"
	"net/http"

	"parkreserve/internal/api"
	"parkreserve/internal/auth"
	"parkreserve/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Description  Bookings of the current user, newest first, optionally filtered by status.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "upcoming, active, reserved, completed, cancelled or all"
// @Success      200     {array}   booking.Booking
// @Failure      400     {object}  api.ErrorResponse
// @Failure      401     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /api/bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	filter, err := ParseStatusFilter(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	bookings, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		logger.Error("failed to list bookings", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  booking.Booking
// @Failure      400        {object}  api.ErrorResponse
// @Failure      401        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /api/bookings/{bookingID} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookingID := c.Param("bookingID")
	if _, err := uuid.Parse(bookingID); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	b, err := h.service.Get(c.Request.Context(), userID, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
			return
		}
		logger.Error("failed to load booking", "booking_id", bookingID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch booking"})
		return
	}

	c.JSON(http.StatusOK, b)
}
