package handlers

import (
	"net/http"
	"strconv"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler holds the booking service.
type BookingHandler struct {
	bookingService services.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bs services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bs}
}

// CreateBooking handles the creation of a new booking.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateBooking: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "CreateBooking")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GetBookings handles fetching all bookings with pagination and filters.
func (h *BookingHandler) GetBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	filters := models.BookingFilters{Page: page, PageSize: pageSize}

	if statusStr := c.Query("status"); statusStr != "" {
		if !models.IsValidBookingStatus(statusStr) {
			utils.RespondValidationFailed(c, "status: "+statusStr)
			return
		}
		status := models.BookingStatus(statusStr)
		filters.Status = &status
	}
	if slotStr := c.Query("session_time"); slotStr != "" {
		if !models.IsValidSessionTime(slotStr) {
			utils.RespondValidationFailed(c, "session_time: "+slotStr)
			return
		}
		slot := models.SessionTime(slotStr)
		filters.SessionTime = &slot
	}
	if dateFromStr := c.Query("date_from"); dateFromStr != "" {
		t, err := utils.ParseDate(dateFromStr)
		if err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		filters.DateFrom = &t
	}
	if dateToStr := c.Query("date_to"); dateToStr != "" {
		t, err := utils.ParseDate(dateToStr)
		if err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		filters.DateTo = &t
	}

	bookings, totalCount, err := h.bookingService.GetBookings(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetBookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      bookings,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetBookingByID handles fetching a single booking by ID.
func (h *BookingHandler) GetBookingByID(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBookingByID(c.Request.Context(), bookingID)
	if err != nil {
		respondServiceError(c, err, "GetBookingByID")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBooking handles edits, including pax changes and rescheduling.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), bookingID, req, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "UpdateBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking marks a booking cancelled and gives its consumed stock back.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "CancelBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CompleteBooking marks a booking as completed.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.CompleteBooking(c.Request.Context(), bookingID, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "CompleteBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// DeleteBooking handles deleting a booking.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookingService.DeleteBooking(c.Request.Context(), bookingID, actorFromContext(c)); err != nil {
		respondServiceError(c, err, "DeleteBooking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted successfully"})
}

// CheckCapacity reports whether a session can take the requested number of people.
func (h *BookingHandler) CheckCapacity(c *gin.Context) {
	date, err := utils.ParseDate(c.Query("date"))
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	pax, err := strconv.Atoi(c.DefaultQuery("number_of_people", "1"))
	if err != nil {
		utils.RespondValidationFailed(c, "number_of_people must be an integer")
		return
	}
	var excludeID *int64
	if raw := c.Query("exclude_booking_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		excludeID = &id
	}

	result, err := h.bookingService.CheckCapacity(c.Request.Context(), date, models.SessionTime(c.Query("session_time")), pax, excludeID)
	if err != nil {
		respondServiceError(c, err, "CheckCapacity")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBookingInventoryLogs returns the stock movements a booking caused.
func (h *BookingHandler) GetBookingInventoryLogs(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	logs, err := h.bookingService.ListInventoryLogs(c.Request.Context(), bookingID)
	if err != nil {
		respondServiceError(c, err, "GetBookingInventoryLogs")
		return
	}
	c.JSON(http.StatusOK, logs)
}
