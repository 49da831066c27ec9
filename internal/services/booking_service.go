package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"
)

// --- Booking DTOs ---
type CreateBookingRequest struct {
	CustomerName   string  `json:"customer_name" binding:"required"`
	CustomerEmail  *string `json:"customer_email"`
	CustomerPhone  *string `json:"customer_phone"`
	SessionDate    string  `json:"session_date" binding:"required"` // YYYY-MM-DD
	SessionTime    string  `json:"session_time" binding:"required"`
	NumberOfPeople int     `json:"number_of_people" binding:"required"`
	Status         *string `json:"status"`
	Notes          *string `json:"notes"`
}

type UpdateBookingRequest struct {
	CustomerName   *string `json:"customer_name"`
	CustomerEmail  *string `json:"customer_email"`
	CustomerPhone  *string `json:"customer_phone"`
	SessionDate    *string `json:"session_date"`
	SessionTime    *string `json:"session_time"`
	NumberOfPeople *int    `json:"number_of_people"`
	Status         *string `json:"status"`
	Notes          *string `json:"notes"`
}

// --- BookingService Interface ---
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest, actor models.Actor) (*models.Booking, error)
	GetBookingByID(ctx context.Context, bookingID int64) (*models.Booking, error)
	GetBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error)
	UpdateBooking(ctx context.Context, bookingID int64, req UpdateBookingRequest, actor models.Actor) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error)
	DeleteBooking(ctx context.Context, bookingID int64, actor models.Actor) error
	CheckCapacity(ctx context.Context, date time.Time, slot models.SessionTime, pax int, excludeBookingID *int64) (CapacityResult, error)
	ListInventoryLogs(ctx context.Context, bookingID int64) ([]models.InventoryLog, error)
}

// --- bookingService Implementation ---
type bookingService struct {
	bookingRepo repositories.BookingRepository
	logRepo     repositories.InventoryLogRepository
	capacity    CapacityChecker
	consumption ConsumptionEngine
	db          repositories.SQLExecutor
	tx          repositories.Transactor
}

// NewBookingService creates a new instance of BookingService.
func NewBookingService(
	br repositories.BookingRepository,
	lr repositories.InventoryLogRepository,
	capacity CapacityChecker,
	consumption ConsumptionEngine,
	db repositories.SQLExecutor,
	tx repositories.Transactor,
) BookingService {
	return &bookingService{
		bookingRepo: br,
		logRepo:     lr,
		capacity:    capacity,
		consumption: consumption,
		db:          db,
		tx:          tx,
	}
}

func parseSessionDate(s string) (time.Time, error) {
	date, err := utils.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: session_date: %v", ErrValidation, err)
	}
	return date, nil
}

func parseSessionTime(s string) (models.SessionTime, error) {
	if !models.IsValidSessionTime(s) {
		return "", validationErrorf("invalid session_time '%s'", s)
	}
	return models.SessionTime(s), nil
}

// reserve locks the (date, slot) bucket and rejects the booking when it does not fit.
func (s *bookingService) reserve(ctx context.Context, exec repositories.SQLExecutor, date time.Time, slot models.SessionTime, pax int, excludeID *int64) error {
	if err := s.bookingRepo.LockSession(ctx, exec, date, slot); err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	result, err := s.capacity.CheckCapacityTx(ctx, exec, date, slot, pax, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check capacity: %w", err)
	}
	if !result.Accepted {
		return &CapacityExceededError{Result: result}
	}
	return nil
}

func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest, actor models.Actor) (*models.Booking, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, validationErrorf("customer_name is required")
	}
	if req.NumberOfPeople <= 0 {
		return nil, validationErrorf("number_of_people must be positive")
	}
	date, err := parseSessionDate(req.SessionDate)
	if err != nil {
		return nil, err
	}
	slot, err := parseSessionTime(req.SessionTime)
	if err != nil {
		return nil, err
	}

	status := models.BookingStatusConfirmed
	if req.Status != nil && !utils.IsEmpty(*req.Status) {
		if !models.IsValidBookingStatus(*req.Status) {
			return nil, validationErrorf("invalid status '%s'", *req.Status)
		}
		status = models.BookingStatus(*req.Status)
		if status == models.BookingStatusCancelled {
			return nil, validationErrorf("a booking cannot be created as cancelled")
		}
	}

	booking := &models.Booking{
		CustomerName:   name,
		SessionDate:    date,
		SessionTime:    slot,
		NumberOfPeople: req.NumberOfPeople,
		Status:         status,
		CreatedBy:      actor.UserIDPtr(),
	}
	if req.CustomerEmail != nil {
		booking.CustomerEmail = utils.NewNullString(*req.CustomerEmail)
	}
	if req.CustomerPhone != nil {
		booking.CustomerPhone = utils.NewNullString(*req.CustomerPhone)
	}
	if req.Notes != nil {
		booking.Notes = utils.NewNullString(*req.Notes)
	}

	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.reserve(ctx, exec, date, slot, booking.NumberOfPeople, nil); err != nil {
			return err
		}
		if err := s.bookingRepo.CreateBooking(ctx, exec, booking); err != nil {
			return fmt.Errorf("failed to create booking in repository: %w", err)
		}
		_, err := s.consumption.ConsumeTx(ctx, exec, booking.ID, booking.NumberOfPeople, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Booking created", map[string]interface{}{
		"booking_id":   booking.ID,
		"session_date": date.Format(utils.DateLayout),
		"session_time": string(slot),
		"people":       booking.NumberOfPeople,
	})
	return booking, nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetBookingByID(ctx, s.db, bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrBookingNotFound, bookingID)
		}
		return nil, fmt.Errorf("failed to get booking by ID: %w", err)
	}
	return booking, nil
}

func (s *bookingService) GetBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	bookings, totalCount, err := s.bookingRepo.GetBookings(ctx, s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, totalCount, nil
}

// lockBooking loads the booking FOR UPDATE inside the caller's transaction.
func (s *bookingService) lockBooking(ctx context.Context, exec repositories.SQLExecutor, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetBookingForUpdate(ctx, exec, bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrBookingNotFound, bookingID)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, bookingID int64, req UpdateBookingRequest, actor models.Actor) (*models.Booking, error) {
	var updated *models.Booking
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		booking, err := s.lockBooking(ctx, exec, bookingID)
		if err != nil {
			return err
		}
		if booking.IsCancelled() {
			return fmt.Errorf("%w: booking %d is cancelled", ErrInvalidOperation, bookingID)
		}
		before := *booking

		if req.CustomerName != nil {
			if booking.CustomerName = strings.TrimSpace(*req.CustomerName); booking.CustomerName == "" {
				return validationErrorf("customer_name must not be empty")
			}
		}
		if req.CustomerEmail != nil {
			booking.CustomerEmail = utils.NewNullString(*req.CustomerEmail)
		}
		if req.CustomerPhone != nil {
			booking.CustomerPhone = utils.NewNullString(*req.CustomerPhone)
		}
		if req.Notes != nil {
			booking.Notes = utils.NewNullString(*req.Notes)
		}
		if req.SessionDate != nil {
			if booking.SessionDate, err = parseSessionDate(*req.SessionDate); err != nil {
				return err
			}
		}
		if req.SessionTime != nil {
			if booking.SessionTime, err = parseSessionTime(*req.SessionTime); err != nil {
				return err
			}
		}
		if req.NumberOfPeople != nil {
			if *req.NumberOfPeople <= 0 {
				return validationErrorf("number_of_people must be positive")
			}
			booking.NumberOfPeople = *req.NumberOfPeople
		}
		if req.Status != nil && !utils.IsEmpty(*req.Status) {
			if !models.IsValidBookingStatus(*req.Status) {
				return validationErrorf("invalid status '%s'", *req.Status)
			}
			booking.Status = models.BookingStatus(*req.Status)
		}

		if booking.IsCancelled() {
			if err := s.bookingRepo.UpdateBooking(ctx, exec, booking); err != nil {
				return fmt.Errorf("failed to update booking: %w", err)
			}
			if _, err := s.consumption.RestoreTx(ctx, exec, booking.ID, actor); err != nil {
				return err
			}
			updated = booking
			return nil
		}

		moved := !booking.SessionDate.Equal(before.SessionDate) || booking.SessionTime != before.SessionTime
		if moved || booking.NumberOfPeople > before.NumberOfPeople {
			if err := s.reserve(ctx, exec, booking.SessionDate, booking.SessionTime, booking.NumberOfPeople, &booking.ID); err != nil {
				return err
			}
		}

		if err := s.bookingRepo.UpdateBooking(ctx, exec, booking); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		if _, err := s.consumption.AdjustTx(ctx, exec, booking.ID, before.NumberOfPeople, booking.NumberOfPeople, actor); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	var cancelled *models.Booking
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		booking, err := s.lockBooking(ctx, exec, bookingID)
		if err != nil {
			return err
		}
		if booking.IsCancelled() {
			return fmt.Errorf("%w: booking %d is already cancelled", ErrInvalidOperation, bookingID)
		}
		booking.Status = models.BookingStatusCancelled
		if err := s.bookingRepo.UpdateBooking(ctx, exec, booking); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		if _, err := s.consumption.RestoreTx(ctx, exec, booking.ID, actor); err != nil {
			return err
		}
		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Booking cancelled", map[string]interface{}{"booking_id": bookingID})
	return cancelled, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.Booking, error) {
	var completed *models.Booking
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		booking, err := s.lockBooking(ctx, exec, bookingID)
		if err != nil {
			return err
		}
		if booking.IsCancelled() {
			return fmt.Errorf("%w: booking %d is cancelled", ErrInvalidOperation, bookingID)
		}
		booking.Status = models.BookingStatusCompleted
		if err := s.bookingRepo.UpdateBooking(ctx, exec, booking); err != nil {
			return fmt.Errorf("failed to complete booking: %w", err)
		}
		completed = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// DeleteBooking gives back any stock the booking still holds, then removes it.
// Its log rows stay behind, still tagged with the booking id.
func (s *bookingService) DeleteBooking(ctx context.Context, bookingID int64, actor models.Actor) error {
	return s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		booking, err := s.lockBooking(ctx, exec, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.consumption.RestoreTx(ctx, exec, booking.ID, actor); err != nil {
			return err
		}
		if err := s.bookingRepo.DeleteBooking(ctx, exec, booking.ID); err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}
		utils.LogInfo("Booking deleted", map[string]interface{}{"booking_id": bookingID})
		return nil
	})
}

func (s *bookingService) CheckCapacity(ctx context.Context, date time.Time, slot models.SessionTime, pax int, excludeBookingID *int64) (CapacityResult, error) {
	if pax <= 0 {
		return CapacityResult{}, validationErrorf("number_of_people must be positive")
	}
	if !models.IsValidSessionTime(string(slot)) {
		return CapacityResult{}, validationErrorf("invalid session_time '%s'", slot)
	}
	return s.capacity.CheckCapacity(ctx, date, slot, pax, excludeBookingID)
}

func (s *bookingService) ListInventoryLogs(ctx context.Context, bookingID int64) ([]models.InventoryLog, error) {
	logs, err := s.logRepo.ListByBooking(ctx, s.db, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking inventory logs: %w", err)
	}
	return logs, nil
}
