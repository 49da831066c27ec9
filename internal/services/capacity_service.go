package services

import (
	"context"
	"fmt"
	"time"

	"art_studio_backend/internal/metrics"
	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"
)

// CapacityResult is the outcome of a capacity check. A rejection is a result, not an error.
type CapacityResult struct {
	Accepted        bool `json:"accepted"`
	CurrentCapacity int  `json:"current_capacity"`
	MaxCapacity     int  `json:"max_capacity"`
	SpotsRemaining  int  `json:"spots_remaining"`
	RequestedPax    int  `json:"requested_pax"`
}

// CapacityChecker decides whether a session can take more people.
type CapacityChecker interface {
	CheckCapacity(ctx context.Context, date time.Time, slot models.SessionTime, requestedPax int, excludeBookingID *int64) (CapacityResult, error)
	// CheckCapacityTx runs the check on the caller's executor, typically inside a locked transaction.
	CheckCapacityTx(ctx context.Context, exec repositories.SQLExecutor, date time.Time, slot models.SessionTime, requestedPax int, excludeBookingID *int64) (CapacityResult, error)
}

type capacityService struct {
	bookingRepo repositories.BookingRepository
	settings    SettingsProvider
	db          repositories.SQLExecutor
}

// NewCapacityService creates a CapacityChecker.
func NewCapacityService(br repositories.BookingRepository, settings SettingsProvider, db repositories.SQLExecutor) CapacityChecker {
	return &capacityService{bookingRepo: br, settings: settings, db: db}
}

func (s *capacityService) CheckCapacity(ctx context.Context, date time.Time, slot models.SessionTime, requestedPax int, excludeBookingID *int64) (CapacityResult, error) {
	return s.CheckCapacityTx(ctx, s.db, date, slot, requestedPax, excludeBookingID)
}

func (s *capacityService) CheckCapacityTx(ctx context.Context, exec repositories.SQLExecutor, date time.Time, slot models.SessionTime, requestedPax int, excludeBookingID *int64) (CapacityResult, error) {
	settings, err := s.settings.GetSettingsTx(ctx, exec)
	if err != nil {
		return CapacityResult{}, err
	}

	current, err := s.bookingRepo.SumBookedPeople(ctx, exec, utils.TruncateToDay(date), slot, excludeBookingID)
	if err != nil {
		return CapacityResult{}, fmt.Errorf("failed to sum booked people: %w", err)
	}

	result := CapacityResult{
		Accepted:        current+requestedPax <= settings.MaxPersonsPerClass,
		CurrentCapacity: current,
		MaxCapacity:     settings.MaxPersonsPerClass,
		SpotsRemaining:  max(settings.MaxPersonsPerClass-current, 0),
		RequestedPax:    requestedPax,
	}
	metrics.ObserveCapacityDecision(result.Accepted)
	utils.LogDebug("Capacity checked", map[string]interface{}{
		"session_date": date.Format(utils.DateLayout),
		"session_time": string(slot),
		"current":      current,
		"requested":    requestedPax,
		"accepted":     result.Accepted,
	})
	return result, nil
}
