package models

import "time"

// SessionTime is one of the two fixed daily class slots.
type SessionTime string

const (
	SessionOne SessionTime = "SESSION_1"
	SessionTwo SessionTime = "SESSION_2"
)

// IsValidSessionTime checks if the provided string is a known session slot.
func IsValidSessionTime(s string) bool {
	switch SessionTime(s) {
	case SessionOne, SessionTwo:
		return true
	default:
		return false
	}
}

// BookingStatus defines the type for booking statuses
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// IsValidBookingStatus checks if the provided status string is a valid BookingStatus.
func IsValidBookingStatus(status string) bool {
	switch BookingStatus(status) {
	case BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusCompleted,
		BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// Booking is a reservation of seats in one class session.
// Only the calendar day of SessionDate matters.
type Booking struct {
	ID             int64         `json:"id" db:"id"`
	CustomerName   string        `json:"customer_name" db:"customer_name"`
	CustomerEmail  *string       `json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone  *string       `json:"customer_phone,omitempty" db:"customer_phone"`
	SessionDate    time.Time     `json:"session_date" db:"session_date"`
	SessionTime    SessionTime   `json:"session_time" db:"session_time"`
	NumberOfPeople int           `json:"number_of_people" db:"number_of_people"`
	Status         BookingStatus `json:"status" db:"status"`
	Notes          *string       `json:"notes,omitempty" db:"notes"`
	CreatedBy      *int64        `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// IsCancelled reports whether the booking no longer counts for capacity or stock.
func (b Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// BookingFilters defines the available filters for querying bookings.
type BookingFilters struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	SessionTime *SessionTime
	Status      *BookingStatus
	Page        int
	PageSize    int
}
