package models

import "time"

// AppSettings is the singleton row of studio-wide configuration.
type AppSettings struct {
	ID                 int64     `json:"-" db:"id"`
	MaxPersonsPerClass int       `json:"max_persons_per_class" db:"max_persons_per_class"`
	Currency           string    `json:"currency" db:"currency"`
	Session1Time       string    `json:"session_1_time" db:"session_1_time"`
	Session2Time       string    `json:"session_2_time" db:"session_2_time"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultAppSettings returns the settings materialized when no row exists yet.
func DefaultAppSettings(maxPersons int) AppSettings {
	return AppSettings{
		ID:                 1,
		MaxPersonsPerClass: maxPersons,
		Currency:           "USD",
		Session1Time:       "10:00-13:00",
		Session2Time:       "15:00-18:00",
	}
}
