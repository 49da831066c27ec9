package models

import "time"

// Role names used for authorization.
const (
	RoleAdmin = "Admin"
	RoleStaff = "Staff"
)

// User represents a studio operator who can sign in.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        *string   `json:"email,omitempty" db:"email"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	RoleID       *int64    `json:"role_id,omitempty" db:"role_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	Role         *Role     `json:"role,omitempty"`
}

// DisplayName is the name snapshot written into price history rows.
func (u User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}

// Role represents a user role
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Actor identifies who performs an engine operation.
type Actor struct {
	UserID      int64
	DisplayName string
	Role        string
}

// UserIDPtr returns a pointer suitable for nullable performed_by columns.
func (a Actor) UserIDPtr() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
