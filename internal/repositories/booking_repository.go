package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"art_studio_backend/internal/models"
)

// BookingRepository defines the interface for booking-related database operations.
type BookingRepository interface {
	CreateBooking(ctx context.Context, executor SQLExecutor, booking *models.Booking) error
	GetBookingByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Booking, error)
	GetBookingForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Booking, error)
	GetBookings(ctx context.Context, executor SQLExecutor, filters models.BookingFilters) ([]models.Booking, int, error)
	UpdateBooking(ctx context.Context, executor SQLExecutor, booking *models.Booking) error
	DeleteBooking(ctx context.Context, executor SQLExecutor, id int64) error

	// SumBookedPeople totals number_of_people of non-cancelled bookings in one (date, slot) bucket,
	// skipping excludeID when set.
	SumBookedPeople(ctx context.Context, executor SQLExecutor, date time.Time, slot models.SessionTime, excludeID *int64) (int, error)
	// LockSession serializes capacity decisions for one (date, slot) bucket until the transaction ends.
	LockSession(ctx context.Context, executor SQLExecutor, date time.Time, slot models.SessionTime) error
}

type bookingRepository struct{}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository() BookingRepository {
	return &bookingRepository{}
}

const bookingColumns = `id, customer_name, customer_email, customer_phone, session_date, session_time,
	number_of_people, status, notes, created_by, created_at, updated_at`

func scanBooking(s scanner, extra ...interface{}) (*models.Booking, error) {
	var b models.Booking
	var email, phone, notes sql.NullString
	var createdBy sql.NullInt64
	var slot, status string
	dest := []interface{}{&b.ID, &b.CustomerName, &email, &phone, &b.SessionDate, &slot,
		&b.NumberOfPeople, &status, &notes, &createdBy, &b.CreatedAt, &b.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.SessionTime = models.SessionTime(slot)
	b.Status = models.BookingStatus(status)
	b.CustomerEmail = nullStringPtr(email)
	b.CustomerPhone = nullStringPtr(phone)
	b.Notes = nullStringPtr(notes)
	b.CreatedBy = nullInt64Ptr(createdBy)
	return &b, nil
}

func sessionDateArg(t time.Time) string {
	return t.Format("2006-01-02")
}

func (r *bookingRepository) CreateBooking(ctx context.Context, executor SQLExecutor, booking *models.Booking) error {
	query := `INSERT INTO bookings
	          (customer_name, customer_email, customer_phone, session_date, session_time, number_of_people, status, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone, sessionDateArg(booking.SessionDate),
		string(booking.SessionTime), booking.NumberOfPeople, string(booking.Status), booking.Notes, booking.CreatedBy, time.Now(),
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return wrapError(err, "creating booking")
}

func (r *bookingRepository) GetBookingByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Booking, error) {
	b, err := scanBooking(executor.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return nil, wrapError(err, "getting booking")
	}
	return b, nil
}

func (r *bookingRepository) GetBookingForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Booking, error) {
	b, err := scanBooking(executor.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrapError(err, "locking booking")
	}
	return b, nil
}

func (r *bookingRepository) GetBookings(ctx context.Context, executor SQLExecutor, filters models.BookingFilters) ([]models.Booking, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + bookingColumns + `, COUNT(*) OVER() AS total_count FROM bookings`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", argCount))
		args = append(args, sessionDateArg(*filters.DateFrom))
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", argCount))
		args = append(args, sessionDateArg(*filters.DateTo))
		argCount++
	}
	if filters.SessionTime != nil {
		conditions = append(conditions, fmt.Sprintf("session_time = $%d", argCount))
		args = append(args, string(*filters.SessionTime))
		argCount++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, string(*filters.Status))
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY session_date DESC, session_time, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapError(err, "getting bookings")
	}
	defer rows.Close()

	bookings := []models.Booking{}
	totalCount := 0
	for rows.Next() {
		b, err := scanBooking(rows, &totalCount)
		if err != nil {
			return nil, 0, wrapError(err, "scanning booking")
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError(err, "iterating bookings")
	}
	return bookings, totalCount, nil
}

func (r *bookingRepository) UpdateBooking(ctx context.Context, executor SQLExecutor, booking *models.Booking) error {
	query := `UPDATE bookings SET customer_name = $1, customer_email = $2, customer_phone = $3, session_date = $4,
	          session_time = $5, number_of_people = $6, status = $7, notes = $8, updated_at = $9
	          WHERE id = $10
	          RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query,
		booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone, sessionDateArg(booking.SessionDate),
		string(booking.SessionTime), booking.NumberOfPeople, string(booking.Status), booking.Notes, time.Now(), booking.ID,
	).Scan(&booking.UpdatedAt)
	return wrapError(err, "updating booking")
}

func (r *bookingRepository) DeleteBooking(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "deleting booking")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookingRepository) SumBookedPeople(ctx context.Context, executor SQLExecutor, date time.Time, slot models.SessionTime, excludeID *int64) (int, error) {
	query := `SELECT COALESCE(SUM(number_of_people), 0)
	          FROM bookings
	          WHERE session_date = $1 AND session_time = $2 AND status <> $3`
	args := []interface{}{sessionDateArg(date), string(slot), string(models.BookingStatusCancelled)}
	if excludeID != nil {
		query += ` AND id <> $4`
		args = append(args, *excludeID)
	}

	var total int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, wrapError(err, "summing booked people")
	}
	return total, nil
}

func (r *bookingRepository) LockSession(ctx context.Context, executor SQLExecutor, date time.Time, slot models.SessionTime) error {
	_, err := executor.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, sessionLockKey(date, slot))
	return wrapError(err, "locking session bucket")
}

// sessionLockKey maps a (date, slot) bucket onto the bigint advisory lock space.
func sessionLockKey(date time.Time, slot models.SessionTime) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("booking-session:" + sessionDateArg(date) + ":" + string(slot)))
	return int64(h.Sum64())
}
