package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
)

// InventoryLogRepository is the append-only audit trail of stock and catalogue mutations.
// The only delete is DeleteLog, reserved for purchase reversal.
type InventoryLogRepository interface {
	CreateLog(ctx context.Context, executor SQLExecutor, log *models.InventoryLog) error
	GetLogByID(ctx context.Context, executor SQLExecutor, id int64) (*models.InventoryLog, error)
	// ListByItem returns the item's logs newest first; purchasesOnly applies the purchase predicate.
	ListByItem(ctx context.Context, executor SQLExecutor, itemID int64, purchasesOnly bool) ([]models.InventoryLog, error)
	// ListByBooking returns every row correlated to the booking, oldest first.
	ListByBooking(ctx context.Context, executor SQLExecutor, bookingID int64) ([]models.InventoryLog, error)
	// ListBookingLinked returns booking-correlated rows created in [from, to).
	ListBookingLinked(ctx context.Context, executor SQLExecutor, from, to time.Time) ([]models.InventoryLog, error)
	DeleteLog(ctx context.Context, executor SQLExecutor, id int64) error
}

type inventoryLogRepository struct{}

// NewInventoryLogRepository creates a new instance of InventoryLogRepository.
func NewInventoryLogRepository() InventoryLogRepository {
	return &inventoryLogRepository{}
}

const logColumns = `id, item_id, item_name, action,
	old_stock, old_cost, old_name, old_unit,
	new_stock, new_cost, new_name, new_unit,
	quantity, unit_cost, is_purchase, supplier, notes, performed_by_id, booking_id, created_at`

type snapshotColumns struct {
	stock, cost decimal.NullDecimal
	name, unit  sql.NullString
}

func (c snapshotColumns) toSnapshot() *models.Snapshot {
	if !c.stock.Valid && !c.cost.Valid && !c.name.Valid && !c.unit.Valid {
		return nil
	}
	return &models.Snapshot{
		Stock: nullDecimalPtr(c.stock),
		Cost:  nullDecimalPtr(c.cost),
		Name:  nullStringPtr(c.name),
		Unit:  nullStringPtr(c.unit),
	}
}

func snapshotArgs(s *models.Snapshot) []interface{} {
	if s == nil {
		return []interface{}{nil, nil, nil, nil}
	}
	return []interface{}{decimalArg(s.Stock), decimalArg(s.Cost), s.Name, s.Unit}
}

func scanLog(s scanner) (*models.InventoryLog, error) {
	var l models.InventoryLog
	var oldCols, newCols snapshotColumns
	var itemID, performedBy, bookingID sql.NullInt64
	var quantity, unitCost decimal.NullDecimal
	var supplier, notes sql.NullString
	var action string

	if err := s.Scan(&l.ID, &itemID, &l.ItemName, &action,
		&oldCols.stock, &oldCols.cost, &oldCols.name, &oldCols.unit,
		&newCols.stock, &newCols.cost, &newCols.name, &newCols.unit,
		&quantity, &unitCost, &l.IsPurchase, &supplier, &notes, &performedBy, &bookingID, &l.CreatedAt,
	); err != nil {
		return nil, err
	}

	l.Action = models.LogAction(action)
	l.ItemID = nullInt64Ptr(itemID)
	l.OldValue = oldCols.toSnapshot()
	l.NewValue = newCols.toSnapshot()
	l.Quantity = nullDecimalPtr(quantity)
	l.UnitCost = nullDecimalPtr(unitCost)
	l.Supplier = nullStringPtr(supplier)
	l.Notes = nullStringPtr(notes)
	l.PerformedByID = nullInt64Ptr(performedBy)
	l.BookingID = nullInt64Ptr(bookingID)
	return &l, nil
}

func (r *inventoryLogRepository) CreateLog(ctx context.Context, executor SQLExecutor, log *models.InventoryLog) error {
	query := `INSERT INTO inventory_logs
	          (item_id, item_name, action,
	           old_stock, old_cost, old_name, old_unit,
	           new_stock, new_cost, new_name, new_unit,
	           quantity, unit_cost, is_purchase, supplier, notes, performed_by_id, booking_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	          RETURNING id`
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	args := []interface{}{log.ItemID, log.ItemName, string(log.Action)}
	args = append(args, snapshotArgs(log.OldValue)...)
	args = append(args, snapshotArgs(log.NewValue)...)
	args = append(args,
		decimalArg(log.Quantity), decimalArg(log.UnitCost), log.IsPurchase, log.Supplier, log.Notes,
		log.PerformedByID, log.BookingID, log.CreatedAt,
	)

	err := executor.QueryRowContext(ctx, query, args...).Scan(&log.ID)
	return wrapError(err, "creating inventory log")
}

func (r *inventoryLogRepository) GetLogByID(ctx context.Context, executor SQLExecutor, id int64) (*models.InventoryLog, error) {
	row := executor.QueryRowContext(ctx, `SELECT `+logColumns+` FROM inventory_logs WHERE id = $1`, id)
	l, err := scanLog(row)
	if err != nil {
		return nil, wrapError(err, "getting inventory log")
	}
	return l, nil
}

func (r *inventoryLogRepository) ListByItem(ctx context.Context, executor SQLExecutor, itemID int64, purchasesOnly bool) ([]models.InventoryLog, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + logColumns + ` FROM inventory_logs WHERE item_id = $1`)
	if purchasesOnly {
		queryBuilder.WriteString(fmt.Sprintf(` AND action = '%s' AND is_purchase AND quantity > 0`, models.LogActionStockAdjusted))
	}
	queryBuilder.WriteString(` ORDER BY created_at DESC, id DESC`)
	return r.query(ctx, executor, "listing item logs", queryBuilder.String(), itemID)
}

func (r *inventoryLogRepository) ListByBooking(ctx context.Context, executor SQLExecutor, bookingID int64) ([]models.InventoryLog, error) {
	return r.query(ctx, executor, "listing booking logs",
		`SELECT `+logColumns+` FROM inventory_logs WHERE booking_id = $1 ORDER BY created_at, id`, bookingID)
}

func (r *inventoryLogRepository) ListBookingLinked(ctx context.Context, executor SQLExecutor, from, to time.Time) ([]models.InventoryLog, error) {
	return r.query(ctx, executor, "listing booking-linked logs",
		`SELECT `+logColumns+` FROM inventory_logs
		 WHERE booking_id IS NOT NULL AND created_at >= $1 AND created_at < $2
		 ORDER BY created_at, id`, from, to)
}

func (r *inventoryLogRepository) DeleteLog(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM inventory_logs WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "deleting inventory log")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryLogRepository) query(ctx context.Context, executor SQLExecutor, op, query string, args ...interface{}) ([]models.InventoryLog, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, op)
	}
	defer rows.Close()

	logs := []models.InventoryLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, wrapError(err, op)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, op)
	}
	return logs, nil
}
