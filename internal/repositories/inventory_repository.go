package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
)

// InventoryRepository defines the database operations for inventory items and their price history.
type InventoryRepository interface {
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error
	GetItemByID(ctx context.Context, executor SQLExecutor, id int64) (*models.InventoryItem, error)
	// GetItemForUpdate locks the item row until the surrounding transaction ends.
	GetItemForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.InventoryItem, error)
	ListItems(ctx context.Context, executor SQLExecutor) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error
	SetStockAndCost(ctx context.Context, executor SQLExecutor, id int64, stock, cost decimal.Decimal) error
	DeleteItem(ctx context.Context, executor SQLExecutor, id int64) error

	CreatePriceHistory(ctx context.Context, executor SQLExecutor, entry *models.InventoryPriceHistory) error
	ListPriceHistory(ctx context.Context, executor SQLExecutor, itemID int64) ([]models.InventoryPriceHistory, error)
}

type inventoryRepository struct{}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository() InventoryRepository {
	return &inventoryRepository{}
}

const itemColumns = `id, name, unit, current_stock, current_cost, reorder_level, created_by, created_at, updated_at`

func scanItem(s scanner) (*models.InventoryItem, error) {
	var item models.InventoryItem
	var reorder decimal.NullDecimal
	var createdBy sql.NullInt64
	if err := s.Scan(&item.ID, &item.Name, &item.Unit, &item.CurrentStock, &item.CurrentCost,
		&reorder, &createdBy, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.ReorderLevel = nullDecimalPtr(reorder)
	item.CreatedBy = nullInt64Ptr(createdBy)
	return &item, nil
}

func (r *inventoryRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error {
	query := `INSERT INTO inventory_items (name, unit, current_stock, current_cost, reorder_level, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          RETURNING id, created_at, updated_at`
	now := time.Now()
	err := executor.QueryRowContext(ctx, query,
		item.Name, item.Unit, item.CurrentStock, item.CurrentCost, decimalArg(item.ReorderLevel), item.CreatedBy, now,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return wrapError(err, "creating inventory item")
}

func (r *inventoryRepository) GetItemByID(ctx context.Context, executor SQLExecutor, id int64) (*models.InventoryItem, error) {
	row := executor.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		return nil, wrapError(err, "getting inventory item")
	}
	return item, nil
}

func (r *inventoryRepository) GetItemForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.InventoryItem, error) {
	row := executor.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id)
	item, err := scanItem(row)
	if err != nil {
		return nil, wrapError(err, "locking inventory item")
	}
	return item, nil
}

func (r *inventoryRepository) ListItems(ctx context.Context, executor SQLExecutor) ([]models.InventoryItem, error) {
	rows, err := executor.QueryContext(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY name, id`)
	if err != nil {
		return nil, wrapError(err, "listing inventory items")
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, wrapError(err, "scanning inventory item")
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "iterating inventory items")
	}
	return items, nil
}

func (r *inventoryRepository) UpdateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory_items
	          SET name = $1, unit = $2, current_stock = $3, current_cost = $4, reorder_level = $5, updated_at = $6
	          WHERE id = $7
	          RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query,
		item.Name, item.Unit, item.CurrentStock, item.CurrentCost, decimalArg(item.ReorderLevel), time.Now(), item.ID,
	).Scan(&item.UpdatedAt)
	return wrapError(err, "updating inventory item")
}

func (r *inventoryRepository) SetStockAndCost(ctx context.Context, executor SQLExecutor, id int64, stock, cost decimal.Decimal) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE inventory_items SET current_stock = $1, current_cost = $2, updated_at = $3 WHERE id = $4`,
		stock, cost, time.Now(), id)
	if err != nil {
		return wrapError(err, "setting stock and cost")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) DeleteItem(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "deleting inventory item")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) CreatePriceHistory(ctx context.Context, executor SQLExecutor, entry *models.InventoryPriceHistory) error {
	query := `INSERT INTO inventory_price_history (item_id, item_name, old_price, new_price, changed_by, reason, effective_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if entry.EffectiveDate.IsZero() {
		entry.EffectiveDate = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		entry.ItemID, entry.ItemName, decimalArg(entry.OldPrice), entry.NewPrice, entry.ChangedBy, entry.Reason, entry.EffectiveDate,
	).Scan(&entry.ID)
	return wrapError(err, "creating price history")
}

func (r *inventoryRepository) ListPriceHistory(ctx context.Context, executor SQLExecutor, itemID int64) ([]models.InventoryPriceHistory, error) {
	rows, err := executor.QueryContext(ctx,
		`SELECT id, item_id, item_name, old_price, new_price, changed_by, reason, effective_date
		 FROM inventory_price_history WHERE item_id = $1
		 ORDER BY effective_date DESC, id DESC`, itemID)
	if err != nil {
		return nil, wrapError(err, "listing price history")
	}
	defer rows.Close()

	history := []models.InventoryPriceHistory{}
	for rows.Next() {
		var h models.InventoryPriceHistory
		var oldPrice decimal.NullDecimal
		var reason sql.NullString
		if err := rows.Scan(&h.ID, &h.ItemID, &h.ItemName, &oldPrice, &h.NewPrice, &h.ChangedBy, &reason, &h.EffectiveDate); err != nil {
			return nil, wrapError(err, "scanning price history")
		}
		h.OldPrice = nullDecimalPtr(oldPrice)
		h.Reason = nullStringPtr(reason)
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "iterating price history")
	}
	return history, nil
}
