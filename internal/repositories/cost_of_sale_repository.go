package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
)

// CostOfSaleRepository stores the per-person consumption recipe.
type CostOfSaleRepository interface {
	ListCostOfSaleItems(ctx context.Context, executor SQLExecutor) ([]models.CostOfSaleItem, error)
	GetCostOfSaleItem(ctx context.Context, executor SQLExecutor, id int64) (*models.CostOfSaleItem, error)
	// CreateCostOfSaleItem returns ErrDuplicateKey when the item is already configured.
	CreateCostOfSaleItem(ctx context.Context, executor SQLExecutor, entry *models.CostOfSaleItem) error
	UpdateQuantityPerPerson(ctx context.Context, executor SQLExecutor, id int64, qty decimal.Decimal) error
	DeleteCostOfSaleItem(ctx context.Context, executor SQLExecutor, id int64) error
}

type costOfSaleRepository struct{}

// NewCostOfSaleRepository creates a new instance of CostOfSaleRepository.
func NewCostOfSaleRepository() CostOfSaleRepository {
	return &costOfSaleRepository{}
}

const costOfSaleSelect = `SELECT c.id, c.item_id, c.quantity_per_person, c.created_at, c.updated_at,
	i.id, i.name, i.unit, i.current_stock, i.current_cost, i.reorder_level, i.created_by, i.created_at, i.updated_at
	FROM cost_of_sale_items c
	JOIN inventory_items i ON i.id = c.item_id`

type costOfSaleRow struct {
	scanner
}

func (r costOfSaleRow) scan() (*models.CostOfSaleItem, error) {
	var entry models.CostOfSaleItem
	var item models.InventoryItem
	var reorder decimal.NullDecimal
	var createdBy sql.NullInt64
	if err := r.Scan(&entry.ID, &entry.ItemID, &entry.QuantityPerPerson, &entry.CreatedAt, &entry.UpdatedAt,
		&item.ID, &item.Name, &item.Unit, &item.CurrentStock, &item.CurrentCost, &reorder, &createdBy, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.ReorderLevel = nullDecimalPtr(reorder)
	item.CreatedBy = nullInt64Ptr(createdBy)
	entry.Item = &item
	return &entry, nil
}

func (r *costOfSaleRepository) ListCostOfSaleItems(ctx context.Context, executor SQLExecutor) ([]models.CostOfSaleItem, error) {
	rows, err := executor.QueryContext(ctx, costOfSaleSelect+` ORDER BY i.name, c.id`)
	if err != nil {
		return nil, wrapError(err, "listing cost of sale items")
	}
	defer rows.Close()

	entries := []models.CostOfSaleItem{}
	for rows.Next() {
		entry, err := costOfSaleRow{rows}.scan()
		if err != nil {
			return nil, wrapError(err, "scanning cost of sale item")
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "iterating cost of sale items")
	}
	return entries, nil
}

func (r *costOfSaleRepository) GetCostOfSaleItem(ctx context.Context, executor SQLExecutor, id int64) (*models.CostOfSaleItem, error) {
	entry, err := costOfSaleRow{executor.QueryRowContext(ctx, costOfSaleSelect+` WHERE c.id = $1`, id)}.scan()
	if err != nil {
		return nil, wrapError(err, "getting cost of sale item")
	}
	return entry, nil
}

func (r *costOfSaleRepository) CreateCostOfSaleItem(ctx context.Context, executor SQLExecutor, entry *models.CostOfSaleItem) error {
	query := `INSERT INTO cost_of_sale_items (item_id, quantity_per_person, created_at, updated_at)
	          VALUES ($1, $2, $3, $3)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, entry.ItemID, entry.QuantityPerPerson, time.Now()).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	return wrapError(err, "creating cost of sale item")
}

func (r *costOfSaleRepository) UpdateQuantityPerPerson(ctx context.Context, executor SQLExecutor, id int64, qty decimal.Decimal) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE cost_of_sale_items SET quantity_per_person = $1, updated_at = $2 WHERE id = $3`, qty, time.Now(), id)
	if err != nil {
		return wrapError(err, "updating cost of sale item")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *costOfSaleRepository) DeleteCostOfSaleItem(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM cost_of_sale_items WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "deleting cost of sale item")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
