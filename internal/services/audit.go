package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/metrics"
	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
)

// InventoryPolicy holds the stock rules shared by every engine operation.
type InventoryPolicy struct {
	AllowNegativeStock bool
}

// checkScale rejects quantities the NUMERIC(14,4) columns would round.
func checkScale(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(models.CostScale)) {
		return validationErrorf("%s allows at most %d decimal places", field, models.CostScale)
	}
	return nil
}

// checkStock rejects a write that would push stock further below zero when the policy forbids it.
// Writes that raise stock are always allowed.
func (p InventoryPolicy) checkStock(item *models.InventoryItem, newStock decimal.Decimal) error {
	if p.AllowNegativeStock || !newStock.IsNegative() || newStock.GreaterThanOrEqual(item.CurrentStock) {
		return nil
	}
	return fmt.Errorf("%w: %s would drop to %s %s", ErrInsufficientStock, item.Name, newStock.String(), item.Unit)
}

// appendLog writes one audit row on exec and counts it.
func appendLog(ctx context.Context, repo repositories.InventoryLogRepository, exec repositories.SQLExecutor, log *models.InventoryLog) error {
	if err := repo.CreateLog(ctx, exec, log); err != nil {
		return fmt.Errorf("failed to write %s log for %s: %w", log.Action, log.ItemName, err)
	}
	metrics.ObserveLogWritten(string(log.Action))
	return nil
}

// lockItem loads an item FOR UPDATE, mapping a missing row to ErrItemNotFound.
func lockItem(ctx context.Context, repo repositories.InventoryRepository, exec repositories.SQLExecutor, itemID int64) (*models.InventoryItem, error) {
	item, err := repo.GetItemForUpdate(ctx, exec, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to lock inventory item %d: %w", itemID, err)
	}
	return item, nil
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func int64Ptr(v int64) *int64 {
	return &v
}
