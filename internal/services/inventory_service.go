package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"
)

// --- Inventory DTOs ---

type CreateInventoryItemRequest struct {
	Name         string           `json:"name" binding:"required"`
	Unit         string           `json:"unit" binding:"required"`
	CurrentStock *decimal.Decimal `json:"current_stock"`
	CurrentCost  *decimal.Decimal `json:"current_cost"`
	ReorderLevel *decimal.Decimal `json:"reorder_level"`
}

// UpdateInventoryItemRequest DTO. Nil fields are left unchanged.
type UpdateInventoryItemRequest struct {
	Name              *string          `json:"name"`
	Unit              *string          `json:"unit"`
	CurrentStock      *decimal.Decimal `json:"current_stock"`
	CurrentCost       *decimal.Decimal `json:"current_cost"`
	ReorderLevel      *decimal.Decimal `json:"reorder_level"`
	ClearReorderLevel bool             `json:"clear_reorder_level"`
	Reason            *string          `json:"reason"`
}

// InventoryService is the catalogue and audit-trail API over inventory items.
type InventoryService interface {
	CreateItem(ctx context.Context, req CreateInventoryItemRequest, actor models.Actor) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, id int64, req UpdateInventoryItemRequest, actor models.Actor) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id int64, actor models.Actor) error

	ListLogs(ctx context.Context, itemID int64) ([]models.InventoryLog, error)
	ListPurchases(ctx context.Context, itemID int64) ([]models.InventoryLog, error)
	ListPriceHistory(ctx context.Context, itemID int64) ([]models.InventoryPriceHistory, error)
}

type inventoryService struct {
	itemRepo repositories.InventoryRepository
	logRepo  repositories.InventoryLogRepository
	db       repositories.SQLExecutor
	tx       repositories.Transactor
	policy   InventoryPolicy
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(
	ir repositories.InventoryRepository,
	lr repositories.InventoryLogRepository,
	db repositories.SQLExecutor,
	tx repositories.Transactor,
	policy InventoryPolicy,
) InventoryService {
	return &inventoryService{itemRepo: ir, logRepo: lr, db: db, tx: tx, policy: policy}
}

func (s *inventoryService) CreateItem(ctx context.Context, req CreateInventoryItemRequest, actor models.Actor) (*models.InventoryItem, error) {
	name, unit := strings.TrimSpace(req.Name), strings.TrimSpace(req.Unit)
	if name == "" || unit == "" {
		return nil, validationErrorf("name and unit are required")
	}
	item := &models.InventoryItem{
		Name:         name,
		Unit:         unit,
		ReorderLevel: req.ReorderLevel,
		CreatedBy:    actor.UserIDPtr(),
	}
	if req.CurrentStock != nil {
		if req.CurrentStock.IsNegative() {
			return nil, validationErrorf("current_stock must not be negative")
		}
		if err := checkScale("current_stock", *req.CurrentStock); err != nil {
			return nil, err
		}
		item.CurrentStock = *req.CurrentStock
	}
	if req.CurrentCost != nil {
		if req.CurrentCost.IsNegative() {
			return nil, validationErrorf("current_cost must not be negative")
		}
		item.CurrentCost = req.CurrentCost.Round(models.CostScale)
	}
	if item.ReorderLevel != nil {
		if item.ReorderLevel.IsNegative() {
			return nil, validationErrorf("reorder_level must not be negative")
		}
		if err := checkScale("reorder_level", *item.ReorderLevel); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.itemRepo.CreateItem(ctx, exec, item); err != nil {
			return fmt.Errorf("failed to create inventory item: %w", err)
		}

		reason := "Initial price"
		initial := models.InventoryPriceHistory{
			ItemID:    item.ID,
			ItemName:  item.Name,
			NewPrice:  item.CurrentCost,
			ChangedBy: actor.DisplayName,
			Reason:    &reason,
		}
		if err := s.itemRepo.CreatePriceHistory(ctx, exec, &initial); err != nil {
			return fmt.Errorf("failed to record initial price: %w", err)
		}

		return appendLog(ctx, s.logRepo, exec, &models.InventoryLog{
			ItemID:        int64Ptr(item.ID),
			ItemName:      item.Name,
			Action:        models.LogActionCreated,
			NewValue:      models.FullSnapshot(*item),
			Quantity:      decimalPtr(item.CurrentStock),
			UnitCost:      decimalPtr(item.CurrentCost),
			PerformedByID: actor.UserIDPtr(),
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := s.itemRepo.GetItemByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.itemRepo.ListItems(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return items, nil
}

// UpdateItem applies catalogue edits, manual stock corrections and price changes,
// each with its own log row.
func (s *inventoryService) UpdateItem(ctx context.Context, id int64, req UpdateInventoryItemRequest, actor models.Actor) (*models.InventoryItem, error) {
	var updated *models.InventoryItem
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		item, err := lockItem(ctx, s.itemRepo, exec, id)
		if err != nil {
			return err
		}
		before := *item
		next := *item

		if req.Name != nil {
			if next.Name = strings.TrimSpace(*req.Name); next.Name == "" {
				return validationErrorf("name must not be empty")
			}
		}
		if req.Unit != nil {
			if next.Unit = strings.TrimSpace(*req.Unit); next.Unit == "" {
				return validationErrorf("unit must not be empty")
			}
		}
		if req.ClearReorderLevel {
			next.ReorderLevel = nil
		} else if req.ReorderLevel != nil {
			if req.ReorderLevel.IsNegative() {
				return validationErrorf("reorder_level must not be negative")
			}
			if err := checkScale("reorder_level", *req.ReorderLevel); err != nil {
				return err
			}
			next.ReorderLevel = req.ReorderLevel
		}
		if req.CurrentStock != nil {
			if err := checkScale("current_stock", *req.CurrentStock); err != nil {
				return err
			}
			next.CurrentStock = *req.CurrentStock
			if err := s.policy.checkStock(&before, next.CurrentStock); err != nil {
				return err
			}
		}
		if req.CurrentCost != nil {
			if req.CurrentCost.IsNegative() {
				return validationErrorf("current_cost must not be negative")
			}
			next.CurrentCost = req.CurrentCost.Round(models.CostScale)
		}

		if err := s.itemRepo.UpdateItem(ctx, exec, &next); err != nil {
			return fmt.Errorf("failed to update inventory item: %w", err)
		}

		var notes *string
		if req.Reason != nil {
			notes = utils.NewNullString(*req.Reason)
		}

		catalogueChanged := next.Name != before.Name || next.Unit != before.Unit || !sameDecimal(next.ReorderLevel, before.ReorderLevel)
		if catalogueChanged {
			if err := appendLog(ctx, s.logRepo, exec, &models.InventoryLog{
				ItemID:        int64Ptr(next.ID),
				ItemName:      next.Name,
				Action:        models.LogActionUpdated,
				OldValue:      models.FullSnapshot(before),
				NewValue:      models.FullSnapshot(next),
				Notes:         notes,
				PerformedByID: actor.UserIDPtr(),
			}); err != nil {
				return err
			}
		}

		if !next.CurrentStock.Equal(before.CurrentStock) {
			if err := appendLog(ctx, s.logRepo, exec, &models.InventoryLog{
				ItemID:        int64Ptr(next.ID),
				ItemName:      next.Name,
				Action:        models.LogActionStockAdjusted,
				OldValue:      models.StockSnapshot(before.CurrentStock),
				NewValue:      models.StockSnapshot(next.CurrentStock),
				Quantity:      decimalPtr(next.CurrentStock.Sub(before.CurrentStock)),
				UnitCost:      decimalPtr(next.CurrentCost),
				Notes:         notes,
				PerformedByID: actor.UserIDPtr(),
			}); err != nil {
				return err
			}
		}

		if !next.CurrentCost.Equal(before.CurrentCost) {
			if err := appendLog(ctx, s.logRepo, exec, &models.InventoryLog{
				ItemID:        int64Ptr(next.ID),
				ItemName:      next.Name,
				Action:        models.LogActionPriceChanged,
				OldValue:      models.CostSnapshot(before.CurrentCost),
				NewValue:      models.CostSnapshot(next.CurrentCost),
				Notes:         notes,
				PerformedByID: actor.UserIDPtr(),
			}); err != nil {
				return err
			}
			entry := models.InventoryPriceHistory{
				ItemID:    next.ID,
				ItemName:  next.Name,
				OldPrice:  decimalPtr(before.CurrentCost),
				NewPrice:  next.CurrentCost,
				ChangedBy: actor.DisplayName,
				Reason:    notes,
			}
			if err := s.itemRepo.CreatePriceHistory(ctx, exec, &entry); err != nil {
				return fmt.Errorf("failed to record price history: %w", err)
			}
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes the item. Its log rows survive with a null item reference.
func (s *inventoryService) DeleteItem(ctx context.Context, id int64, actor models.Actor) error {
	return s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		item, err := lockItem(ctx, s.itemRepo, exec, id)
		if err != nil {
			return err
		}
		if err := appendLog(ctx, s.logRepo, exec, &models.InventoryLog{
			ItemID:        int64Ptr(item.ID),
			ItemName:      item.Name,
			Action:        models.LogActionDeleted,
			OldValue:      models.FullSnapshot(*item),
			PerformedByID: actor.UserIDPtr(),
		}); err != nil {
			return err
		}
		if err := s.itemRepo.DeleteItem(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete inventory item: %w", err)
		}
		utils.LogInfo("Inventory item deleted", map[string]interface{}{"item_id": id, "name": item.Name})
		return nil
	})
}

func (s *inventoryService) ListLogs(ctx context.Context, itemID int64) ([]models.InventoryLog, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListByItem(ctx, s.db, itemID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory logs: %w", err)
	}
	return logs, nil
}

func (s *inventoryService) ListPurchases(ctx context.Context, itemID int64) ([]models.InventoryLog, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListByItem(ctx, s.db, itemID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return logs, nil
}

func (s *inventoryService) ListPriceHistory(ctx context.Context, itemID int64) ([]models.InventoryPriceHistory, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	history, err := s.itemRepo.ListPriceHistory(ctx, s.db, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	return history, nil
}

func sameDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
