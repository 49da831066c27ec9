package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/metrics"
	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"
)

// PurchaseRequest DTO
type PurchaseRequest struct {
	Quantity     decimal.Decimal `json:"quantity"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Supplier     *string         `json:"supplier"`
	PurchaseDate *string         `json:"purchase_date"` // YYYY-MM-DD, defaults to today
	Notes        *string         `json:"notes"`
}

// PurchaseResult is the item state after a purchase together with the rows written.
type PurchaseResult struct {
	NewStock    decimal.Decimal     `json:"new_stock"`
	NewUnitCost decimal.Decimal     `json:"new_unit_cost"`
	Log         models.InventoryLog `json:"log"`
	Expense     models.Expense      `json:"expense"`
}

// ReversalResult is the item state after a purchase reversal.
type ReversalResult struct {
	RestoredStock decimal.Decimal     `json:"restored_stock"`
	RestoredCost  decimal.Decimal     `json:"restored_cost"`
	ReversalLog   models.InventoryLog `json:"reversal_log"`
	ExpenseID     *int64              `json:"expense_id,omitempty"`
	Warning       string              `json:"warning"`
}

// PurchaseLedger records stock purchases at weighted-average cost and reverses them.
type PurchaseLedger interface {
	RecordPurchase(ctx context.Context, itemID int64, req PurchaseRequest, actor models.Actor) (*PurchaseResult, error)
	ReversePurchase(ctx context.Context, itemID, logID int64, actor models.Actor) (*ReversalResult, error)
}

type purchaseService struct {
	itemRepo    repositories.InventoryRepository
	logRepo     repositories.InventoryLogRepository
	expenseRepo repositories.ExpenseRepository
	tx          repositories.Transactor
	policy      InventoryPolicy
}

// NewPurchaseService creates a PurchaseLedger.
func NewPurchaseService(
	ir repositories.InventoryRepository,
	lr repositories.InventoryLogRepository,
	er repositories.ExpenseRepository,
	tx repositories.Transactor,
	policy InventoryPolicy,
) PurchaseLedger {
	return &purchaseService{itemRepo: ir, logRepo: lr, expenseRepo: er, tx: tx, policy: policy}
}

func purchaseNote(qty, unitPrice decimal.Decimal, unit string, supplier *string) string {
	note := fmt.Sprintf("Purchase: %s %s @ %s/%s", qty.String(), unit, unitPrice.StringFixed(2), unit)
	if supplier != nil {
		note += " from " + *supplier
	}
	return note
}

func (s *purchaseService) RecordPurchase(ctx context.Context, itemID int64, req PurchaseRequest, actor models.Actor) (*PurchaseResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, validationErrorf("quantity must be positive")
	}
	if !req.TotalCost.IsPositive() {
		return nil, validationErrorf("total_cost must be positive")
	}
	if err := checkScale("quantity", req.Quantity); err != nil {
		return nil, err
	}
	if err := checkScale("total_cost", req.TotalCost); err != nil {
		return nil, err
	}
	purchaseDate := utils.TruncateToDay(time.Now())
	if req.PurchaseDate != nil && !utils.IsEmpty(*req.PurchaseDate) {
		parsed, err := utils.ParseDate(strings.TrimSpace(*req.PurchaseDate))
		if err != nil {
			return nil, fmt.Errorf("%w: purchase_date: %v", ErrValidation, err)
		}
		purchaseDate = parsed
	}
	var supplier *string
	if req.Supplier != nil {
		supplier = utils.NewNullString(*req.Supplier)
	}

	result := &PurchaseResult{}
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		item, err := lockItem(ctx, s.itemRepo, exec, itemID)
		if err != nil {
			return err
		}

		newStock, newCost := models.WeightedAverageCost(item.CurrentStock, item.CurrentCost, req.Quantity, req.TotalCost)
		if err := s.itemRepo.SetStockAndCost(ctx, exec, item.ID, newStock, newCost); err != nil {
			return fmt.Errorf("failed to update item after purchase: %w", err)
		}

		unitPrice := req.TotalCost.DivRound(req.Quantity, models.CostScale)
		note := purchaseNote(req.Quantity, unitPrice, item.Unit, supplier)
		if req.Notes != nil && !utils.IsEmpty(*req.Notes) {
			note += ". " + strings.TrimSpace(*req.Notes)
		}
		log := models.InventoryLog{
			ItemID:        int64Ptr(item.ID),
			ItemName:      item.Name,
			Action:        models.LogActionStockAdjusted,
			OldValue:      models.StockCostSnapshot(item.CurrentStock, item.CurrentCost),
			NewValue:      models.StockCostSnapshot(newStock, newCost),
			Quantity:      decimalPtr(req.Quantity),
			UnitCost:      decimalPtr(unitPrice),
			IsPurchase:    true,
			Supplier:      supplier,
			Notes:         &note,
			PerformedByID: actor.UserIDPtr(),
		}
		if err := appendLog(ctx, s.logRepo, exec, &log); err != nil {
			return err
		}

		if !newCost.Equal(item.CurrentCost) {
			reason := "Purchase"
			entry := models.InventoryPriceHistory{
				ItemID:    item.ID,
				ItemName:  item.Name,
				OldPrice:  decimalPtr(item.CurrentCost),
				NewPrice:  newCost,
				ChangedBy: actor.DisplayName,
				Reason:    &reason,
			}
			if err := s.itemRepo.CreatePriceHistory(ctx, exec, &entry); err != nil {
				return fmt.Errorf("failed to record price history: %w", err)
			}
		}

		category, err := s.expenseRepo.FindOrCreateCategory(ctx, exec, models.CostOfSaleCategoryName)
		if err != nil {
			return fmt.Errorf("failed to resolve expense category: %w", err)
		}
		expense := models.Expense{
			CategoryID:      category.ID,
			Amount:          req.TotalCost,
			Description:     fmt.Sprintf("Purchase of %s %s %s", req.Quantity.String(), item.Unit, item.Name),
			ExpenseDate:     purchaseDate,
			InventoryItemID: int64Ptr(item.ID),
			InventoryLogID:  int64Ptr(log.ID),
			CreatedBy:       actor.UserIDPtr(),
		}
		if err := s.expenseRepo.CreateExpense(ctx, exec, &expense); err != nil {
			return fmt.Errorf("failed to record purchase expense: %w", err)
		}

		result.NewStock = newStock
		result.NewUnitCost = newCost
		result.Log = log
		result.Expense = expense
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Purchase recorded", map[string]interface{}{
		"item_id":  itemID,
		"log_id":   result.Log.ID,
		"quantity": req.Quantity.String(),
		"new_cost": result.NewUnitCost.String(),
	})
	return result, nil
}

func (s *purchaseService) ReversePurchase(ctx context.Context, itemID, logID int64, actor models.Actor) (*ReversalResult, error) {
	result := &ReversalResult{}
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		purchase, err := s.logRepo.GetLogByID(ctx, exec, logID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrLogNotFound, logID)
			}
			return fmt.Errorf("failed to load purchase log: %w", err)
		}
		if !purchase.BelongsTo(itemID) {
			return fmt.Errorf("%w: log %d does not belong to item %d", ErrInvalidOperation, logID, itemID)
		}
		if !purchase.IsReversiblePurchase() {
			return fmt.Errorf("%w: log %d is not a purchase", ErrInvalidOperation, logID)
		}
		if purchase.OldValue == nil || purchase.OldValue.Stock == nil || purchase.OldValue.Cost == nil {
			return fmt.Errorf("%w: purchase log %d", ErrCorruptAuditData, logID)
		}

		item, err := lockItem(ctx, s.itemRepo, exec, itemID)
		if err != nil {
			return err
		}

		restoredStock, restoredCost := *purchase.OldValue.Stock, *purchase.OldValue.Cost
		if err := s.policy.checkStock(item, restoredStock); err != nil {
			return err
		}

		// look the expense up before the FK nulls its link
		expense, err := s.expenseRepo.GetExpenseByInventoryLog(ctx, exec, logID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to look up purchase expense: %w", err)
		}

		if err := s.itemRepo.SetStockAndCost(ctx, exec, item.ID, restoredStock, restoredCost); err != nil {
			return fmt.Errorf("failed to restore item snapshot: %w", err)
		}
		if err := s.logRepo.DeleteLog(ctx, exec, logID); err != nil {
			return fmt.Errorf("failed to delete purchase log: %w", err)
		}

		note := fmt.Sprintf("Reversed purchase #%d: %s", logID, utils.Deref(purchase.Notes))
		reversal := models.InventoryLog{
			ItemID:        int64Ptr(item.ID),
			ItemName:      item.Name,
			Action:        models.LogActionStockAdjusted,
			OldValue:      models.StockCostSnapshot(item.CurrentStock, item.CurrentCost),
			NewValue:      models.StockCostSnapshot(restoredStock, restoredCost),
			Quantity:      decimalPtr(purchase.Quantity.Neg()),
			UnitCost:      purchase.UnitCost,
			Notes:         &note,
			PerformedByID: actor.UserIDPtr(),
		}
		if err := appendLog(ctx, s.logRepo, exec, &reversal); err != nil {
			return err
		}

		if !restoredCost.Equal(item.CurrentCost) {
			reason := fmt.Sprintf("Reversal of purchase #%d", logID)
			entry := models.InventoryPriceHistory{
				ItemID:    item.ID,
				ItemName:  item.Name,
				OldPrice:  decimalPtr(item.CurrentCost),
				NewPrice:  restoredCost,
				ChangedBy: actor.DisplayName,
				Reason:    &reason,
			}
			if err := s.itemRepo.CreatePriceHistory(ctx, exec, &entry); err != nil {
				return fmt.Errorf("failed to record price history: %w", err)
			}
		}

		result.RestoredStock = restoredStock
		result.RestoredCost = restoredCost
		result.ReversalLog = reversal
		if expense != nil {
			result.ExpenseID = int64Ptr(expense.ID)
			result.Warning = fmt.Sprintf("Expense #%d (%s) for this purchase was not removed. Delete it manually.",
				expense.ID, expense.Amount.StringFixed(2))
		} else {
			result.Warning = "The expense recorded for this purchase was not removed. Delete it manually."
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObservePurchaseReversal()
	utils.LogInfo("Purchase reversed", map[string]interface{}{
		"item_id":        itemID,
		"log_id":         logID,
		"restored_stock": result.RestoredStock.String(),
		"restored_cost":  result.RestoredCost.String(),
	})
	return result, nil
}
