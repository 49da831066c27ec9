package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"
)

// ConsumptionEngine debits and credits cost-of-sale stock for bookings.
// The *Tx variants join the caller's transaction; the others open their own.
type ConsumptionEngine interface {
	Consume(ctx context.Context, bookingID int64, pax int, actor models.Actor) ([]models.InventoryLog, error)
	ConsumeTx(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, pax int, actor models.Actor) ([]models.InventoryLog, error)
	Adjust(ctx context.Context, bookingID int64, oldPax, newPax int, actor models.Actor) ([]models.InventoryLog, error)
	AdjustTx(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, oldPax, newPax int, actor models.Actor) ([]models.InventoryLog, error)
	Restore(ctx context.Context, bookingID int64, actor models.Actor) ([]models.InventoryLog, error)
	RestoreTx(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, actor models.Actor) ([]models.InventoryLog, error)
}

type consumptionService struct {
	itemRepo   repositories.InventoryRepository
	logRepo    repositories.InventoryLogRepository
	recipeRepo repositories.CostOfSaleRepository
	tx         repositories.Transactor
	policy     InventoryPolicy
}

// NewConsumptionService creates a ConsumptionEngine.
func NewConsumptionService(
	ir repositories.InventoryRepository,
	lr repositories.InventoryLogRepository,
	cr repositories.CostOfSaleRepository,
	tx repositories.Transactor,
	policy InventoryPolicy,
) ConsumptionEngine {
	return &consumptionService{itemRepo: ir, logRepo: lr, recipeRepo: cr, tx: tx, policy: policy}
}

func (s *consumptionService) Consume(ctx context.Context, bookingID int64, pax int, actor models.Actor) ([]models.InventoryLog, error) {
	var logs []models.InventoryLog
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		logs, err = s.ConsumeTx(ctx, exec, bookingID, pax, actor)
		return err
	})
	return logs, err
}

func (s *consumptionService) ConsumeTx(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, pax int, actor models.Actor) ([]models.InventoryLog, error) {
	if pax <= 0 {
		return nil, validationErrorf("number of people must be positive, got %d", pax)
	}
	note := fmt.Sprintf("Auto-consumed for booking #%d (%d people)", bookingID, pax)
	return s.debit(ctx, exec, bookingID, pax, note, actor)
}

func (s *consumptionService) Adjust(ctx context.Context, bookingID int64, oldPax, newPax int, actor models.Actor) ([]models.InventoryLog, error) {
	var logs []models.InventoryLog
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		logs, err = s.AdjustTx(ctx, exec, bookingID, oldPax, newPax, actor)
		return err
	})
	return logs, err
}

func (s *consumptionService) AdjustTx(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, oldPax, newPax int, actor models.Actor) ([]models.InventoryLog, error) {
	diff := newPax - oldPax
	if diff == 0 {
		return nil, nil
	}
	note := fmt.Sprintf("Pax changed %d -> %d", oldPax, newPax)
	return s.debit(ctx, exec, bookingID, diff, note, actor)
}

// debit removes qpp*persons of every recipe item; a negative persons count credits stock back.
func (s *consumptionService) debit(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, persons int, note string, actor models.Actor) ([]models.InventoryLog, error) {
	recipe, err := s.recipeRepo.ListCostOfSaleItems(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("failed to load cost of sale items: %w", err)
	}
	if len(recipe) == 0 {
		return nil, nil
	}

	// lock in item id order so concurrent bookings never deadlock on each other
	sort.Slice(recipe, func(i, j int) bool { return recipe[i].ItemID < recipe[j].ItemID })

	logs := make([]models.InventoryLog, 0, len(recipe))
	for _, entry := range recipe {
		item, err := lockItem(ctx, s.itemRepo, exec, entry.ItemID)
		if err != nil {
			return nil, err
		}

		delta := models.ConsumptionDelta(entry.QuantityPerPerson, persons)
		newStock := item.CurrentStock.Sub(delta)
		if err := s.policy.checkStock(item, newStock); err != nil {
			return nil, err
		}
		if err := s.itemRepo.SetStockAndCost(ctx, exec, item.ID, newStock, item.CurrentCost); err != nil {
			return nil, fmt.Errorf("failed to update stock of %s: %w", item.Name, err)
		}

		log := models.InventoryLog{
			ItemID:        int64Ptr(item.ID),
			ItemName:      item.Name,
			Action:        models.LogActionAutoConsumed,
			OldValue:      models.StockSnapshot(item.CurrentStock),
			NewValue:      models.StockSnapshot(newStock),
			Quantity:      decimalPtr(delta.Neg()),
			UnitCost:      decimalPtr(item.CurrentCost),
			Notes:         utils.NewNullString(note),
			PerformedByID: actor.UserIDPtr(),
			BookingID:     int64Ptr(bookingID),
		}
		if err := appendLog(ctx, s.logRepo, exec, &log); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	utils.LogInfo("Booking consumption applied", map[string]interface{}{
		"booking_id": bookingID,
		"persons":    persons,
		"items":      len(logs),
	})
	return logs, nil
}

func (s *consumptionService) Restore(ctx context.Context, bookingID int64, actor models.Actor) ([]models.InventoryLog, error) {
	var logs []models.InventoryLog
	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		logs, err = s.RestoreTx(ctx, exec, bookingID, actor)
		return err
	})
	return logs, err
}

type restoreBalance struct {
	quantity decimal.Decimal
	value    decimal.Decimal
	costed   bool
}

// RestoreTx replays the booking's log trail and credits back whatever is still consumed.
// Earlier rows are never touched, so a second call nets to zero and writes nothing.
func (s *consumptionService) RestoreTx(ctx context.Context, exec repositories.SQLExecutor, bookingID int64, actor models.Actor) ([]models.InventoryLog, error) {
	trail, err := s.logRepo.ListByBooking(ctx, exec, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking log trail: %w", err)
	}

	balances := map[int64]*restoreBalance{}
	for _, l := range trail {
		if l.Action != models.LogActionAutoConsumed && l.Action != models.LogActionStockAdjusted {
			continue
		}
		if l.Quantity == nil {
			continue
		}
		if l.ItemID == nil {
			utils.LogWarn("Skipping restore of deleted inventory item", map[string]interface{}{
				"booking_id": bookingID,
				"log_id":     l.ID,
				"item_name":  l.ItemName,
			})
			continue
		}
		b, ok := balances[*l.ItemID]
		if !ok {
			b = &restoreBalance{}
			balances[*l.ItemID] = b
		}
		b.quantity = b.quantity.Add(*l.Quantity)
		if l.UnitCost != nil {
			b.value = b.value.Add(l.Quantity.Mul(*l.UnitCost))
			b.costed = true
		}
	}

	itemIDs := make([]int64, 0, len(balances))
	for id, b := range balances {
		if b.quantity.IsNegative() {
			itemIDs = append(itemIDs, id)
		}
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	logs := make([]models.InventoryLog, 0, len(itemIDs))
	for _, id := range itemIDs {
		b := balances[id]
		item, err := lockItem(ctx, s.itemRepo, exec, id)
		if err != nil {
			if errors.Is(err, ErrItemNotFound) {
				utils.LogWarn("Skipping restore of deleted inventory item", map[string]interface{}{
					"booking_id": bookingID,
					"item_id":    id,
				})
				continue
			}
			return nil, err
		}

		credit := b.quantity.Abs()
		newStock := item.CurrentStock.Add(credit)
		if err := s.itemRepo.SetStockAndCost(ctx, exec, item.ID, newStock, item.CurrentCost); err != nil {
			return nil, fmt.Errorf("failed to restore stock of %s: %w", item.Name, err)
		}

		// value the credit at what the consumption was booked at so COGS nets out
		unitCost := item.CurrentCost
		if b.costed {
			unitCost = b.value.Abs().DivRound(credit, models.CostScale)
		}

		log := models.InventoryLog{
			ItemID:        int64Ptr(item.ID),
			ItemName:      item.Name,
			Action:        models.LogActionStockAdjusted,
			OldValue:      models.StockSnapshot(item.CurrentStock),
			NewValue:      models.StockSnapshot(newStock),
			Quantity:      decimalPtr(credit),
			UnitCost:      decimalPtr(unitCost),
			Notes:         utils.NewNullString(fmt.Sprintf("Restored stock for booking #%d", bookingID)),
			PerformedByID: actor.UserIDPtr(),
			BookingID:     int64Ptr(bookingID),
		}
		if err := appendLog(ctx, s.logRepo, exec, &log); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if len(logs) > 0 {
		utils.LogInfo("Booking consumption restored", map[string]interface{}{
			"booking_id": bookingID,
			"items":      len(logs),
		})
	}
	return logs, nil
}
