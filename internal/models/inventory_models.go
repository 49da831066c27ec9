package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a consumable tracked by the studio (paint, canvas, clay...).
// CurrentStock is signed: consumption may drive it below zero when the policy allows it.
type InventoryItem struct {
	ID           int64            `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Unit         string           `json:"unit" db:"unit"`
	CurrentStock decimal.Decimal  `json:"current_stock" db:"current_stock"`
	CurrentCost  decimal.Decimal  `json:"current_cost" db:"current_cost"` // weighted-average unit cost
	ReorderLevel *decimal.Decimal `json:"reorder_level,omitempty" db:"reorder_level"`
	CreatedBy    *int64           `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether the item is at or below its reorder level.
func (i InventoryItem) IsLowStock() bool {
	return i.ReorderLevel != nil && i.CurrentStock.LessThanOrEqual(*i.ReorderLevel)
}

// StockValue is the valuation of the current stock at the current average cost.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.CurrentStock.Mul(i.CurrentCost)
}

// InventoryPriceHistory is an append-only record of unit cost changes.
// OldPrice is nil only for the row written when the item was created.
// Rows outlive the item; ItemName keeps them readable.
type InventoryPriceHistory struct {
	ID            int64            `json:"id" db:"id"`
	ItemID        int64            `json:"item_id" db:"item_id"`
	ItemName      string           `json:"item_name" db:"item_name"`
	OldPrice      *decimal.Decimal `json:"old_price" db:"old_price"`
	NewPrice      decimal.Decimal  `json:"new_price" db:"new_price"`
	ChangedBy     string           `json:"changed_by" db:"changed_by"` // display name snapshot
	Reason        *string          `json:"reason,omitempty" db:"reason"`
	EffectiveDate time.Time        `json:"effective_date" db:"effective_date"`
}

// LogAction tags an InventoryLog row.
type LogAction string

const (
	LogActionCreated       LogAction = "CREATED"
	LogActionUpdated       LogAction = "UPDATED"
	LogActionStockAdjusted LogAction = "STOCK_ADJUSTED"
	LogActionPriceChanged  LogAction = "PRICE_CHANGED"
	LogActionAutoConsumed  LogAction = "AUTO_CONSUMED"
	LogActionDeleted       LogAction = "DELETED"
)

// IsValidLogAction checks if the provided string is a known LogAction.
func IsValidLogAction(action string) bool {
	switch LogAction(action) {
	case LogActionCreated, LogActionUpdated, LogActionStockAdjusted,
		LogActionPriceChanged, LogActionAutoConsumed, LogActionDeleted:
		return true
	default:
		return false
	}
}

// Snapshot is the before/after state recorded on a log row.
// Which fields are set depends on the action: {stock}, {stock, cost}, {cost} or {name, stock, cost, unit}.
type Snapshot struct {
	Stock *decimal.Decimal `json:"stock,omitempty"`
	Cost  *decimal.Decimal `json:"cost,omitempty"`
	Name  *string          `json:"name,omitempty"`
	Unit  *string          `json:"unit,omitempty"`
}

// StockSnapshot captures only the stock level.
func StockSnapshot(stock decimal.Decimal) *Snapshot {
	return &Snapshot{Stock: &stock}
}

// StockCostSnapshot captures stock level and unit cost.
func StockCostSnapshot(stock, cost decimal.Decimal) *Snapshot {
	return &Snapshot{Stock: &stock, Cost: &cost}
}

// CostSnapshot captures only the unit cost.
func CostSnapshot(cost decimal.Decimal) *Snapshot {
	return &Snapshot{Cost: &cost}
}

// FullSnapshot captures every tracked attribute of an item.
func FullSnapshot(item InventoryItem) *Snapshot {
	name, unit := item.Name, item.Unit
	stock, cost := item.CurrentStock, item.CurrentCost
	return &Snapshot{Stock: &stock, Cost: &cost, Name: &name, Unit: &unit}
}

// InventoryLog is one append-only audit row for a stock or catalogue mutation.
type InventoryLog struct {
	ID            int64            `json:"id" db:"id"`
	ItemID        *int64           `json:"item_id" db:"item_id"` // nil once the item has been deleted
	ItemName      string           `json:"item_name" db:"item_name"`
	Action        LogAction        `json:"action" db:"action"`
	OldValue      *Snapshot        `json:"old_value,omitempty"`
	NewValue      *Snapshot        `json:"new_value,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty" db:"quantity"`   // signed stock delta
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty" db:"unit_cost"` // cost snapshot for COGS
	IsPurchase    bool             `json:"is_purchase" db:"is_purchase"`
	Supplier      *string          `json:"supplier,omitempty" db:"supplier"`
	Notes         *string          `json:"notes,omitempty" db:"notes"`
	PerformedByID *int64           `json:"performed_by_id,omitempty" db:"performed_by_id"`
	BookingID     *int64           `json:"booking_id,omitempty" db:"booking_id"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// IsReversiblePurchase is the purchase predicate: a positive stock adjustment tagged as a purchase.
func (l InventoryLog) IsReversiblePurchase() bool {
	return l.Action == LogActionStockAdjusted && l.IsPurchase && l.Quantity != nil && l.Quantity.IsPositive()
}

// BelongsTo reports whether the log row references the given item.
func (l InventoryLog) BelongsTo(itemID int64) bool {
	return l.ItemID != nil && *l.ItemID == itemID
}

// CostOfSaleItem opts an inventory item into automatic consumption per booked person.
type CostOfSaleItem struct {
	ID                int64           `json:"id" db:"id"`
	ItemID            int64           `json:"item_id" db:"item_id"`
	QuantityPerPerson decimal.Decimal `json:"quantity_per_person" db:"quantity_per_person"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
	Item              *InventoryItem  `json:"item,omitempty"`
}
