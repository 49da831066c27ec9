package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostOfSaleCategoryName is the expense category purchases are booked against.
const CostOfSaleCategoryName = "Cost of Sale"

type ExpenseCategory struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expense is a money outflow; purchases link back to the item and the purchase log.
type Expense struct {
	ID              int64           `json:"id" db:"id"`
	CategoryID      int64           `json:"category_id" db:"category_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Description     string          `json:"description" db:"description"`
	ExpenseDate     time.Time       `json:"expense_date" db:"expense_date"`
	InventoryItemID *int64          `json:"inventory_item_id,omitempty" db:"inventory_item_id"`
	InventoryLogID  *int64          `json:"inventory_log_id,omitempty" db:"inventory_log_id"`
	CreatedBy       *int64          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
