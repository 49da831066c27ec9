package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryReportRow is one item line of the stock valuation report.
type InventoryReportRow struct {
	ItemID       int64            `json:"item_id"`
	Name         string           `json:"name"`
	Unit         string           `json:"unit"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	CurrentCost  decimal.Decimal  `json:"current_cost"`
	StockValue   decimal.Decimal  `json:"stock_value"`
	ReorderLevel *decimal.Decimal `json:"reorder_level,omitempty"`
	LowStock     bool             `json:"low_stock"`
	Shortage     bool             `json:"shortage"` // stock below zero
}

// InventoryReport aggregates valuation and alerts over all items.
type InventoryReport struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Currency      string               `json:"currency"`
	Items         []InventoryReportRow `json:"items"`
	TotalValue    decimal.Decimal      `json:"total_value"`
	LowStockCount int                  `json:"low_stock_count"`
	ShortageCount int                  `json:"shortage_count"`
}

// CostOfGoodsSoldLine is the net booking-driven consumption of one item in a period.
type CostOfGoodsSoldLine struct {
	ItemID   *int64          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

// CostOfGoodsSoldReport values net auto-consumption at the cost recorded when it happened.
type CostOfGoodsSoldReport struct {
	From      time.Time             `json:"from"`
	To        time.Time             `json:"to"`
	Currency  string                `json:"currency"`
	Lines     []CostOfGoodsSoldLine `json:"lines"`
	TotalCost decimal.Decimal       `json:"total_cost"`
}
