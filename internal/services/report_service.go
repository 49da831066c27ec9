package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
)

// ReportService builds read-only views over inventory and booking consumption.
type ReportService interface {
	InventoryReport(ctx context.Context) (*models.InventoryReport, error)
	CostOfGoodsSold(ctx context.Context, from, to time.Time) (*models.CostOfGoodsSoldReport, error)
	ExportInventoryXLSX(ctx context.Context) ([]byte, error)
}

type reportService struct {
	itemRepo repositories.InventoryRepository
	logRepo  repositories.InventoryLogRepository
	settings SettingsProvider
	db       repositories.SQLExecutor
}

// NewReportService creates a new instance of ReportService.
func NewReportService(ir repositories.InventoryRepository, lr repositories.InventoryLogRepository, settings SettingsProvider, db repositories.SQLExecutor) ReportService {
	return &reportService{itemRepo: ir, logRepo: lr, settings: settings, db: db}
}

func (s *reportService) InventoryReport(ctx context.Context) (*models.InventoryReport, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListItems(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}

	report := &models.InventoryReport{
		GeneratedAt: time.Now(),
		Currency:    settings.Currency,
		Items:       make([]models.InventoryReportRow, 0, len(items)),
		TotalValue:  decimal.Zero,
	}
	for _, item := range items {
		row := models.InventoryReportRow{
			ItemID:       item.ID,
			Name:         item.Name,
			Unit:         item.Unit,
			CurrentStock: item.CurrentStock,
			CurrentCost:  item.CurrentCost,
			StockValue:   item.StockValue().Round(2),
			ReorderLevel: item.ReorderLevel,
			LowStock:     item.IsLowStock(),
			Shortage:     item.CurrentStock.IsNegative(),
		}
		// shortages carry no value
		if !row.Shortage {
			report.TotalValue = report.TotalValue.Add(row.StockValue)
		}
		if row.LowStock {
			report.LowStockCount++
		}
		if row.Shortage {
			report.ShortageCount++
		}
		report.Items = append(report.Items, row)
	}
	return report, nil
}

// CostOfGoodsSold nets booking-driven consumption over [from, to] (whole days),
// valued at the unit cost recorded on each log row.
func (s *reportService) CostOfGoodsSold(ctx context.Context, from, to time.Time) (*models.CostOfGoodsSoldReport, error) {
	if to.Before(from) {
		return nil, validationErrorf("'to' must not be before 'from'")
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	logs, err := s.logRepo.ListBookingLinked(ctx, s.db, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load booking consumption: %w", err)
	}

	type key struct {
		id   int64
		name string
	}
	lines := map[key]*models.CostOfGoodsSoldLine{}
	for _, l := range logs {
		if l.Quantity == nil || l.IsPurchase {
			continue
		}
		if l.Action != models.LogActionAutoConsumed && l.Action != models.LogActionStockAdjusted {
			continue
		}
		k := key{name: l.ItemName}
		if l.ItemID != nil {
			k.id = *l.ItemID
		}
		line, ok := lines[k]
		if !ok {
			line = &models.CostOfGoodsSoldLine{ItemID: l.ItemID, ItemName: l.ItemName}
			lines[k] = line
		}
		consumed := l.Quantity.Neg()
		line.Quantity = line.Quantity.Add(consumed)
		if l.UnitCost != nil {
			line.Cost = line.Cost.Add(consumed.Mul(*l.UnitCost))
		}
	}

	report := &models.CostOfGoodsSoldReport{
		From:      from,
		To:        to,
		Currency:  settings.Currency,
		Lines:     make([]models.CostOfGoodsSoldLine, 0, len(lines)),
		TotalCost: decimal.Zero,
	}
	for _, line := range lines {
		if line.Quantity.IsZero() && line.Cost.IsZero() {
			continue
		}
		line.Cost = line.Cost.Round(2)
		report.TotalCost = report.TotalCost.Add(line.Cost)
		report.Lines = append(report.Lines, *line)
	}
	sort.Slice(report.Lines, func(i, j int) bool { return report.Lines[i].ItemName < report.Lines[j].ItemName })
	return report, nil
}

func (s *reportService) ExportInventoryXLSX(ctx context.Context) ([]byte, error) {
	report, err := s.InventoryReport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Inventory"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"item_id", "name", "unit", "current_stock", "current_cost", "stock_value", "reorder_level", "low_stock", "shortage"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, it := range report.Items {
		reorder := ""
		if it.ReorderLevel != nil {
			reorder = it.ReorderLevel.String()
		}
		stock, _ := it.CurrentStock.Float64()
		cost, _ := it.CurrentCost.Float64()
		value, _ := it.StockValue.Float64()
		excelRow := []interface{}{it.ItemID, it.Name, it.Unit, stock, cost, value, reorder, it.LowStock, it.Shortage}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", row, err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	total, _ := report.TotalValue.Float64()
	totalRow := []interface{}{"", "TOTAL (" + report.Currency + ")", "", "", "", total}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nil, fmt.Errorf("failed to address total row: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &totalRow); err != nil {
		return nil, fmt.Errorf("failed to write total row: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
