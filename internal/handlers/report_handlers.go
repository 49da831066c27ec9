package handlers

import (
	"fmt"
	"net/http"
	"time"

	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves inventory valuation and cost-of-goods-sold reports.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetInventoryReport returns stock valuation with low-stock and shortage flags.
func (h *ReportHandler) GetInventoryReport(c *gin.Context) {
	report, err := h.reportService.InventoryReport(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetInventoryReport")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetCostOfGoodsSold reports booking consumption between from and to (inclusive days).
// Both default to the current month.
func (h *ReportHandler) GetCostOfGoodsSold(c *gin.Context) {
	now := utils.TruncateToDay(time.Now())
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	if raw := c.Query("from"); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		to = t
	}

	report, err := h.reportService.CostOfGoodsSold(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "GetCostOfGoodsSold")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportInventoryReport streams the valuation report as an XLSX workbook.
func (h *ReportHandler) ExportInventoryReport(c *gin.Context) {
	data, err := h.reportService.ExportInventoryXLSX(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ExportInventoryReport")
		return
	}
	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
