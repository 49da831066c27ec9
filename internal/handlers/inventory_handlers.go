package handlers

import (
	"net/http"

	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves the inventory catalogue, its audit trail and purchases.
type InventoryHandler struct {
	inventoryService services.InventoryService
	purchases        services.PurchaseLedger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService, pl services.PurchaseLedger) *InventoryHandler {
	return &InventoryHandler{inventoryService: is, purchases: pl}
}

// CreateItem handles creation of a new inventory item.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req services.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "CreateItem")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems handles fetching all inventory items.
func (h *InventoryHandler) GetItems(c *gin.Context) {
	items, err := h.inventoryService.ListItems(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetItems")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItemByID handles fetching a single inventory item.
func (h *InventoryHandler) GetItemByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetItemByID")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles catalogue edits and manual stock or price corrections.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "UpdateItem")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles deleting an inventory item.
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(c.Request.Context(), id, actorFromContext(c)); err != nil {
		respondServiceError(c, err, "DeleteItem")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}

// GetItemLogs returns the item's audit trail, newest first.
func (h *InventoryHandler) GetItemLogs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	logs, err := h.inventoryService.ListLogs(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetItemLogs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *InventoryHandler) GetPriceHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.inventoryService.ListPriceHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetPriceHistory")
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetPurchases lists the item's reversible purchases.
func (h *InventoryHandler) GetPurchases(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	logs, err := h.inventoryService.ListPurchases(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetPurchases")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// RecordPurchase adds purchased stock at weighted-average cost and books the expense.
func (h *InventoryHandler) RecordPurchase(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.purchases.RecordPurchase(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "RecordPurchase")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ReversePurchase undoes one purchase. The linked expense has to be removed by hand.
func (h *InventoryHandler) ReversePurchase(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	logID, ok := parseIDParam(c, "logId")
	if !ok {
		return
	}

	result, err := h.purchases.ReversePurchase(c.Request.Context(), id, logID, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "ReversePurchase")
		return
	}
	c.JSON(http.StatusOK, result)
}
