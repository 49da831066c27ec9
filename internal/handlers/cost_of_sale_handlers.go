package handlers

import (
	"net/http"

	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CostOfSaleHandler manages the per-person consumption recipe.
type CostOfSaleHandler struct {
	service services.CostOfSaleService
}

// NewCostOfSaleHandler creates a new CostOfSaleHandler.
func NewCostOfSaleHandler(s services.CostOfSaleService) *CostOfSaleHandler {
	return &CostOfSaleHandler{service: s}
}

func (h *CostOfSaleHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListCostOfSale")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *CostOfSaleHandler) Create(c *gin.Context) {
	var req services.CostOfSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateCostOfSale")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *CostOfSaleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCostOfSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	entry, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCostOfSale")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *CostOfSaleHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteCostOfSale")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cost of sale item deleted successfully"})
}
