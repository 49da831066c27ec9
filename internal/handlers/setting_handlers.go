package handlers

import (
	"net/http"

	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler exposes the studio-wide settings row.
type SettingHandler struct {
	service services.SettingService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(s services.SettingService) *SettingHandler {
	return &SettingHandler{service: s}
}

// GetSettings handles fetching the application settings.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetSettings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles partial updates of the application settings.
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "UpdateSettings")
		return
	}
	c.JSON(http.StatusOK, settings)
}
