package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"art_studio_backend/internal/middleware"
	"art_studio_backend/internal/models"
	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// actorFromContext builds the performer identity from the claims AuthMiddleware stored.
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{
		UserID: c.GetInt64(middleware.ContextUserID),
		Role:   c.GetString(middleware.ContextUserRole),
	}
	actor.DisplayName = c.GetString(middleware.ContextFullName)
	if actor.DisplayName == "" {
		actor.DisplayName = c.GetString(middleware.ContextUsername)
	}
	return actor
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", c.Param(name)))
		return 0, false
	}
	return id, true
}

// respondServiceError maps engine errors onto the API error envelope.
func respondServiceError(c *gin.Context, err error, op string) {
	var capErr *services.CapacityExceededError
	switch {
	case errors.As(err, &capErr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeCapacityExceeded,
			"Session is fully booked.", err.Error()).WithData(capErr.Result))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrLogNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrCostOfSaleNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInvalidOperation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeInvalidOperation, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, err.Error(), err.Error()))
	case errors.Is(err, services.ErrCostOfSaleExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrCorruptAuditData):
		utils.LogError(err, op+": corrupt audit data")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeCorruptAuditData, "Audit log entry is corrupt.", err.Error()))
	default:
		utils.LogError(err, op)
		utils.RespondInternalError(c, op+" failed.")
	}
}
