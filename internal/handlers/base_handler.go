package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/utils"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the helpers every handler shares
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleCommonError maps the cross-cutting error types. Returns true when the
// response has been written; handlers follow up with their own sentinel switch.
func (h *BaseHandler) handleCommonError(c *gin.Context, err error) bool {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return true
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return true
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return true
	}

	return false
}

func (h *BaseHandler) internalError(c *gin.Context, err error) {
	utils.FromContext(c.Request.Context(), h.logger).Error("Internal server error", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}
