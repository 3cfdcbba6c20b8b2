package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/utils"
)

type AdvisorHandler struct {
	BaseHandler
	advisorService services.AdvisorService
	userService    services.UserService
}

func NewAdvisorHandler(advisorService services.AdvisorService, userService services.UserService, logger utils.Logger) *AdvisorHandler {
	return &AdvisorHandler{
		BaseHandler:    NewBaseHandler(logger),
		advisorService: advisorService,
		userService:    userService,
	}
}

// CheckSufficiency returns the AI's non-binding opinion on draft evidence.
// Students can still submit whatever the opinion says.
func (h *AdvisorHandler) CheckSufficiency(c *gin.Context) {
	var req services.AdvisorCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	opinion, err := h.advisorService.CheckSufficiency(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, opinion)
}

// GetEncouragement returns a short AI-written message for the caller
func (h *AdvisorHandler) GetEncouragement(c *gin.Context) {
	areaName := c.Param("area_name")
	if areaName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid area_name"})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	message, err := h.advisorService.GenerateEncouragement(c.Request.Context(), user.Name, areaName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// SuggestComments drafts feedback comments for a reviewing teacher
func (h *AdvisorHandler) SuggestComments(c *gin.Context) {
	var req struct {
		AreaName string `json:"area_name" binding:"required"`
		Evidence string `json:"evidence" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	suggestions, err := h.advisorService.SuggestComments(c.Request.Context(), req.AreaName, req.Evidence)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetWelcomeMessage returns a short AI-written greeting for the caller
func (h *AdvisorHandler) GetWelcomeMessage(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	message, err := h.advisorService.WelcomeMessage(c.Request.Context(), user.Name)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *AdvisorHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrAdvisorUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Advisor is currently unavailable",
		})
	case errors.Is(err, services.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Challenge area not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	default:
		h.internalError(c, err)
	}
}
