package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/utils"
)

type AreaHandler struct {
	BaseHandler
	areaService services.AreaService
}

func NewAreaHandler(areaService services.AreaService, logger utils.Logger) *AreaHandler {
	return &AreaHandler{
		BaseHandler: NewBaseHandler(logger),
		areaService: areaService,
	}
}

// CreateArea registers a new challenge area
func (h *AreaHandler) CreateArea(c *gin.Context) {
	var req services.AreaConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating area", "name", req.Name)

	area, err := h.areaService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, area)
}

// GetArea retrieves one challenge area by name
func (h *AreaHandler) GetArea(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid name"})
		return
	}

	area, err := h.areaService.GetByName(c.Request.Context(), name)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, area)
}

// ListAreas lists every configured challenge area
func (h *AreaHandler) ListAreas(c *gin.Context) {
	areas, err := h.areaService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, areas)
}

// UpdateArea replaces an area's configuration. The name is immutable.
func (h *AreaHandler) UpdateArea(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid name"})
		return
	}

	var req services.AreaConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating area", "name", name)

	area, err := h.areaService.Update(c.Request.Context(), name, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, area)
}

// DeleteArea removes an area that has no submissions
func (h *AreaHandler) DeleteArea(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid name"})
		return
	}

	h.LogRequest(c, "Deleting area", "name", name)

	if err := h.areaService.Delete(c.Request.Context(), name); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Area deleted successfully"})
}

func (h *AreaHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Challenge area not found",
		})
	case errors.Is(err, services.ErrAreaExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "A challenge area with this name already exists",
		})
	case errors.Is(err, services.ErrAreaInUse):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Area has submissions and cannot be deleted",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.internalError(c, err)
	}
}
