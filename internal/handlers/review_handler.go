package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/utils"
)

type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
	}
}

// ListPending lists submissions waiting for a teacher decision, oldest first
func (h *ReviewHandler) ListPending(c *gin.Context) {
	filters := h.parseReviewFilters(c)

	list, err := h.reviewService.ListPending(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// ReviewSubmission approves or rejects a pending submission
func (h *ReviewHandler) ReviewSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reviewerID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Reviewing submission", "submission_id", id, "action", req.Action)

	submission, err := h.reviewService.ReviewSubmission(c.Request.Context(), id, reviewerID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ReviewDeletionRequest approves or rejects a pending deletion request
func (h *ReviewHandler) ReviewDeletionRequest(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reviewerID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Reviewing deletion request", "submission_id", id, "action", req.Action)

	submission, err := h.reviewService.ReviewDeletionRequest(c.Request.Context(), id, reviewerID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

func (h *ReviewHandler) parseReviewFilters(c *gin.Context) repositories.SubmissionFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.SubmissionFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if areaName := strings.TrimSpace(c.Query("area_name")); areaName != "" {
		filters.AreaName = &areaName
	}

	if gradeStr := c.Query("grade"); gradeStr != "" {
		if grade, err := strconv.Atoi(gradeStr); err == nil {
			filters.Grade = &grade
		}
	}

	if classStr := c.Query("class_num"); classStr != "" {
		if classNum, err := strconv.Atoi(classStr); err == nil {
			filters.ClassNum = &classNum
		}
	}

	return filters
}

func (h *ReviewHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	case errors.Is(err, services.ErrSubmissionNotPending):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Submission has already been reviewed",
		})
	case errors.Is(err, services.ErrDeletionNotRequested):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "No deletion request is pending for this submission",
		})
	case errors.Is(err, services.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Challenge area not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
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
