package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/utils"
)

const maxMediaSize = 10 << 20 // 10 MiB

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	mediaStore        storage.MediaStore
}

func NewSubmissionHandler(submissionService services.SubmissionService, mediaStore storage.MediaStore, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		mediaStore:        mediaStore,
	}
}

// CreateSubmission files new evidence against a challenge area
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req services.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Creating submission", "area", req.AreaName)

	submission, err := h.submissionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// UploadMedia stores an evidence photo or video and returns its public URL.
// Students call this first and reference the URL when creating the submission.
func (h *SubmissionHandler) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file",
			Details: err.Error(),
		})
		return
	}

	if fileHeader.Size > maxMediaSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "File too large",
			Details: fmt.Sprintf("limit is %d bytes", maxMediaSize),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(c, err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	objectPath := fmt.Sprintf("submissions/%d/%s%s", time.Now().Year(), uuid.New().String(), ext)

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.mediaStore.Upload(c.Request.Context(), objectPath, file, contentType)
	if err != nil {
		h.internalError(c, fmt.Errorf("media upload failed: %w", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// GetSubmission retrieves a submission with its comments
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListSubmissions lists submissions visible in the shared feed
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	filters := h.parseSubmissionFilters(c)

	list, err := h.submissionService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetMySubmissions lists the caller's own submissions
func (h *SubmissionHandler) GetMySubmissions(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	filters := h.parseSubmissionFilters(c)

	list, err := h.submissionService.GetByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// DeleteSubmission removes the caller's own submission while it is still pending
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Deleting submission", "submission_id", id)

	if err := h.submissionService.DeleteOwn(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Submission deleted successfully"})
}

// RequestDeletion asks a teacher to approve removing a reviewed submission
func (h *SubmissionHandler) RequestDeletion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Requesting submission deletion", "submission_id", id)

	if err := h.submissionService.RequestDeletion(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Deletion request filed"})
}

// ToggleLike flips the caller's like on a submission
func (h *SubmissionHandler) ToggleLike(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	submission, err := h.submissionService.ToggleLike(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// AddComment appends a comment to a submission
func (h *SubmissionHandler) AddComment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	comment, err := h.submissionService.AddComment(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// Helper methods

func (h *SubmissionHandler) parseSubmissionFilters(c *gin.Context) repositories.SubmissionFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.SubmissionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		submissionStatus := models.SubmissionStatus(status)
		filters.Status = &submissionStatus
	}

	if areaName := strings.TrimSpace(c.Query("area_name")); areaName != "" {
		filters.AreaName = &areaName
	}

	if studentIDStr := c.Query("student_id"); studentIDStr != "" {
		if studentID, err := strconv.ParseUint(studentIDStr, 10, 32); err == nil {
			id := uint(studentID)
			filters.StudentID = &id
		}
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

func (h *SubmissionHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	case errors.Is(err, services.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Challenge area not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrSubmissionNotDeletable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Submission can no longer be deleted directly, file a deletion request instead",
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
