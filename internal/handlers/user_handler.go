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

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// Login authenticates a user with username and PIN and issues a token
func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe returns the authenticated user's profile
func (h *UserHandler) GetMe(c *gin.Context) {
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

	c.JSON(http.StatusOK, user)
}

// ChangePIN lets the authenticated user replace their PIN
func (h *UserHandler) ChangePIN(c *gin.Context) {
	var req services.ChangePINRequest
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

	h.LogRequest(c, "Changing PIN", "user_id", userID)

	if err := h.userService.ChangePIN(c.Request.Context(), userID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "PIN changed successfully"})
}

// ResetPIN restores a student's PIN to the default
func (h *UserHandler) ResetPIN(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}

	teacherID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Resetting PIN", "student_id", studentID)

	if err := h.userService.ResetPIN(c.Request.Context(), teacherID, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "PIN reset to default"})
}

// CreateStudent registers a single student account
func (h *UserHandler) CreateStudent(c *gin.Context) {
	var req services.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating student", "grade", req.Grade, "class", req.ClassNum, "number", req.StudentNum)

	student, err := h.userService.CreateStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// CreateStudentsBulk registers a batch of students, skipping bad entries
func (h *UserHandler) CreateStudentsBulk(c *gin.Context) {
	var reqs []*services.CreateStudentRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Request must contain at least one student"})
		return
	}

	h.LogRequest(c, "Creating students in bulk", "count", len(reqs))

	result, err := h.userService.CreateStudentsBulk(c.Request.Context(), reqs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListStudents lists student accounts with optional grade and class filters
func (h *UserHandler) ListStudents(c *gin.Context) {
	filters := h.parseUserFilters(c)

	list, err := h.userService.ListStudents(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// DeleteStudents removes student accounts along with their submissions and progress
func (h *UserHandler) DeleteStudents(c *gin.Context) {
	var req struct {
		IDs []uint `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	teacherID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Deleting students", "count", len(req.IDs))

	if err := h.userService.DeleteStudents(c.Request.Context(), teacherID, req.IDs); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Students deleted successfully"})
}

func (h *UserHandler) parseUserFilters(c *gin.Context) repositories.UserFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 50)

	filters := repositories.UserFilters{
		Query:  strings.TrimSpace(c.Query("query")),
		Limit:  size,
		Offset: (page - 1) * size,
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

func (h *UserHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid username or PIN",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Username is already taken",
		})
	case errors.Is(err, services.ErrSeatTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "A student already exists at this grade, class and number",
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
