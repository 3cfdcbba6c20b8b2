package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/utils"
	"github.com/hichoni/challenge-service/internal/validator"
)

type AchievementHandler struct {
	BaseHandler
	achievementService services.AchievementService
}

func NewAchievementHandler(achievementService services.AchievementService, logger utils.Logger) *AchievementHandler {
	return &AchievementHandler{
		BaseHandler:        NewBaseHandler(logger),
		achievementService: achievementService,
	}
}

// GetMyAchievements returns the caller's progress across every challenge area
func (h *AchievementHandler) GetMyAchievements(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	achievements, err := h.achievementService.GetStudentAchievements(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievements)
}

// GetStudentAchievements returns one student's progress, for any authenticated
// caller. Students see each other's progress on the shared feed.
func (h *AchievementHandler) GetStudentAchievements(c *gin.Context) {
	studentID := h.parseIDParam(c, "student_id")
	if studentID == 0 {
		return
	}

	achievements, err := h.achievementService.GetStudentAchievements(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievements)
}

// GetCertificateStatus returns the certificate tier derived from certified areas
func (h *AchievementHandler) GetCertificateStatus(c *gin.Context) {
	studentID := h.parseIDParam(c, "student_id")
	if studentID == 0 {
		return
	}

	status, err := h.achievementService.GetCertificateStatus(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// SetProgress overrides a student's numeric progress in one area
func (h *AchievementHandler) SetProgress(c *gin.Context) {
	studentID, areaName, teacherID, ok := h.parseOverrideParams(c)
	if !ok {
		return
	}

	var req validator.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Overriding progress", "student_id", studentID, "area", areaName, "progress", req.Progress)

	achievement, err := h.achievementService.SetProgress(c.Request.Context(), teacherID, studentID, areaName, req.Progress)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievement)
}

// SetLabel overrides a student's label in an objective area
func (h *AchievementHandler) SetLabel(c *gin.Context) {
	studentID, areaName, teacherID, ok := h.parseOverrideParams(c)
	if !ok {
		return
	}

	var req validator.LabelUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Overriding label", "student_id", studentID, "area", areaName, "label", req.Label)

	achievement, err := h.achievementService.SetLabel(c.Request.Context(), teacherID, studentID, areaName, req.Label)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievement)
}

// SetCertified flips a student's certification in one area
func (h *AchievementHandler) SetCertified(c *gin.Context) {
	studentID, areaName, teacherID, ok := h.parseOverrideParams(c)
	if !ok {
		return
	}

	var req validator.CertifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Overriding certification", "student_id", studentID, "area", areaName, "certified", req.Certified)

	achievement, err := h.achievementService.SetCertified(c.Request.Context(), teacherID, studentID, areaName, req.Certified)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievement)
}

func (h *AchievementHandler) parseOverrideParams(c *gin.Context) (studentID uint, areaName string, teacherID uint, ok bool) {
	studentID = h.parseIDParam(c, "student_id")
	if studentID == 0 {
		return 0, "", 0, false
	}

	areaName = c.Param("area_name")
	if areaName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid area_name"})
		return 0, "", 0, false
	}

	teacherID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return 0, "", 0, false
	}

	return studentID, areaName, teacherID, true
}

func (h *AchievementHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Student not found",
		})
	case errors.Is(err, services.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Challenge area not found",
		})
	case errors.Is(err, services.ErrNotNumericArea):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Area does not track numeric progress",
		})
	case errors.Is(err, services.ErrNotObjectiveArea):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Area does not use objective labels",
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
