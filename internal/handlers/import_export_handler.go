package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportExportHandler struct {
	BaseHandler
	importExportService services.ImportExportService
}

func NewImportExportHandler(importExportService services.ImportExportService, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
	}
}

// ImportStudents bulk-creates student accounts from an XLSX roster
func (h *ImportExportHandler) ImportStudents(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing roster file",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(c, err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing student roster", "filename", fileHeader.Filename)

	result, err := h.importExportService.ImportStudents(c.Request.Context(), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportClassProgress streams one class's progress as an XLSX workbook
func (h *ImportExportHandler) ExportClassProgress(c *gin.Context) {
	grade := h.parseIntQuery(c, "grade", 0)
	classNum := h.parseIntQuery(c, "class_num", 0)
	if grade == 0 || classNum == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "grade and class_num query parameters are required",
		})
		return
	}

	h.LogRequest(c, "Exporting class progress", "grade", grade, "class", classNum)

	data, err := h.importExportService.ExportClassProgress(c.Request.Context(), grade, classNum)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("progress_g%d_c%d.xlsx", grade, classNum)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *ImportExportHandler) handleServiceError(c *gin.Context, err error) {
	if h.handleCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrImportFileInvalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Roster file could not be read",
			Details: err.Error(),
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
