package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/validator"
)

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ImportStudents reads a roster workbook with columns Name, Grade, Class,
// Number. Rows that fail validation or collide with existing seats are
// skipped and reported, the rest are created in one batch.
func (s *importExportService) ImportStudents(ctx context.Context, file io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, ErrImportFileInvalid
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	if sheet == "" {
		return nil, ErrImportFileInvalid
	}

	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, ErrImportFileInvalid
	}
	if len(rows) < 2 {
		return nil, ErrImportFileInvalid
	}

	result := &ImportResult{}
	var users []*models.User
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		line := i + 2

		req, err := parseRosterRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, errs.Error()))
			continue
		}

		seatKey := fmt.Sprintf("%d-%d-%d", req.Grade, req.ClassNum, req.StudentNum)
		if seen[seatKey] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate seat in file", line))
			continue
		}
		seen[seatKey] = true

		taken, err := s.repo.User().ExistsBySeat(ctx, nil, req.Grade, req.ClassNum, req.StudentNum)
		if err != nil {
			return nil, fmt.Errorf("failed to check seat: %w", err)
		}
		if taken {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: seat already occupied", line))
			continue
		}

		user, err := buildStudent(req)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := s.repo.User().CreateBatch(ctx, nil, users); err != nil {
		return nil, fmt.Errorf("failed to create students: %w", err)
	}
	result.Created = len(users)

	s.logger.Info("Roster imported",
		"created", result.Created,
		"skipped", result.Skipped)

	return result, nil
}

// ExportClassProgress builds a workbook with one row per student and area
func (s *importExportService) ExportClassProgress(ctx context.Context, grade, classNum int) ([]byte, error) {
	rows, err := s.repo.Achievement().GetClassProgress(ctx, nil, grade, classNum)
	if err != nil {
		return nil, fmt.Errorf("failed to load class progress: %w", err)
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := fmt.Sprintf("Grade %d Class %d", grade, classNum)
	index, err := workbook.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	workbook.SetActiveSheet(index)
	workbook.DeleteSheet("Sheet1")

	headers := []string{"Number", "Name", "Area", "Progress", "Label", "Certified"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := workbook.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		certified := "N"
		if row.IsCertified {
			certified = "Y"
		}
		values := []interface{}{row.StudentNum, row.Name, row.AreaName, row.Progress, row.Label, certified}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Class progress exported",
		"grade", grade,
		"class_num", classNum,
		"rows", len(rows))

	return buf.Bytes(), nil
}

func parseRosterRow(row []string) (*CreateStudentRequest, error) {
	if len(row) < 4 {
		return nil, fmt.Errorf("expected 4 columns, got %d", len(row))
	}

	name := strings.TrimSpace(row[0])
	if name == "" {
		return nil, fmt.Errorf("name is empty")
	}

	grade, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid grade %q", row[1])
	}
	classNum, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid class %q", row[2])
	}
	studentNum, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", row[3])
	}

	return &CreateStudentRequest{
		Name:       name,
		Grade:      grade,
		ClassNum:   classNum,
		StudentNum: studentNum,
	}, nil
}
