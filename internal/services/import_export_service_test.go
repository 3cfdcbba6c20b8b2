package services

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/validator"
)

func newImportExportFixture(t *testing.T) (*importExportService, *fakeRepository) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()

	svc := &importExportService{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
	}

	return svc, repo
}

func buildRosterFile(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	headers := []interface{}{"Name", "Grade", "Class", "Number"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := workbook.SetCellValue(sheet, cell, header); err != nil {
			t.Fatalf("write header: %v", err)
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("write row: %v", err)
			}
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportStudents(t *testing.T) {
	ctx := context.Background()

	t.Run("clean roster", func(t *testing.T) {
		svc, repo := newImportExportFixture(t)

		file := buildRosterFile(t, [][]interface{}{
			{"Kim", 4, 1, 1},
			{"Park", 4, 1, 2},
			{"Choi", 5, 2, 3},
		})

		result, err := svc.ImportStudents(ctx, file)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.Created != 3 || result.Skipped != 0 {
			t.Errorf("expected 3 created, got %+v", result)
		}
		if len(repo.users) != 3 {
			t.Errorf("expected 3 users stored, got %d", len(repo.users))
		}

		// Usernames are derived from the seat
		found := false
		for _, u := range repo.users {
			if u.Username == "s50203" && u.Name == "Choi" {
				found = true
			}
		}
		if !found {
			t.Error("expected derived username s50203 for Choi")
		}
	})

	t.Run("bad rows are skipped and reported", func(t *testing.T) {
		svc, repo := newImportExportFixture(t)
		repo.users[1] = &models.User{ID: 1, Username: "s40101", Name: "Kim", Role: models.RoleStudent, Grade: 4, ClassNum: 1, StudentNum: 1}
		repo.nextID = 10

		file := buildRosterFile(t, [][]interface{}{
			{"Park", 4, 1, 2},        // fine
			{"Lee", 9, 1, 3},         // grade outside program
			{"", 4, 1, 4},            // empty name
			{"Kang", "four", 1, 5},   // non-numeric grade
			{"DupSeat", 4, 1, 1},     // occupied by Kim
			{"Twin", 4, 1, 6},        // fine
			{"TwinAgain", 4, 1, 6},   // duplicate seat inside the file
		})

		result, err := svc.ImportStudents(ctx, file)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.Created != 2 {
			t.Errorf("expected 2 created, got %d", result.Created)
		}
		if result.Skipped != 5 {
			t.Errorf("expected 5 skipped, got %d", result.Skipped)
		}
		if len(result.Errors) != 5 {
			t.Errorf("expected 5 row errors, got %v", result.Errors)
		}
	})

	t.Run("not a workbook", func(t *testing.T) {
		svc, _ := newImportExportFixture(t)
		if _, err := svc.ImportStudents(ctx, strings.NewReader("this is not xlsx")); err != ErrImportFileInvalid {
			t.Errorf("expected ErrImportFileInvalid, got %v", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		svc, _ := newImportExportFixture(t)
		if _, err := svc.ImportStudents(ctx, buildRosterFile(t, nil)); err != ErrImportFileInvalid {
			t.Errorf("expected ErrImportFileInvalid, got %v", err)
		}
	})
}

func TestExportClassProgress(t *testing.T) {
	ctx := context.Background()
	svc, repo := newImportExportFixture(t)

	repo.users[1] = &models.User{ID: 1, Username: "s40101", Name: "Kim", Role: models.RoleStudent, Grade: 4, ClassNum: 1, StudentNum: 1}
	repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 5, IsCertified: true}

	data, err := svc.ExportClassProgress(ctx, 4, 1)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a workbook: %v", err)
	}
	defer workbook.Close()

	sheet := "Grade 4 Class 1"
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
	if rows[0][0] != "Number" || rows[0][1] != "Name" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "Kim" || rows[1][2] != "reading" || rows[1][3] != "5" || rows[1][5] != "Y" {
		t.Errorf("unexpected data row: %v", rows[1])
	}
}
