package repositories

import (
	"time"

	"github.com/hichoni/challenge-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type SubmissionFilters struct {
	Status    *models.SubmissionStatus `json:"status"`
	StudentID *uint                    `json:"student_id"`
	AreaName  *string                  `json:"area_name"`
	Grade     *int                     `json:"grade"`
	ClassNum  *int                     `json:"class_num"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "area_name"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Role     *models.UserRole `json:"role"`
	Grade    *int             `json:"grade"`
	ClassNum *int             `json:"class_num"`
	Query    string           `json:"query"` // Search by name or username
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// AreaStats summarizes submission activity in one challenge area
type AreaStats struct {
	AreaName          string `json:"area_name"`
	TotalSubmissions  int64  `json:"total_submissions"`
	PendingReview     int64  `json:"pending_review"`
	Approved          int64  `json:"approved"`
	Rejected          int64  `json:"rejected"`
	CertifiedStudents int64  `json:"certified_students"`
}

// StudentProgressRow is one line of a class progress export
type StudentProgressRow struct {
	StudentID   uint   `json:"student_id"`
	Name        string `json:"name"`
	Grade       int    `json:"grade"`
	ClassNum    int    `json:"class_num"`
	StudentNum  int    `json:"student_num"`
	AreaName    string `json:"area_name"`
	Progress    int    `json:"progress"`
	Label       string `json:"label"`
	IsCertified bool   `json:"is_certified"`
}
