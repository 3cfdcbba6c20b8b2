package services

import (
	"context"
	"io"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateSubmissionRequest = validator.SubmissionCreateRequest
type ReviewRequest = validator.ReviewRequest
type CommentRequest = validator.CommentCreateRequest
type LoginRequest = validator.LoginRequest
type ChangePINRequest = validator.ChangePINRequest
type CreateStudentRequest = validator.StudentCreateRequest
type AreaConfigRequest = validator.AreaConfigRequest
type AdvisorCheckRequest = validator.AdvisorCheckRequest

type SubmissionResponse struct {
	*models.Submission
	LikeCount int  `json:"like_count"`
	LikedByMe bool `json:"liked_by_me"`
	CanDelete bool `json:"can_delete"`
}

type SubmissionListResponse struct {
	Submissions []*SubmissionResponse `json:"submissions"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

type AchievementResponse struct {
	*models.Achievement
	AreaKoreanName string          `json:"area_korean_name"`
	Icon           models.IconKey  `json:"icon"`
	GoalType       models.GoalType `json:"goal_type"`
	Goal           int             `json:"goal"`
	Unit           string          `json:"unit"`
}

type CertificateStatusResponse struct {
	StudentID      uint                   `json:"student_id"`
	CertifiedCount int                    `json:"certified_count"`
	Tier           models.CertificateTier `json:"tier"`
	Achievements   []*AchievementResponse `json:"achievements"`
}

type LoginResponse struct {
	Token         string       `json:"token"`
	User          *models.User `json:"user"`
	MustChangePIN bool         `json:"must_change_pin"`
}

type StudentListResponse struct {
	Students []*models.User `json:"students"`
	Total    int64          `json:"total"`
}

type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// AdvisorOpinion is advisory only and never blocks a submission
type AdvisorOpinion struct {
	Sufficient bool   `json:"sufficient"`
	Reason     string `json:"reason"`
}

// ===== SERVICE INTERFACES =====

// SubmissionService covers the student-facing submission lifecycle
type SubmissionService interface {
	Create(ctx context.Context, req *CreateSubmissionRequest, studentID uint) (*SubmissionResponse, error)
	GetByID(ctx context.Context, id uint, userID uint) (*SubmissionResponse, error)
	List(ctx context.Context, filters repositories.SubmissionFilters, userID uint) (*SubmissionListResponse, error)
	GetByStudent(ctx context.Context, studentID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error)

	// DeleteOwn removes a submission that never entered the ledger
	DeleteOwn(ctx context.Context, id uint, studentID uint) error

	// RequestDeletion stashes the current status and parks the submission
	// until a teacher resolves the request
	RequestDeletion(ctx context.Context, id uint, studentID uint) error

	ToggleLike(ctx context.Context, id uint, userID uint) (*SubmissionResponse, error)
	AddComment(ctx context.Context, id uint, userID uint, req *CommentRequest) (*models.SubmissionComment, error)
}

// ReviewService covers teacher decisions and the progress ledger they drive
type ReviewService interface {
	ListPending(ctx context.Context, filters repositories.SubmissionFilters) (*SubmissionListResponse, error)
	ReviewSubmission(ctx context.Context, id uint, reviewerID uint, req *ReviewRequest) (*SubmissionResponse, error)
	ReviewDeletionRequest(ctx context.Context, id uint, reviewerID uint, req *ReviewRequest) (*SubmissionResponse, error)
}

// AchievementService reads and overrides per-area progress
type AchievementService interface {
	GetStudentAchievements(ctx context.Context, studentID uint) ([]*AchievementResponse, error)
	GetCertificateStatus(ctx context.Context, studentID uint) (*CertificateStatusResponse, error)

	// Teacher overrides
	SetProgress(ctx context.Context, teacherID, studentID uint, areaName string, progress int) (*AchievementResponse, error)
	SetLabel(ctx context.Context, teacherID, studentID uint, areaName string, label string) (*AchievementResponse, error)
	SetCertified(ctx context.Context, teacherID, studentID uint, areaName string, certified bool) (*AchievementResponse, error)
}

// UserService owns accounts and credentials
type UserService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	ChangePIN(ctx context.Context, userID uint, req *ChangePINRequest) error
	ResetPIN(ctx context.Context, teacherID, studentID uint) error

	CreateStudent(ctx context.Context, req *CreateStudentRequest) (*models.User, error)
	CreateStudentsBulk(ctx context.Context, reqs []*CreateStudentRequest) (*ImportResult, error)
	ListStudents(ctx context.Context, filters repositories.UserFilters) (*StudentListResponse, error)
	DeleteStudents(ctx context.Context, teacherID uint, ids []uint) error
}

// AreaService manages challenge area configuration
type AreaService interface {
	Create(ctx context.Context, req *AreaConfigRequest) (*models.AreaConfig, error)
	GetByName(ctx context.Context, name string) (*models.AreaConfig, error)
	List(ctx context.Context) ([]*models.AreaConfig, error)
	Update(ctx context.Context, name string, req *AreaConfigRequest) (*models.AreaConfig, error)
	Delete(ctx context.Context, name string) error
}

// ImportExportService moves rosters and progress through XLSX files
type ImportExportService interface {
	ImportStudents(ctx context.Context, file io.Reader) (*ImportResult, error)
	ExportClassProgress(ctx context.Context, grade, classNum int) ([]byte, error)
}

// AdvisorService asks the AI collaborator for a non-binding opinion
type AdvisorService interface {
	CheckSufficiency(ctx context.Context, req *AdvisorCheckRequest) (*AdvisorOpinion, error)
	GenerateEncouragement(ctx context.Context, studentName, areaName string) (string, error)
	SuggestComments(ctx context.Context, areaName, evidence string) ([]string, error)
	WelcomeMessage(ctx context.Context, studentName string) (string, error)
}

// ServiceManager provides access to every service with lifecycle management
type ServiceManager interface {
	Submission() SubmissionService
	Review() ReviewService
	Achievement() AchievementService
	User() UserService
	Area() AreaService
	ImportExport() ImportExportService
	Advisor() AdvisorService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
