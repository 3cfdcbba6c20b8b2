package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
)

// SubmissionRepository interface for evidence submission operations
type SubmissionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) // Include student and comments
	Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	// Delete removes the submission and its comments
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Locked reads used inside review transactions
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)

	// Status operations
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.SubmissionStatus, previous *models.SubmissionStatus) error
	UpdateLikes(ctx context.Context, tx *gorm.DB, id uint, likes []uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.Submission, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)
	GetPendingReview(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.Submission, int64, error)
	CountByStudentAndArea(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, status models.SubmissionStatus) (int64, error)

	// Comment operations
	AddComment(ctx context.Context, tx *gorm.DB, comment *models.SubmissionComment) error
	GetComments(ctx context.Context, tx *gorm.DB, submissionID uint) ([]*models.SubmissionComment, error)

	// Statistics
	GetAreaStats(ctx context.Context, tx *gorm.DB, areaName string) (*AreaStats, error)
}
