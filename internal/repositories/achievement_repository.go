package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
)

// AchievementRepository interface for progress tracking operations
type AchievementRepository interface {
	// Basic operations
	GetByStudentAndArea(ctx context.Context, tx *gorm.DB, studentID uint, areaName string) (*models.Achievement, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Achievement, error)
	Upsert(ctx context.Context, tx *gorm.DB, achievement *models.Achievement) error
	DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) error

	// Locked reads used inside review transactions
	GetForUpdate(ctx context.Context, tx *gorm.DB, studentID uint, areaName string) (*models.Achievement, error)

	// Progress accounting. Increment creates the row when absent, decrement
	// clamps at zero and never creates a row.
	IncrementProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, delta int) (*models.Achievement, error)
	DecrementProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, delta int) (*models.Achievement, error)

	// Teacher overrides
	SetProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, progress int) (*models.Achievement, error)
	SetLabel(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, label string) (*models.Achievement, error)
	SetCertified(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, certified bool) (*models.Achievement, error)

	// Tier inputs
	CountCertified(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error)

	// Export support
	GetClassProgress(ctx context.Context, tx *gorm.DB, grade, classNum int) ([]*StudentProgressRow, error)
}
