package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
)

// UserRepository interface for user operations
type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	CreateBatch(ctx context.Context, tx *gorm.DB, users []*models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	GetByClass(ctx context.Context, tx *gorm.DB, grade, classNum int) ([]*models.User, error)

	// Credential operations
	UpdatePIN(ctx context.Context, tx *gorm.DB, id uint, pinHash string, pinChanged bool) error

	// Validation and checks
	ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	ExistsBySeat(ctx context.Context, tx *gorm.DB, grade, classNum, studentNum int) (bool, error)
}
