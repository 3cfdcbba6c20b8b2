package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
)

// AreaRepository interface for challenge area configuration
type AreaRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, area *models.AreaConfig) error
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.AreaConfig, error)
	Update(ctx context.Context, tx *gorm.DB, area *models.AreaConfig) error
	Delete(ctx context.Context, tx *gorm.DB, name string) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB) ([]*models.AreaConfig, error)

	// Validation and checks
	ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error)
}
