package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/cache"
	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
)

type areaRepository struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAreaPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AreaRepository {
	return &areaRepository{db: db, cacheManager: cacheManager}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *areaRepository) Create(ctx context.Context, tx *gorm.DB, area *models.AreaConfig) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(area).Error; err != nil {
		return handleDBError(err, "create area config")
	}

	cache.InvalidateAreaCache(ctx, r.cacheManager, area.Name)
	return nil
}

// GetByName serves reads from cache when the caller is outside a transaction.
// Transactional callers always hit the database so they see their own writes.
func (r *areaRepository) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.AreaConfig, error) {
	if tx != nil {
		return r.fetchByName(ctx, tx, name)
	}

	var area models.AreaConfig
	err := r.cacheManager.Area.CacheOrExecute(ctx, "name:"+name, &area, cache.AreaCacheConfig.TTL, func() (interface{}, error) {
		return r.fetchByName(ctx, nil, name)
	})
	if err != nil {
		return nil, err
	}

	return &area, nil
}

func (r *areaRepository) fetchByName(ctx context.Context, tx *gorm.DB, name string) (*models.AreaConfig, error) {
	db := r.getDB(tx)
	var area models.AreaConfig

	if err := db.WithContext(ctx).
		Where("name = ?", name).
		First(&area).Error; err != nil {
		return nil, handleDBError(err, "get area config by name")
	}

	return &area, nil
}

func (r *areaRepository) Update(ctx context.Context, tx *gorm.DB, area *models.AreaConfig) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(area).Error; err != nil {
		return handleDBError(err, "update area config")
	}

	cache.InvalidateAreaCache(ctx, r.cacheManager, area.Name)
	return nil
}

func (r *areaRepository) Delete(ctx context.Context, tx *gorm.DB, name string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("name = ?", name).
		Delete(&models.AreaConfig{}).Error; err != nil {
		return handleDBError(err, "delete area config")
	}

	cache.InvalidateAreaCache(ctx, r.cacheManager, name)
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *areaRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.AreaConfig, error) {
	if tx != nil {
		return r.fetchList(ctx, tx)
	}

	var areas []*models.AreaConfig
	err := r.cacheManager.Area.CacheOrExecute(ctx, "list", &areas, cache.AreaCacheConfig.TTL, func() (interface{}, error) {
		return r.fetchList(ctx, nil)
	})
	if err != nil {
		return nil, err
	}

	return areas, nil
}

func (r *areaRepository) fetchList(ctx context.Context, tx *gorm.DB) ([]*models.AreaConfig, error) {
	db := r.getDB(tx)
	var areas []*models.AreaConfig

	if err := db.WithContext(ctx).
		Order("name ASC").
		Find(&areas).Error; err != nil {
		return nil, handleDBError(err, "list area configs")
	}

	return areas, nil
}

// ===== VALIDATION AND CHECKS =====

func (r *areaRepository) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.AreaConfig{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check area config exists")
	}

	return count > 0, nil
}

// ===== HELPER METHODS =====

func (r *areaRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
