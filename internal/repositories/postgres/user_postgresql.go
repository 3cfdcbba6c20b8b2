package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

func (r *userRepository) CreateBatch(ctx context.Context, tx *gorm.DB, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	db := r.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(users, 100).Error; err != nil {
		return handleDBError(err, "create users batch")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}

	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by username")
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return handleDBError(err, "update user")
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return handleDBError(err, "delete user")
	}
	return nil
}

func (r *userRepository) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.User{}, ids).Error; err != nil {
		return handleDBError(err, "delete users batch")
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *userRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := r.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.ClassNum != nil {
		query = query.Where("class_num = ?", *filters.ClassNum)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("name ILIKE ? OR username ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	query = query.Order("grade ASC, class_num ASC, student_num ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}

	return users, total, nil
}

func (r *userRepository) GetByClass(ctx context.Context, tx *gorm.DB, grade, classNum int) ([]*models.User, error) {
	db := r.getDB(tx)
	var users []*models.User

	if err := db.WithContext(ctx).
		Where("role = ? AND grade = ? AND class_num = ?", models.RoleStudent, grade, classNum).
		Order("student_num ASC").
		Find(&users).Error; err != nil {
		return nil, handleDBError(err, "get users by class")
	}

	return users, nil
}

// ===== CREDENTIAL OPERATIONS =====

func (r *userRepository) UpdatePIN(ctx context.Context, tx *gorm.DB, id uint, pinHash string, pinChanged bool) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pin_hash":    pinHash,
			"pin_changed": pinChanged,
		})
	if result.Error != nil {
		return handleDBError(result.Error, "update user pin")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ===== VALIDATION AND CHECKS =====

func (r *userRepository) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check username exists")
	}

	return count > 0, nil
}

func (r *userRepository) ExistsBySeat(ctx context.Context, tx *gorm.DB, grade, classNum, studentNum int) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND grade = ? AND class_num = ? AND student_num = ?",
			models.RoleStudent, grade, classNum, studentNum).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check seat exists")
	}

	return count > 0, nil
}

// ===== HELPER METHODS =====

func (r *userRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
