package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
)

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementPostgreSQL(db *gorm.DB) repositories.AchievementRepository {
	return &achievementRepository{db: db}
}

// ===== BASIC OPERATIONS =====

func (r *achievementRepository) GetByStudentAndArea(ctx context.Context, tx *gorm.DB, studentID uint, areaName string) (*models.Achievement, error) {
	db := r.getDB(tx)
	var achievement models.Achievement

	if err := db.WithContext(ctx).
		Where("student_id = ? AND area_name = ?", studentID, areaName).
		First(&achievement).Error; err != nil {
		return nil, handleDBError(err, "get achievement")
	}

	return &achievement, nil
}

func (r *achievementRepository) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Achievement, error) {
	db := r.getDB(tx)
	var achievements []*models.Achievement

	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("area_name ASC").
		Find(&achievements).Error; err != nil {
		return nil, handleDBError(err, "get achievements by student")
	}

	return achievements, nil
}

func (r *achievementRepository) Upsert(ctx context.Context, tx *gorm.DB, achievement *models.Achievement) error {
	db := r.getDB(tx)

	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "area_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"progress", "label", "is_certified", "updated_at"}),
		}).
		Create(achievement).Error; err != nil {
		return handleDBError(err, "upsert achievement")
	}

	return nil
}

func (r *achievementRepository) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.Achievement{}).Error; err != nil {
		return handleDBError(err, "delete achievements by student")
	}
	return nil
}

// GetForUpdate locks the row until the surrounding transaction ends
func (r *achievementRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, studentID uint, areaName string) (*models.Achievement, error) {
	db := r.getDB(tx)
	var achievement models.Achievement

	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND area_name = ?", studentID, areaName).
		First(&achievement).Error; err != nil {
		return nil, handleDBError(err, "get achievement for update")
	}

	return &achievement, nil
}

// ===== PROGRESS ACCOUNTING =====

// IncrementProgress adds delta to the student's counter, creating the row on
// first approval. The conflict target makes concurrent first approvals safe.
func (r *achievementRepository) IncrementProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, delta int) (*models.Achievement, error) {
	db := r.getDB(tx)

	achievement := &models.Achievement{
		StudentID: studentID,
		AreaName:  areaName,
		Progress:  delta,
	}

	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "area_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress":   gorm.Expr("achievements.progress + ?", delta),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(achievement).Error; err != nil {
		return nil, handleDBError(err, "increment achievement progress")
	}

	return r.GetByStudentAndArea(ctx, tx, studentID, areaName)
}

// DecrementProgress subtracts delta, clamping at zero. A missing row is left
// missing rather than created at zero.
func (r *achievementRepository) DecrementProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, delta int) (*models.Achievement, error) {
	db := r.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("student_id = ? AND area_name = ?", studentID, areaName).
		Update("progress", gorm.Expr("GREATEST(progress - ?, 0)", delta))
	if result.Error != nil {
		return nil, handleDBError(result.Error, "decrement achievement progress")
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetByStudentAndArea(ctx, tx, studentID, areaName)
}

// ===== TEACHER OVERRIDES =====

func (r *achievementRepository) SetProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, progress int) (*models.Achievement, error) {
	return r.upsertField(ctx, tx, studentID, areaName,
		&models.Achievement{StudentID: studentID, AreaName: areaName, Progress: progress},
		"progress")
}

func (r *achievementRepository) SetLabel(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, label string) (*models.Achievement, error) {
	return r.upsertField(ctx, tx, studentID, areaName,
		&models.Achievement{StudentID: studentID, AreaName: areaName, Label: label},
		"label")
}

func (r *achievementRepository) SetCertified(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, certified bool) (*models.Achievement, error) {
	return r.upsertField(ctx, tx, studentID, areaName,
		&models.Achievement{StudentID: studentID, AreaName: areaName, IsCertified: certified},
		"is_certified")
}

func (r *achievementRepository) upsertField(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, row *models.Achievement, column string) (*models.Achievement, error) {
	db := r.getDB(tx)

	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "area_name"}},
			DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
		}).
		Create(row).Error; err != nil {
		return nil, handleDBError(err, "set achievement "+column)
	}

	return r.GetByStudentAndArea(ctx, tx, studentID, areaName)
}

// ===== TIER INPUTS =====

func (r *achievementRepository) CountCertified(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("student_id = ? AND is_certified = ?", studentID, true).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count certified achievements")
	}

	return count, nil
}

// ===== EXPORT SUPPORT =====

func (r *achievementRepository) GetClassProgress(ctx context.Context, tx *gorm.DB, grade, classNum int) ([]*repositories.StudentProgressRow, error) {
	db := r.getDB(tx)
	var rows []*repositories.StudentProgressRow

	if err := db.WithContext(ctx).
		Table("achievements").
		Select(`users.id as student_id, users.name, users.grade, users.class_num, users.student_num,
			achievements.area_name, achievements.progress, achievements.label, achievements.is_certified`).
		Joins("INNER JOIN users ON users.id = achievements.student_id").
		Where("users.role = ? AND users.grade = ? AND users.class_num = ? AND users.deleted_at IS NULL",
			models.RoleStudent, grade, classNum).
		Order("users.student_num ASC, achievements.area_name ASC").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "get class progress")
	}

	return rows, nil
}

// ===== HELPER METHODS =====

func (r *achievementRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
