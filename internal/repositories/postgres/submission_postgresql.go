package postgres

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
)

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &submissionRepository{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *submissionRepository) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(submission).Error; err != nil {
		return handleDBError(err, "create submission")
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := r.getDB(tx)
	var submission models.Submission

	if err := db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, handleDBError(err, "get submission by id")
	}

	return &submission, nil
}

func (r *submissionRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := r.getDB(tx)
	var submission models.Submission

	if err := db.WithContext(ctx).
		Preload("Student").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&submission, id).Error; err != nil {
		return nil, handleDBError(err, "get submission with details")
	}

	return &submission, nil
}

func (r *submissionRepository) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(submission).Error; err != nil {
		return handleDBError(err, "update submission")
	}
	return nil
}

// Delete removes the submission together with its comments
func (r *submissionRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Where("submission_id = ?", id).Delete(&models.SubmissionComment{}).Error; err != nil {
		return handleDBError(err, "delete submission comments")
	}
	if err := db.WithContext(ctx).Delete(&models.Submission{}, id).Error; err != nil {
		return handleDBError(err, "delete submission")
	}
	return nil
}

// GetByIDForUpdate locks the row until the surrounding transaction ends
func (r *submissionRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := r.getDB(tx)
	var submission models.Submission

	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&submission, id).Error; err != nil {
		return nil, handleDBError(err, "get submission for update")
	}

	return &submission, nil
}

// ===== STATUS OPERATIONS =====

func (r *submissionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.SubmissionStatus, previous *models.SubmissionStatus) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"previous_status": previous,
		})
	if result.Error != nil {
		return handleDBError(result.Error, "update submission status")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) UpdateLikes(ctx context.Context, tx *gorm.DB, id uint, likes []uint) error {
	db := r.getDB(tx)

	data, err := json.Marshal(likes)
	if err != nil {
		return handleDBError(err, "marshal likes")
	}

	result := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("likes", datatypes.JSON(data))
	if result.Error != nil {
		return handleDBError(result.Error, "update submission likes")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *submissionRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	db := r.getDB(tx)
	var submissions []*models.Submission
	var total int64

	query := db.WithContext(ctx).Model(&models.Submission{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count submissions")
	}

	query = r.applyPaginationAndSorting(query, filters)

	if err := query.Preload("Student").Find(&submissions).Error; err != nil {
		return nil, 0, handleDBError(err, "list submissions")
	}

	return submissions, total, nil
}

func (r *submissionRepository) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, filters)
}

func (r *submissionRepository) GetPendingReview(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	pending := models.SubmissionPendingReview
	filters.Status = &pending
	if filters.SortOrder == "" {
		filters.SortOrder = "asc" // Oldest first so nothing starves
	}
	return r.List(ctx, tx, filters)
}

func (r *submissionRepository) CountByStudentAndArea(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, status models.SubmissionStatus) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("student_id = ? AND area_name = ? AND status = ?", studentID, areaName, status).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count submissions by student and area")
	}

	return count, nil
}

// ===== COMMENT OPERATIONS =====

func (r *submissionRepository) AddComment(ctx context.Context, tx *gorm.DB, comment *models.SubmissionComment) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(comment).Error; err != nil {
		return handleDBError(err, "add submission comment")
	}
	return nil
}

func (r *submissionRepository) GetComments(ctx context.Context, tx *gorm.DB, submissionID uint) ([]*models.SubmissionComment, error) {
	db := r.getDB(tx)
	var comments []*models.SubmissionComment

	if err := db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, handleDBError(err, "get submission comments")
	}

	return comments, nil
}

// ===== STATISTICS =====

func (r *submissionRepository) GetAreaStats(ctx context.Context, tx *gorm.DB, areaName string) (*repositories.AreaStats, error) {
	db := r.getDB(tx)
	stats := &repositories.AreaStats{AreaName: areaName}

	type statusCount struct {
		Status models.SubmissionStatus
		Count  int64
	}
	var rows []statusCount

	if err := db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("status, COUNT(*) as count").
		Where("area_name = ?", areaName).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "get area submission stats")
	}

	for _, row := range rows {
		stats.TotalSubmissions += row.Count
		switch row.Status {
		case models.SubmissionPendingReview:
			stats.PendingReview = row.Count
		case models.SubmissionApproved:
			stats.Approved = row.Count
		case models.SubmissionRejected:
			stats.Rejected = row.Count
		}
	}

	if err := db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("area_name = ? AND is_certified = ?", areaName, true).
		Count(&stats.CertifiedStudents).Error; err != nil {
		return nil, handleDBError(err, "count certified students")
	}

	return stats, nil
}

// ===== HELPER METHODS =====

func (r *submissionRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Sort columns stay table-qualified because grade filters join the users table
func (r *submissionRepository) applyPaginationAndSorting(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	sortKeyToColumn := map[string]string{
		"created_at": "challenge_submissions.created_at",
		"updated_at": "challenge_submissions.updated_at",
		"area_name":  "challenge_submissions.area_name",
		"id":         "challenge_submissions.id",
	}

	column, ok := sortKeyToColumn[filters.SortBy]
	if !ok {
		column = "challenge_submissions.created_at"
	}

	order := "DESC"
	if filters.SortOrder == "asc" || filters.SortOrder == "ASC" {
		order = "ASC"
	}

	query = query.Order(column + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	return query
}

func (r *submissionRepository) applyFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.AreaName != nil {
		query = query.Where("area_name = ?", *filters.AreaName)
	}
	if filters.Grade != nil || filters.ClassNum != nil {
		query = query.Joins("INNER JOIN users ON users.id = challenge_submissions.student_id")
		if filters.Grade != nil {
			query = query.Where("users.grade = ?", *filters.Grade)
		}
		if filters.ClassNum != nil {
			query = query.Where("users.class_num = ?", *filters.ClassNum)
		}
	}
	if filters.DateFrom != nil {
		query = query.Where("challenge_submissions.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("challenge_submissions.created_at <= ?", *filters.DateTo)
	}

	return query
}
