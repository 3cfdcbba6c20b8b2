package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/events"
	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/validator"
)

type submissionService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	mediaStore     storage.MediaStore
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, mediaStore storage.MediaStore) SubmissionService {
	return &submissionService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		mediaStore:     mediaStore,
	}
}

func (s *submissionService) Create(ctx context.Context, req *CreateSubmissionRequest, studentID uint) (*SubmissionResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateSubmissionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !student.IsStudent() {
		return nil, NewPermissionError(studentID, "submission", "create", "only students submit evidence")
	}

	exists, err := s.repo.Area().ExistsByName(ctx, nil, req.AreaName)
	if err != nil {
		return nil, fmt.Errorf("failed to check area: %w", err)
	}
	if !exists {
		return nil, ErrAreaNotFound
	}

	submission := &models.Submission{
		StudentID:   studentID,
		StudentName: student.Name,
		AreaName:    req.AreaName,
		Evidence:    strings.TrimSpace(req.Evidence),
		MediaURL:    req.MediaURL,
		Status:      models.SubmissionPendingReview,
	}

	if err := s.repo.Submission().Create(ctx, nil, submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("Submission created",
		"submission_id", submission.ID,
		"student_id", studentID,
		"area_name", req.AreaName)

	event := events.NewEvent(events.EventSubmissionCreated, map[string]interface{}{
		"submission_id": submission.ID,
		"student_id":    studentID,
		"area_name":     req.AreaName,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish submission created event", "error", err)
	}

	return buildSubmissionResponse(submission, studentID), nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint, userID uint) (*SubmissionResponse, error) {
	submission, err := s.repo.Submission().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return buildSubmissionResponse(submission, userID), nil
}

func (s *submissionService) List(ctx context.Context, filters repositories.SubmissionFilters, userID uint) (*SubmissionListResponse, error) {
	submissions, total, err := s.repo.Submission().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return buildSubmissionList(submissions, total, filters, userID), nil
}

func (s *submissionService) GetByStudent(ctx context.Context, studentID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error) {
	submissions, total, err := s.repo.Submission().GetByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}

	return buildSubmissionList(submissions, total, filters, studentID), nil
}

// DeleteOwn removes a submission that was never reviewed, so no ledger debit
// is needed. Anything past review must go through a deletion request.
func (s *submissionService) DeleteOwn(ctx context.Context, id uint, studentID uint) error {
	var mediaURL string

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Submission().GetByIDForUpdate(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		if locked.StudentID != studentID {
			return NewPermissionError(studentID, "submission", "delete", "not the owner")
		}
		if locked.Status != models.SubmissionPendingReview {
			return ErrSubmissionNotDeletable
		}

		if err := txRepo.Submission().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		if locked.MediaURL != nil {
			mediaURL = *locked.MediaURL
		}
		return nil
	})
	if err != nil {
		return err
	}

	if mediaURL != "" {
		if err := s.mediaStore.Delete(ctx, mediaURL); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete submission media",
				"submission_id", id,
				"error", err)
		}
	}

	s.logger.Info("Submission deleted by owner", "submission_id", id, "student_id", studentID)
	return nil
}

// RequestDeletion stashes the current status so a rejected request can put the
// submission back exactly where it was.
func (s *submissionService) RequestDeletion(ctx context.Context, id uint, studentID uint) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Submission().GetByIDForUpdate(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		if locked.StudentID != studentID {
			return NewPermissionError(studentID, "submission", "request_deletion", "not the owner")
		}
		if locked.Status == models.SubmissionPendingDeletion {
			return ErrSubmissionNotDeletable
		}

		previous := locked.Status
		if err := txRepo.Submission().UpdateStatus(ctx, nil, id, models.SubmissionPendingDeletion, &previous); err != nil {
			return fmt.Errorf("failed to park submission for deletion: %w", err)
		}

		s.logger.Info("Deletion requested",
			"submission_id", id,
			"student_id", studentID,
			"previous_status", previous)
		return nil
	})
}

// ToggleLike adds or removes the user in the likes set. The read-modify-write
// runs under a row lock so concurrent toggles cannot drop each other.
func (s *submissionService) ToggleLike(ctx context.Context, id uint, userID uint) (*SubmissionResponse, error) {
	var submission *models.Submission

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Submission().GetByIDForUpdate(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		likes := locked.LikedBy()
		found := false
		next := make([]uint, 0, len(likes)+1)
		for _, uid := range likes {
			if uid == userID {
				found = true
				continue
			}
			next = append(next, uid)
		}
		if !found {
			next = append(next, userID)
		}

		if err := txRepo.Submission().UpdateLikes(ctx, nil, id, next); err != nil {
			return fmt.Errorf("failed to update likes: %w", err)
		}

		locked.SetLikes(next)
		submission = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buildSubmissionResponse(submission, userID), nil
}

func (s *submissionService) AddComment(ctx context.Context, id uint, userID uint, req *CommentRequest) (*models.SubmissionComment, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	submission, err := s.repo.Submission().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}

	author, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load comment author: %w", err)
	}

	comment := &models.SubmissionComment{
		SubmissionID: submission.ID,
		UserID:       author.ID,
		UserName:     author.Name,
		Text:         strings.TrimSpace(req.Text),
	}

	if err := s.repo.Submission().AddComment(ctx, nil, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return comment, nil
}

// ===== RESPONSE BUILDERS =====

func buildSubmissionResponse(submission *models.Submission, userID uint) *SubmissionResponse {
	likes := submission.LikedBy()
	likedByMe := false
	for _, uid := range likes {
		if uid == userID {
			likedByMe = true
			break
		}
	}

	return &SubmissionResponse{
		Submission: submission,
		LikeCount:  len(likes),
		LikedByMe:  likedByMe,
		CanDelete:  submission.StudentID == userID && submission.Status == models.SubmissionPendingReview,
	}
}

func buildSubmissionList(submissions []*models.Submission, total int64, filters repositories.SubmissionFilters, userID uint) *SubmissionListResponse {
	responses := make([]*SubmissionResponse, len(submissions))
	for i, submission := range submissions {
		responses[i] = buildSubmissionResponse(submission, userID)
	}

	page := 1
	size := len(submissions)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}

	return &SubmissionListResponse{
		Submissions: responses,
		Total:       total,
		Page:        page,
		Size:        size,
	}
}
