package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/cache"
	"github.com/hichoni/challenge-service/internal/events"
	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/validator"
)

type reviewService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	mediaStore     storage.MediaStore
	cacheManager   *cache.CacheManager
}

func NewReviewService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, mediaStore storage.MediaStore, cacheManager *cache.CacheManager) ReviewService {
	return &reviewService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		mediaStore:     mediaStore,
		cacheManager:   cacheManager,
	}
}

func (s *reviewService) ListPending(ctx context.Context, filters repositories.SubmissionFilters) (*SubmissionListResponse, error) {
	submissions, total, err := s.repo.Submission().GetPendingReview(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}

	return buildSubmissionList(submissions, total, filters, 0), nil
}

// ReviewSubmission applies a teacher decision to a submission awaiting review.
// Approval credits the progress ledger exactly once: the credit happens in the
// same transaction as the status flip, and the row lock makes a second
// concurrent decision fail the pending-review check.
func (s *reviewService) ReviewSubmission(ctx context.Context, id uint, reviewerID uint, req *ReviewRequest) (*SubmissionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireTeacher(ctx, reviewerID, "review"); err != nil {
		return nil, err
	}

	s.logger.Info("Reviewing submission",
		"submission_id", id,
		"reviewer_id", reviewerID,
		"action", req.Action)

	var (
		submission *models.Submission
		certified  *events.AchievementCertifiedEvent
		progress   *int
	)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Submission().GetByIDForUpdate(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		if errs := s.validator.GetBusinessValidator().ValidateReviewable(locked.Status); len(errs) > 0 {
			return ErrSubmissionNotPending
		}

		if req.Action == "reject" {
			if err := txRepo.Submission().UpdateStatus(ctx, nil, id, models.SubmissionRejected, nil); err != nil {
				return fmt.Errorf("failed to reject submission: %w", err)
			}
			locked.Status = models.SubmissionRejected
			submission = locked
			return nil
		}

		if err := txRepo.Submission().UpdateStatus(ctx, nil, id, models.SubmissionApproved, nil); err != nil {
			return fmt.Errorf("failed to approve submission: %w", err)
		}
		locked.Status = models.SubmissionApproved
		submission = locked

		area, err := txRepo.Area().GetByName(ctx, nil, locked.AreaName)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAreaNotFound
			}
			return fmt.Errorf("failed to load area config: %w", err)
		}

		// Objective areas accrue through teacher-set labels, not counters
		if !area.IsNumeric() {
			return nil
		}

		achievement, err := txRepo.Achievement().IncrementProgress(ctx, nil, locked.StudentID, locked.AreaName, 1)
		if err != nil {
			return fmt.Errorf("failed to credit progress: %w", err)
		}
		progress = &achievement.Progress

		cert, err := s.maybeCertify(ctx, txRepo, area, achievement)
		if err != nil {
			return err
		}
		certified = cert

		return nil
	})
	if err != nil {
		return nil, err
	}

	if progress != nil {
		cache.InvalidateAchievementCache(ctx, s.cacheManager, submission.StudentID)
	}
	s.publishReviewEvents(ctx, submission, reviewerID, req.Action, progress, certified)

	return buildSubmissionResponse(submission, reviewerID), nil
}

// ReviewDeletionRequest resolves a student's deletion request. Rejection puts
// the submission back to its stashed status, or to approved when no stash was
// recorded. Approval debits the ledger when
// the stashed status was approved, removes the row, and then tries to remove
// the media blob outside the transaction.
func (s *reviewService) ReviewDeletionRequest(ctx context.Context, id uint, reviewerID uint, req *ReviewRequest) (*SubmissionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireTeacher(ctx, reviewerID, "review_deletion"); err != nil {
		return nil, err
	}

	s.logger.Info("Reviewing deletion request",
		"submission_id", id,
		"reviewer_id", reviewerID,
		"action", req.Action)

	var (
		submission *models.Submission
		deleted    bool
		mediaURL   string
	)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Submission().GetByIDForUpdate(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		if locked.Status != models.SubmissionPendingDeletion {
			return ErrDeletionNotRequested
		}

		if req.Action == "reject" {
			// A missing stash restores to approved
			restored := models.SubmissionApproved
			if locked.PreviousStatus != nil {
				restored = *locked.PreviousStatus
			}
			if err := txRepo.Submission().UpdateStatus(ctx, nil, id, restored, nil); err != nil {
				return fmt.Errorf("failed to restore submission status: %w", err)
			}
			locked.Status = restored
			locked.PreviousStatus = nil
			submission = locked
			return nil
		}

		// Only a stashed approved status ever credited the ledger; a missing
		// stash debits nothing
		if locked.PreviousStatus != nil && *locked.PreviousStatus == models.SubmissionApproved {
			area, err := txRepo.Area().GetByName(ctx, nil, locked.AreaName)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return ErrAreaNotFound
				}
				return fmt.Errorf("failed to load area config: %w", err)
			}

			if area.IsNumeric() {
				if _, err := txRepo.Achievement().DecrementProgress(ctx, nil, locked.StudentID, locked.AreaName, 1); err != nil && !repositories.IsNotFoundError(err) {
					return fmt.Errorf("failed to debit progress: %w", err)
				}
			}
		}

		if err := txRepo.Submission().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		submission = locked
		deleted = true
		if locked.MediaURL != nil {
			mediaURL = *locked.MediaURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Media cleanup is best effort. The database row is already gone and the
	// blob can be swept later if this fails.
	if deleted && mediaURL != "" {
		if err := s.mediaStore.Delete(ctx, mediaURL); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete submission media",
				"submission_id", id,
				"error", err)
		}
	}

	if deleted {
		cache.InvalidateAchievementCache(ctx, s.cacheManager, submission.StudentID)
	}
	s.publishDeletionEvents(ctx, submission, reviewerID, req.Action)

	return buildSubmissionResponse(submission, reviewerID), nil
}

// requireTeacher guards the review operations independently of the route
// middleware, so a service-level caller cannot bypass the role check.
func (s *reviewService) requireTeacher(ctx context.Context, reviewerID uint, action string) error {
	reviewer, err := s.repo.User().GetByID(ctx, nil, reviewerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load reviewer: %w", err)
	}
	if !reviewer.IsTeacher() {
		return NewPermissionError(reviewerID, "submission", action, "teacher role required")
	}
	return nil
}

// maybeCertify flips the certified flag when a numeric area reaches its goal.
// Certification is never withdrawn here, only a teacher override revokes it.
func (s *reviewService) maybeCertify(ctx context.Context, txRepo repositories.Repository, area *models.AreaConfig, achievement *models.Achievement) (*events.AchievementCertifiedEvent, error) {
	if achievement.IsCertified {
		return nil, nil
	}

	student, err := txRepo.User().GetByID(ctx, nil, achievement.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student for certification: %w", err)
	}

	goal := area.GoalForGrade(student.GradeKey())
	if goal <= 0 || achievement.Progress < goal {
		return nil, nil
	}

	updated, err := txRepo.Achievement().SetCertified(ctx, nil, achievement.StudentID, achievement.AreaName, true)
	if err != nil {
		return nil, fmt.Errorf("failed to certify achievement: %w", err)
	}

	count, err := txRepo.Achievement().CountCertified(ctx, nil, achievement.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count certified areas: %w", err)
	}

	s.logger.Info("Achievement certified",
		"student_id", achievement.StudentID,
		"area_name", achievement.AreaName,
		"progress", updated.Progress,
		"certified_count", count)

	return &events.AchievementCertifiedEvent{
		StudentID:       achievement.StudentID,
		AreaName:        achievement.AreaName,
		Progress:        updated.Progress,
		CertifiedCount:  int(count),
		CertificateTier: string(models.TierForCertifiedCount(int(count))),
	}, nil
}

func (s *reviewService) publishReviewEvents(ctx context.Context, submission *models.Submission, reviewerID uint, action string, progress *int, certified *events.AchievementCertifiedEvent) {
	event := events.NewEvent(events.EventSubmissionReviewed, &events.SubmissionReviewedEvent{
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		AreaName:     submission.AreaName,
		Decision:     action,
		ReviewerID:   reviewerID,
		NewProgress:  progress,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish review event", "error", err)
	}

	if certified != nil {
		event := events.NewEvent(events.EventAchievementCertified, certified)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish certification event", "error", err)
		}
	}
}

func (s *reviewService) publishDeletionEvents(ctx context.Context, submission *models.Submission, reviewerID uint, action string) {
	event := events.NewEvent(events.EventDeletionReviewed, &events.DeletionReviewedEvent{
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		AreaName:     submission.AreaName,
		Decision:     action,
		ReviewerID:   reviewerID,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish deletion review event", "error", err)
	}
}
