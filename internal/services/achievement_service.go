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
	"github.com/hichoni/challenge-service/internal/validator"
)

type achievementService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	cacheManager   *cache.CacheManager
}

func NewAchievementService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, cacheManager *cache.CacheManager) AchievementService {
	return &achievementService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		cacheManager:   cacheManager,
	}
}

// GetStudentAchievements returns one row per configured area. Areas the
// student never scored in appear as zero-progress defaults without a database
// row being created.
func (s *achievementService) GetStudentAchievements(ctx context.Context, studentID uint) ([]*AchievementResponse, error) {
	var responses []*AchievementResponse

	cacheKey := fmt.Sprintf("student:%d:areas", studentID)
	err := s.cacheManager.Achievement.CacheOrExecute(ctx, cacheKey, &responses, cache.AchievementCacheConfig.TTL, func() (interface{}, error) {
		return s.loadStudentAchievements(ctx, studentID)
	})
	if err != nil {
		return nil, err
	}

	return responses, nil
}

func (s *achievementService) loadStudentAchievements(ctx context.Context, studentID uint) ([]*AchievementResponse, error) {
	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	areas, err := s.repo.Area().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	achievements, err := s.repo.Achievement().GetByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	byArea := make(map[string]*models.Achievement, len(achievements))
	for _, a := range achievements {
		byArea[a.AreaName] = a
	}

	responses := make([]*AchievementResponse, 0, len(areas))
	for _, area := range areas {
		achievement, ok := byArea[area.Name]
		if !ok {
			achievement = &models.Achievement{
				StudentID: studentID,
				AreaName:  area.Name,
			}
		}
		responses = append(responses, buildAchievementResponse(achievement, area, student))
	}

	return responses, nil
}

func (s *achievementService) GetCertificateStatus(ctx context.Context, studentID uint) (*CertificateStatusResponse, error) {
	achievements, err := s.GetStudentAchievements(ctx, studentID)
	if err != nil {
		return nil, err
	}

	certified := 0
	for _, a := range achievements {
		if a.IsCertified {
			certified++
		}
	}

	return &CertificateStatusResponse{
		StudentID:      studentID,
		CertifiedCount: certified,
		Tier:           models.TierForCertifiedCount(certified),
		Achievements:   achievements,
	}, nil
}

// ===== TEACHER OVERRIDES =====

// SetProgress replaces the counter without touching the certified flag. The
// flag stays under explicit teacher control on this path.
func (s *achievementService) SetProgress(ctx context.Context, teacherID, studentID uint, areaName string, progress int) (*AchievementResponse, error) {
	area, student, err := s.loadOverrideTargets(ctx, teacherID, studentID, areaName, "set_progress")
	if err != nil {
		return nil, err
	}
	if !area.IsNumeric() {
		return nil, ErrNotNumericArea
	}

	achievement, err := s.repo.Achievement().SetProgress(ctx, nil, studentID, areaName, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to set progress: %w", err)
	}

	s.logger.Info("Progress overridden",
		"teacher_id", teacherID,
		"student_id", studentID,
		"area_name", areaName,
		"progress", progress)

	cache.InvalidateAchievementCache(ctx, s.cacheManager, studentID)
	return buildAchievementResponse(achievement, area, student), nil
}

func (s *achievementService) SetLabel(ctx context.Context, teacherID, studentID uint, areaName string, label string) (*AchievementResponse, error) {
	area, student, err := s.loadOverrideTargets(ctx, teacherID, studentID, areaName, "set_label")
	if err != nil {
		return nil, err
	}
	if area.IsNumeric() {
		return nil, ErrNotObjectiveArea
	}
	if errs := s.validator.GetBusinessValidator().ValidateLabelOption(label, area.OptionList()); len(errs) > 0 {
		return nil, errs
	}

	achievement, err := s.repo.Achievement().SetLabel(ctx, nil, studentID, areaName, label)
	if err != nil {
		return nil, fmt.Errorf("failed to set label: %w", err)
	}

	s.logger.Info("Objective label set",
		"teacher_id", teacherID,
		"student_id", studentID,
		"area_name", areaName,
		"label", label)

	cache.InvalidateAchievementCache(ctx, s.cacheManager, studentID)
	return buildAchievementResponse(achievement, area, student), nil
}

func (s *achievementService) SetCertified(ctx context.Context, teacherID, studentID uint, areaName string, certified bool) (*AchievementResponse, error) {
	area, student, err := s.loadOverrideTargets(ctx, teacherID, studentID, areaName, "set_certified")
	if err != nil {
		return nil, err
	}

	achievement, err := s.repo.Achievement().SetCertified(ctx, nil, studentID, areaName, certified)
	if err != nil {
		return nil, fmt.Errorf("failed to set certified flag: %w", err)
	}

	count, err := s.repo.Achievement().CountCertified(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count certified areas: %w", err)
	}

	s.logger.Info("Certification overridden",
		"teacher_id", teacherID,
		"student_id", studentID,
		"area_name", areaName,
		"certified", certified,
		"certified_count", count)

	eventType := events.EventAchievementCertified
	if !certified {
		eventType = events.EventAchievementDecertified
	}
	event := events.NewEvent(eventType, &events.AchievementCertifiedEvent{
		StudentID:       studentID,
		AreaName:        areaName,
		Progress:        achievement.Progress,
		CertifiedCount:  int(count),
		CertificateTier: string(models.TierForCertifiedCount(int(count))),
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish certification event", "error", err)
	}

	cache.InvalidateAchievementCache(ctx, s.cacheManager, studentID)
	return buildAchievementResponse(achievement, area, student), nil
}

// loadOverrideTargets verifies the actors of a teacher override
func (s *achievementService) loadOverrideTargets(ctx context.Context, teacherID, studentID uint, areaName, action string) (*models.AreaConfig, *models.User, error) {
	teacher, err := s.repo.User().GetByID(ctx, nil, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to load teacher: %w", err)
	}
	if !teacher.IsTeacher() {
		return nil, nil, NewPermissionError(teacherID, "achievement", action, "teacher role required")
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to load student: %w", err)
	}

	area, err := s.repo.Area().GetByName(ctx, nil, areaName)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrAreaNotFound
		}
		return nil, nil, fmt.Errorf("failed to load area: %w", err)
	}

	return area, student, nil
}

func buildAchievementResponse(achievement *models.Achievement, area *models.AreaConfig, student *models.User) *AchievementResponse {
	return &AchievementResponse{
		Achievement:    achievement,
		AreaKoreanName: area.KoreanName,
		Icon:           models.ResolveIcon(area.Icon),
		GoalType:       area.GoalType,
		Goal:           area.GoalForGrade(student.GradeKey()),
		Unit:           area.Unit,
	}
}
