package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/validator"
)

type areaService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAreaService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) AreaService {
	return &areaService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *areaService) Create(ctx context.Context, req *AreaConfigRequest) (*models.AreaConfig, error) {
	if errs := s.validator.GetBusinessValidator().ValidateAreaConfig(req); len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.repo.Area().ExistsByName(ctx, nil, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check area: %w", err)
	}
	if exists {
		return nil, ErrAreaExists
	}

	area, err := buildAreaConfig(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Area().Create(ctx, nil, area); err != nil {
		return nil, fmt.Errorf("failed to create area: %w", err)
	}

	s.logger.Info("Area created", "area_name", area.Name, "goal_type", area.GoalType)
	return area, nil
}

func (s *areaService) GetByName(ctx context.Context, name string) (*models.AreaConfig, error) {
	area, err := s.repo.Area().GetByName(ctx, nil, name)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("failed to get area: %w", err)
	}
	return area, nil
}

func (s *areaService) List(ctx context.Context) ([]*models.AreaConfig, error) {
	areas, err := s.repo.Area().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return areas, nil
}

func (s *areaService) Update(ctx context.Context, name string, req *AreaConfigRequest) (*models.AreaConfig, error) {
	if errs := s.validator.GetBusinessValidator().ValidateAreaConfig(req); len(errs) > 0 {
		return nil, errs
	}
	if req.Name != name {
		return nil, NewBusinessRuleError("area_rename", "area name cannot be changed", map[string]interface{}{
			"name": name,
		})
	}

	existing, err := s.repo.Area().GetByName(ctx, nil, name)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("failed to load area: %w", err)
	}

	updated, err := buildAreaConfig(req)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = existing.CreatedAt

	if err := s.repo.Area().Update(ctx, nil, updated); err != nil {
		return nil, fmt.Errorf("failed to update area: %w", err)
	}

	s.logger.Info("Area updated", "area_name", name)
	return updated, nil
}

// Delete refuses to remove an area that still has submissions, since those
// rows reference the area by name.
func (s *areaService) Delete(ctx context.Context, name string) error {
	exists, err := s.repo.Area().ExistsByName(ctx, nil, name)
	if err != nil {
		return fmt.Errorf("failed to check area: %w", err)
	}
	if !exists {
		return ErrAreaNotFound
	}

	stats, err := s.repo.Submission().GetAreaStats(ctx, nil, name)
	if err != nil {
		return fmt.Errorf("failed to check area usage: %w", err)
	}
	if stats.TotalSubmissions > 0 {
		return ErrAreaInUse
	}

	if err := s.repo.Area().Delete(ctx, nil, name); err != nil {
		return fmt.Errorf("failed to delete area: %w", err)
	}

	s.logger.Info("Area deleted", "area_name", name)
	return nil
}

func buildAreaConfig(req *AreaConfigRequest) (*models.AreaConfig, error) {
	area := &models.AreaConfig{
		Name:          req.Name,
		KoreanName:    req.KoreanName,
		ChallengeName: req.ChallengeName,
		Icon:          string(models.ResolveIcon(req.Icon)),
		Requirements:  req.Requirements,
		Unit:          req.Unit,
		GoalType:      models.GoalType(req.GoalType),
	}

	if len(req.Goals) > 0 {
		data, err := json.Marshal(req.Goals)
		if err != nil {
			return nil, fmt.Errorf("failed to encode goals: %w", err)
		}
		area.Goals = datatypes.JSON(data)
	}
	if len(req.Options) > 0 {
		data, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		area.Options = datatypes.JSON(data)
	}

	return area, nil
}
