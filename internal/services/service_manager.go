package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/cache"
	"github.com/hichoni/challenge-service/internal/config"
	"github.com/hichoni/challenge-service/internal/events"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/utils"
	"github.com/hichoni/challenge-service/internal/validator"
)

// ServiceManagerDeps holds everything the services need beyond the repository
type ServiceManagerDeps struct {
	DB             *gorm.DB
	Repo           repositories.Repository
	Logger         *slog.Logger
	Validator      *validator.Validator
	EventPublisher events.EventPublisher
	MediaStore     storage.MediaStore
	CacheManager   *cache.CacheManager
	JWTManager     *utils.JWTManager
	Config         *config.Config
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps ServiceManagerDeps

	submissionService   SubmissionService
	reviewService       ReviewService
	achievementService  AchievementService
	userService         UserService
	areaService         AreaService
	importExportService ImportExportService
	advisorService      AdvisorService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps ServiceManagerDeps) ServiceManager {
	return &serviceManager{deps: deps}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	d := sm.deps

	sm.submissionService = NewSubmissionService(d.Repo, d.DB, d.Logger, d.Validator, d.EventPublisher, d.MediaStore)
	d.Logger.Info("Submission service initialized")

	sm.reviewService = NewReviewService(d.Repo, d.DB, d.Logger, d.Validator, d.EventPublisher, d.MediaStore, d.CacheManager)
	d.Logger.Info("Review service initialized")

	sm.achievementService = NewAchievementService(d.Repo, d.DB, d.Logger, d.Validator, d.EventPublisher, d.CacheManager)
	d.Logger.Info("Achievement service initialized")

	sm.userService = NewUserService(d.Repo, d.DB, d.Logger, d.Validator, d.JWTManager)
	d.Logger.Info("User service initialized")

	sm.areaService = NewAreaService(d.Repo, d.DB, d.Logger, d.Validator)
	d.Logger.Info("Area service initialized")

	sm.importExportService = NewImportExportService(d.Repo, d.Logger, d.Validator)
	d.Logger.Info("ImportExport service initialized")

	advisor, err := NewAdvisorService(ctx, d.Config, d.Repo, d.Logger, d.Validator)
	if err != nil {
		return fmt.Errorf("advisor service: %w", err)
	}
	sm.advisorService = advisor
	d.Logger.Info("Advisor service initialized")

	return nil
}

// Service getters
func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.submissionService == nil {
		panic("submission service not initialized")
	}

	return sm.submissionService
}

func (sm *serviceManager) Review() ReviewService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.reviewService == nil {
		panic("review service not initialized")
	}

	return sm.reviewService
}

func (sm *serviceManager) Achievement() AchievementService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.achievementService == nil {
		panic("achievement service not initialized")
	}

	return sm.achievementService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.userService == nil {
		panic("user service not initialized")
	}

	return sm.userService
}

func (sm *serviceManager) Area() AreaService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.areaService == nil {
		panic("area service not initialized")
	}

	return sm.areaService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.importExportService == nil {
		panic("import/export service not initialized")
	}

	return sm.importExportService
}

func (sm *serviceManager) Advisor() AdvisorService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.advisorService == nil {
		panic("advisor service not initialized")
	}

	return sm.advisorService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if closer, ok := sm.advisorService.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close advisor service", "error", err)
		}
	}

	if sm.deps.EventPublisher != nil {
		if err := sm.deps.EventPublisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repository connections", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}
