package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/utils"
	"github.com/hichoni/challenge-service/internal/validator"
)

type userService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	validator  *validator.Validator
	jwtManager *utils.JWTManager
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, jwtManager *utils.JWTManager) UserService {
	return &userService{
		repo:       repo,
		db:         db,
		logger:     logger,
		validator:  validator,
		jwtManager: jwtManager,
	}
}

// Login checks the PIN against the stored hash and issues a token. The
// response flags accounts still on the default PIN so clients can force a
// change.
func (s *userService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUsername(ctx, nil, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)); err != nil {
		s.logger.Warn("Login failed", "username", req.Username)
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResponse{
		Token:         token,
		User:          user,
		MustChangePIN: user.IsStudent() && !user.PINChanged,
	}, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *userService) ChangePIN(ctx context.Context, userID uint, req *ChangePINRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.CurrentPIN)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}

	if err := s.repo.User().UpdatePIN(ctx, nil, userID, string(hash), true); err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}

	s.logger.Info("PIN changed", "user_id", userID)
	return nil
}

// ResetPIN puts a student back on the default PIN
func (s *userService) ResetPIN(ctx context.Context, teacherID, studentID uint) error {
	if err := s.requireTeacher(ctx, teacherID, "user", "reset_pin"); err != nil {
		return err
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load student: %w", err)
	}
	if !student.IsStudent() {
		return NewPermissionError(teacherID, "user", "reset_pin", "target is not a student")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(models.DefaultPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default pin: %w", err)
	}

	if err := s.repo.User().UpdatePIN(ctx, nil, studentID, string(hash), false); err != nil {
		return fmt.Errorf("failed to reset pin: %w", err)
	}

	s.logger.Info("PIN reset", "teacher_id", teacherID, "student_id", studentID)
	return nil
}

func (s *userService) CreateStudent(ctx context.Context, req *CreateStudentRequest) (*models.User, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	taken, err := s.repo.User().ExistsBySeat(ctx, nil, req.Grade, req.ClassNum, req.StudentNum)
	if err != nil {
		return nil, fmt.Errorf("failed to check seat: %w", err)
	}
	if taken {
		return nil, ErrSeatTaken
	}

	user, err := buildStudent(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.User().ExistsByUsername(ctx, nil, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info("Student created",
		"user_id", user.ID,
		"grade", user.Grade,
		"class_num", user.ClassNum,
		"student_num", user.StudentNum)

	return user, nil
}

// CreateStudentsBulk applies the single-create rules per entry. Bad entries
// are skipped and reported, the rest are created in one batch.
func (s *userService) CreateStudentsBulk(ctx context.Context, reqs []*CreateStudentRequest) (*ImportResult, error) {
	result := &ImportResult{}
	var users []*models.User
	seen := make(map[string]bool)

	for i, req := range reqs {
		if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %s", i+1, errs.Error()))
			continue
		}

		seatKey := fmt.Sprintf("%d-%d-%d", req.Grade, req.ClassNum, req.StudentNum)
		if seen[seatKey] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: duplicate seat in request", i+1))
			continue
		}
		seen[seatKey] = true

		taken, err := s.repo.User().ExistsBySeat(ctx, nil, req.Grade, req.ClassNum, req.StudentNum)
		if err != nil {
			return nil, fmt.Errorf("failed to check seat: %w", err)
		}
		if taken {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: seat already occupied", i+1))
			continue
		}

		user, err := buildStudent(req)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := s.repo.User().CreateBatch(ctx, nil, users); err != nil {
		return nil, fmt.Errorf("failed to create students: %w", err)
	}
	result.Created = len(users)

	s.logger.Info("Students created in bulk",
		"created", result.Created,
		"skipped", result.Skipped)

	return result, nil
}

func (s *userService) ListStudents(ctx context.Context, filters repositories.UserFilters) (*StudentListResponse, error) {
	student := models.RoleStudent
	filters.Role = &student

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return &StudentListResponse{Students: users, Total: total}, nil
}

// DeleteStudents removes students along with their submissions and progress
// in one transaction.
func (s *userService) DeleteStudents(ctx context.Context, teacherID uint, ids []uint) error {
	if err := s.requireTeacher(ctx, teacherID, "user", "delete"); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, id := range ids {
			user, err := txRepo.User().GetByID(ctx, nil, id)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return ErrUserNotFound
				}
				return fmt.Errorf("failed to load user %d: %w", id, err)
			}
			if !user.IsStudent() {
				return NewPermissionError(teacherID, "user", "delete", "target is not a student")
			}

			submissions, _, err := txRepo.Submission().GetByStudent(ctx, nil, id, repositories.SubmissionFilters{})
			if err != nil {
				return fmt.Errorf("failed to load submissions for user %d: %w", id, err)
			}
			for _, submission := range submissions {
				if err := txRepo.Submission().Delete(ctx, nil, submission.ID); err != nil {
					return fmt.Errorf("failed to delete submission %d: %w", submission.ID, err)
				}
			}

			if err := txRepo.Achievement().DeleteByStudent(ctx, nil, id); err != nil {
				return fmt.Errorf("failed to delete achievements for user %d: %w", id, err)
			}
		}

		return txRepo.User().DeleteBatch(ctx, nil, ids)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Students deleted", "teacher_id", teacherID, "count", len(ids))
	return nil
}

func (s *userService) requireTeacher(ctx context.Context, userID uint, resource, action string) error {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsTeacher() {
		return NewPermissionError(userID, resource, action, "teacher role required")
	}
	return nil
}

// buildStudent derives the login name from the seat and hashes the default PIN
func buildStudent(req *CreateStudentRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(models.DefaultPIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default pin: %w", err)
	}

	return &models.User{
		Username:   fmt.Sprintf("s%d%02d%02d", req.Grade, req.ClassNum, req.StudentNum),
		Name:       req.Name,
		Role:       models.RoleStudent,
		Grade:      req.Grade,
		ClassNum:   req.ClassNum,
		StudentNum: req.StudentNum,
		PINHash:    string(hash),
		PINChanged: false,
	}, nil
}
