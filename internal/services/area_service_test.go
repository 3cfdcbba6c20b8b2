package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/validator"
)

func newAreaFixture(t *testing.T) (*areaService, *fakeRepository) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()

	svc := &areaService{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
	}

	return svc, repo
}

func validAreaRequest() *AreaConfigRequest {
	return &AreaConfigRequest{
		Name:          "reading",
		KoreanName:    "독서",
		ChallengeName: "책 읽기 도전",
		Icon:          "book",
		GoalType:      "numeric",
		Goals:         map[string]int{"4": 5, "5": 7, "6": 10},
	}
}

func TestAreaService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("valid numeric area", func(t *testing.T) {
		svc, repo := newAreaFixture(t)

		area, err := svc.Create(ctx, validAreaRequest())
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if area.GoalForGrade("5") != 7 {
			t.Errorf("grade 5 goal lost: %d", area.GoalForGrade("5"))
		}
		if _, ok := repo.areas["reading"]; !ok {
			t.Error("area not stored")
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc, _ := newAreaFixture(t)

		if _, err := svc.Create(ctx, validAreaRequest()); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		if _, err := svc.Create(ctx, validAreaRequest()); err != ErrAreaExists {
			t.Errorf("expected ErrAreaExists, got %v", err)
		}
	})

	t.Run("unknown icon falls back", func(t *testing.T) {
		svc, _ := newAreaFixture(t)

		req := validAreaRequest()
		req.Icon = "spaceship"
		area, err := svc.Create(ctx, req)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if area.Icon != string(models.IconFallback) {
			t.Errorf("expected fallback icon, got %q", area.Icon)
		}
	})

	t.Run("numeric area without goals", func(t *testing.T) {
		svc, _ := newAreaFixture(t)

		req := validAreaRequest()
		req.Goals = nil
		_, err := svc.Create(ctx, req)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected validation errors, got %v", err)
		}
	})
}

func TestAreaService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the configuration", func(t *testing.T) {
		svc, _ := newAreaFixture(t)
		if _, err := svc.Create(ctx, validAreaRequest()); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		req := validAreaRequest()
		req.Goals = map[string]int{"4": 3, "5": 5, "6": 8}
		area, err := svc.Update(ctx, "reading", req)
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if area.GoalForGrade("4") != 3 {
			t.Errorf("goal not updated: %d", area.GoalForGrade("4"))
		}
	})

	t.Run("rename is refused", func(t *testing.T) {
		svc, _ := newAreaFixture(t)
		if _, err := svc.Create(ctx, validAreaRequest()); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		req := validAreaRequest()
		req.Name = "literature"
		_, err := svc.Update(ctx, "reading", req)
		var berr *BusinessRuleError
		if !errors.As(err, &berr) {
			t.Fatalf("expected BusinessRuleError, got %v", err)
		}
	})

	t.Run("unknown area", func(t *testing.T) {
		svc, _ := newAreaFixture(t)
		if _, err := svc.Update(ctx, "reading", validAreaRequest()); err != ErrAreaNotFound {
			t.Errorf("expected ErrAreaNotFound, got %v", err)
		}
	})
}

func TestAreaService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("unused area", func(t *testing.T) {
		svc, repo := newAreaFixture(t)
		if _, err := svc.Create(ctx, validAreaRequest()); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := svc.Delete(ctx, "reading"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, ok := repo.areas["reading"]; ok {
			t.Error("area should be gone")
		}
	})

	t.Run("area with submissions", func(t *testing.T) {
		svc, repo := newAreaFixture(t)
		if _, err := svc.Create(ctx, validAreaRequest()); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		addSubmission(repo, 80, models.SubmissionApproved, "reading")

		if err := svc.Delete(ctx, "reading"); err != ErrAreaInUse {
			t.Errorf("expected ErrAreaInUse, got %v", err)
		}
	})

	t.Run("unknown area", func(t *testing.T) {
		svc, _ := newAreaFixture(t)
		if err := svc.Delete(ctx, "reading"); err != ErrAreaNotFound {
			t.Errorf("expected ErrAreaNotFound, got %v", err)
		}
	})
}
