package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"gorm.io/datatypes"

	"github.com/hichoni/challenge-service/internal/cache"
	"github.com/hichoni/challenge-service/internal/events"
	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/validator"
)

func newAchievementFixture(t *testing.T) (*achievementService, *fakeRepository, *events.MockEventPublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)

	repo.users[1] = &models.User{ID: 1, Username: "s40101", Name: "Kim", Role: models.RoleStudent, Grade: 4, ClassNum: 1, StudentNum: 1}
	repo.users[9] = &models.User{ID: 9, Username: "teacher1", Name: "Lee", Role: models.RoleTeacher}

	repo.areas["reading"] = &models.AreaConfig{
		Name:       "reading",
		KoreanName: "독서",
		Icon:       "book",
		GoalType:   models.GoalNumeric,
		Goals:      datatypes.JSON(`{"4": 5, "5": 7, "6": 10}`),
	}
	repo.areas["volunteering"] = &models.AreaConfig{
		Name:     "volunteering",
		GoalType: models.GoalObjective,
		Options:  datatypes.JSON(`["helper", "leader"]`),
	}

	svc := &achievementService{
		repo:           repo,
		logger:         logger,
		validator:      validator.New(),
		eventPublisher: publisher,
		cacheManager:   cache.NewCacheManager(nil),
	}

	return svc, repo, publisher
}

func TestAchievementService_GetStudentAchievements(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAchievementFixture(t)
	repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 3}

	responses, err := svc.GetStudentAchievements(ctx, 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected one row per area, got %d", len(responses))
	}

	byArea := make(map[string]*AchievementResponse)
	for _, r := range responses {
		byArea[r.AreaName] = r
	}

	reading := byArea["reading"]
	if reading == nil || reading.Progress != 3 {
		t.Fatalf("reading row wrong: %+v", reading)
	}
	if reading.Goal != 5 {
		t.Errorf("grade 4 goal should be 5, got %d", reading.Goal)
	}
	if reading.Icon != models.IconBook {
		t.Errorf("expected book icon, got %s", reading.Icon)
	}
	if reading.AreaKoreanName != "독서" {
		t.Errorf("korean name missing: %q", reading.AreaKoreanName)
	}

	// Areas without a stored row come back as zero-progress defaults
	volunteering := byArea["volunteering"]
	if volunteering == nil || volunteering.Progress != 0 || volunteering.IsCertified {
		t.Fatalf("volunteering default wrong: %+v", volunteering)
	}
	if len(repo.achievements) != 1 {
		t.Errorf("reading a default must not create rows, have %d", len(repo.achievements))
	}
}

func TestAchievementService_GetCertificateStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAchievementFixture(t)
	repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 5, IsCertified: true}
	repo.achievements[achievementKey(1, "volunteering")] = &models.Achievement{StudentID: 1, AreaName: "volunteering", Label: "helper", IsCertified: true}

	status, err := svc.GetCertificateStatus(ctx, 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if status.CertifiedCount != 2 {
		t.Errorf("expected 2 certified areas, got %d", status.CertifiedCount)
	}
	if status.Tier != models.TierBronze {
		t.Errorf("two certified areas should be Bronze, got %s", status.Tier)
	}
}

func TestAchievementService_SetProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("override replaces the counter", func(t *testing.T) {
		svc, repo, _ := newAchievementFixture(t)
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 2}

		resp, err := svc.SetProgress(ctx, 9, 1, "reading", 4)
		if err != nil {
			t.Fatalf("override failed: %v", err)
		}
		if resp.Progress != 4 {
			t.Errorf("expected progress 4, got %d", resp.Progress)
		}
	})

	t.Run("objective area refuses a counter", func(t *testing.T) {
		svc, _, _ := newAchievementFixture(t)
		if _, err := svc.SetProgress(ctx, 9, 1, "volunteering", 4); err != ErrNotNumericArea {
			t.Errorf("expected ErrNotNumericArea, got %v", err)
		}
	})

	t.Run("student cannot override", func(t *testing.T) {
		svc, _, _ := newAchievementFixture(t)
		_, err := svc.SetProgress(ctx, 1, 1, "reading", 100)
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})
}

func TestAchievementService_SetLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("configured option is accepted", func(t *testing.T) {
		svc, _, _ := newAchievementFixture(t)
		resp, err := svc.SetLabel(ctx, 9, 1, "volunteering", "leader")
		if err != nil {
			t.Fatalf("set label failed: %v", err)
		}
		if resp.Label != "leader" {
			t.Errorf("expected label leader, got %q", resp.Label)
		}
	})

	t.Run("unknown option is rejected", func(t *testing.T) {
		svc, _, _ := newAchievementFixture(t)
		_, err := svc.SetLabel(ctx, 9, 1, "volunteering", "stranger")
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected validation errors, got %v", err)
		}
	})

	t.Run("numeric area has no label", func(t *testing.T) {
		svc, _, _ := newAchievementFixture(t)
		if _, err := svc.SetLabel(ctx, 9, 1, "reading", "leader"); err != ErrNotObjectiveArea {
			t.Errorf("expected ErrNotObjectiveArea, got %v", err)
		}
	})
}

func TestAchievementService_SetCertified(t *testing.T) {
	ctx := context.Background()

	t.Run("certify publishes the tier", func(t *testing.T) {
		svc, _, publisher := newAchievementFixture(t)

		resp, err := svc.SetCertified(ctx, 9, 1, "reading", true)
		if err != nil {
			t.Fatalf("certify failed: %v", err)
		}
		if !resp.IsCertified {
			t.Error("expected certified flag set")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventAchievementCertified {
			t.Fatalf("expected one %s event, got %+v", events.EventAchievementCertified, published)
		}
	})

	t.Run("revoke publishes decertified", func(t *testing.T) {
		svc, repo, publisher := newAchievementFixture(t)
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 5, IsCertified: true}

		resp, err := svc.SetCertified(ctx, 9, 1, "reading", false)
		if err != nil {
			t.Fatalf("revoke failed: %v", err)
		}
		if resp.IsCertified {
			t.Error("expected certified flag cleared")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventAchievementDecertified {
			t.Fatalf("expected one %s event, got %+v", events.EventAchievementDecertified, published)
		}
	})

	t.Run("unknown area", func(t *testing.T) {
		svc, _, _ := newAchievementFixture(t)
		if _, err := svc.SetCertified(ctx, 9, 1, "astronomy", true); err != ErrAreaNotFound {
			t.Errorf("expected ErrAreaNotFound, got %v", err)
		}
	})
}
