package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hichoni/challenge-service/internal/cache"
	"github.com/hichoni/challenge-service/internal/events"
	"github.com/hichoni/challenge-service/internal/models"
	"github.com/hichoni/challenge-service/internal/repositories"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/validator"
)

// fakeRepository is an in-memory Repository for service tests. WithTransaction
// runs the callback against the same store, so transactional semantics reduce
// to plain sequencing here.
type fakeRepository struct {
	users       map[uint]*models.User
	areas       map[string]*models.AreaConfig
	submissions map[uint]*models.Submission
	comments    []*models.SubmissionComment

	achievements map[string]*models.Achievement
	nextID       uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:        make(map[uint]*models.User),
		areas:        make(map[string]*models.AreaConfig),
		submissions:  make(map[uint]*models.Submission),
		achievements: make(map[string]*models.Achievement),
		nextID:       1,
	}
}

func achievementKey(studentID uint, areaName string) string {
	return fmt.Sprintf("%d:%s", studentID, areaName)
}

func (f *fakeRepository) User() repositories.UserRepository               { return &fakeUserRepo{f} }
func (f *fakeRepository) Area() repositories.AreaRepository               { return &fakeAreaRepo{f} }
func (f *fakeRepository) Submission() repositories.SubmissionRepository   { return &fakeSubmissionRepo{f} }
func (f *fakeRepository) Achievement() repositories.AchievementRepository { return &fakeAchievementRepo{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ----- users -----

type fakeUserRepo struct{ f *fakeRepository }

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if user.ID == 0 {
		user.ID = r.f.nextID
		r.f.nextID++
	}
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) CreateBatch(ctx context.Context, tx *gorm.DB, users []*models.User) error {
	for _, u := range users {
		if err := r.Create(ctx, tx, u); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	u, ok := r.f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	for _, u := range r.f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.f.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.users, id)
	return nil
}

func (r *fakeUserRepo) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	for _, id := range ids {
		delete(r.f.users, id)
	}
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range r.f.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) GetByClass(ctx context.Context, tx *gorm.DB, grade, classNum int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.f.users {
		if u.Grade == grade && u.ClassNum == classNum {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePIN(ctx context.Context, tx *gorm.DB, id uint, pinHash string, pinChanged bool) error {
	u, ok := r.f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PINHash = pinHash
	u.PINChanged = pinChanged
	return nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, tx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsBySeat(ctx context.Context, tx *gorm.DB, grade, classNum, studentNum int) (bool, error) {
	for _, u := range r.f.users {
		if u.IsStudent() && u.Grade == grade && u.ClassNum == classNum && u.StudentNum == studentNum {
			return true, nil
		}
	}
	return false, nil
}

// ----- areas -----

type fakeAreaRepo struct{ f *fakeRepository }

func (r *fakeAreaRepo) Create(ctx context.Context, tx *gorm.DB, area *models.AreaConfig) error {
	r.f.areas[area.Name] = area
	return nil
}

func (r *fakeAreaRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.AreaConfig, error) {
	a, ok := r.f.areas[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeAreaRepo) Update(ctx context.Context, tx *gorm.DB, area *models.AreaConfig) error {
	r.f.areas[area.Name] = area
	return nil
}

func (r *fakeAreaRepo) Delete(ctx context.Context, tx *gorm.DB, name string) error {
	delete(r.f.areas, name)
	return nil
}

func (r *fakeAreaRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.AreaConfig, error) {
	var out []*models.AreaConfig
	for _, a := range r.f.areas {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAreaRepo) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	_, ok := r.f.areas[name]
	return ok, nil
}

// ----- submissions -----

type fakeSubmissionRepo struct{ f *fakeRepository }

func (r *fakeSubmissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	if submission.ID == 0 {
		submission.ID = r.f.nextID
		r.f.nextID++
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionPendingReview
	}
	r.f.submissions[submission.ID] = submission
	return nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	s, ok := r.f.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSubmissionRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeSubmissionRepo) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	r.f.submissions[submission.ID] = submission
	return nil
}

func (r *fakeSubmissionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.f.submissions, id)
	kept := r.f.comments[:0]
	for _, c := range r.f.comments {
		if c.SubmissionID != id {
			kept = append(kept, c)
		}
	}
	r.f.comments = kept
	return nil
}

func (r *fakeSubmissionRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeSubmissionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.SubmissionStatus, previous *models.SubmissionStatus) error {
	s, ok := r.f.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	s.PreviousStatus = previous
	return nil
}

func (r *fakeSubmissionRepo) UpdateLikes(ctx context.Context, tx *gorm.DB, id uint, likes []uint) error {
	s, ok := r.f.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.SetLikes(likes)
	return nil
}

func (r *fakeSubmissionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var out []*models.Submission
	for _, s := range r.f.submissions {
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSubmissionRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var out []*models.Submission
	for _, s := range r.f.submissions {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSubmissionRepo) GetPendingReview(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	pending := models.SubmissionPendingReview
	filters.Status = &pending
	return r.List(ctx, tx, filters)
}

func (r *fakeSubmissionRepo) CountByStudentAndArea(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, status models.SubmissionStatus) (int64, error) {
	var count int64
	for _, s := range r.f.submissions {
		if s.StudentID == studentID && s.AreaName == areaName && s.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeSubmissionRepo) AddComment(ctx context.Context, tx *gorm.DB, comment *models.SubmissionComment) error {
	comment.ID = r.f.nextID
	r.f.nextID++
	r.f.comments = append(r.f.comments, comment)
	return nil
}

func (r *fakeSubmissionRepo) GetComments(ctx context.Context, tx *gorm.DB, submissionID uint) ([]*models.SubmissionComment, error) {
	var out []*models.SubmissionComment
	for _, c := range r.f.comments {
		if c.SubmissionID == submissionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) GetAreaStats(ctx context.Context, tx *gorm.DB, areaName string) (*repositories.AreaStats, error) {
	stats := &repositories.AreaStats{AreaName: areaName}
	for _, s := range r.f.submissions {
		if s.AreaName != areaName {
			continue
		}
		stats.TotalSubmissions++
		switch s.Status {
		case models.SubmissionPendingReview:
			stats.PendingReview++
		case models.SubmissionApproved:
			stats.Approved++
		case models.SubmissionRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// ----- achievements -----

type fakeAchievementRepo struct{ f *fakeRepository }

func (r *fakeAchievementRepo) GetByStudentAndArea(ctx context.Context, tx *gorm.DB, studentID uint, areaName string) (*models.Achievement, error) {
	a, ok := r.f.achievements[achievementKey(studentID, areaName)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeAchievementRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Achievement, error) {
	var out []*models.Achievement
	for _, a := range r.f.achievements {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAchievementRepo) Upsert(ctx context.Context, tx *gorm.DB, achievement *models.Achievement) error {
	r.f.achievements[achievementKey(achievement.StudentID, achievement.AreaName)] = achievement
	return nil
}

func (r *fakeAchievementRepo) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) error {
	for key, a := range r.f.achievements {
		if a.StudentID == studentID {
			delete(r.f.achievements, key)
		}
	}
	return nil
}

func (r *fakeAchievementRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, studentID uint, areaName string) (*models.Achievement, error) {
	return r.GetByStudentAndArea(ctx, tx, studentID, areaName)
}

func (r *fakeAchievementRepo) IncrementProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, delta int) (*models.Achievement, error) {
	key := achievementKey(studentID, areaName)
	a, ok := r.f.achievements[key]
	if !ok {
		a = &models.Achievement{StudentID: studentID, AreaName: areaName}
		r.f.achievements[key] = a
	}
	a.Progress += delta
	return a, nil
}

func (r *fakeAchievementRepo) DecrementProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, delta int) (*models.Achievement, error) {
	a, ok := r.f.achievements[achievementKey(studentID, areaName)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a.Progress -= delta
	if a.Progress < 0 {
		a.Progress = 0
	}
	return a, nil
}

func (r *fakeAchievementRepo) SetProgress(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, progress int) (*models.Achievement, error) {
	key := achievementKey(studentID, areaName)
	a, ok := r.f.achievements[key]
	if !ok {
		a = &models.Achievement{StudentID: studentID, AreaName: areaName}
		r.f.achievements[key] = a
	}
	a.Progress = progress
	return a, nil
}

func (r *fakeAchievementRepo) SetLabel(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, label string) (*models.Achievement, error) {
	key := achievementKey(studentID, areaName)
	a, ok := r.f.achievements[key]
	if !ok {
		a = &models.Achievement{StudentID: studentID, AreaName: areaName}
		r.f.achievements[key] = a
	}
	a.Label = label
	return a, nil
}

func (r *fakeAchievementRepo) SetCertified(ctx context.Context, tx *gorm.DB, studentID uint, areaName string, certified bool) (*models.Achievement, error) {
	key := achievementKey(studentID, areaName)
	a, ok := r.f.achievements[key]
	if !ok {
		a = &models.Achievement{StudentID: studentID, AreaName: areaName}
		r.f.achievements[key] = a
	}
	a.IsCertified = certified
	return a, nil
}

func (r *fakeAchievementRepo) CountCertified(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	var count int64
	for _, a := range r.f.achievements {
		if a.StudentID == studentID && a.IsCertified {
			count++
		}
	}
	return count, nil
}

func (r *fakeAchievementRepo) GetClassProgress(ctx context.Context, tx *gorm.DB, grade, classNum int) ([]*repositories.StudentProgressRow, error) {
	var out []*repositories.StudentProgressRow
	for _, u := range r.f.users {
		if !u.IsStudent() || u.Grade != grade || u.ClassNum != classNum {
			continue
		}
		for _, a := range r.f.achievements {
			if a.StudentID != u.ID {
				continue
			}
			out = append(out, &repositories.StudentProgressRow{
				StudentID:   u.ID,
				Name:        u.Name,
				Grade:       u.Grade,
				ClassNum:    u.ClassNum,
				StudentNum:  u.StudentNum,
				AreaName:    a.AreaName,
				Progress:    a.Progress,
				Label:       a.Label,
				IsCertified: a.IsCertified,
			})
		}
	}
	return out, nil
}

// ----- fixtures -----

func newReviewFixture(t *testing.T) (*reviewService, *fakeRepository, *events.MockEventPublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)

	repo.users[1] = &models.User{ID: 1, Username: "s40101", Name: "Kim", Role: models.RoleStudent, Grade: 4, ClassNum: 1, StudentNum: 1}
	repo.users[9] = &models.User{ID: 9, Username: "teacher1", Name: "Lee", Role: models.RoleTeacher}

	repo.areas["reading"] = &models.AreaConfig{
		Name:     "reading",
		GoalType: models.GoalNumeric,
		Goals:    datatypes.JSON(`{"4": 2, "5": 3, "6": 3}`),
	}
	repo.areas["volunteering"] = &models.AreaConfig{
		Name:     "volunteering",
		GoalType: models.GoalObjective,
		Options:  datatypes.JSON(`["helper", "leader"]`),
	}

	svc := &reviewService{
		repo:           repo,
		logger:         logger,
		validator:      validator.New(),
		eventPublisher: publisher,
		mediaStore:     storage.NewNoopMediaStore(logger),
		cacheManager:   cache.NewCacheManager(nil),
	}

	return svc, repo, publisher
}

func addSubmission(repo *fakeRepository, id uint, status models.SubmissionStatus, area string) *models.Submission {
	sub := &models.Submission{
		ID:        id,
		StudentID: 1,
		AreaName:  area,
		Evidence:  "I read a chapter book and wrote a short report about it.",
		Status:    status,
	}
	repo.submissions[id] = sub
	return sub
}

// ----- tests -----

func TestReviewService_ReviewSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("approve credits progress once", func(t *testing.T) {
		svc, repo, publisher := newReviewFixture(t)
		addSubmission(repo, 10, models.SubmissionPendingReview, "reading")

		resp, err := svc.ReviewSubmission(ctx, 10, 9, &ReviewRequest{Action: "approve"})
		if err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if resp.Status != models.SubmissionApproved {
			t.Errorf("expected status approved, got %s", resp.Status)
		}

		a := repo.achievements[achievementKey(1, "reading")]
		if a == nil || a.Progress != 1 {
			t.Fatalf("expected progress 1, got %+v", a)
		}

		// A second decision must fail the pending-review check
		if _, err := svc.ReviewSubmission(ctx, 10, 9, &ReviewRequest{Action: "approve"}); err != ErrSubmissionNotPending {
			t.Errorf("expected ErrSubmissionNotPending, got %v", err)
		}
		if a.Progress != 1 {
			t.Errorf("progress credited twice: %d", a.Progress)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("expected 1 event, got %d", len(published))
		}
		if published[0].Type != events.EventSubmissionReviewed {
			t.Errorf("expected %s, got %s", events.EventSubmissionReviewed, published[0].Type)
		}
	})

	t.Run("reject leaves ledger untouched", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		addSubmission(repo, 11, models.SubmissionPendingReview, "reading")

		resp, err := svc.ReviewSubmission(ctx, 11, 9, &ReviewRequest{Action: "reject"})
		if err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if resp.Status != models.SubmissionRejected {
			t.Errorf("expected status rejected, got %s", resp.Status)
		}
		if len(repo.achievements) != 0 {
			t.Errorf("reject must not touch achievements, got %d rows", len(repo.achievements))
		}
	})

	t.Run("objective area accrues no counter", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		addSubmission(repo, 12, models.SubmissionPendingReview, "volunteering")

		if _, err := svc.ReviewSubmission(ctx, 12, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if len(repo.achievements) != 0 {
			t.Errorf("objective approval must not create progress rows")
		}
	})

	t.Run("reaching the grade goal certifies", func(t *testing.T) {
		svc, repo, publisher := newReviewFixture(t)
		addSubmission(repo, 13, models.SubmissionPendingReview, "reading")
		addSubmission(repo, 14, models.SubmissionPendingReview, "reading")

		if _, err := svc.ReviewSubmission(ctx, 13, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("first approve failed: %v", err)
		}
		a := repo.achievements[achievementKey(1, "reading")]
		if a.IsCertified {
			t.Fatal("certified below goal")
		}

		publisher.ClearEvents()
		if _, err := svc.ReviewSubmission(ctx, 14, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("second approve failed: %v", err)
		}
		if !a.IsCertified {
			t.Fatal("expected certification at goal")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 2 {
			t.Fatalf("expected review + certification events, got %d", len(published))
		}
		if published[1].Type != events.EventAchievementCertified {
			t.Errorf("expected %s, got %s", events.EventAchievementCertified, published[1].Type)
		}
	})

	t.Run("invalid action is rejected", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		addSubmission(repo, 15, models.SubmissionPendingReview, "reading")

		_, err := svc.ReviewSubmission(ctx, 15, 9, &ReviewRequest{Action: "maybe"})
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected validation errors, got %v", err)
		}
	})

	t.Run("unknown submission", func(t *testing.T) {
		svc, _, _ := newReviewFixture(t)
		if _, err := svc.ReviewSubmission(ctx, 999, 9, &ReviewRequest{Action: "approve"}); err != ErrSubmissionNotFound {
			t.Errorf("expected ErrSubmissionNotFound, got %v", err)
		}
	})

	t.Run("student cannot review", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		sub := addSubmission(repo, 16, models.SubmissionPendingReview, "reading")

		_, err := svc.ReviewSubmission(ctx, 16, 1, &ReviewRequest{Action: "approve"})
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
		if sub.Status != models.SubmissionPendingReview {
			t.Errorf("status must be untouched, got %s", sub.Status)
		}
	})
}

func TestReviewService_ReviewDeletionRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("reject restores stashed status", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		sub := addSubmission(repo, 20, models.SubmissionPendingDeletion, "reading")
		approved := models.SubmissionApproved
		sub.PreviousStatus = &approved

		resp, err := svc.ReviewDeletionRequest(ctx, 20, 9, &ReviewRequest{Action: "reject"})
		if err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if resp.Status != models.SubmissionApproved {
			t.Errorf("expected restored status approved, got %s", resp.Status)
		}
		if resp.PreviousStatus != nil {
			t.Error("stash must be cleared after restore")
		}
		if _, ok := repo.submissions[20]; !ok {
			t.Error("reject must not delete the submission")
		}
	})

	t.Run("reject without a stash restores to approved", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		addSubmission(repo, 25, models.SubmissionPendingDeletion, "reading")
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 2}

		resp, err := svc.ReviewDeletionRequest(ctx, 25, 9, &ReviewRequest{Action: "reject"})
		if err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if resp.Status != models.SubmissionApproved {
			t.Errorf("expected default restore to approved, got %s", resp.Status)
		}
		if got := repo.achievements[achievementKey(1, "reading")].Progress; got != 2 {
			t.Errorf("reject must not touch the ledger, got progress %d", got)
		}
	})

	t.Run("approving deletion of approved evidence debits progress", func(t *testing.T) {
		svc, repo, publisher := newReviewFixture(t)
		sub := addSubmission(repo, 21, models.SubmissionPendingDeletion, "reading")
		approved := models.SubmissionApproved
		sub.PreviousStatus = &approved
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 2}

		if _, err := svc.ReviewDeletionRequest(ctx, 21, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if _, ok := repo.submissions[21]; ok {
			t.Error("submission row should be gone")
		}
		if got := repo.achievements[achievementKey(1, "reading")].Progress; got != 1 {
			t.Errorf("expected progress 1 after debit, got %d", got)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventDeletionReviewed {
			t.Fatalf("expected one %s event, got %+v", events.EventDeletionReviewed, published)
		}
	})

	t.Run("deleting never-approved evidence leaves ledger alone", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		sub := addSubmission(repo, 22, models.SubmissionPendingDeletion, "reading")
		pending := models.SubmissionPendingReview
		sub.PreviousStatus = &pending
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 2}

		if _, err := svc.ReviewDeletionRequest(ctx, 22, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if got := repo.achievements[achievementKey(1, "reading")].Progress; got != 2 {
			t.Errorf("pending evidence never credited, debit is wrong: got %d", got)
		}
	})

	t.Run("approving without a stash never debits", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		addSubmission(repo, 26, models.SubmissionPendingDeletion, "reading")
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 2}

		if _, err := svc.ReviewDeletionRequest(ctx, 26, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if _, ok := repo.submissions[26]; ok {
			t.Error("submission row should be gone")
		}
		if got := repo.achievements[achievementKey(1, "reading")].Progress; got != 2 {
			t.Errorf("missing stash must not debit, got progress %d", got)
		}
	})

	t.Run("debit clamps at zero", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		sub := addSubmission(repo, 27, models.SubmissionPendingDeletion, "reading")
		approved := models.SubmissionApproved
		sub.PreviousStatus = &approved
		repo.achievements[achievementKey(1, "reading")] = &models.Achievement{StudentID: 1, AreaName: "reading", Progress: 0}

		if _, err := svc.ReviewDeletionRequest(ctx, 27, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if got := repo.achievements[achievementKey(1, "reading")].Progress; got != 0 {
			t.Errorf("expected progress to stay 0, got %d", got)
		}
	})

	t.Run("comments go with the deleted submission", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		sub := addSubmission(repo, 28, models.SubmissionPendingDeletion, "reading")
		approved := models.SubmissionApproved
		sub.PreviousStatus = &approved
		addSubmission(repo, 29, models.SubmissionApproved, "reading")
		repo.Submission().AddComment(ctx, nil, &models.SubmissionComment{SubmissionID: 28, UserID: 9, UserName: "Lee", Text: "잘했어요"})
		repo.Submission().AddComment(ctx, nil, &models.SubmissionComment{SubmissionID: 29, UserID: 9, UserName: "Lee", Text: "멋져요"})

		if _, err := svc.ReviewDeletionRequest(ctx, 28, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if got, _ := repo.Submission().GetComments(ctx, nil, 28); len(got) != 0 {
			t.Errorf("expected comments removed with the submission, got %d", len(got))
		}
		if got, _ := repo.Submission().GetComments(ctx, nil, 29); len(got) != 1 {
			t.Errorf("comments on other submissions must survive, got %d", len(got))
		}
	})

	t.Run("missing ledger row is tolerated", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		sub := addSubmission(repo, 23, models.SubmissionPendingDeletion, "reading")
		approved := models.SubmissionApproved
		sub.PreviousStatus = &approved

		if _, err := svc.ReviewDeletionRequest(ctx, 23, 9, &ReviewRequest{Action: "approve"}); err != nil {
			t.Fatalf("approve with no ledger row failed: %v", err)
		}
	})

	t.Run("submission not in pending_deletion", func(t *testing.T) {
		svc, repo, _ := newReviewFixture(t)
		addSubmission(repo, 24, models.SubmissionApproved, "reading")

		if _, err := svc.ReviewDeletionRequest(ctx, 24, 9, &ReviewRequest{Action: "approve"}); err != ErrDeletionNotRequested {
			t.Errorf("expected ErrDeletionNotRequested, got %v", err)
		}
	})
}
