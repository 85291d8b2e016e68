package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/pkg/kvstore"
)

type fixture struct {
	cfg       *config.Config
	now       time.Time
	users     *repository.UserRepository
	questions *repository.QuestionRepository
	attempts  *repository.AttemptRepository
	ent       *EntitlementService
	content   *ContentService
	exams     *ExamService
	practice  *PracticeService
	progress  *ProgressService
	admin     *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := kvstore.NewInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	cfg := config.Default()
	cfg.Storage.LocalPath = t.TempDir()
	cfg.JWT.Secret = "test-secret"

	f := &fixture{
		cfg:       cfg,
		now:       time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		users:     repository.NewUserRepository(store),
		questions: repository.NewQuestionRepository(store),
		attempts:  repository.NewAttemptRepository(store),
	}
	clock := func() time.Time { return f.now }

	f.ent = NewEntitlementService(f.users, NewStorageService(cfg), cfg)
	f.ent.Now = clock
	f.content = NewContentService(f.questions, cfg)
	f.exams = NewExamService(f.content, f.ent, f.attempts, cfg)
	f.exams.Now = clock
	f.practice = NewPracticeService(f.content)
	f.progress = NewProgressService(f.attempts, f.content)
	f.admin = NewAdminService(f.ent, f.questions, f.attempts, cfg)

	t.Cleanup(func() {
		f.exams.Shutdown()
		store.Close()
	})
	return f
}

func (f *fixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.ent.Register(context.Background(), "Test User", email, "secret")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

// addQuestions stores n questions for subjectID, each worth 10 points with
// option 1 keyed.
func (f *fixture) addQuestions(t *testing.T, subjectID string, n int) []model.Question {
	t.Helper()
	sub, err := f.content.Subject(subjectID)
	if err != nil {
		t.Fatal(err)
	}
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            fmt.Sprintf("%s-q%d", subjectID, i),
			Subject:       *sub,
			Topic:         sub.Topics[0],
			Difficulty:    model.Medium,
			Question:      fmt.Sprintf("question %d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 1,
			Explanation:   "b is right",
			Points:        10,
		}
	}
	if err := f.questions.Create(context.Background(), qs...); err != nil {
		t.Fatal(err)
	}
	return qs
}
