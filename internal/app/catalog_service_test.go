package app_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
)

func newCatalog(t *testing.T) (*app.CatalogService, *memory.Store, *memory.QuizRepository) {
	t.Helper()
	store := memory.NewStore(sampleQuiz(), inactiveQuiz())
	cache := memory.NewQuizRepository(store, time.Minute)
	clk := clock.NewFake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return app.NewCatalogService(store, cache, store, clk), store, cache
}

func builderDraft() domain.QuizDraft {
	d := domain.NewQuizDraft()
	d.Title = "  Go basics  "
	q := d.AddQuestion()
	_ = d.UpdateQuestion(q.ID, func(dq *domain.DraftQuestion) {
		dq.Text = "Zero value of a pointer?"
		dq.Options = []string{"nil", "0", "undefined", "null"}
		dq.CorrectAnswer = 0
		dq.Points = 3
	})
	return *d
}

func TestCreateQuizAssignsCodeAndDefaults(t *testing.T) {
	ctx := context.Background()
	catalog, store, _ := newCatalog(t)

	quiz, err := catalog.CreateQuiz(ctx, "educator-1", builderDraft())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.Title != "Go basics" {
		t.Fatalf("expected trimmed title, got %q", quiz.Title)
	}
	if len(quiz.Code) != 6 || strings.ToUpper(quiz.Code) != quiz.Code {
		t.Fatalf("expected 6 char upper-case code, got %q", quiz.Code)
	}
	if !quiz.IsActive || quiz.IsPublished {
		t.Fatalf("expected active unpublished quiz, got active=%v published=%v", quiz.IsActive, quiz.IsPublished)
	}
	if quiz.TimerMinutes != 30 {
		t.Fatalf("expected default timer 30, got %d", quiz.TimerMinutes)
	}
	if quiz.TotalPoints() != 3 {
		t.Fatalf("expected 3 total points, got %d", quiz.TotalPoints())
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].OrderIndex != 0 {
		t.Fatalf("unexpected questions %+v", quiz.Questions)
	}

	stored, err := store.GetQuizByCode(ctx, quiz.Code)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if stored.ID != quiz.ID {
		t.Fatalf("expected stored quiz %s, got %s", quiz.ID, stored.ID)
	}
}

func TestCreateQuizRejectsInvalidDraft(t *testing.T) {
	catalog, _, _ := newCatalog(t)
	draft := builderDraft()
	draft.Title = "   "
	draft.Questions[0].Options = []string{"only one"}

	_, err := catalog.CreateQuiz(context.Background(), "educator-1", draft)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "title") {
		t.Fatalf("expected title problem reported, got %v", err)
	}
}

func TestGetQuizByCodeIgnoresCase(t *testing.T) {
	catalog, _, _ := newCatalog(t)

	quiz, err := catalog.GetQuizByCode(context.Background(), " warm01 ")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if quiz.ID != "quiz-1" {
		t.Fatalf("expected quiz-1, got %s", quiz.ID)
	}

	if _, err := catalog.GetQuizByCode(context.Background(), "NOPE00"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleActiveInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	catalog, _, cache := newCatalog(t)

	cached, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil || !cached.IsActive {
		t.Fatalf("expected active quiz cached, got %+v err=%v", cached, err)
	}

	toggled, err := catalog.ToggleActive(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected quiz deactivated")
	}

	cached, err = cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	if cached.IsActive {
		t.Fatalf("cache should reload after toggle")
	}

	if _, err := catalog.ToggleActive(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetPublished(t *testing.T) {
	catalog, _, _ := newCatalog(t)

	quiz, err := catalog.SetPublished(context.Background(), "quiz-1", true)
	if err != nil {
		t.Fatalf("set published: %v", err)
	}
	if !quiz.IsPublished {
		t.Fatalf("expected quiz published")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	catalog, store, _ := newCatalog(t)

	for i, sc := range []domain.Score{
		{QuizID: "quiz-1", UserID: "u1", AttemptID: "a1", Percentage: 100},
		{QuizID: "quiz-1", UserID: "u1", AttemptID: "a2", Percentage: 50},
		{QuizID: "quiz-1", UserID: "u2", AttemptID: "a3", Percentage: 0},
	} {
		sc.CreatedAt = time.Date(2024, 3, 1, 9, i, 0, 0, time.UTC)
		if err := store.SaveResult(ctx, domain.Result{Attempt: domain.Attempt{ID: sc.AttemptID}, Score: sc}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	stats, err := catalog.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalQuizzes != 2 || stats.ActiveQuizzes != 1 {
		t.Fatalf("expected 2 quizzes with 1 active, got %+v", stats)
	}
	if stats.Attempts != 3 || stats.Participants != 2 {
		t.Fatalf("expected 3 attempts by 2 participants, got %+v", stats)
	}
	if math.Abs(stats.AveragePercentage-50) > 0.001 {
		t.Fatalf("expected average 50%%, got %v", stats.AveragePercentage)
	}
}
