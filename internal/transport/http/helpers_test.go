package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	clock  *clock.Fake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
	store := memory.NewStore(sampleQuiz(), inactiveQuiz())
	cache := memory.NewQuizRepository(store, time.Minute)

	catalog := app.NewCatalogService(store, cache, store, clk)
	play := app.NewPlayService(memory.NewSessionStore(), cache, store, app.WithClock(clk))
	results := app.NewResultsService(store, store, clk)

	router := NewRouter(NewAPIHandler(catalog, play, results), NewWSHandler(play))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, clock: clk}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:           "quiz-1",
		Title:        "Warm-up",
		CreatorID:    "educator-1",
		Code:         "WARM01",
		TimerMinutes: 5,
		IsActive:     true,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Questions: []domain.Question{
			{ID: "q1", QuizID: "quiz-1", Text: "Capital of France?", Options: []string{"London", "Berlin", "Paris", "Madrid"}, CorrectAnswer: 2, Points: 1, TimeLimit: 30, OrderIndex: 0},
			{ID: "q2", QuizID: "quiz-1", Text: "Red planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectAnswer: 1, Points: 1, TimeLimit: 30, OrderIndex: 1},
		},
	}
}

func inactiveQuiz() domain.Quiz {
	q := sampleQuiz()
	q.ID = "quiz-off"
	q.Code = "OFF001"
	q.IsActive = false
	q.CreatedAt = q.CreatedAt.Add(time.Hour)
	for i := range q.Questions {
		q.Questions[i].QuizID = q.ID
	}
	return q
}
