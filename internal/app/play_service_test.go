package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
	"eduquiz-service/internal/metrics"
	"eduquiz-service/internal/player"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPlayAllCorrect(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	snap, err := env.service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if snap.Index != 0 || snap.Remaining != 30 || snap.Total != 2 {
		t.Fatalf("unexpected first snapshot %+v", snap)
	}
	id := snap.AttemptID

	mustSelect(t, env.service, id, 2)
	mustNext(t, env.service, id)
	mustSelect(t, env.service, id, 1)
	snap = mustNext(t, env.service, id)

	if !snap.Completed || snap.Result == nil {
		t.Fatalf("expected completion, got %+v", snap)
	}
	stored, err := env.store.GetResult(ctx, id)
	if err != nil {
		t.Fatalf("expected stored result: %v", err)
	}
	if stored.Score.Score != 2 || stored.Score.TotalPoints != 2 || stored.Score.Percentage != 100 {
		t.Fatalf("expected 2/2 at 100%%, got %+v", stored.Score)
	}
	if len(stored.Responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(stored.Responses))
	}
	if len(env.events.published()) != 1 {
		t.Fatalf("expected one completion event, got %d", len(env.events.published()))
	}
}

func TestPlayTimeoutWithoutSelection(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	snap, err := env.service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := snap.AttemptID
	mustSelect(t, env.service, id, 2)
	mustNext(t, env.service, id)

	env.clock.Advance(29 * time.Second)
	snap, _ = env.service.State(ctx, id)
	if snap.Completed || snap.Remaining != 1 {
		t.Fatalf("expected 1s left, got %+v", snap)
	}
	env.clock.Advance(time.Second)

	stored, err := env.store.GetResult(ctx, id)
	if err != nil {
		t.Fatalf("expected stored result: %v", err)
	}
	if stored.Score.Score != 1 || stored.Score.Percentage != 50 {
		t.Fatalf("expected 1/2 at 50%%, got %+v", stored.Score)
	}
	second := stored.Responses[1]
	if second.SelectedAnswer != nil || second.IsCorrect {
		t.Fatalf("expected absent incorrect response, got %+v", second)
	}
	if second.TimeTaken != 30 {
		t.Fatalf("expected full time limit spent, got %d", second.TimeTaken)
	}
}

func TestPlayStartRejections(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	if _, err := env.service.Start(ctx, "missing", "u1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.service.Start(ctx, "quiz-off", "u1"); !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
	if _, err := env.service.Start(ctx, "quiz-empty", "u1"); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions, got %v", err)
	}
}

func TestPlayUnknownAttempt(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	if _, err := env.service.Select(ctx, "nope", 0); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt not found, got %v", err)
	}
	if _, err := env.service.Next(ctx, "nope"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt not found, got %v", err)
	}
	if _, err := env.service.State(ctx, "nope"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt not found, got %v", err)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	snap, _ := env.service.Start(ctx, "quiz-1", "u1")
	updates, cancel, err := env.service.Subscribe(ctx, snap.AttemptID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	first := receive(t, updates)
	if first.Version != snap.Version {
		t.Fatalf("expected initial snapshot v%d, got v%d", snap.Version, first.Version)
	}

	env.clock.Advance(time.Second)
	tick := receive(t, updates)
	if tick.Remaining != 29 || tick.Version <= first.Version {
		t.Fatalf("expected countdown update, got %+v", tick)
	}

	mustSelect(t, env.service, snap.AttemptID, 0)
	sel := receive(t, updates)
	if sel.Selected == nil || *sel.Selected != 0 {
		t.Fatalf("expected selection update, got %+v", sel)
	}
}

func TestPersistFailureKeepsCompletion(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)
	failing := &failingResults{ResultStore: env.store}
	service := app.NewPlayService(memory.NewSessionStore(), env.cache, failing, app.WithClock(env.clock))

	snap, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	mustNext(t, service, snap.AttemptID)
	done := mustNext(t, service, snap.AttemptID)
	if !done.Completed {
		t.Fatalf("expected completion despite store failure")
	}

	state, err := service.State(ctx, snap.AttemptID)
	if err != nil || !state.Completed || state.Result.Score.Score != 0 {
		t.Fatalf("expected completed state from live session, got %+v err=%v", state, err)
	}
}

func TestAbandonStopsCountdown(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	snap, _ := env.service.Start(ctx, "quiz-1", "u1")
	env.service.Abandon(ctx, snap.AttemptID)
	env.clock.Advance(2 * time.Minute)

	if _, err := env.store.GetResult(ctx, snap.AttemptID); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("abandoned attempt must not be stored, got %v", err)
	}
	if _, err := env.service.State(ctx, snap.AttemptID); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestStateFallsBackToStoredResult(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	snap, _ := env.service.Start(ctx, "quiz-1", "u1")
	mustNext(t, env.service, snap.AttemptID)
	mustNext(t, env.service, snap.AttemptID)
	env.service.Abandon(ctx, snap.AttemptID)

	state, err := env.service.State(ctx, snap.AttemptID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.Completed || state.Total != 2 || state.Result == nil {
		t.Fatalf("expected stored completed snapshot, got %+v", state)
	}
}

func TestCompletionRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)
	started := testutil.ToFloat64(metrics.AttemptsStarted)
	completed := testutil.ToFloat64(metrics.AttemptsCompleted)

	snap, _ := env.service.Start(ctx, "quiz-1", "u1")
	mustNext(t, env.service, snap.AttemptID)
	mustNext(t, env.service, snap.AttemptID)

	if got := testutil.ToFloat64(metrics.AttemptsStarted) - started; got != 1 {
		t.Fatalf("expected one started attempt, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.AttemptsCompleted) - completed; got != 1 {
		t.Fatalf("expected one completed attempt, got %v", got)
	}
}

func TestCompletedSessionsAreReleased(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	var ids []string
	for i := 0; i < 100; i++ {
		snap, err := env.service.Start(ctx, "quiz-1", "u1")
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		ids = append(ids, snap.AttemptID)
	}

	// Both questions time out after 60s; the grace period runs after that.
	env.clock.Advance(time.Minute)
	if env.sessions.Len() != len(ids) {
		t.Fatalf("expected sessions kept during grace, got %d", env.sessions.Len())
	}
	env.clock.Advance(app.DefaultCompletedGrace)
	if env.sessions.Len() != 0 {
		t.Fatalf("expected all sessions released, %d still held", env.sessions.Len())
	}

	for _, id := range ids {
		state, err := env.service.State(ctx, id)
		if err != nil || !state.Completed {
			t.Fatalf("expected stored result for %s, got %+v err=%v", id, state, err)
		}
	}
}

func TestReleaseClosesSubscribers(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)

	snap, _ := env.service.Start(ctx, "quiz-1", "u1")
	updates, cancel, err := env.service.Subscribe(ctx, snap.AttemptID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	receive(t, updates)

	mustNext(t, env.service, snap.AttemptID)
	mustNext(t, env.service, snap.AttemptID)
	env.clock.Advance(app.DefaultCompletedGrace)

	var last player.Snapshot
	for update := range updates {
		last = update
	}
	if !last.Completed {
		t.Fatalf("expected completed snapshot before close, got %+v", last)
	}
}

func TestSubscribeVersionsIncrease(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(sampleQuiz())
	service := app.NewPlayService(memory.NewSessionStore(), memory.NewQuizRepository(store, time.Minute), store,
		app.WithTick(time.Millisecond), app.WithCompletedGrace(time.Hour))

	snap, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updates, cancel, err := service.Subscribe(ctx, snap.AttemptID)
			if err != nil {
				t.Errorf("subscribe: %v", err)
				return
			}
			defer cancel()
			var prev uint64
			timeout := time.After(5 * time.Second)
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					if update.Version <= prev {
						t.Errorf("version went from %d to %d", prev, update.Version)
						return
					}
					prev = update.Version
					if update.Completed {
						return
					}
				case <-timeout:
					t.Errorf("timed out waiting for completion")
					return
				}
			}
		}()
		time.Sleep(time.Millisecond)
	}
	wg.Wait()
}

func TestAbandonAfterCompletionKeepsGauge(t *testing.T) {
	ctx := context.Background()
	env := newPlayEnv(t)
	active := testutil.ToFloat64(metrics.ActiveAttempts)

	snap, _ := env.service.Start(ctx, "quiz-1", "u1")
	if got := testutil.ToFloat64(metrics.ActiveAttempts) - active; got != 1 {
		t.Fatalf("expected one active attempt, got %v", got)
	}
	mustNext(t, env.service, snap.AttemptID)
	mustNext(t, env.service, snap.AttemptID)
	env.service.Abandon(ctx, snap.AttemptID)
	env.service.Abandon(ctx, snap.AttemptID)

	if got := testutil.ToFloat64(metrics.ActiveAttempts) - active; got != 0 {
		t.Fatalf("expected gauge back to baseline, got %v", got)
	}

	live, _ := env.service.Start(ctx, "quiz-1", "u1")
	env.service.Abandon(ctx, live.AttemptID)
	env.service.Abandon(ctx, live.AttemptID)
	if got := testutil.ToFloat64(metrics.ActiveAttempts) - active; got != 0 {
		t.Fatalf("expected abandon to decrement once, got %v", got)
	}
}

type playEnv struct {
	service  *app.PlayService
	sessions *memory.SessionStore
	store    *memory.Store
	cache   *memory.QuizRepository
	clock   *clock.Fake
	events  *recordingEvents
}

func newPlayEnv(t *testing.T) *playEnv {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
	store := memory.NewStore(sampleQuiz(), inactiveQuiz(), emptyQuiz())
	cache := memory.NewQuizRepository(store, time.Minute)
	events := &recordingEvents{}
	sessions := memory.NewSessionStore()
	service := app.NewPlayService(sessions, cache, store, app.WithClock(clk), app.WithEvents(events))
	return &playEnv{service: service, sessions: sessions, store: store, cache: cache, clock: clk, events: events}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:           "quiz-1",
		Title:        "Warm-up",
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
	q.ID, q.Code, q.IsActive = "quiz-off", "OFF001", false
	return q
}

func emptyQuiz() domain.Quiz {
	return domain.Quiz{ID: "quiz-empty", Title: "Empty", Code: "EMPTY1", IsActive: true}
}

func mustSelect(t *testing.T, s *app.PlayService, id string, option int) player.Snapshot {
	t.Helper()
	snap, err := s.Select(context.Background(), id, option)
	if err != nil {
		t.Fatalf("select %d: %v", option, err)
	}
	return snap
}

func mustNext(t *testing.T, s *app.PlayService, id string) player.Snapshot {
	t.Helper()
	snap, err := s.Next(context.Background(), id)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return snap
}

func receive(t *testing.T, ch <-chan player.Snapshot) player.Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return player.Snapshot{}
}

type recordingEvents struct {
	mu      sync.Mutex
	results []domain.Result
}

func (r *recordingEvents) PublishAttemptCompleted(_ context.Context, result domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *recordingEvents) published() []domain.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Result(nil), r.results...)
}

type failingResults struct {
	app.ResultStore
}

func (f *failingResults) SaveResult(context.Context, domain.Result) error {
	return errors.New("database unavailable")
}
