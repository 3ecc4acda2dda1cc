package app

import (
	"context"
	"log"
	"sync"
	"time"

	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/metrics"
	"eduquiz-service/internal/player"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live attempt sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(attemptID string) (*Session, bool)
	Delete(attemptID string)
}

// QuizRepository loads quizzes with their questions, usually through a cache.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}

// ResultStore persists completed attempts and serves score read models.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.Result) error
	GetResult(ctx context.Context, attemptID string) (domain.Result, error)
	ListScores(ctx context.Context, filter domain.ScoreFilter) ([]domain.Score, error)
}

// EventPublisher announces completed attempts to other services.
type EventPublisher interface {
	PublishAttemptCompleted(ctx context.Context, result domain.Result) error
}

// DefaultCompletedGrace is how long a completed session is kept in memory.
const DefaultCompletedGrace = 30 * time.Second

// PlayService runs quiz attempts.
type PlayService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	results  ResultStore
	events   EventPublisher
	clock    clock.Clock
	tick     time.Duration
	grace    time.Duration
}

// PlayOption customises a PlayService.
type PlayOption func(*PlayService)

// WithClock injects the time source used for countdowns.
func WithClock(clk clock.Clock) PlayOption {
	return func(s *PlayService) { s.clock = clk }
}

// WithTick sets the countdown resolution.
func WithTick(d time.Duration) PlayOption {
	return func(s *PlayService) { s.tick = d }
}

// WithCompletedGrace sets how long a completed attempt stays live so late
// readers and subscribers still see it. Afterwards State reads the stored result.
func WithCompletedGrace(d time.Duration) PlayOption {
	return func(s *PlayService) { s.grace = d }
}

// WithEvents publishes completed attempts through pub.
func WithEvents(pub EventPublisher) PlayOption {
	return func(s *PlayService) { s.events = pub }
}

func NewPlayService(sessions SessionRepository, quizzes QuizRepository, results ResultStore, opts ...PlayOption) *PlayService {
	s := &PlayService{
		sessions: sessions,
		quizzes:  quizzes,
		results:  results,
		clock:    clock.Real(),
		tick:     player.DefaultTick,
		grace:    DefaultCompletedGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new attempt on an active quiz and arms the first countdown.
func (s *PlayService) Start(ctx context.Context, quizID, userID string) (player.Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return player.Snapshot{}, err
	}
	if !quiz.IsActive {
		return player.Snapshot{}, domain.ErrQuizInactive
	}
	if len(quiz.Questions) == 0 {
		return player.Snapshot{}, domain.ErrNoQuestions
	}

	attempt := domain.Attempt{
		ID:     uuid.NewString(),
		QuizID: quizID,
		UserID: userID,
	}
	session := NewSession(attempt.ID, s.clock.Now())
	p, err := player.New(attempt, quiz.Questions, s.clock, s.tick, player.Hooks{
		OnChange:   s.onChange(session),
		OnComplete: s.complete,
	})
	if err != nil {
		return player.Snapshot{}, err
	}
	session.player = p
	s.sessions.Put(session)

	snap, err := p.Start()
	if err != nil {
		s.sessions.Delete(attempt.ID)
		return player.Snapshot{}, err
	}
	metrics.AttemptsStarted.Inc()
	metrics.ActiveAttempts.Inc()
	return snap, nil
}

// Select records the participant's current answer.
func (s *PlayService) Select(_ context.Context, attemptID string, option int) (player.Snapshot, error) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return player.Snapshot{}, domain.ErrAttemptNotFound
	}
	return session.player.Select(option)
}

// Next advances the attempt past the current question.
func (s *PlayService) Next(_ context.Context, attemptID string) (player.Snapshot, error) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return player.Snapshot{}, domain.ErrAttemptNotFound
	}
	return session.player.Next()
}

// State returns the live snapshot, or a completed snapshot rebuilt from the
// stored result once the session is gone.
func (s *PlayService) State(ctx context.Context, attemptID string) (player.Snapshot, error) {
	if session, ok := s.sessions.Get(attemptID); ok {
		return session.player.Snapshot(), nil
	}
	result, err := s.results.GetResult(ctx, attemptID)
	if err != nil {
		return player.Snapshot{}, err
	}
	total := len(result.Responses)
	return player.Snapshot{
		AttemptID: result.Attempt.ID,
		QuizID:    result.Attempt.QuizID,
		UserID:    result.Attempt.UserID,
		Index:     max(total-1, 0),
		Total:     total,
		Completed: true,
		Result:    &result,
	}, nil
}

// Subscribe returns a channel that receives snapshots for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *PlayService) Subscribe(_ context.Context, attemptID string) (<-chan player.Snapshot, func(), error) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Abandon stops the countdown and drops the session. Completed attempts are
// already persisted; unfinished ones are discarded.
func (s *PlayService) Abandon(_ context.Context, attemptID string) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return
	}
	if session.player.Stop() {
		metrics.ActiveAttempts.Dec()
	}
	s.release(session)
}

// release closes the session's subscribers and drops it from the repository.
func (s *PlayService) release(session *Session) {
	session.closeSubscribers()
	s.sessions.Delete(session.ID())
}

// onChange fans a snapshot out and, once the attempt has completed, schedules
// the session for release after the grace period.
func (s *PlayService) onChange(session *Session) func(player.Snapshot) {
	return func(snap player.Snapshot) {
		session.publish(snap)
		if snap.Completed {
			s.clock.AfterFunc(s.grace, func() { s.release(session) })
		}
	}
}

// complete persists a finished attempt. Failures are logged and counted but
// never undo the participant's completed state.
func (s *PlayService) complete(result domain.Result) {
	metrics.AttemptsCompleted.Inc()
	metrics.ActiveAttempts.Dec()
	metrics.ScorePercentage.Observe(result.Score.Percentage)

	ctx := context.Background()
	if err := s.results.SaveResult(ctx, result); err != nil {
		metrics.PersistFailures.WithLabelValues("store").Inc()
		log.Printf("save result for attempt %s: %v", result.Attempt.ID, err)
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishAttemptCompleted(ctx, result); err != nil {
		metrics.PersistFailures.WithLabelValues("events").Inc()
		log.Printf("publish completion for attempt %s: %v", result.Attempt.ID, err)
	}
}

// Session is the in-memory side of a live attempt: its player plus the
// subscribers watching it.
type Session struct {
	id          string
	createdAt   time.Time
	player      *player.Player
	mu          sync.RWMutex
	last        player.Snapshot
	subscribers map[chan player.Snapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, createdAt time.Time) *Session {
	return &Session{
		id:          id,
		createdAt:   createdAt,
		subscribers: make(map[chan player.Snapshot]struct{}),
	}
}

// ID returns the attempt id the session belongs to.
func (s *Session) ID() string { return s.id }

// CreatedAt reports when the attempt was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// IsCompleted reports whether the attempt has finished.
func (s *Session) IsCompleted() bool {
	if s.player == nil {
		return false
	}
	_, done := s.player.Result()
	return done
}

func (s *Session) publish(snap player.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Version <= s.last.Version {
		return
	}
	s.last = snap
	s.broadcastLocked(snap)
}

func (s *Session) subscribe() (<-chan player.Snapshot, func()) {
	ch := make(chan player.Snapshot, 8)

	s.mu.Lock()
	initial := s.last
	if initial.Version == 0 && s.player != nil {
		initial = s.player.Snapshot()
		s.last = initial
	}
	// Buffer is empty; sent under the lock so it precedes any broadcast.
	ch <- initial
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked(snap player.Snapshot) {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
