// Package player drives one participant through a quiz: one question at a
// time, each under a countdown that forces advancement when it reaches zero.
package player

import (
	"errors"
	"sync"
	"time"

	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
)

var (
	// ErrNotStarted is returned when acting on a player before Start.
	ErrNotStarted = errors.New("attempt not started")
	// ErrStopped is returned after Stop cancelled the attempt.
	ErrStopped = errors.New("attempt stopped")
)

// DefaultTick is the countdown resolution: one decrement per second.
const DefaultTick = time.Second

// QuestionView is a question as shown to the participant (no correct answer).
type QuestionView struct {
	ID        string   `json:"id"`
	Text      string   `json:"question_text"`
	Options   []string `json:"options"`
	Points    int      `json:"points"`
	TimeLimit int      `json:"time_limit"`
}

// Snapshot is the externally visible state of a player. Version increases on
// every state change so consumers can discard out-of-order deliveries.
type Snapshot struct {
	AttemptID string         `json:"attempt_id"`
	QuizID    string         `json:"quiz_id"`
	UserID    string         `json:"user_id"`
	Version   uint64         `json:"version"`
	Index     int            `json:"index"`
	Total     int            `json:"total"`
	Question  *QuestionView  `json:"question,omitempty"`
	Remaining int            `json:"remaining"`
	Selected  *int           `json:"selected,omitempty"`
	Completed bool           `json:"completed"`
	Result    *domain.Result `json:"result,omitempty"`
}

// Hooks are invoked outside the player's lock. OnComplete runs exactly once,
// before the final OnChange.
type Hooks struct {
	OnChange   func(Snapshot)
	OnComplete func(domain.Result)
}

// Player is the per-attempt timer/scoring state machine. All methods are safe
// for concurrent use; ticks and participant calls are serialised.
type Player struct {
	clock clock.Clock
	tick  time.Duration
	hooks Hooks

	mu        sync.Mutex
	attempt   domain.Attempt
	questions []domain.Question
	index     int
	remaining int
	selected  *int
	resolved  []domain.Resolution
	timer     clock.Timer
	gen       uint64
	version   uint64
	started   bool
	stopped   bool
	completed bool
	result    domain.Result
}

// New validates the questions and returns an unstarted player.
func New(attempt domain.Attempt, questions []domain.Question, clk clock.Clock, tick time.Duration, hooks Hooks) (*Player, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	for _, q := range questions {
		if err := q.Check(); err != nil {
			return nil, err
		}
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return &Player{
		clock:     clk,
		tick:      tick,
		hooks:     hooks,
		attempt:   attempt,
		questions: qs,
		resolved:  make([]domain.Resolution, 0, len(qs)),
	}, nil
}

// Start stamps the attempt start time and arms the first countdown.
func (p *Player) Start() (Snapshot, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return Snapshot{}, domain.ErrAttemptStarted
	}
	p.started = true
	p.attempt.StartedAt = p.clock.Now()
	p.index = 0
	p.remaining = p.questions[0].TimeLimit
	p.armLocked()
	snap := p.changedLocked()
	p.mu.Unlock()

	p.notify(snap, nil)
	return snap, nil
}

// Select records option as the current answer. It can be changed until the
// question is advanced past.
func (p *Player) Select(option int) (Snapshot, error) {
	p.mu.Lock()
	if err := p.checkLiveLocked(); err != nil {
		p.mu.Unlock()
		return Snapshot{}, err
	}
	if option < 0 || option >= len(p.questions[p.index].Options) {
		p.mu.Unlock()
		return Snapshot{}, domain.ErrOptionOutOfRange
	}
	v := option
	p.selected = &v
	snap := p.changedLocked()
	p.mu.Unlock()

	p.notify(snap, nil)
	return snap, nil
}

// Next resolves the current question with whatever is selected and moves on,
// completing the attempt after the last question.
func (p *Player) Next() (Snapshot, error) {
	p.mu.Lock()
	if err := p.checkLiveLocked(); err != nil {
		p.mu.Unlock()
		return Snapshot{}, err
	}
	snap, result := p.advanceLocked()
	p.mu.Unlock()

	p.notify(snap, result)
	return snap, nil
}

// Stop cancels the pending countdown without completing the attempt. It
// reports whether a live attempt was stopped.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed || p.stopped {
		return false
	}
	p.stopped = true
	p.disarmLocked()
	return true
}

// Snapshot returns the current state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Result returns the graded result once the attempt has completed.
func (p *Player) Result() (domain.Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.completed
}

func (p *Player) checkLiveLocked() error {
	switch {
	case p.completed:
		return domain.ErrAttemptCompleted
	case p.stopped:
		return ErrStopped
	case !p.started:
		return ErrNotStarted
	}
	return nil
}

func (p *Player) onTick(gen uint64) {
	p.mu.Lock()
	// Ticks armed for an earlier question, or after completion or Stop, are stale.
	if gen != p.gen || p.completed || p.stopped {
		p.mu.Unlock()
		return
	}
	if p.remaining > 0 {
		p.remaining--
	}
	if p.remaining > 0 {
		p.armLocked()
		snap := p.changedLocked()
		p.mu.Unlock()
		p.notify(snap, nil)
		return
	}
	snap, result := p.advanceLocked()
	p.mu.Unlock()
	p.notify(snap, result)
}

func (p *Player) advanceLocked() (Snapshot, *domain.Result) {
	p.disarmLocked()

	q := p.questions[p.index]
	spent := q.TimeLimit - p.remaining
	if spent < 0 {
		spent = 0
	}
	p.resolved = append(p.resolved, domain.Resolution{
		Selected:  p.selected,
		TimeTaken: spent,
		At:        p.clock.Now(),
	})
	p.selected = nil

	if p.index < len(p.questions)-1 {
		p.index++
		p.remaining = p.questions[p.index].TimeLimit
		p.armLocked()
		return p.changedLocked(), nil
	}

	p.completed = true
	p.remaining = 0
	p.result = domain.Grade(p.attempt, p.questions, p.resolved, p.clock.Now())
	p.attempt = p.result.Attempt
	result := p.result
	return p.changedLocked(), &result
}

func (p *Player) armLocked() {
	p.gen++
	gen := p.gen
	p.timer = p.clock.AfterFunc(p.tick, func() { p.onTick(gen) })
}

func (p *Player) disarmLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) changedLocked() Snapshot {
	p.version++
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() Snapshot {
	snap := Snapshot{
		AttemptID: p.attempt.ID,
		QuizID:    p.attempt.QuizID,
		UserID:    p.attempt.UserID,
		Version:   p.version,
		Index:     p.index,
		Total:     len(p.questions),
		Remaining: p.remaining,
		Completed: p.completed,
	}
	if p.completed {
		result := p.result
		snap.Result = &result
		return snap
	}
	q := p.questions[p.index]
	snap.Question = &QuestionView{
		ID:        q.ID,
		Text:      q.Text,
		Options:   append([]string(nil), q.Options...),
		Points:    q.Points,
		TimeLimit: q.TimeLimit,
	}
	if p.selected != nil {
		v := *p.selected
		snap.Selected = &v
	}
	return snap
}

func (p *Player) notify(snap Snapshot, result *domain.Result) {
	if result != nil && p.hooks.OnComplete != nil {
		p.hooks.OnComplete(*result)
	}
	if p.hooks.OnChange != nil {
		p.hooks.OnChange(snap)
	}
}
