package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"eduquiz-service/internal/domain"
)

// Store is an in-memory system of record for quizzes and results, used when
// no database is configured and in tests.
type Store struct {
	now func() time.Time

	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	results map[string]domain.Result
}

func NewStore(seed ...domain.Quiz) *Store {
	s := &Store{
		now:     time.Now,
		quizzes: make(map[string]domain.Quiz),
		results: make(map[string]domain.Result),
	}
	for _, q := range seed {
		s.quizzes[q.ID] = cloneQuiz(q)
	}
	return s
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

// LoadQuiz satisfies QuizLoader.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.GetQuiz(ctx, quizID)
}

func (s *Store) GetQuizByCode(_ context.Context, code string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, quiz := range s.quizzes {
		if quiz.Code == code {
			return cloneQuiz(quiz), nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, cloneQuiz(quiz))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SetActive(_ context.Context, quizID string, active bool) (domain.Quiz, error) {
	return s.update(quizID, func(q *domain.Quiz) { q.IsActive = active })
}

func (s *Store) SetPublished(_ context.Context, quizID string, published bool) (domain.Quiz, error) {
	return s.update(quizID, func(q *domain.Quiz) { q.IsPublished = published })
}

func (s *Store) update(quizID string, apply func(q *domain.Quiz)) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	apply(&quiz)
	quiz.UpdatedAt = s.now().UTC()
	s.quizzes[quizID] = quiz
	return cloneQuiz(quiz), nil
}

func (s *Store) SaveResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Attempt.ID] = result
	return nil
}

func (s *Store) GetResult(_ context.Context, attemptID string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[attemptID]
	if !ok {
		return domain.Result{}, domain.ErrAttemptNotFound
	}
	return result, nil
}

func (s *Store) ListScores(_ context.Context, filter domain.ScoreFilter) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Score, 0)
	for _, result := range s.results {
		if filter.Matches(result.Score) {
			out = append(out, result.Score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		questions[i] = question
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].OrderIndex < questions[j].OrderIndex })
	q.Questions = questions
	return q
}
