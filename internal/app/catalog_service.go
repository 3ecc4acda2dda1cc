package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/metrics"
	"github.com/google/uuid"
)

// QuizStore is the system of record for quizzes and their questions.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
	// ListQuizzes returns every quiz, newest first.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	SetActive(ctx context.Context, quizID string, active bool) (domain.Quiz, error)
	SetPublished(ctx context.Context, quizID string, published bool) (domain.Quiz, error)
}

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 5
)

// CatalogService covers the builder and the educator dashboard.
type CatalogService struct {
	quizzes QuizStore
	cache   QuizRepository
	results ResultStore
	clock   clock.Clock
}

func NewCatalogService(quizzes QuizStore, cache QuizRepository, results ResultStore, clk clock.Clock) *CatalogService {
	if clk == nil {
		clk = clock.Real()
	}
	return &CatalogService{quizzes: quizzes, cache: cache, results: results, clock: clk}
}

// CreateQuiz validates a builder draft and stores it with a fresh join code.
func (s *CatalogService) CreateQuiz(ctx context.Context, creatorID string, draft domain.QuizDraft) (domain.Quiz, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := draft.ToQuiz(uuid.NewString(), creatorID, code, s.clock.Now().UTC())
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	metrics.QuizzesCreated.Inc()
	return quiz, nil
}

// ListQuizzes returns quizzes ordered by creation time, newest first.
func (s *CatalogService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

func (s *CatalogService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// GetQuizByCode looks a quiz up by its join code, ignoring case.
func (s *CatalogService) GetQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return s.quizzes.GetQuizByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// ToggleActive flips the quiz's active flag.
func (s *CatalogService) ToggleActive(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	updated, err := s.quizzes.SetActive(ctx, quizID, !quiz.IsActive)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.cache.Invalidate(ctx, quizID)
	return updated, nil
}

func (s *CatalogService) SetPublished(ctx context.Context, quizID string, published bool) (domain.Quiz, error) {
	updated, err := s.quizzes.SetPublished(ctx, quizID, published)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.cache.Invalidate(ctx, quizID)
	return updated, nil
}

// Stats aggregates the numbers shown on the educator dashboard.
func (s *CatalogService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	scores, err := s.results.ListScores(ctx, domain.ScoreFilter{})
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := domain.DashboardStats{TotalQuizzes: len(quizzes), Attempts: len(scores)}
	for _, q := range quizzes {
		if q.IsActive {
			stats.ActiveQuizzes++
		}
	}
	users := make(map[string]struct{})
	sum := 0.0
	for _, sc := range scores {
		users[sc.UserID] = struct{}{}
		sum += sc.Percentage
	}
	stats.Participants = len(users)
	if len(scores) > 0 {
		stats.AveragePercentage = sum / float64(len(scores))
	}
	return stats, nil
}

func (s *CatalogService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		_, err = s.quizzes.GetQuizByCode(ctx, code)
		if errors.Is(err, domain.ErrQuizNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a unique quiz code after %d attempts", codeAttempts)
}

func newCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
