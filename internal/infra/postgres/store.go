package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eduquiz-service/internal/domain"
	"github.com/uptrace/bun"
)

// Store is the bun-backed system of record for quizzes and attempt results.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// CreateQuiz inserts the quiz and its questions in one transaction.
func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	qm, questions := fromQuiz(quiz)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&qm).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		if len(questions) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.findQuiz(ctx, "id = ?", quizID)
}

func (s *Store) GetQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return s.findQuiz(ctx, "quiz_code = ?", code)
}

func (s *Store) findQuiz(ctx context.Context, where string, arg interface{}) (domain.Quiz, error) {
	var qm quizModel
	err := s.db.NewSelect().Model(&qm).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}

	var questions []questionModel
	err = s.db.NewSelect().
		Model(&questions).
		Where("quiz_id = ?", qm.ID).
		Order("order_index ASC").
		Scan(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select questions: %w", err)
	}
	return qm.toDomain(questions), nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []quizModel
	err := s.db.NewSelect().
		Model(&quizzes).
		Order("created_at DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return []domain.Quiz{}, nil
	}

	ids := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	var questions []questionModel
	err = s.db.NewSelect().
		Model(&questions).
		Where("quiz_id IN (?)", bun.In(ids)).
		Order("quiz_id ASC", "order_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byQuiz := make(map[string][]questionModel, len(quizzes))
	for _, qs := range questions {
		byQuiz[qs.QuizID] = append(byQuiz[qs.QuizID], qs)
	}

	out := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q.toDomain(byQuiz[q.ID]))
	}
	return out, nil
}

func (s *Store) SetActive(ctx context.Context, quizID string, active bool) (domain.Quiz, error) {
	return s.setFlag(ctx, quizID, "is_active = ?", active)
}

func (s *Store) SetPublished(ctx context.Context, quizID string, published bool) (domain.Quiz, error) {
	return s.setFlag(ctx, quizID, "is_published = ?", published)
}

func (s *Store) setFlag(ctx context.Context, quizID, set string, value bool) (domain.Quiz, error) {
	res, err := s.db.NewUpdate().
		Model((*quizModel)(nil)).
		Set(set, value).
		Set("updated_at = ?", s.now().UTC()).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.GetQuiz(ctx, quizID)
}

// SaveResult writes the attempt, its responses and its score atomically.
func (s *Store) SaveResult(ctx context.Context, result domain.Result) error {
	attempt, responses, score := fromResult(result)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&attempt).Exec(ctx); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		if len(responses) > 0 {
			if _, err := tx.NewInsert().Model(&responses).Exec(ctx); err != nil {
				return fmt.Errorf("insert responses: %w", err)
			}
		}
		if _, err := tx.NewInsert().Model(&score).Exec(ctx); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
		return nil
	})
}

func (s *Store) GetResult(ctx context.Context, attemptID string) (domain.Result, error) {
	var attempt attemptModel
	err := s.db.NewSelect().Model(&attempt).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("select attempt: %w", err)
	}

	var responses []responseModel
	err = s.db.NewSelect().
		Model(&responses).
		Join("LEFT JOIN questions AS qn ON qn.id = rs.question_id").
		Where("rs.attempt_id = ?", attemptID).
		OrderExpr("qn.order_index ASC, rs.answered_at ASC, rs.id ASC").
		Scan(ctx)
	if err != nil {
		return domain.Result{}, fmt.Errorf("select responses: %w", err)
	}

	var score scoreModel
	err = s.db.NewSelect().Model(&score).Where("attempt_id = ?", attemptID).Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, fmt.Errorf("select score: %w", err)
	}
	return attempt.toDomain(responses, score), nil
}

func (s *Store) ListScores(ctx context.Context, filter domain.ScoreFilter) ([]domain.Score, error) {
	var scores []scoreModel
	q := s.db.NewSelect().Model(&scores).Order("created_at ASC")
	if filter.QuizID != "" {
		q = q.Where("quiz_id = ?", filter.QuizID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]domain.Score, 0, len(scores))
	for _, sc := range scores {
		out = append(out, sc.toDomain())
	}
	return out, nil
}
