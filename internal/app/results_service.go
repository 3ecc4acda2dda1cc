package app

import (
	"context"
	"errors"
	"sort"

	"eduquiz-service/internal/clock"
	"eduquiz-service/internal/domain"
)

const untitledQuiz = "Untitled quiz"

// ResultsService builds the history and leaderboard views over stored scores.
type ResultsService struct {
	quizzes QuizStore
	results ResultStore
	clock   clock.Clock
}

func NewResultsService(quizzes QuizStore, results ResultStore, clk clock.Clock) *ResultsService {
	if clk == nil {
		clk = clock.Real()
	}
	return &ResultsService{quizzes: quizzes, results: results, clock: clk}
}

// Leaderboard ranks each participant's best attempt on a quiz. A limit of
// zero or less returns every participant.
func (s *ResultsService) Leaderboard(ctx context.Context, quizID string, limit int) (domain.Leaderboard, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Leaderboard{}, err
	}
	scores, err := s.results.ListScores(ctx, domain.ScoreFilter{QuizID: quizID})
	if err != nil {
		return domain.Leaderboard{}, err
	}

	best := make(map[string]domain.Score)
	for _, sc := range scores {
		if cur, ok := best[sc.UserID]; !ok || ranksBefore(sc, cur) {
			best[sc.UserID] = sc
		}
	}
	ranked := make([]domain.Score, 0, len(best))
	for _, sc := range best {
		ranked = append(ranked, sc)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranksBefore(ranked[i], ranked[j]) })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, sc := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      sc.UserID,
			AttemptID:   sc.AttemptID,
			Score:       sc.Score,
			TotalPoints: sc.TotalPoints,
			Percentage:  sc.Percentage,
			TimeTaken:   sc.TimeTaken,
			CompletedAt: sc.CreatedAt,
		})
	}
	return domain.Leaderboard{QuizID: quizID, Entries: entries, UpdatedAt: s.clock.Now()}, nil
}

// ranksBefore orders by percentage desc, then faster finish, then who got
// there first, then user id.
func ranksBefore(a, b domain.Score) bool {
	if a.Percentage != b.Percentage {
		return a.Percentage > b.Percentage
	}
	if a.TimeTaken != b.TimeTaken {
		return a.TimeTaken < b.TimeTaken
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.UserID < b.UserID
}

// History lists a participant's completed attempts, newest first.
func (s *ResultsService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	scores, err := s.results.ListScores(ctx, domain.ScoreFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].CreatedAt.After(scores[j].CreatedAt) })

	quizzes := make(map[string]domain.Quiz)
	entries := make([]domain.HistoryEntry, 0, len(scores))
	for _, sc := range scores {
		quiz, ok := quizzes[sc.QuizID]
		if !ok {
			quiz, err = s.quizzes.GetQuiz(ctx, sc.QuizID)
			if err != nil && !errors.Is(err, domain.ErrQuizNotFound) {
				return nil, err
			}
			quizzes[sc.QuizID] = quiz
		}
		title := quiz.Title
		if title == "" {
			title = untitledQuiz
		}
		entries = append(entries, domain.HistoryEntry{
			AttemptID:     sc.AttemptID,
			QuizID:        sc.QuizID,
			QuizTitle:     title,
			Score:         sc.Score,
			TotalPoints:   sc.TotalPoints,
			Percentage:    sc.Percentage,
			QuestionCount: len(quiz.Questions),
			TimeTaken:     sc.TimeTaken,
			CompletedAt:   sc.CreatedAt,
			Status:        "completed",
		})
	}
	return entries, nil
}
