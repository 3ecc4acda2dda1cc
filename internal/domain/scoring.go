package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TotalPoints sums the point values of the given questions.
func TotalPoints(questions []Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// Percentage returns 100 × score / total, or 0 when total is zero.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// IsCorrect reports whether selected matches the question's correct option.
// A missing selection is never correct.
func (q Question) IsCorrect(selected *int) bool {
	return selected != nil && *selected == q.CorrectAnswer
}

// Check rejects questions the player cannot drive.
func (q Question) Check() error {
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %q has no options", ErrInvalidQuestion, q.ID)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: question %q correct answer %d outside %d options", ErrInvalidQuestion, q.ID, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// Resolution records how one question was resolved during play.
type Resolution struct {
	Selected  *int
	TimeTaken int
	At        time.Time
}

// Grade turns a completed attempt into its persisted records. resolutions is
// indexed like questions; missing entries count as unanswered.
func Grade(attempt Attempt, questions []Question, resolutions []Resolution, completedAt time.Time) Result {
	responses := make([]Response, 0, len(questions))
	earned := 0
	for i, q := range questions {
		res := Resolution{At: completedAt}
		if i < len(resolutions) {
			res = resolutions[i]
		}
		var selected *int
		if res.Selected != nil {
			v := *res.Selected
			selected = &v
		}
		correct := q.IsCorrect(selected)
		if correct {
			earned += q.Points
		}
		responses = append(responses, Response{
			ID:             uuid.NewString(),
			AttemptID:      attempt.ID,
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			IsCorrect:      correct,
			TimeTaken:      res.TimeTaken,
			AnsweredAt:     res.At,
		})
	}

	total := TotalPoints(questions)
	elapsed := int(completedAt.Sub(attempt.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	done := completedAt
	attempt.CompletedAt = &done
	attempt.IsCompleted = true
	attempt.TimeTaken = elapsed

	return Result{
		Attempt:   attempt,
		Responses: responses,
		Score: Score{
			ID:          uuid.NewString(),
			QuizID:      attempt.QuizID,
			UserID:      attempt.UserID,
			AttemptID:   attempt.ID,
			Score:       earned,
			TotalPoints: total,
			Percentage:  Percentage(earned, total),
			TimeTaken:   elapsed,
			CreatedAt:   completedAt,
		},
	}
}
