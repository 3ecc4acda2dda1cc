package memory

import (
	"time"

	"eduquiz-service/internal/domain"
)

// SampleQuizzes provides demo content for running without a database and for
// the seed command.
func SampleQuizzes() []domain.Quiz {
	base := time.Date(2024, 1, 13, 9, 0, 0, 0, time.UTC)
	return []domain.Quiz{
		{
			ID:           "quiz-general",
			Title:        "General Knowledge",
			Description:  "A two question warm-up",
			CreatorID:    "educator-demo",
			Code:         "GK2024",
			TimerMinutes: 5,
			IsActive:     true,
			IsPublished:  true,
			CreatedAt:    base,
			UpdatedAt:    base,
			Questions: []domain.Question{
				question("quiz-general", "gk-1", 0, "What is the capital of France?", 2, "London", "Berlin", "Paris", "Madrid"),
				question("quiz-general", "gk-2", 1, "Which planet is known as the Red Planet?", 1, "Venus", "Mars", "Jupiter", "Saturn"),
			},
		},
		{
			ID:           "quiz-css",
			Title:        "CSS Grid & Flexbox",
			Description:  "Modern CSS layout techniques",
			CreatorID:    "educator-demo",
			Code:         "CSS024",
			TimerMinutes: 15,
			IsActive:     true,
			IsPublished:  true,
			CreatedAt:    base.Add(24 * time.Hour),
			UpdatedAt:    base.Add(24 * time.Hour),
			Questions: []domain.Question{
				question("quiz-css", "css-1", 0, "Which property turns an element into a grid container?", 0, "display: grid", "grid: on", "layout: grid", "position: grid"),
				question("quiz-css", "css-2", 1, "Which flexbox property aligns items on the cross axis?", 3, "justify-content", "flex-wrap", "order", "align-items"),
			},
		},
		{
			ID:           "quiz-react",
			Title:        "React Components",
			Description:  "Understanding React component lifecycle",
			CreatorID:    "educator-demo",
			Code:         "RC2024",
			TimerMinutes: 20,
			IsActive:     false,
			IsPublished:  true,
			CreatedAt:    base.Add(48 * time.Hour),
			UpdatedAt:    base.Add(48 * time.Hour),
			Questions: []domain.Question{
				question("quiz-react", "rc-1", 0, "Which hook runs side effects after render?", 1, "useState", "useEffect", "useMemo", "useRef"),
			},
		},
		{
			ID:           "quiz-js",
			Title:        "JavaScript Fundamentals",
			CreatorID:    "educator-demo",
			Code:         "JS2024",
			TimerMinutes: 30,
			IsActive:     true,
			IsPublished:  true,
			CreatedAt:    base.Add(72 * time.Hour),
			UpdatedAt:    base.Add(72 * time.Hour),
			Questions: []domain.Question{
				question("quiz-js", "js-1", 0, "What does typeof null return?", 1, "null", "object", "undefined", "number"),
				question("quiz-js", "js-2", 1, "Which keyword declares a block-scoped constant?", 2, "var", "let", "const", "static"),
				question("quiz-js", "js-3", 2, "What is 0.1 + 0.2 === 0.3?", 1, "true", "false"),
			},
		},
	}
}

func question(quizID, id string, order int, text string, correct int, options ...string) domain.Question {
	return domain.Question{
		ID:            id,
		QuizID:        quizID,
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
		Points:        domain.DefaultPoints,
		TimeLimit:     domain.DefaultTimeLimit,
		OrderIndex:    order,
	}
}
