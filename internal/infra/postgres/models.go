package postgres

import (
	"time"

	"eduquiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title,notnull"`
	Description  string    `bun:"description"`
	CreatorID    string    `bun:"creator_id"`
	Code         string    `bun:"quiz_code,notnull"`
	TimerMinutes int       `bun:"timer_minutes,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	IsPublished  bool      `bun:"is_published,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID            string   `bun:"id,pk"`
	QuizID        string   `bun:"quiz_id,notnull"`
	Text          string   `bun:"question_text,notnull"`
	Options       []string `bun:"options,type:jsonb,notnull"`
	CorrectAnswer int      `bun:"correct_answer,notnull"`
	Points        int      `bun:"points,notnull"`
	TimeLimit     int      `bun:"time_limit,notnull"`
	OrderIndex    int      `bun:"order_index,notnull"`
}

type attemptModel struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID          string     `bun:"id,pk"`
	QuizID      string     `bun:"quiz_id,notnull"`
	UserID      string     `bun:"user_id,notnull"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
	IsCompleted bool       `bun:"is_completed,notnull"`
	TimeTaken   int        `bun:"time_taken,notnull"`
}

type responseModel struct {
	bun.BaseModel `bun:"table:responses,alias:rs"`

	ID             string    `bun:"id,pk"`
	AttemptID      string    `bun:"attempt_id,notnull"`
	QuestionID     string    `bun:"question_id,notnull"`
	SelectedAnswer *int      `bun:"selected_answer"`
	IsCorrect      bool      `bun:"is_correct,notnull"`
	TimeTaken      int       `bun:"time_taken,notnull"`
	AnsweredAt     time.Time `bun:"answered_at,notnull"`
}

type scoreModel struct {
	bun.BaseModel `bun:"table:scores,alias:sc"`

	ID          string    `bun:"id,pk"`
	QuizID      string    `bun:"quiz_id,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	AttemptID   string    `bun:"attempt_id,notnull"`
	Score       int       `bun:"score,notnull"`
	TotalPoints int       `bun:"total_points,notnull"`
	Percentage  float64   `bun:"percentage,notnull"`
	TimeTaken   int       `bun:"time_taken,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func fromQuiz(q domain.Quiz) (quizModel, []questionModel) {
	quiz := quizModel{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		CreatorID:    q.CreatorID,
		Code:         q.Code,
		TimerMinutes: q.TimerMinutes,
		IsActive:     q.IsActive,
		IsPublished:  q.IsPublished,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
	questions := make([]questionModel, 0, len(q.Questions))
	for _, qs := range q.Questions {
		questions = append(questions, questionModel{
			ID:            qs.ID,
			QuizID:        q.ID,
			Text:          qs.Text,
			Options:       qs.Options,
			CorrectAnswer: qs.CorrectAnswer,
			Points:        qs.Points,
			TimeLimit:     qs.TimeLimit,
			OrderIndex:    qs.OrderIndex,
		})
	}
	return quiz, questions
}

func (m quizModel) toDomain(questions []questionModel) domain.Quiz {
	quiz := domain.Quiz{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		CreatorID:    m.CreatorID,
		Code:         m.Code,
		TimerMinutes: m.TimerMinutes,
		IsActive:     m.IsActive,
		IsPublished:  m.IsPublished,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, qs := range questions {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            qs.ID,
			QuizID:        qs.QuizID,
			Text:          qs.Text,
			Options:       qs.Options,
			CorrectAnswer: qs.CorrectAnswer,
			Points:        qs.Points,
			TimeLimit:     qs.TimeLimit,
			OrderIndex:    qs.OrderIndex,
		})
	}
	return quiz
}

func fromResult(r domain.Result) (attemptModel, []responseModel, scoreModel) {
	a := r.Attempt
	attempt := attemptModel{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserID:      a.UserID,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		IsCompleted: a.IsCompleted,
		TimeTaken:   a.TimeTaken,
	}
	responses := make([]responseModel, 0, len(r.Responses))
	for _, rs := range r.Responses {
		responses = append(responses, responseModel{
			ID:             rs.ID,
			AttemptID:      rs.AttemptID,
			QuestionID:     rs.QuestionID,
			SelectedAnswer: rs.SelectedAnswer,
			IsCorrect:      rs.IsCorrect,
			TimeTaken:      rs.TimeTaken,
			AnsweredAt:     rs.AnsweredAt,
		})
	}
	sc := r.Score
	score := scoreModel{
		ID:          sc.ID,
		QuizID:      sc.QuizID,
		UserID:      sc.UserID,
		AttemptID:   sc.AttemptID,
		Score:       sc.Score,
		TotalPoints: sc.TotalPoints,
		Percentage:  sc.Percentage,
		TimeTaken:   sc.TimeTaken,
		CreatedAt:   sc.CreatedAt,
	}
	return attempt, responses, score
}

func (m attemptModel) toDomain(responses []responseModel, score scoreModel) domain.Result {
	result := domain.Result{
		Attempt: domain.Attempt{
			ID:          m.ID,
			QuizID:      m.QuizID,
			UserID:      m.UserID,
			StartedAt:   m.StartedAt,
			CompletedAt: m.CompletedAt,
			IsCompleted: m.IsCompleted,
			TimeTaken:   m.TimeTaken,
		},
		Responses: make([]domain.Response, 0, len(responses)),
		Score:     score.toDomain(),
	}
	for _, rs := range responses {
		result.Responses = append(result.Responses, domain.Response{
			ID:             rs.ID,
			AttemptID:      rs.AttemptID,
			QuestionID:     rs.QuestionID,
			SelectedAnswer: rs.SelectedAnswer,
			IsCorrect:      rs.IsCorrect,
			TimeTaken:      rs.TimeTaken,
			AnsweredAt:     rs.AnsweredAt,
		})
	}
	return result
}

func (m scoreModel) toDomain() domain.Score {
	return domain.Score{
		ID:          m.ID,
		QuizID:      m.QuizID,
		UserID:      m.UserID,
		AttemptID:   m.AttemptID,
		Score:       m.Score,
		TotalPoints: m.TotalPoints,
		Percentage:  m.Percentage,
		TimeTaken:   m.TimeTaken,
		CreatedAt:   m.CreatedAt,
	}
}
