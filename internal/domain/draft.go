package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Builder defaults for new drafts and questions.
const (
	DefaultTimerMinutes = 30
	DefaultOptionCount  = 4
	DefaultPoints       = 1
	DefaultTimeLimit    = 30
)

// DraftQuestion is a question being edited in the builder. ID is local to the draft.
type DraftQuestion struct {
	ID            string   `json:"id"`
	Text          string   `json:"question_text" validate:"required,max=1000"`
	Options       []string `json:"options" validate:"min=2,max=10,dive,required,max=500"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0"`
	Points        int      `json:"points" validate:"min=1,max=10"`
	TimeLimit     int      `json:"time_limit" validate:"min=10,max=300"`
}

// QuizDraft is an unsaved quiz.
type QuizDraft struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	TimerMinutes int             `json:"timer_minutes" validate:"min=1,max=180"`
	Questions    []DraftQuestion `json:"questions" validate:"min=1,dive"`
}

// NewQuizDraft returns an empty draft with the default duration.
func NewQuizDraft() *QuizDraft {
	return &QuizDraft{TimerMinutes: DefaultTimerMinutes}
}

// AddQuestion appends a blank question and returns it.
func (d *QuizDraft) AddQuestion() DraftQuestion {
	q := DraftQuestion{
		ID:            uuid.NewString(),
		Options:       make([]string, DefaultOptionCount),
		CorrectAnswer: 0,
		Points:        DefaultPoints,
		TimeLimit:     DefaultTimeLimit,
	}
	d.Questions = append(d.Questions, q)
	return q
}

// UpdateQuestion applies edit to the draft question with the given id.
func (d *QuizDraft) UpdateQuestion(id string, edit func(q *DraftQuestion)) error {
	i := d.indexOf(id)
	if i < 0 {
		return ErrDraftQuestionNotFound
	}
	edit(&d.Questions[i])
	return nil
}

// UpdateOption sets the text of one option.
func (d *QuizDraft) UpdateOption(id string, option int, text string) error {
	i := d.indexOf(id)
	if i < 0 {
		return ErrDraftQuestionNotFound
	}
	if option < 0 || option >= len(d.Questions[i].Options) {
		return ErrOptionOutOfRange
	}
	d.Questions[i].Options[option] = text
	return nil
}

// RemoveQuestion deletes a question, keeping the order of the rest.
func (d *QuizDraft) RemoveQuestion(id string) error {
	i := d.indexOf(id)
	if i < 0 {
		return ErrDraftQuestionNotFound
	}
	d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
	return nil
}

func (d *QuizDraft) indexOf(id string) int {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Normalize trims surrounding whitespace from free-text fields.
func (d *QuizDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	for i := range d.Questions {
		q := &d.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
		}
	}
}

// ToQuiz converts a validated draft into a quiz. Question ids are freshly
// assigned and order follows draft position.
func (d *QuizDraft) ToQuiz(quizID, creatorID, code string, now time.Time) Quiz {
	questions := make([]Question, 0, len(d.Questions))
	for i, dq := range d.Questions {
		options := make([]string, len(dq.Options))
		copy(options, dq.Options)
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			QuizID:        quizID,
			Text:          dq.Text,
			Options:       options,
			CorrectAnswer: dq.CorrectAnswer,
			Points:        dq.Points,
			TimeLimit:     dq.TimeLimit,
			OrderIndex:    i,
		})
	}
	return Quiz{
		ID:           quizID,
		Title:        d.Title,
		Description:  d.Description,
		CreatorID:    creatorID,
		Code:         code,
		TimerMinutes: d.TimerMinutes,
		IsActive:     true,
		IsPublished:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
		Questions:    questions,
	}
}
