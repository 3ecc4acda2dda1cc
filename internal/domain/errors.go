package domain

import (
	"errors"
	"strings"
)

var (
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizInactive is returned when starting a quiz whose active flag is off.
	ErrQuizInactive = errors.New("quiz is not active")
	// ErrNoQuestions is returned when a quiz has nothing to play.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrInvalidQuestion flags a question with no options or an out-of-range correct index.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrAttemptNotFound is returned for unknown or expired attempt ids.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted is returned when acting on a finished attempt.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrAttemptStarted is returned when starting a player twice.
	ErrAttemptStarted = errors.New("attempt already started")
	// ErrOptionOutOfRange indicates a selected option index is not valid for the question.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrDraftQuestionNotFound indicates a builder edit referenced an unknown draft question.
	ErrDraftQuestionNotFound = errors.New("draft question not found")
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a quiz draft fails authoring rules.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid quiz: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
