package domain

import "time"

// PlaceholderDescription is shown for quizzes created without a description.
const PlaceholderDescription = "No description provided"

// Quiz is a named collection of ordered questions.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	CreatorID    string     `json:"creator_id"`
	Code         string     `json:"quiz_code"`
	TimerMinutes int        `json:"timer_minutes"`
	IsActive     bool       `json:"is_active"`
	IsPublished  bool       `json:"is_published"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Questions    []Question `json:"questions,omitempty"`
}

// DisplayDescription returns the description or a placeholder when empty.
func (q Quiz) DisplayDescription() string {
	if q.Description == "" {
		return PlaceholderDescription
	}
	return q.Description
}

// TotalPoints sums the point values of all questions.
func (q Quiz) TotalPoints() int {
	return TotalPoints(q.Questions)
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quiz_id"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Points        int      `json:"points"`
	TimeLimit     int      `json:"time_limit"` // seconds
	OrderIndex    int      `json:"order_index"`
}

// Attempt is one participant's play-through of a quiz.
type Attempt struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quiz_id"`
	UserID      string     `json:"user_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	TimeTaken   int        `json:"time_taken"`
}

// Response is the outcome of one question within one attempt.
// SelectedAnswer is nil when the question timed out without a selection.
type Response struct {
	ID             string    `json:"id"`
	AttemptID      string    `json:"attempt_id"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer *int      `json:"selected_answer,omitempty"`
	IsCorrect      bool      `json:"is_correct"`
	TimeTaken      int       `json:"time_taken"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// Score aggregates the outcome of an attempt.
type Score struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quiz_id"`
	UserID      string    `json:"user_id"`
	AttemptID   string    `json:"attempt_id"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"total_points"`
	Percentage  float64   `json:"percentage"`
	TimeTaken   int       `json:"time_taken"`
	CreatedAt   time.Time `json:"created_at"`
}

// Result bundles the records produced when an attempt completes.
type Result struct {
	Attempt   Attempt    `json:"attempt"`
	Responses []Response `json:"responses"`
	Score     Score      `json:"score"`
}

// LeaderboardEntry is one ranked row of a quiz leaderboard.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"user_id"`
	AttemptID   string    `json:"attempt_id"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"total_points"`
	Percentage  float64   `json:"percentage"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quiz_id"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// HistoryEntry summarises one completed attempt for a participant.
type HistoryEntry struct {
	AttemptID     string    `json:"attempt_id"`
	QuizID        string    `json:"quiz_id"`
	QuizTitle     string    `json:"quiz_title"`
	Score         int       `json:"score"`
	TotalPoints   int       `json:"total_points"`
	Percentage    float64   `json:"percentage"`
	QuestionCount int       `json:"question_count"`
	TimeTaken     int       `json:"time_taken"`
	CompletedAt   time.Time `json:"completed_at"`
	Status        string    `json:"status"`
}

// DashboardStats feeds the educator dashboard cards.
type DashboardStats struct {
	TotalQuizzes      int     `json:"total_quizzes"`
	ActiveQuizzes     int     `json:"active_quizzes"`
	Participants      int     `json:"participants"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"average_percentage"`
}

// ScoreFilter narrows score listings. Empty fields match everything.
type ScoreFilter struct {
	QuizID string
	UserID string
}

// Matches reports whether s satisfies the filter.
func (f ScoreFilter) Matches(s Score) bool {
	return (f.QuizID == "" || f.QuizID == s.QuizID) && (f.UserID == "" || f.UserID == s.UserID)
}
