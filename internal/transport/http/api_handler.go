package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/player"
	"github.com/gorilla/mux"
)

// APIHandler serves the JSON API for the builder, dashboard and play pages.
type APIHandler struct {
	catalog *app.CatalogService
	play    *app.PlayService
	results *app.ResultsService
}

func NewAPIHandler(catalog *app.CatalogService, play *app.PlayService, results *app.ResultsService) *APIHandler {
	return &APIHandler{catalog: catalog, play: play, results: results}
}

// Register mounts the API routes under /api.
func (h *APIHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/quizzes", h.listQuizzes).Methods(http.MethodGet)
	api.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/code/{code}", h.quizByCode).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}/toggle", h.toggleQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/publish", h.publishQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/leaderboard", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/history", h.history).Methods(http.MethodGet)

	api.HandleFunc("/attempts", h.startAttempt).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}", h.attemptState).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{id}", h.abandonAttempt).Methods(http.MethodDelete)
	api.HandleFunc("/attempts/{id}/select", h.selectOption).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/next", h.nextQuestion).Methods(http.MethodPost)
}

type quizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Code          string    `json:"quiz_code"`
	TimerMinutes  int       `json:"timer_minutes"`
	IsActive      bool      `json:"is_active"`
	IsPublished   bool      `json:"is_published"`
	QuestionCount int       `json:"question_count"`
	TotalPoints   int       `json:"total_points"`
	CreatedAt     time.Time `json:"created_at"`
}

type questionView struct {
	ID            string   `json:"id"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
	Points        int      `json:"points"`
	TimeLimit     int      `json:"time_limit"`
	OrderIndex    int      `json:"order_index"`
}

type quizDetail struct {
	quizSummary
	CreatorID string         `json:"creator_id"`
	Questions []questionView `json:"questions"`
}

func summarize(q domain.Quiz) quizSummary {
	return quizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.DisplayDescription(),
		Code:          q.Code,
		TimerMinutes:  q.TimerMinutes,
		IsActive:      q.IsActive,
		IsPublished:   q.IsPublished,
		QuestionCount: len(q.Questions),
		TotalPoints:   q.TotalPoints(),
		CreatedAt:     q.CreatedAt,
	}
}

func detail(q domain.Quiz, reveal bool) quizDetail {
	out := quizDetail{quizSummary: summarize(q), CreatorID: q.CreatorID, Questions: make([]questionView, 0, len(q.Questions))}
	for _, qs := range q.Questions {
		view := questionView{
			ID:         qs.ID,
			Text:       qs.Text,
			Options:    qs.Options,
			Points:     qs.Points,
			TimeLimit:  qs.TimeLimit,
			OrderIndex: qs.OrderIndex,
		}
		if reveal {
			correct := qs.CorrectAnswer
			view.CorrectAnswer = &correct
		}
		out.Questions = append(out.Questions, view)
	}
	return out
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]quizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, summarize(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	creatorID := r.Header.Get("X-User-ID")
	if creatorID == "" {
		writeMessage(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	var draft domain.QuizDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid quiz payload")
		return
	}
	quiz, err := h.catalog.CreateQuiz(r.Context(), creatorID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("quiz %s created by %s with code %s", quiz.ID, creatorID, quiz.Code)
	writeJSON(w, http.StatusCreated, detail(quiz, true))
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	reveal, _ := strconv.ParseBool(r.URL.Query().Get("reveal"))
	writeJSON(w, http.StatusOK, detail(quiz, reveal))
}

func (h *APIHandler) quizByCode(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.GetQuizByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail(quiz, false))
}

func (h *APIHandler) toggleQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.ToggleActive(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(quiz))
}

func (h *APIHandler) publishQuiz(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Published bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid publish payload")
		return
	}
	quiz, err := h.catalog.SetPublished(r.Context(), mux.Vars(r)["id"], body.Published)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(quiz))
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	lb, err := h.results.Leaderboard(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *APIHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.results.History(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) startAttempt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuizID string `json:"quiz_id"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.QuizID == "" || body.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "quiz_id and user_id are required")
		return
	}
	snap, err := h.play.Start(r.Context(), body.QuizID, body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *APIHandler) attemptState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.play.State(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) selectOption(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Option *int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Option == nil {
		writeMessage(w, http.StatusBadRequest, "option is required")
		return
	}
	snap, err := h.play.Select(r.Context(), mux.Vars(r)["id"], *body.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	snap, err := h.play.Next(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) abandonAttempt(w http.ResponseWriter, r *http.Request) {
	h.play.Abandon(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: "invalid quiz", Fields: verr.Fields})
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("api error: %v", err)
		writeMessage(w, status, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuizInactive),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrAttemptCompleted),
		errors.Is(err, player.ErrStopped),
		errors.Is(err, player.ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOptionOutOfRange), errors.Is(err, domain.ErrInvalidQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
