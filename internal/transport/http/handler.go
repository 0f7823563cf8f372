package http

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

// Handler exposes the attempt use cases over REST. Caller identity arrives
// in the X-User-ID header, set by the authentication layer in front of this
// service.
type Handler struct {
	service *app.AttemptService
}

func NewHandler(service *app.AttemptService) *Handler {
	return &Handler{service: service}
}

// Register wires the routes into the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes/{quizID}/attempts", h.startAttempt)
	mux.HandleFunc("GET /attempts/{attemptID}", h.getAttempt)
	mux.HandleFunc("POST /attempts/{attemptID}/submit", h.submitAttempt)
	mux.HandleFunc("POST /answers/{answerID}/grade", h.gradeAnswer)
}

type answerSubmission struct {
	QuestionID      string   `json:"questionId"`
	SelectedOptions []string `json:"selectedOptions"`
	TextAnswer      string   `json:"textAnswer"`
}

type submitRequest struct {
	Answers []answerSubmission `json:"answers"`
}

type gradeRequest struct {
	Points float64 `json:"points"`
}

type attemptResponse struct {
	ID          string              `json:"id"`
	QuizID      string              `json:"quizId"`
	StudentID   string              `json:"studentId"`
	StartedAt   time.Time           `json:"startedAt"`
	SubmittedAt *time.Time          `json:"submittedAt,omitempty"`
	Score       float64             `json:"score"`
	State       domain.AttemptState `json:"state,omitempty"`
	Answers     []domain.Answer     `json:"answers,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	attempt, err := h.service.StartAttempt(r.Context(), callerID, r.PathValue("quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttemptResponse(attempt, nil, domain.StateInProgress))
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	attempt, answers, state, err := h.service.GetAttempt(r.Context(), callerID, r.PathValue("attemptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(attempt, answers, state))
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	submissions := make([]domain.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		if a.QuestionID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "answer missing questionId"})
			return
		}
		submissions = append(submissions, domain.AnswerSubmission{
			QuestionID:      a.QuestionID,
			SelectedOptions: a.SelectedOptions,
			TextAnswer:      a.TextAnswer,
		})
	}
	attempt, answers, err := h.service.ScoreAttempt(r.Context(), callerID, r.PathValue("attemptID"), submissions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(attempt, answers, ""))
}

func (h *Handler) gradeAnswer(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if math.IsNaN(req.Points) || math.IsInf(req.Points, 0) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "points must be a finite number"})
		return
	}
	attempt, err := h.service.GradeEssayAnswer(r.Context(), callerID, r.PathValue("answerID"), req.Points)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(attempt, nil, ""))
}

func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID := r.Header.Get("X-User-ID")
	if callerID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing X-User-ID header"})
		return "", false
	}
	return callerID, true
}

func toAttemptResponse(attempt domain.Attempt, answers []domain.Answer, state domain.AttemptState) attemptResponse {
	return attemptResponse{
		ID:          attempt.ID,
		QuizID:      attempt.QuizID,
		StudentID:   attempt.StudentID,
		StartedAt:   attempt.StartedAt,
		SubmittedAt: attempt.SubmittedAt,
		Score:       attempt.Score,
		State:       state,
		Answers:     answers,
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	default:
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
