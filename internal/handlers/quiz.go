package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/middleware"
	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/internal/services"
)

type CompleteQuizRequest struct {
	QuizName       string `json:"quizName" validate:"required,max=200"`
	Score          int    `json:"score" validate:"min=0"`
	TotalQuestions int    `json:"totalQuestions" validate:"min=1"`
	Difficulty     string `json:"difficulty" validate:"max=16"`
}

type CompleteQuizResponse struct {
	Success  bool                     `json:"success"`
	RPEarned int                      `json:"rpEarned"`
	Tier     string                   `json:"tier"`
	Student  models.StudentProfile    `json:"student"`
	Progress *models.StudentAggregate `json:"progress,omitempty"`
	Attempt  models.QuizAttempt       `json:"attempt"`
}

type QuizHandler struct {
	quiz     *services.QuizService
	progress *services.ProgressStore
	log      *zap.Logger
}

func NewQuizHandler(quiz *services.QuizService, progress *services.ProgressStore, log *zap.Logger) *QuizHandler {
	return &QuizHandler{quiz: quiz, progress: progress, log: log}
}

// Complete handles POST /api/quiz/complete.
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token")
		return
	}

	var req CompleteQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.quiz.Complete(r.Context(), claims.StudentID, services.QuizInput{
		QuizName:       req.QuizName,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Difficulty:     req.Difficulty,
	})
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusInternalServerError {
			h.log.Error("quiz completion failed", zap.String("student_id", claims.StudentID), zap.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompleteQuizResponse{
		Success:  true,
		RPEarned: res.RPEarned,
		Tier:     res.Student.Tier,
		Student:  res.Student.Profile(),
		Progress: res.Aggregate,
		Attempt:  res.Attempt,
	})
}

// Attempts handles GET /api/quiz/attempts?limit=N, newest first.
func (h *QuizHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token")
		return
	}

	attempts, err := h.progress.Attempts(r.Context(), claims.Username, queryLimit(r))
	if err != nil {
		h.log.Error("list attempts failed", zap.String("username", claims.Username), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"attempts": attempts,
	})
}

// Leaderboard handles GET /api/leaderboard?limit=N, highest rp first.
func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	students, err := h.progress.Leaderboard(r.Context(), queryLimit(r))
	if err != nil {
		h.log.Error("leaderboard failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"students": students,
	})
}

// queryLimit parses ?limit; invalid values fall back to the store default.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
