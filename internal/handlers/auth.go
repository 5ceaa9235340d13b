package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/middleware"
	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/internal/services"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required,max=128"`
	Class     string `json:"class" validate:"required,max=32"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CheckUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

type CheckUsernameResponse struct {
	Success   bool   `json:"success"`
	Available bool   `json:"available"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

type LoginResponse struct {
	Success bool                  `json:"success"`
	Token   string                `json:"token"`
	User    models.StudentProfile `json:"user"`
}

type AuthHandler struct {
	auth          *services.AuthService
	defaultAvatar string
	log           *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, defaultAvatar string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, defaultAvatar: defaultAvatar, log: log}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	_, err := h.auth.Register(r.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Class:     req.Class,
	})
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusInternalServerError {
			h.log.Error("registration failed", zap.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Registration successful"})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		if status, _ := statusFor(err); status == http.StatusInternalServerError {
			h.log.Error("login failed", zap.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   res.Token,
		User:    profileOf(res.Student, h.defaultAvatar),
	})
}

// CheckUsername handles POST /check-username.
func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	var req CheckUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	available, err := h.auth.UsernameAvailable(r.Context(), req.Username)
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusInternalServerError {
			h.log.Error("username check failed", zap.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	msg := "Username is already taken"
	if available {
		msg = "Username is available"
	}
	writeJSON(w, http.StatusOK, CheckUsernameResponse{
		Success:   true,
		Available: available,
		Username:  req.Username,
		Message:   msg,
	})
}

// Dashboard handles GET /dashboard-data behind the session guard.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token")
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Welcome, %s!", claims.Username),
	})
}
