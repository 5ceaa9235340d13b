package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/AnshRaj112/vikas-backend/internal/services"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
	"github.com/AnshRaj112/vikas-backend/pkg/validator"
)

const maxJSONBody = 1 << 20

// Response is the envelope of every JSON response that is not a bare payload.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// writeServiceError maps a service error to its status and a client-safe message.
func writeServiceError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrDuplicateIdentity):
		return http.StatusConflict, "Username or email already exists"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid password"
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, services.ErrBadRequest), errors.Is(err, rank.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrUpstreamFailure):
		return http.StatusBadGateway, "Error talking to AI provider"
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service not configured"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// decodeJSON reads a JSON body into dst and runs struct validation. Any
// failure wraps services.ErrBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", services.ErrBadRequest)
	}
	if err := validator.ValidateStruct(dst); err != nil {
		return fmt.Errorf("%w: %v", services.ErrBadRequest, err)
	}
	return nil
}
