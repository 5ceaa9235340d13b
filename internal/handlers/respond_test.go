package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AnshRaj112/vikas-backend/internal/services"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"duplicate", fmt.Errorf("insert: %w", services.ErrDuplicateIdentity), http.StatusConflict, "Username or email already exists"},
		{"not found", services.ErrNotFound, http.StatusNotFound, "Not found"},
		{"credential", services.ErrInvalidCredential, http.StatusUnauthorized, "Invalid password"},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"bad request keeps detail", fmt.Errorf("%w: email is required", services.ErrBadRequest), http.StatusBadRequest, "bad request: email is required"},
		{"invalid rp input", rank.ErrInvalidInput, http.StatusBadRequest, rank.ErrInvalidInput.Error()},
		{"upstream", fmt.Errorf("%w: status 500", services.ErrUpstreamFailure), http.StatusBadGateway, "Error talking to AI provider"},
		{"unavailable", services.ErrUnavailable, http.StatusServiceUnavailable, "Service not configured"},
		{"other", errors.New("mongo: connection reset"), http.StatusInternalServerError, "Server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var body LoginRequest

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":`))
	err := decodeJSON(rec, req, &body)
	assert.ErrorIs(t, err, services.ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"asha"}`))
	err = decodeJSON(rec, req, &body)
	assert.ErrorIs(t, err, services.ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"asha","password":"pw123456"}`))
	assert.NoError(t, decodeJSON(rec, req, &body))
	assert.Equal(t, "asha", body.Username)
}
