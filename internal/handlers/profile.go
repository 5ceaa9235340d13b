package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/middleware"
	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/internal/services"
)

type WatchedVideoRequest struct {
	VideoID string `json:"videoId" validate:"required,max=128"`
}

// ProfileHandler serves the signed-in student's own record.
type ProfileHandler struct {
	students services.StudentStore
	// uploader is nil when Cloudinary is not configured.
	uploader      services.AvatarUploader
	defaultAvatar string
	log           *zap.Logger
}

func NewProfileHandler(students services.StudentStore, uploader services.AvatarUploader, defaultAvatar string, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{students: students, uploader: uploader, defaultAvatar: defaultAvatar, log: log}
}

// profileOf projects st for clients, falling back to defaultAvatar.
func profileOf(st *models.Student, defaultAvatar string) models.StudentProfile {
	profile := st.Profile()
	if profile.Avatar == "" {
		profile.Avatar = defaultAvatar
	}
	return profile
}

// Profile handles GET /api/profile.
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token")
		return
	}

	st, err := h.students.FindByID(r.Context(), claims.StudentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    profileOf(st, h.defaultAvatar),
	})
}

// WatchedVideo handles POST /api/videos/watched. Repeated ids are stored once.
func (h *ProfileHandler) WatchedVideo(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token")
		return
	}

	var req WatchedVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.students.AddWatchedVideo(r.Context(), claims.StudentID, strings.TrimSpace(req.VideoID)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Video marked as watched"})
}
